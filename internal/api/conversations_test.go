// ABOUTME: Tests for dashboard conversation endpoints
// ABOUTME: Covers listing with nested stacks, transcripts, and cross-tenant 404s

package api

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// startConversation opens a widget conversation and returns its id and password.
func startConversation(t *testing.T, e *testEnv, stackID string) (id, password string) {
	t.Helper()

	rec := e.do(t, http.MethodPost, "/v1/client/conversations", "", map[string]any{
		"stack_id": stackID,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var conv struct {
		ID       string `json:"id"`
		Password string `json:"password"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &conv))
	return conv.ID, conv.Password
}

func TestConversationList_NestsStack(t *testing.T) {
	e := newTestEnv(t)
	_, token := e.signup(t, "owner@example.com", "hunter2")
	stackID := e.createStack(t, token, "FAQ")
	convID, _ := startConversation(t, e, stackID)

	rec := e.do(t, http.MethodGet, "/v1/dashboard/conversations", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var convs []struct {
		ID    string `json:"id"`
		Stack struct {
			ID   string  `json:"id"`
			Name *string `json:"name"`
		} `json:"stack"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &convs))
	require.Len(t, convs, 1)
	assert.Equal(t, convID, convs[0].ID)
	assert.Equal(t, stackID, convs[0].Stack.ID)
	require.NotNil(t, convs[0].Stack.Name)
	assert.Equal(t, "FAQ", *convs[0].Stack.Name)
}

func TestConversationList_OnlyOwn(t *testing.T) {
	e := newTestEnv(t)
	_, ownerToken := e.signup(t, "owner@example.com", "hunter2")
	_, otherToken := e.signup(t, "other@example.com", "hunter2")

	mine := e.createStack(t, ownerToken, "Mine")
	theirs := e.createStack(t, otherToken, "Theirs")
	myConv, _ := startConversation(t, e, mine)
	startConversation(t, e, theirs)

	rec := e.do(t, http.MethodGet, "/v1/dashboard/conversations", ownerToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var convs []struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &convs))
	require.Len(t, convs, 1)
	assert.Equal(t, myConv, convs[0].ID)
}

func TestConversationDetail(t *testing.T) {
	e := newTestEnv(t)
	_, token := e.signup(t, "owner@example.com", "hunter2")
	stackID := e.createStack(t, token, "FAQ")
	convID, password := startConversation(t, e, stackID)

	rec := e.do(t, http.MethodGet, "/v1/dashboard/conversations/"+convID, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var conv struct {
		ID       string `json:"id"`
		StackID  string `json:"stack_id"`
		Password string `json:"password"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &conv))
	assert.Equal(t, convID, conv.ID)
	assert.Equal(t, stackID, conv.StackID)
	assert.Equal(t, password, conv.Password)
}

func TestConversationDelete(t *testing.T) {
	e := newTestEnv(t)
	_, token := e.signup(t, "owner@example.com", "hunter2")
	stackID := e.createStack(t, token, "FAQ")
	convID, _ := startConversation(t, e, stackID)

	rec := e.do(t, http.MethodDelete, "/v1/dashboard/conversations/"+convID, token, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = e.do(t, http.MethodGet, "/v1/dashboard/conversations/"+convID, token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestConversation_ForeignOwnerReads404(t *testing.T) {
	e := newTestEnv(t)
	_, ownerToken := e.signup(t, "owner@example.com", "hunter2")
	_, otherToken := e.signup(t, "other@example.com", "hunter2")

	stackID := e.createStack(t, ownerToken, "Private")
	convID, _ := startConversation(t, e, stackID)

	rec := e.do(t, http.MethodGet, "/v1/dashboard/conversations/"+convID, otherToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = e.do(t, http.MethodDelete, "/v1/dashboard/conversations/"+convID, otherToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Still there for the real owner.
	rec = e.do(t, http.MethodGet, "/v1/dashboard/conversations/"+convID, ownerToken, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestDashboardMessages_Transcript(t *testing.T) {
	e := newTestEnv(t)
	_, token := e.signup(t, "owner@example.com", "hunter2")
	stackID := e.createStack(t, token, "FAQ")
	convID, _ := startConversation(t, e, stackID)

	rec := e.do(t, http.MethodPost, "/v1/client/messages", "", map[string]any{
		"conversation_id": convID,
		"text":            "first",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	e.server.WaitForReplies()

	// The owner reads the transcript without the conversation password.
	rec = e.do(t, http.MethodGet, "/v1/dashboard/messages?conversation_id="+convID, token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var msgs []struct {
		Who  string `json:"who"`
		Text string `json:"text"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &msgs))
	require.Len(t, msgs, 2)
	assert.Equal(t, "user", msgs[0].Who)
	assert.Equal(t, "first", msgs[0].Text)
	assert.Equal(t, "bot", msgs[1].Who)
}

func TestDashboardMessages_ForeignConversation404(t *testing.T) {
	e := newTestEnv(t)
	_, ownerToken := e.signup(t, "owner@example.com", "hunter2")
	_, otherToken := e.signup(t, "other@example.com", "hunter2")

	stackID := e.createStack(t, ownerToken, "Private")
	convID, _ := startConversation(t, e, stackID)

	rec := e.do(t, http.MethodGet, "/v1/dashboard/messages?conversation_id="+convID, otherToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = e.do(t, http.MethodGet, "/v1/dashboard/messages", ownerToken, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
