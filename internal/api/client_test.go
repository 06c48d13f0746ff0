// ABOUTME: Tests for the public widget endpoints
// ABOUTME: Covers public stack view, sealed transcripts, and the reply workflow

package api

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublicStackDetail(t *testing.T) {
	e := newTestEnv(t)
	_, token := e.signup(t, "owner@example.com", "hunter2")
	stackID := e.createStack(t, token, "FAQ")

	rec := e.do(t, http.MethodGet, "/v1/client/stacks/"+stackID, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// The public view must not leak owner-only fields.
	var view map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Contains(t, view, "widget_delay")
	assert.Contains(t, view, "color")
	assert.NotContains(t, view, "name")
	assert.NotContains(t, view, "description")

	rec = e.do(t, http.MethodGet, "/v1/client/stacks/st_missing", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestConversationCreate_ReturnsPassword(t *testing.T) {
	e := newTestEnv(t)
	_, token := e.signup(t, "owner@example.com", "hunter2")
	stackID := e.createStack(t, token, "FAQ")

	rec := e.do(t, http.MethodPost, "/v1/client/conversations", "", map[string]any{
		"stack_id": stackID,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var conv struct {
		ID       string `json:"id"`
		StackID  string `json:"stack_id"`
		Password string `json:"password"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &conv))
	assert.Equal(t, stackID, conv.StackID)
	assert.NotEmpty(t, conv.Password)

	rec = e.do(t, http.MethodPost, "/v1/client/conversations", "", map[string]any{
		"stack_id": "st_missing",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSealedMessages(t *testing.T) {
	e := newTestEnv(t)
	_, token := e.signup(t, "owner@example.com", "hunter2")
	stackID := e.createStack(t, token, "FAQ")

	rec := e.do(t, http.MethodPost, "/v1/client/conversations", "", map[string]any{
		"stack_id": stackID,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var conv struct {
		ID       string `json:"id"`
		Password string `json:"password"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &conv))

	rec = e.do(t, http.MethodPost, "/v1/client/messages", "", map[string]any{
		"conversation_id": conv.ID,
		"text":            "anyone home?",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	e.server.WaitForReplies()

	// Correct password sees the transcript.
	rec = e.do(t, http.MethodGet,
		"/v1/client/messages?conversation_id="+conv.ID+"&password="+conv.Password, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var msgs []struct {
		Who string `json:"who"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &msgs))
	assert.Len(t, msgs, 2)

	// Wrong password reads as an empty conversation, not an error.
	rec = e.do(t, http.MethodGet,
		"/v1/client/messages?conversation_id="+conv.ID+"&password=wrong", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestMessageCreate_GeneratesReplyAndCard(t *testing.T) {
	e := newTestEnv(t)
	_, token := e.signup(t, "owner@example.com", "hunter2")
	stackID := e.createStack(t, token, "FAQ")

	rec := e.do(t, http.MethodPost, "/v1/client/conversations", "", map[string]any{
		"stack_id": stackID,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var conv struct {
		ID       string `json:"id"`
		Password string `json:"password"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &conv))

	e.bot.answer = "We are open 9 to 5."
	rec = e.do(t, http.MethodPost, "/v1/client/messages", "", map[string]any{
		"conversation_id": conv.ID,
		"text":            "what are your hours?",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var posted struct {
		ID  string `json:"id"`
		Who string `json:"who"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &posted))
	assert.Equal(t, "user", posted.Who)

	e.server.WaitForReplies()
	assert.Equal(t, []string{"what are your hours?"}, e.bot.askedQuestions)

	// The bot reply is threaded under the visitor message.
	rec = e.do(t, http.MethodGet,
		"/v1/client/messages?conversation_id="+conv.ID+"&password="+conv.Password, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var msgs []struct {
		Who      string  `json:"who"`
		Text     string  `json:"text"`
		ParentID *string `json:"parent_id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &msgs))
	require.Len(t, msgs, 2)
	assert.Equal(t, "user", msgs[0].Who)
	assert.Equal(t, "bot", msgs[1].Who)
	assert.Equal(t, "We are open 9 to 5.", msgs[1].Text)
	require.NotNil(t, msgs[1].ParentID)
	assert.Equal(t, posted.ID, *msgs[1].ParentID)

	// The exchange became a new unlearned card for the owner.
	rec = e.do(t, http.MethodGet, "/v1/dashboard/cards?stack_id="+stackID, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var cards []struct {
		Question string `json:"question"`
		Answer   string `json:"answer"`
		Learned  bool   `json:"learned"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cards))
	require.Len(t, cards, 1)
	assert.Equal(t, "what are your hours?", cards[0].Question)
	assert.Equal(t, "We are open 9 to 5.", cards[0].Answer)
	assert.False(t, cards[0].Learned)
}

func TestGenerateReply_BotFailureLeavesNoReply(t *testing.T) {
	e := newTestEnv(t)
	_, token := e.signup(t, "owner@example.com", "hunter2")
	stackID := e.createStack(t, token, "FAQ")

	rec := e.do(t, http.MethodPost, "/v1/client/conversations", "", map[string]any{
		"stack_id": stackID,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var conv struct {
		ID       string `json:"id"`
		Password string `json:"password"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &conv))

	e.bot.fail = true
	rec = e.do(t, http.MethodPost, "/v1/client/messages", "", map[string]any{
		"conversation_id": conv.ID,
		"text":            "hello?",
	})
	// The visitor message is accepted even when the engine is down.
	require.Equal(t, http.StatusCreated, rec.Code)
	e.server.WaitForReplies()

	rec = e.do(t, http.MethodGet,
		"/v1/client/messages?conversation_id="+conv.ID+"&password="+conv.Password, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var msgs []struct {
		Who string `json:"who"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &msgs))
	require.Len(t, msgs, 1)
	assert.Equal(t, "user", msgs[0].Who)
}

func TestGenerateReply_Direct(t *testing.T) {
	e := newTestEnv(t)
	_, token := e.signup(t, "owner@example.com", "hunter2")
	stackID := e.createStack(t, token, "FAQ")

	uow, err := e.store.Begin(context.Background())
	require.NoError(t, err)
	conv, err := uow.Conversations.Create(context.Background(), stackID)
	require.NoError(t, err)
	msg, err := uow.Messages.CreateMessage(context.Background(), conv.ID, "direct question")
	require.NoError(t, err)
	require.NoError(t, uow.Commit())

	require.NoError(t, e.server.generateReply(context.Background(), msg.ID, msg.Text))

	check, err := e.store.Begin(context.Background())
	require.NoError(t, err)
	defer func() { _ = check.Rollback() }()

	reply, err := check.Messages.GetByParentID(context.Background(), msg.ID)
	require.NoError(t, err)
	assert.Equal(t, "canned answer", reply.Text)
	require.NotNil(t, reply.Parent)
	assert.Equal(t, msg.ID, reply.Parent.ID)
}
