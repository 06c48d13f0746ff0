// ABOUTME: Shared helpers for API tests
// ABOUTME: Real temp-dir SQLite store, fake answering engine, request runner

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/faqmy/faqmy-server/internal/auth"
	"github.com/faqmy/faqmy-server/internal/botindex"
	"github.com/faqmy/faqmy-server/internal/store"
)

// fakeBot is an in-memory stand-in for the answering engine.
type fakeBot struct {
	docs      map[string]botindex.Document
	nextDocID int
	answer    string
	scanDocs  []botindex.Document
	fail      bool

	askedQuestions []string
	deletedDocs    []string
}

func newFakeBot() *fakeBot {
	return &fakeBot{docs: map[string]botindex.Document{}, answer: "canned answer"}
}

var errBotDown = errors.New("engine unavailable")

func (b *fakeBot) CreateDocument(_ context.Context, _, name, content string) (string, error) {
	if b.fail {
		return "", errBotDown
	}
	b.nextDocID++
	id := fmt.Sprintf("doc-%d", b.nextDocID)
	b.docs[id] = botindex.Document{ID: id, Name: &name, Content: content}
	return id, nil
}

func (b *fakeBot) DeleteDocument(_ context.Context, _, docID string) error {
	if b.fail {
		return errBotDown
	}
	delete(b.docs, docID)
	b.deletedDocs = append(b.deletedDocs, docID)
	return nil
}

func (b *fakeBot) Ask(_ context.Context, _, question string) (string, error) {
	if b.fail {
		return "", errBotDown
	}
	b.askedQuestions = append(b.askedQuestions, question)
	return b.answer, nil
}

func (b *fakeBot) Scan(_ context.Context, _, _ string) ([]botindex.Document, error) {
	if b.fail {
		return nil, errBotDown
	}
	return b.scanDocs, nil
}

func (b *fakeBot) Upload(_ context.Context, _, _, _ string, _ io.Reader) ([]botindex.Document, error) {
	if b.fail {
		return nil, errBotDown
	}
	return b.scanDocs, nil
}

type testEnv struct {
	server *Server
	router http.Handler
	store  *store.SQLiteStore
	bot    *fakeBot
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	s, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	bot := newFakeBot()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := NewServer(s, bot, auth.NewJWTVerifier([]byte("test-secret")), time.Hour, logger)

	return &testEnv{server: srv, router: srv.Router(), store: s, bot: bot}
}

// signup registers a user through the API and returns a bearer token.
func (e *testEnv) signup(t *testing.T, email, password string) (userID, token string) {
	t.Helper()

	rec := e.do(t, http.MethodPost, "/v1/auth/signup", "", map[string]any{
		"email":    email,
		"password": password,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	rec = e.do(t, http.MethodPost, "/v1/auth/jwt/login", "", map[string]any{
		"email":    email,
		"password": password,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var login struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &login))
	return created.ID, login.AccessToken
}

// createStack makes a stack through the API and returns its id.
func (e *testEnv) createStack(t *testing.T, token, name string) string {
	t.Helper()

	rec := e.do(t, http.MethodPost, "/v1/dashboard/stacks", token, map[string]any{"name": name})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var st struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
	return st.ID
}

// createCard makes a card through the API and returns its id.
func (e *testEnv) createCard(t *testing.T, token, stackID, question, answer string) string {
	t.Helper()

	rec := e.do(t, http.MethodPost, "/v1/dashboard/cards", token, map[string]any{
		"stack_id": stackID,
		"question": question,
		"answer":   answer,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var c struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &c))
	return c.ID
}

// do runs a JSON request through the router.
func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func strptr(s string) *string {
	return &s
}
