// ABOUTME: Tests for the answering engine HTTP client
// ABOUTME: Uses httptest servers to verify paths, payloads, and decoding

package botindex

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCreateDocument(t *testing.T) {
	var gotPath string
	var gotBody map[string]string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "doc-1"})
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second, testLogger())
	id, err := c.CreateDocument(context.Background(), "st_abc", "Question?", "Answer.")
	require.NoError(t, err)

	assert.Equal(t, "doc-1", id)
	assert.Equal(t, "/i/st_abc/documents", gotPath)
	assert.Equal(t, map[string]string{"name": "Question?", "content": "Answer."}, gotBody)
}

func TestGetDocument(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/i/st_abc/documents/doc-1", r.URL.Path)
		assert.Equal(t, http.MethodGet, r.Method)
		_ = json.NewEncoder(w).Encode(Document{ID: "doc-1", Content: "Answer."})
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second, testLogger())
	doc, err := c.GetDocument(context.Background(), "st_abc", "doc-1")
	require.NoError(t, err)

	assert.Equal(t, "doc-1", doc.ID)
	assert.Equal(t, "Answer.", doc.Content)
}

func TestDeleteDocument(t *testing.T) {
	var gotPath string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		assert.Equal(t, http.MethodGet, r.Method)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second, testLogger())
	require.NoError(t, c.DeleteDocument(context.Background(), "st_abc", "doc-1"))
	assert.Equal(t, "/i/st_abc/documents/doc-1/delete", gotPath)
}

func TestAsk(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/i/st_abc/documents/ask", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "what are your hours?", body["question"])

		_ = json.NewEncoder(w).Encode("We are open 9 to 5.")
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second, testLogger())
	answer, err := c.Ask(context.Background(), "st_abc", "what are your hours?")
	require.NoError(t, err)
	assert.Equal(t, "We are open 9 to 5.", answer)
}

func TestScan(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/i/st_abc/scan", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "https://example.com/faq", body["url"])

		name := "Shipping?"
		_ = json.NewEncoder(w).Encode([]Document{
			{ID: "doc-1", Name: &name, Content: "We ship worldwide."},
			{ID: "doc-2", Content: "Returns within 30 days."},
		})
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second, testLogger())
	docs, err := c.Scan(context.Background(), "st_abc", "https://example.com/faq")
	require.NoError(t, err)

	require.Len(t, docs, 2)
	assert.Equal(t, "doc-1", docs[0].ID)
	require.NotNil(t, docs[0].Name)
	assert.Equal(t, "Shipping?", *docs[0].Name)
	assert.Nil(t, docs[1].Name)
}

func TestUpload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/i/st_abc/upload", r.URL.Path)

		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer func() { _ = file.Close() }()

		assert.Equal(t, "faq.txt", header.Filename)
		contents, err := io.ReadAll(file)
		require.NoError(t, err)
		assert.Equal(t, "Q: hours?\nA: 9 to 5", string(contents))

		_ = json.NewEncoder(w).Encode([]Document{{ID: "doc-1", Content: "9 to 5"}})
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second, testLogger())
	docs, err := c.Upload(context.Background(), "st_abc", "faq.txt", "text/plain",
		strings.NewReader("Q: hours?\nA: 9 to 5"))
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "doc-1", docs[0].ID)
}

func TestErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "index not found", http.StatusNotFound)
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second, testLogger())
	_, err := c.Ask(context.Background(), "st_missing", "anyone there?")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
}

func TestUnreachableEngine(t *testing.T) {
	c := New("http://127.0.0.1:1", 100*time.Millisecond, testLogger())
	_, err := c.CreateDocument(context.Background(), "st_abc", "Q", "A")
	require.Error(t, err)
}
