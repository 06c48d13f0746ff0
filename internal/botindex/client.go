// ABOUTME: HTTP client for the external answering engine
// ABOUTME: Manages per-stack document indexes and answers visitor questions

package botindex

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"time"
)

// Document is an indexed piece of content. The engine splits scanned
// pages and uploaded files into multiple documents, one per extracted
// question/answer pair.
type Document struct {
	ID      string  `json:"id"`
	Name    *string `json:"name"`
	Content string  `json:"content"`
}

// Client talks to the answering engine over HTTP. Each stack maps to
// its own index, named by the stack ID.
type Client struct {
	baseURL string
	httpc   *http.Client
	logger  *slog.Logger
}

// New creates a client for the engine at baseURL. Answering a question
// can be slow, so the timeout should be generous.
func New(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	if timeout == 0 {
		timeout = 60 * time.Second
	}

	return &Client{
		baseURL: baseURL,
		httpc:   &http.Client{Timeout: timeout},
		logger:  logger.With("component", "botindex"),
	}
}

func (c *Client) indexURL(index string) string {
	return c.baseURL + "/i/" + index
}

func (c *Client) documentsURL(index string) string {
	return c.indexURL(index) + "/documents"
}

// CreateDocument indexes a new document and returns its engine-side id.
func (c *Client) CreateDocument(ctx context.Context, index, name, content string) (string, error) {
	var result struct {
		ID string `json:"id"`
	}
	err := c.postJSON(ctx, c.documentsURL(index),
		map[string]string{"name": name, "content": content}, &result)
	if err != nil {
		return "", err
	}

	c.logger.Debug("created document", "index", index, "doc_id", result.ID)
	return result.ID, nil
}

// GetDocument fetches an indexed document by its engine-side id.
func (c *Client) GetDocument(ctx context.Context, index, docID string) (*Document, error) {
	var doc Document
	if err := c.getJSON(ctx, c.documentsURL(index)+"/"+docID, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// DeleteDocument removes a document from the index. The engine exposes
// deletion as a GET on the document's /delete subresource.
func (c *Client) DeleteDocument(ctx context.Context, index, docID string) error {
	if err := c.getJSON(ctx, c.documentsURL(index)+"/"+docID+"/delete", nil); err != nil {
		return err
	}

	c.logger.Debug("deleted document", "index", index, "doc_id", docID)
	return nil
}

// Ask submits a visitor question against the index and returns the
// engine's free-text answer.
func (c *Client) Ask(ctx context.Context, index, question string) (string, error) {
	var answer string
	err := c.postJSON(ctx, c.documentsURL(index)+"/ask",
		map[string]string{"question": question}, &answer)
	if err != nil {
		return "", err
	}
	return answer, nil
}

// Scan asks the engine to crawl a URL and split it into candidate
// documents. The documents are returned without being indexed.
func (c *Client) Scan(ctx context.Context, index, url string) ([]Document, error) {
	var docs []Document
	err := c.postJSON(ctx, c.indexURL(index)+"/scan",
		map[string]string{"url": url}, &docs)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("scanned url", "index", index, "url", url, "documents", len(docs))
	return docs, nil
}

// Upload sends a file to the engine, which splits it into candidate
// documents without indexing them.
func (c *Client) Upload(ctx context.Context, index, filename, contentType string, file io.Reader) ([]Document, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	hdr := make(textproto.MIMEHeader)
	hdr.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	hdr.Set("Content-Type", contentType)

	part, err := mw.CreatePart(hdr)
	if err != nil {
		return nil, fmt.Errorf("creating multipart form: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, fmt.Errorf("copying file contents: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("finalizing multipart form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.indexURL(index)+"/upload", &buf)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var docs []Document
	if err := c.do(req, &docs); err != nil {
		return nil, err
	}

	c.logger.Debug("uploaded file", "index", index, "filename", filename, "documents", len(docs))
	return docs, nil
}

func (c *Client) postJSON(ctx context.Context, url string, params any, result any) error {
	body, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, result)
}

func (c *Client) getJSON(ctx context.Context, url string, result any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	return c.do(req, result)
}

func (c *Client) do(req *http.Request, result any) error {
	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("engine request failed", "url", req.URL.String(), "status", resp.StatusCode)
		return fmt.Errorf("engine returned status %d: %s", resp.StatusCode, string(body))
	}

	if result == nil {
		return nil
	}
	if err := json.Unmarshal(body, result); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
