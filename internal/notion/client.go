// Package notion is the HTTP client for the document platform.
package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/yonagi/kiroku/internal/apperr"
	"github.com/yonagi/kiroku/internal/blocks"
)

const (
	defaultBaseURL = "https://api.notion.com"
	apiVersion     = "2022-06-28"

	// Response bodies are only kept for error reporting; cap the excerpt.
	maxErrBody = 2 << 10
)

// TagProperty is a select or multi-select property set on every created page.
type TagProperty struct {
	Property    string `yaml:"property"`
	Value       string `yaml:"value"`
	MultiSelect bool   `yaml:"multi_select"`
}

// ClientConfig configures a Client.
type ClientConfig struct {
	Token         string
	DatabaseID    string
	TitleProperty string
	Tags          []TagProperty
	Timeout       time.Duration
	BaseURL       string // defaults to the public API; overridable for tests
}

// Client talks to the document platform. All methods issue a single HTTP
// request and report failures as *apperr.RemoteError.
type Client struct {
	http          *http.Client
	baseURL       string
	token         string
	databaseID    string
	titleProperty string
	tags          []TagProperty
}

// NewClient creates a Client. A zero Timeout defaults to 30s.
func NewClient(cfg ClientConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		http:          &http.Client{Timeout: timeout},
		baseURL:       baseURL,
		token:         cfg.Token,
		databaseID:    cfg.DatabaseID,
		titleProperty: cfg.TitleProperty,
		tags:          cfg.Tags,
	}
}

type pageInfo struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

type databaseQueryResponse struct {
	Results []pageInfo `json:"results"`
}

// FindPageByTitle looks up a page whose title property equals title.
// Returns apperr.ErrNotFound when no page matches.
func (c *Client) FindPageByTitle(ctx context.Context, title string) (*Page, error) {
	body := map[string]any{
		"filter": map[string]any{
			"property": c.titleProperty,
			"title":    map[string]any{"equals": title},
		},
		"page_size": 1,
	}

	var resp databaseQueryResponse
	if err := c.do(ctx, http.MethodPost, "/v1/databases/"+c.databaseID+"/query", body, &resp, "notion: query database"); err != nil {
		return nil, err
	}
	if len(resp.Results) == 0 {
		return nil, fmt.Errorf("notion: page titled %q: %w", title, apperr.ErrNotFound)
	}
	return &Page{ID: resp.Results[0].ID, URL: resp.Results[0].URL}, nil
}

// Page identifies a document page.
type Page struct {
	ID  string
	URL string
}

// CreatePage creates a page in the configured database with the given title
// and the configured tag properties.
func (c *Client) CreatePage(ctx context.Context, title string) (*Page, error) {
	properties := map[string]any{
		c.titleProperty: map[string]any{
			"title": encodeSpans([]blocks.Span{blocks.PlainSpan(title)}),
		},
	}
	for _, tag := range c.tags {
		if tag.MultiSelect {
			properties[tag.Property] = map[string]any{
				"multi_select": []map[string]string{{"name": tag.Value}},
			}
		} else {
			properties[tag.Property] = map[string]any{
				"select": map[string]string{"name": tag.Value},
			}
		}
	}

	body := map[string]any{
		"parent":     map[string]string{"database_id": c.databaseID},
		"properties": properties,
	}

	var page pageInfo
	if err := c.do(ctx, http.MethodPost, "/v1/pages", body, &page, "notion: create page"); err != nil {
		return nil, err
	}
	return &Page{ID: page.ID, URL: page.URL}, nil
}

type blockInfo struct {
	ID string `json:"id"`
}

type appendBlocksResponse struct {
	Results []blockInfo `json:"results"`
}

// AppendBlocks appends bs to a page as one batched write and returns the
// remote block ids in submission order. An empty batch is a no-op.
func (c *Client) AppendBlocks(ctx context.Context, pageID string, bs []blocks.Block) ([]string, error) {
	if len(bs) == 0 {
		return nil, nil
	}

	body := map[string]any{"children": encodeBlocks(bs)}

	var resp appendBlocksResponse
	if err := c.do(ctx, http.MethodPatch, "/v1/blocks/"+pageID+"/children", body, &resp, "notion: append blocks"); err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(resp.Results))
	for _, b := range resp.Results {
		ids = append(ids, b.ID)
	}
	if len(ids) != len(bs) {
		return nil, &apperr.RemoteError{
			Op:   "notion: append blocks",
			Body: fmt.Sprintf("submitted %d blocks, got %d ids back", len(bs), len(ids)),
		}
	}
	return ids, nil
}

// UpdateTextBlock replaces the rich text of an existing paragraph block.
func (c *Client) UpdateTextBlock(ctx context.Context, blockID string, spans []blocks.Span) error {
	body := map[string]any{
		"paragraph": paragraphPayload{RichText: encodeSpans(spans)},
	}
	return c.do(ctx, http.MethodPatch, "/v1/blocks/"+blockID, body, nil, "notion: update block")
}

// DeleteBlock removes a block from its page.
func (c *Client) DeleteBlock(ctx context.Context, blockID string) error {
	return c.do(ctx, http.MethodDelete, "/v1/blocks/"+blockID, nil, nil, "notion: delete block")
}

type fileUploadResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// UploadFile uploads data in two steps (create the upload object, then send
// the bytes) and returns the upload reference to embed in image/file blocks.
func (c *Client) UploadFile(ctx context.Context, filename, contentType string, data []byte) (string, error) {
	createBody := map[string]string{
		"mode":         "single_part",
		"filename":     filename,
		"content_type": contentType,
	}

	var created fileUploadResponse
	if err := c.do(ctx, http.MethodPost, "/v1/file_uploads", createBody, &created, "notion: create file upload"); err != nil {
		return "", err
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("notion: build multipart: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return "", fmt.Errorf("notion: build multipart: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("notion: build multipart: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/file_uploads/"+created.ID+"/send", &buf)
	if err != nil {
		return "", fmt.Errorf("notion: build request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var sent fileUploadResponse
	if err := c.send(req, &sent, "notion: send file upload"); err != nil {
		return "", err
	}
	if sent.Status != "uploaded" {
		return "", &apperr.RemoteError{
			Op:   "notion: send file upload",
			Body: "upload not completed: status = " + sent.Status,
		}
	}
	return created.ID, nil
}

// do issues a JSON request against path and decodes the response into out
// (when non-nil).
func (c *Client) do(ctx context.Context, method, path string, body, out any, op string) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: encode body: %w", op, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", op, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.send(req, out, op)
}

func (c *Client) send(req *http.Request, out any, op string) error {
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Notion-Version", apiVersion)

	resp, err := c.http.Do(req)
	if err != nil {
		return &apperr.RemoteError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrBody))
		return &apperr.RemoteError{Op: op, Status: resp.StatusCode, Body: string(excerpt)}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}
