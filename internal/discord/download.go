package discord

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/yonagi/kiroku/internal/apperr"
)

const maxDownloadBytes = 50 << 20 // 50 MB

// HTTPDownloader fetches attachment bytes from the chat platform's CDN.
type HTTPDownloader struct {
	client *http.Client
}

// NewHTTPDownloader creates a downloader with the given request timeout.
func NewHTTPDownloader(timeout time.Duration) *HTTPDownloader {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPDownloader{client: &http.Client{Timeout: timeout}}
}

// Download fetches url and returns the body plus the response Content-Type.
func (d *HTTPDownloader) Download(ctx context.Context, url string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", &apperr.RemoteError{Op: "discord: download attachment", Err: err}
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, "", &apperr.RemoteError{Op: "discord: download attachment", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, "", &apperr.RemoteError{Op: "discord: download attachment", Status: resp.StatusCode}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDownloadBytes))
	if err != nil {
		return nil, "", &apperr.RemoteError{Op: "discord: download attachment", Err: err}
	}
	return data, resp.Header.Get("Content-Type"), nil
}
