// Package ogp fetches Open Graph metadata for bookmark captions.
package ogp

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/html"
)

const (
	userAgent = "kiroku-bot/1.0"

	// Metadata lives in <head>; don't drag whole pages into memory.
	maxBodyBytes = 1 << 20
)

// Metadata holds the extracted page metadata.
type Metadata struct {
	Title       string
	Description string
}

// Caption renders the metadata as a single bookmark caption line.
func (m Metadata) Caption() string {
	switch {
	case m.Title != "" && m.Description != "":
		return m.Title + " — " + m.Description
	case m.Title != "":
		return m.Title
	default:
		return m.Description
	}
}

// Fetcher retrieves OGP metadata over HTTP.
type Fetcher struct {
	http *http.Client
}

// NewFetcher creates a Fetcher with the given request timeout.
func NewFetcher(timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Fetcher{http: &http.Client{Timeout: timeout}}
}

// Fetch downloads url and extracts its metadata.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*Metadata, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("ogp: build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ogp: fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("ogp: fetch %s: status %d", url, resp.StatusCode)
	}

	m := Parse(io.LimitReader(resp.Body, maxBodyBytes))
	return &m, nil
}

// Parse extracts OGP metadata from an HTML document. og:title and
// og:description win; <title> and <meta name="description"> are fallbacks.
func Parse(r io.Reader) Metadata {
	var m Metadata
	var fallbackTitle, fallbackDesc string

	z := html.NewTokenizer(r)
	inTitle := false

	for {
		switch z.Next() {
		case html.ErrorToken:
			if m.Title == "" {
				m.Title = fallbackTitle
			}
			if m.Description == "" {
				m.Description = fallbackDesc
			}
			return m

		case html.TextToken:
			if inTitle && fallbackTitle == "" {
				fallbackTitle = strings.TrimSpace(string(z.Text()))
			}

		case html.StartTagToken, html.SelfClosingTagToken:
			name, hasAttr := z.TagName()
			switch string(name) {
			case "title":
				inTitle = true
			case "meta":
				if !hasAttr {
					continue
				}
				var property, metaName, content string
				for {
					k, v, more := z.TagAttr()
					switch string(k) {
					case "property":
						property = string(v)
					case "name":
						metaName = string(v)
					case "content":
						content = strings.TrimSpace(string(v))
					}
					if !more {
						break
					}
				}
				if content == "" {
					continue
				}
				switch {
				case property == "og:title" && m.Title == "":
					m.Title = content
				case property == "og:description" && m.Description == "":
					m.Description = content
				case metaName == "description" && fallbackDesc == "":
					fallbackDesc = content
				}
			case "body":
				// Metadata lives in <head>; stop once the body starts.
				if m.Title == "" {
					m.Title = fallbackTitle
				}
				if m.Description == "" {
					m.Description = fallbackDesc
				}
				return m
			}

		case html.EndTagToken:
			name, _ := z.TagName()
			if string(name) == "title" {
				inTitle = false
			}
		}
	}
}
