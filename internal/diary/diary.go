// Package diary synchronizes chat messages into document pages and keeps the
// message-block index consistent with the remote document.
package diary

import (
	"context"

	"github.com/yonagi/kiroku/internal/blocks"
	"github.com/yonagi/kiroku/internal/notion"
)

// Message is the chat-platform view of one message.
type Message struct {
	ID          string
	ThreadID    string
	Content     string
	Attachments []Attachment
}

// Attachment is one file attached to a message.
type Attachment struct {
	Filename string
	URL      string
}

// DocumentClient is the document-platform surface the syncer consumes.
type DocumentClient interface {
	FindPageByTitle(ctx context.Context, title string) (*notion.Page, error)
	CreatePage(ctx context.Context, title string) (*notion.Page, error)
	AppendBlocks(ctx context.Context, pageID string, bs []blocks.Block) ([]string, error)
	UpdateTextBlock(ctx context.Context, blockID string, spans []blocks.Span) error
	DeleteBlock(ctx context.Context, blockID string) error
	UploadFile(ctx context.Context, filename, contentType string, data []byte) (string, error)
}

// Downloader fetches attachment bytes. contentType is the response header
// value and may be empty or generic.
type Downloader interface {
	Download(ctx context.Context, url string) (data []byte, contentType string, err error)
}

// ConvertFunc converts legacy image bytes to a universally renderable format.
type ConvertFunc func(data []byte) ([]byte, error)

// CaptionFunc returns a caption for a bookmark URL, or "" when none is
// available. Implementations must be non-fatal: a lookup failure is an empty
// caption, never an error.
type CaptionFunc func(ctx context.Context, url string) string

// Result describes the outcome of a sync operation.
type Result int

const (
	// Synced means blocks were written (or updated/deleted) remotely.
	Synced Result = iota
	// Skipped means the message had nothing to sync.
	Skipped
	// NotSynced means update/delete found no records for the message.
	NotSynced
)

func (r Result) String() string {
	switch r {
	case Synced:
		return "synced"
	case Skipped:
		return "skipped"
	default:
		return "not synced"
	}
}
