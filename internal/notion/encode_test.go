package notion

import (
	"testing"

	"github.com/yonagi/kiroku/internal/blocks"
)

func TestEncodeSpans(t *testing.T) {
	got := encodeSpans([]blocks.Span{
		blocks.PlainSpan("hello "),
		blocks.LinkSpan("https://example.com/"),
	})
	if len(got) != 2 {
		t.Fatalf("got %d rich texts, want 2", len(got))
	}
	if got[0].Text.Link != nil {
		t.Error("plain span must not carry a link")
	}
	if got[1].Text.Link == nil || got[1].Text.Link.URL != "https://example.com/" {
		t.Errorf("link span = %+v", got[1])
	}
}

func TestEncodeBlockVariants(t *testing.T) {
	p := encodeBlock(blocks.Text([]blocks.Span{blocks.PlainSpan("hi")}))
	if p.Type != "paragraph" || p.Paragraph == nil || len(p.Paragraph.RichText) != 1 {
		t.Errorf("paragraph = %+v", p)
	}

	b := encodeBlock(blocks.Bookmark("https://x.test/"))
	if b.Type != "bookmark" || b.Bookmark == nil || b.Bookmark.URL != "https://x.test/" {
		t.Errorf("bookmark = %+v", b)
	}
	if b.Bookmark.Caption == nil || len(b.Bookmark.Caption) != 0 {
		t.Errorf("uncaptioned bookmark caption = %+v, want empty array", b.Bookmark.Caption)
	}

	withCaption := blocks.Bookmark("https://x.test/")
	withCaption.Caption = "a title"
	bc := encodeBlock(withCaption)
	if len(bc.Bookmark.Caption) != 1 || bc.Bookmark.Caption[0].Text.Content != "a title" {
		t.Errorf("caption = %+v", bc.Bookmark.Caption)
	}

	e := encodeBlock(blocks.Embed("https://y.test/"))
	if e.Type != "embed" || e.Embed == nil || e.Embed.URL != "https://y.test/" {
		t.Errorf("embed = %+v", e)
	}

	img := encodeBlock(blocks.Image("up1", "a.jpg"))
	if img.Type != "image" || img.Image == nil || img.Image.FileUpload.ID != "up1" {
		t.Errorf("image = %+v", img)
	}

	f := encodeBlock(blocks.File("up2", "doc.pdf"))
	if f.Type != "file" || f.File == nil || f.File.Name != "doc.pdf" {
		t.Errorf("file = %+v", f)
	}
}
