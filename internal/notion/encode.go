package notion

import "github.com/yonagi/kiroku/internal/blocks"

// Wire types for the document API. This is the only place the abstract block
// model meets the JSON format.

type richText struct {
	Type string      `json:"type"`
	Text textContent `json:"text"`
}

type textContent struct {
	Content string   `json:"content"`
	Link    *linkRef `json:"link,omitempty"`
}

type linkRef struct {
	URL string `json:"url"`
}

type paragraphPayload struct {
	RichText []richText `json:"rich_text"`
}

type bookmarkPayload struct {
	URL     string     `json:"url"`
	Caption []richText `json:"caption"`
}

type embedPayload struct {
	URL string `json:"url"`
}

type uploadRef struct {
	ID string `json:"id"`
}

type filePayload struct {
	Type       string     `json:"type"`
	FileUpload *uploadRef `json:"file_upload,omitempty"`
	Name       string     `json:"name,omitempty"`
}

type blockPayload struct {
	Object    string            `json:"object"`
	Type      string            `json:"type"`
	Paragraph *paragraphPayload `json:"paragraph,omitempty"`
	Bookmark  *bookmarkPayload  `json:"bookmark,omitempty"`
	Embed     *embedPayload     `json:"embed,omitempty"`
	Image     *filePayload      `json:"image,omitempty"`
	File      *filePayload      `json:"file,omitempty"`
}

func encodeSpans(spans []blocks.Span) []richText {
	out := make([]richText, 0, len(spans))
	for _, s := range spans {
		rt := richText{Type: "text", Text: textContent{Content: s.Text}}
		if s.LinkURL != "" {
			rt.Text.Link = &linkRef{URL: s.LinkURL}
		}
		out = append(out, rt)
	}
	return out
}

func encodeBlock(b blocks.Block) blockPayload {
	p := blockPayload{Object: "block"}
	switch b.Kind {
	case blocks.KindText:
		p.Type = "paragraph"
		p.Paragraph = &paragraphPayload{RichText: encodeSpans(b.Spans)}
	case blocks.KindBookmark:
		p.Type = "bookmark"
		p.Bookmark = &bookmarkPayload{URL: b.URL, Caption: []richText{}}
		if b.Caption != "" {
			p.Bookmark.Caption = encodeSpans([]blocks.Span{blocks.PlainSpan(b.Caption)})
		}
	case blocks.KindEmbed:
		p.Type = "embed"
		p.Embed = &embedPayload{URL: b.URL}
	case blocks.KindImage:
		p.Type = "image"
		p.Image = &filePayload{Type: "file_upload", FileUpload: &uploadRef{ID: b.UploadID}}
	case blocks.KindFile:
		p.Type = "file"
		p.File = &filePayload{Type: "file_upload", FileUpload: &uploadRef{ID: b.UploadID}, Name: b.Filename}
	}
	return p
}

func encodeBlocks(bs []blocks.Block) []blockPayload {
	out := make([]blockPayload, 0, len(bs))
	for _, b := range bs {
		out = append(out, encodeBlock(b))
	}
	return out
}
