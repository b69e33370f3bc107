// Package blocks models document blocks and assembles them from message text.
//
// A Block is an abstract description of one unit of document content. The
// package knows nothing about wire formats; serialization to the document
// platform's JSON happens at that client's boundary.
package blocks

// Kind discriminates the block variants.
type Kind string

const (
	KindText     Kind = "text"
	KindBookmark Kind = "bookmark"
	KindEmbed    Kind = "embed"
	KindImage    Kind = "image"
	KindFile     Kind = "file"
)

// Mutable reports whether a synced block of this kind is rewritten when the
// source message is edited. Only text blocks are; everything else is frozen
// at creation.
func (k Kind) Mutable() bool { return k == KindText }

// Span is one run of inline rich text. A non-empty LinkURL renders the run
// as a link.
type Span struct {
	Text    string
	LinkURL string
}

// PlainSpan returns an unlinked text span.
func PlainSpan(text string) Span { return Span{Text: text} }

// LinkSpan returns a span rendering url as an inline link.
func LinkSpan(url string) Span { return Span{Text: url, LinkURL: url} }

// Block is one abstract document block. Exactly the fields relevant to Kind
// are set.
type Block struct {
	Kind    Kind
	Spans   []Span // text
	URL     string // bookmark, embed
	Caption string // bookmark, optional

	// UploadID references previously uploaded content for image and file
	// blocks; Filename is the display name shown next to it.
	UploadID string
	Filename string
}

// Text returns a paragraph block holding spans.
func Text(spans []Span) Block { return Block{Kind: KindText, Spans: spans} }

// Bookmark returns a standalone bookmark block for url.
func Bookmark(url string) Block { return Block{Kind: KindBookmark, URL: url} }

// Embed returns a standalone embed block for url.
func Embed(url string) Block { return Block{Kind: KindEmbed, URL: url} }

// Image returns an image block referencing an uploaded file.
func Image(uploadID, filename string) Block {
	return Block{Kind: KindImage, UploadID: uploadID, Filename: filename}
}

// File returns a file block referencing an uploaded file.
func File(uploadID, filename string) Block {
	return Block{Kind: KindFile, UploadID: uploadID, Filename: filename}
}
