package diary

import "testing"

func TestClassifyAttachment(t *testing.T) {
	cases := []struct {
		filename string
		want     AttachmentKind
	}{
		{"photo.png", AttachImage},
		{"photo.JPG", AttachImage},
		{"anim.gif", AttachImage},
		{"pic.webp", AttachImage},
		{"shot.heic", AttachHEIC},
		{"shot.HEIF", AttachHEIC},
		{"doc.pdf", AttachOther},
		{"archive.tar.gz", AttachOther},
		{"noext", AttachOther},
	}
	for _, c := range cases {
		if got := ClassifyAttachment(c.filename); got != c.want {
			t.Errorf("ClassifyAttachment(%q) = %v, want %v", c.filename, got, c.want)
		}
	}
}

func TestDeriveContentType(t *testing.T) {
	cases := []struct {
		header   string
		filename string
		want     string
	}{
		{"image/png", "a.bin", "image/png"},
		{"image/jpeg; charset=binary", "a.bin", "image/jpeg"},
		{"", "a.png", "image/png"},
		{"application/octet-stream", "a.png", "image/png"},
		{"", "a.unknownext", "application/octet-stream"},
		{"application/octet-stream", "noext", "application/octet-stream"},
	}
	for _, c := range cases {
		if got := deriveContentType(c.header, c.filename); got != c.want {
			t.Errorf("deriveContentType(%q, %q) = %q, want %q", c.header, c.filename, got, c.want)
		}
	}
}
