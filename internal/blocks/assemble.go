package blocks

import "github.com/yonagi/kiroku/internal/urlrule"

// Assemble converts message text into an ordered block list.
//
// Plain text and inline links accumulate as spans of the current paragraph.
// A URL classified to a standalone form (bookmark or embed) first flushes the
// accumulated paragraph, so standalone blocks interrupt the text at exactly
// the point the URL occurred. A URL classifying to nothing at all is kept as
// an unlinked span; the raw text is never dropped.
func Assemble(text string, rules *urlrule.CompiledRules) []Block {
	var out []Block
	var pending []Span

	flush := func() {
		if len(pending) == 0 {
			return
		}
		out = append(out, Text(pending))
		pending = nil
	}

	for _, seg := range Split(text) {
		if seg.Kind == SegmentPlain {
			if seg.Text != "" {
				pending = append(pending, PlainSpan(seg.Text))
			}
			continue
		}

		url := seg.Text
		types := rules.Classify(url)

		hasStandalone := false
		for _, t := range types {
			if t == urlrule.Link {
				pending = append(pending, LinkSpan(url))
			}
			if t.Standalone() {
				hasStandalone = true
			}
		}

		if hasStandalone {
			flush()
			for _, t := range types {
				switch t {
				case urlrule.Bookmark:
					out = append(out, Bookmark(url))
				case urlrule.Embed:
					out = append(out, Embed(url))
				}
			}
		}

		if len(types) == 0 {
			pending = append(pending, PlainSpan(url))
		}
	}

	flush()
	return out
}
