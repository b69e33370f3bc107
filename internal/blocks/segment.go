package blocks

import "regexp"

// SegmentKind distinguishes plain text from URLs.
type SegmentKind int

const (
	SegmentPlain SegmentKind = iota
	SegmentURL
)

// Segment is one run of message text.
type Segment struct {
	Kind SegmentKind
	Text string
}

// A URL is a maximal run starting with http:// or https:// and excluding
// whitespace and the delimiters <>[](). \p{Z} keeps Unicode separators such
// as the ideographic space out of URLs; \s alone only covers ASCII.
var urlRe = regexp.MustCompile(`https?://[^\s\p{Z}<>\[\]()]+`)

// Split partitions text into an ordered sequence of plain and URL segments.
// Concatenating the segment texts reproduces the input exactly; empty input
// yields an empty sequence.
func Split(text string) []Segment {
	var segments []Segment
	last := 0

	for _, m := range urlRe.FindAllStringIndex(text, -1) {
		if m[0] > last {
			segments = append(segments, Segment{Kind: SegmentPlain, Text: text[last:m[0]]})
		}
		segments = append(segments, Segment{Kind: SegmentURL, Text: text[m[0]:m[1]]})
		last = m[1]
	}

	if last < len(text) {
		segments = append(segments, Segment{Kind: SegmentPlain, Text: text[last:]})
	}

	return segments
}
