package textfilter

import (
	"regexp"
	"strings"
)

var (
	// trailingBreaksRegex matches every <br> marker at the end of the text,
	// along with the whitespace between and after them.
	trailingBreaksRegex = regexp.MustCompile(`(?:<br\s*/?>\s*)+$`)

	// breakRunRegex matches two or more consecutive <br> markers.
	breakRunRegex = regexp.MustCompile(`(?:<br\s*/?>\s*?){2,}`)

	// openParagraphRegex matches <p> with or without attributes, but not <pre> or <param>.
	openParagraphRegex = regexp.MustCompile(`<p(?:\s[^>]*)?>`)

	// trailingCloseRegex matches a final </p> and any whitespace after it.
	trailingCloseRegex = regexp.MustCompile(`</p>\s*$`)

	// paragraphBlockRegex matches a whole paragraph, tags included.
	paragraphBlockRegex = regexp.MustCompile(`(?s)<p(?:\s[^>]*)?>.*?</p>`)
)

const (
	paragraphOpen  = "<p>"
	paragraphClose = "</p>"
	paragraphBreak = "</p><p>"
	doubleBreak    = "<br /><br />"
)

// BreaksToParagraphs replaces double line-break formatting with paragraphs.
//
//	"This is a text.<br /><br>This should be another paragraph."
//	"<p>This is a text.</p><p>This should be another paragraph.</p>"
//
// Trailing <br> markers are dropped, every run of two or more markers becomes a
// paragraph boundary and the result is wrapped in a single <p></p> pair. A lone
// marker is an in-paragraph line break and is kept as is. The function is not
// idempotent: feeding it its own output wraps another paragraph around it.
func BreaksToParagraphs(text string) string {
	text = trailingBreaksRegex.ReplaceAllString(text, "")
	text = breakRunRegex.ReplaceAllLiteralString(text, paragraphBreak)
	return paragraphOpen + text + paragraphClose
}

// ParagraphsToBreaks replaces paragraph formatting with double line breaks.
//
//	"<p>This is a text.</p><p>This should be another paragraph.</p>"
//	"This is a text.<br /><br />This should be another paragraph."
//
// Opening tags are removed whatever their attributes. The final closing tag is
// removed too (with any whitespace after it) so the last paragraph does not
// leave a trailing pair of breaks behind.
func ParagraphsToBreaks(text string) string {
	text = openParagraphRegex.ReplaceAllLiteralString(text, "")
	text = trailingCloseRegex.ReplaceAllLiteralString(text, "")
	return strings.ReplaceAll(text, paragraphClose, doubleBreak)
}

// Paragraphs returns every <p>...</p> block found in text, tags included.
func Paragraphs(text string) []string {
	return paragraphBlockRegex.FindAllString(text, -1)
}

// ParagraphsSlice extracts the paragraphs of text and returns a contiguous run of
// them. offset and length follow the usual array-slice conventions: a negative
// offset counts from the end, a nil length means "through the end" and a negative
// length stops that many paragraphs before the end. Out of range requests return
// an empty slice.
func ParagraphsSlice(text string, offset int, length *int) []string {
	paragraphs := Paragraphs(text)
	start, end := sliceBounds(len(paragraphs), offset, length)
	if start >= end {
		return []string{}
	}
	return paragraphs[start:end]
}

func sliceBounds(n, offset int, length *int) (int, int) {
	if offset > n {
		return n, n
	}
	if offset < 0 {
		offset = max(n+offset, 0)
	}

	end := n
	if length != nil {
		if *length < 0 {
			end = n + *length
		} else {
			end = offset + min(*length, n-offset)
		}
	}
	return offset, min(end, n)
}
