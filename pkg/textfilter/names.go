package textfilter

// Filter names as they appear in templates.
const (
	// FilterBr2p converts runs of two or more <br> markers into paragraphs.
	FilterBr2p = "br2p"

	// FilterP2br converts paragraphs back into double <br /> markers.
	FilterP2br = "p2br"

	// FilterHash digests its input with a named algorithm.
	// Syntax: {{ .Value | hash "sha256" }} or {{ .Value | hash "sha256" true }} for raw bytes.
	FilterHash = "hash"

	// FilterRegexReplace performs a regular expression search and replace.
	// Syntax: {{ .Value | regex_replace "a(x*)b" "${1}W" }}, with an optional limit
	// before the piped value: {{ .Value | regex_replace "a" "b" 1 }}.
	FilterRegexReplace = "regex_replace"

	// FilterRepeat repeats a string. Syntax: {{ "-" | repeat 10 }}.
	FilterRepeat = "repeat"

	// FilterParagraphsSlice extracts a slice of the <p> blocks found in a string.
	// Syntax: {{ .Body | paragraphs_slice 1 2 }} (offset, optional length).
	FilterParagraphsSlice = "paragraphs_slice"
)

// allFilters lists every filter this package can register, in registration order.
var allFilters = []string{
	FilterBr2p,
	FilterHash,
	FilterP2br,
	FilterParagraphsSlice,
	FilterRegexReplace,
	FilterRepeat,
}
