/*
Package textfilter provides a small set of string filters for html/template:
paragraph and line-break conversion, hashing, regular expression replacement,
string repetition and paragraph slicing.

The conversion between line-break markup and paragraph markup is purely textual.
It is driven by regular expressions and has no notion of a DOM, so it is not a
sanitizer and makes no attempt to repair malformed HTML.

The filters are exposed through Funcs, which builds a template.FuncMap once from a
Config. The map is handed to the template engine explicitly; this package keeps no
global registry.

	funcs := textfilter.Funcs(textfilter.DefaultConfig())
	t := template.Must(template.New("page").Funcs(funcs).Parse(`{{ .Body | br2p }}`))
*/
package textfilter
