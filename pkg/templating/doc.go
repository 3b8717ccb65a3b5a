/*
Package templating loads html/template pages and partials from a directory and
renders them with the text filters from package textfilter.

Pages are files named *.tmpl.html and partials are files named *.part.html; both
are parsed into a single template set so pages can include partials by name. The
set can be reloaded from disk at any time with Refresh, and a raw template string
can be rendered against the loaded partials with ExecuteTemplateString, which is
useful for previews.

Besides the filters (br2p, p2br, hash, regex_replace, repeat, paragraphs_slice)
templates get a few logic helpers (list, dict, seq, default) and integer helpers
for computing slice offsets and counts (add, sub, mul, div, mod, clamp):

	{{ .Body | paragraphs_slice 0 (clamp 1 5 .Limit) }}
*/
package templating
