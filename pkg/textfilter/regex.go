package textfilter

import (
	"fmt"
	"html/template"
	"regexp"
)

// RegexReplace searches subject for pattern and replaces matches with replacement.
//
// pattern may be a single pattern or a list of them, applied in order. replacement
// is either one string used for every pattern or a list matched up by index, where
// a missing entry counts as the empty string. limit caps the replacements made by
// each pattern; a negative limit means no cap. Patterns use Go's regexp syntax and
// replacements are expanded as by Regexp.Expand, so $1 and ${name} work.
func RegexReplace(subject string, pattern, replacement any, limit int) (string, error) {
	patterns, err := toStrings(pattern)
	if err != nil {
		return "", fmt.Errorf("pattern: %w", err)
	}
	replacements, err := toStrings(replacement)
	if err != nil {
		return "", fmt.Errorf("replacement: %w", err)
	}
	singlePattern, singleReplacement := isScalar(pattern), isScalar(replacement)
	if singlePattern && !singleReplacement {
		return "", fmt.Errorf("%w: a single pattern needs a single replacement", ErrBadArgument)
	}

	for i, expr := range patterns {
		re, err := regexp.Compile(expr)
		if err != nil {
			return "", err
		}
		repl := ""
		switch {
		case singleReplacement:
			repl = replacements[0]
		case i < len(replacements):
			repl = replacements[i]
		}
		subject = replaceN(re, subject, repl, limit)
	}
	return subject, nil
}

// replaceN is ReplaceAllString with a cap on the number of matches replaced.
func replaceN(re *regexp.Regexp, src, repl string, n int) string {
	matches := re.FindAllStringSubmatchIndex(src, n)
	if len(matches) == 0 {
		return src
	}
	var out []byte
	last := 0
	for _, m := range matches {
		out = append(out, src[last:m[0]]...)
		out = re.ExpandString(out, repl, src, m)
		last = m[1]
	}
	out = append(out, src[last:]...)
	return string(out)
}

func isScalar(v any) bool {
	switch v.(type) {
	case string, template.HTML:
		return true
	}
	return false
}

// toStrings accepts a string or a list of strings, as produced by Go code
// ([]string) or by templates ([]any from the list helper).
func toStrings(v any) ([]string, error) {
	switch v := v.(type) {
	case string:
		return []string{v}, nil
	case template.HTML:
		return []string{string(v)}, nil
	case []string:
		return v, nil
	case []any:
		out := make([]string, len(v))
		for i, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("%w: element %d is %T, not string", ErrBadArgument, i, item)
			}
			out[i] = s
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: expected string or list of strings, got %T", ErrBadArgument, v)
	}
}
