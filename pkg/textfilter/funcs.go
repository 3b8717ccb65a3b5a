package textfilter

import (
	"fmt"
	"html/template"
	"math"
)

// Funcs builds the filter map for cfg. The map is meant to be built once and
// passed to template.Template.Funcs; filters named in cfg.Disabled are omitted.
//
// Filters that produce markup (br2p, p2br, paragraphs_slice) return template.HTML
// so html/template does not escape their output. Arguments follow the template
// convention of passing the piped value last.
func Funcs(cfg Config) template.FuncMap {
	f := filters{cfg: cfg}
	all := template.FuncMap{
		FilterBr2p:            f.br2p,
		FilterHash:            f.hash,
		FilterP2br:            f.p2br,
		FilterParagraphsSlice: f.paragraphsSlice,
		FilterRegexReplace:    f.regexReplace,
		FilterRepeat:          f.repeat,
	}
	for _, name := range cfg.Disabled {
		delete(all, name)
	}
	return all
}

// Names returns the names of the filters enabled by cfg, in sorted order.
func Names(cfg Config) []string {
	var names []string
	for _, name := range allFilters {
		if cfg.enabled(name) {
			names = append(names, name)
		}
	}
	return names
}

// filters binds the template-facing wrappers to a Config.
type filters struct {
	cfg Config
}

func (filters) br2p(text any) (template.HTML, error) {
	s, err := toText(text)
	if err != nil {
		return "", err
	}
	return template.HTML(BreaksToParagraphs(s)), nil
}

func (filters) p2br(text any) (template.HTML, error) {
	s, err := toText(text)
	if err != nil {
		return "", err
	}
	return template.HTML(ParagraphsToBreaks(s)), nil
}

// hash: algorithm [raw] value
func (filters) hash(algorithm string, args ...any) (string, error) {
	var raw bool
	switch len(args) {
	case 1:
	case 2:
		b, ok := args[0].(bool)
		if !ok {
			return "", fmt.Errorf("%w: %s raw flag must be a bool, got %T", ErrBadArgument, FilterHash, args[0])
		}
		raw = b
	default:
		return "", arityError(FilterHash, "algorithm [raw] value", len(args)+1)
	}
	data, err := toText(args[len(args)-1])
	if err != nil {
		return "", err
	}
	return Hash(data, algorithm, raw)
}

// regex_replace: pattern replacement [limit] subject
func (filters) regexReplace(pattern, replacement any, args ...any) (string, error) {
	limit := -1
	switch len(args) {
	case 1:
	case 2:
		n, err := toInt(args[0])
		if err != nil {
			return "", err
		}
		limit = n
	default:
		return "", arityError(FilterRegexReplace, "pattern replacement [limit] subject", len(args)+2)
	}
	subject, err := toText(args[len(args)-1])
	if err != nil {
		return "", err
	}
	return RegexReplace(subject, pattern, replacement, limit)
}

// repeat: count value
func (f filters) repeat(count int, text any) (string, error) {
	s, err := toText(text)
	if err != nil {
		return "", err
	}
	return repeatWithin(s, count, f.cfg.MaxRepeatLength)
}

// paragraphs_slice: [offset [length]] text
func (filters) paragraphsSlice(args ...any) ([]template.HTML, error) {
	var (
		offset int
		length *int
		err    error
	)
	switch len(args) {
	case 1:
	case 2:
		if offset, err = toInt(args[0]); err != nil {
			return nil, err
		}
	case 3:
		if offset, err = toInt(args[0]); err != nil {
			return nil, err
		}
		n, err := toInt(args[1])
		if err != nil {
			return nil, err
		}
		length = &n
	default:
		return nil, arityError(FilterParagraphsSlice, "[offset [length]] text", len(args))
	}
	text, err := toText(args[len(args)-1])
	if err != nil {
		return nil, err
	}

	paragraphs := ParagraphsSlice(text, offset, length)
	out := make([]template.HTML, len(paragraphs))
	for i, p := range paragraphs {
		out[i] = template.HTML(p)
	}
	return out, nil
}

func arityError(name, usage string, got int) error {
	return fmt.Errorf("%w: %s expects %s, got %d arguments", ErrBadArgument, name, usage, got)
}

func toText(v any) (string, error) {
	switch v := v.(type) {
	case string:
		return v, nil
	case template.HTML:
		return string(v), nil
	case []byte:
		return string(v), nil
	case fmt.Stringer:
		return v.String(), nil
	default:
		return "", fmt.Errorf("%w: expected text, got %T", ErrBadArgument, v)
	}
}

func toInt(v any) (int, error) {
	switch v := v.(type) {
	case int:
		return v, nil
	case int8:
		return int(v), nil
	case int16:
		return int(v), nil
	case int32:
		return int(v), nil
	case int64:
		return int(v), nil
	case uint8:
		return int(v), nil
	case uint16:
		return int(v), nil
	case uint32:
		return int(v), nil
	case float64:
		// JSON-decoded template data arrives as float64. float64(math.MaxInt)
		// rounds up past the int range, hence the strict upper bound.
		if v == math.Trunc(v) && v >= math.MinInt && v < math.MaxInt {
			return int(v), nil
		}
	}
	return 0, fmt.Errorf("%w: expected an integer, got %T(%v)", ErrBadArgument, v, v)
}
