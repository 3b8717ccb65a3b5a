package textfilter

import (
	"fmt"
	"strconv"
	"strings"
)

// Apply runs the filter called name on input outside of a template. args are the
// filter's own arguments in template order, as strings; the piped value is input.
// Disabled filters are reported as ErrUnknownFilter.
func Apply(cfg Config, name, input string, args ...string) (string, error) {
	if !cfg.enabled(name) {
		return "", fmt.Errorf("%w: %q", ErrUnknownFilter, name)
	}
	f := filters{cfg: cfg}

	switch name {
	case FilterBr2p:
		if err := checkArgs(name, args, 0, 0); err != nil {
			return "", err
		}
		return BreaksToParagraphs(input), nil

	case FilterP2br:
		if err := checkArgs(name, args, 0, 0); err != nil {
			return "", err
		}
		return ParagraphsToBreaks(input), nil

	case FilterHash:
		if err := checkArgs(name, args, 1, 2); err != nil {
			return "", err
		}
		raw := false
		if len(args) == 2 {
			b, err := strconv.ParseBool(args[1])
			if err != nil {
				return "", fmt.Errorf("%w: %s raw flag: %v", ErrBadArgument, name, err)
			}
			raw = b
		}
		return Hash(input, args[0], raw)

	case FilterRegexReplace:
		if err := checkArgs(name, args, 2, 3); err != nil {
			return "", err
		}
		limit := -1
		if len(args) == 3 {
			n, err := atoi(name, args[2])
			if err != nil {
				return "", err
			}
			limit = n
		}
		return RegexReplace(input, args[0], args[1], limit)

	case FilterRepeat:
		if err := checkArgs(name, args, 1, 1); err != nil {
			return "", err
		}
		n, err := atoi(name, args[0])
		if err != nil {
			return "", err
		}
		return f.repeat(n, input)

	case FilterParagraphsSlice:
		if err := checkArgs(name, args, 0, 2); err != nil {
			return "", err
		}
		offset := 0
		var length *int
		if len(args) > 0 {
			n, err := atoi(name, args[0])
			if err != nil {
				return "", err
			}
			offset = n
		}
		if len(args) > 1 {
			n, err := atoi(name, args[1])
			if err != nil {
				return "", err
			}
			length = &n
		}
		return strings.Join(ParagraphsSlice(input, offset, length), ""), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFilter, name)
}

func checkArgs(name string, args []string, lo, hi int) error {
	if len(args) < lo || len(args) > hi {
		return fmt.Errorf("%w: %s takes %d to %d arguments, got %d", ErrBadArgument, name, lo, hi, len(args))
	}
	return nil
}

func atoi(name, s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrBadArgument, name, err)
	}
	return n, nil
}
