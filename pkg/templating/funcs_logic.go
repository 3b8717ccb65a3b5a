package templating

import (
	"fmt"
	"reflect"
)

// seq returns a slice of integers from 0 to count-1, for ranging a fixed number of times.
func seq(count int) []int {
	if count < 0 {
		return []int{}
	}
	s := make([]int, count)
	for i := 0; i < count; i++ {
		s[i] = i
	}
	return s
}

// list returns a slice containing all the arguments passed to it.
// Its result can be handed to regex_replace as a pattern or replacement list.
func list(args ...any) []any {
	return args
}

// dict builds a map from alternating keys and values, mostly for passing several
// values to a partial.
func dict(pairs ...any) (map[string]any, error) {
	if len(pairs)%2 != 0 {
		return nil, fmt.Errorf("dict: odd number of arguments (%d)", len(pairs))
	}
	m := make(map[string]any, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		key, ok := pairs[i].(string)
		if !ok {
			return nil, fmt.Errorf("dict: key %d is %T, not string", i/2, pairs[i])
		}
		m[key] = pairs[i+1]
	}
	return m, nil
}

// defaultValue returns val, or fallback if val is its zero value.
// Usage: {{ .Title | default "Untitled" }}
func defaultValue(fallback, val any) any {
	v := reflect.ValueOf(val)
	if !v.IsValid() || v.IsZero() {
		return fallback
	}
	return val
}
