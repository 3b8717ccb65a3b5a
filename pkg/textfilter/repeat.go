package textfilter

import (
	"fmt"
	"math"
	"strings"
)

// Repeat returns s repeated count times. It differs from strings.Repeat only in
// reporting bad counts as errors instead of panicking.
func Repeat(s string, count int) (string, error) {
	if count < 0 {
		return "", fmt.Errorf("%w: %d", ErrNegativeCount, count)
	}
	if count > 0 && len(s) > math.MaxInt/count {
		return "", fmt.Errorf("%w: %d copies of %d bytes", ErrRepeatTooLong, count, len(s))
	}
	return strings.Repeat(s, count), nil
}

// repeatWithin is Repeat with an upper bound on the output length. A limit of
// zero or less disables the bound.
func repeatWithin(s string, count, limit int) (string, error) {
	if limit > 0 && count > 0 && len(s) > limit/count {
		return "", fmt.Errorf("%w: %d copies of %d bytes exceeds %d", ErrRepeatTooLong, count, len(s), limit)
	}
	return Repeat(s, count)
}
