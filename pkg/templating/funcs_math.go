package templating

import "fmt"

// Integer helpers, mostly for computing paragraphs_slice offsets and repeat
// counts inside a template: {{ .Body | paragraphs_slice 0 (sub .Limit 1) }}

func add(a, b int) int { return a + b }

func sub(a, b int) int { return a - b }

func mul(a, b int) int { return a * b }

// div is integer division. Dividing by zero fails the execution.
func div(a, b int) (int, error) {
	if b == 0 {
		return 0, fmt.Errorf("div: division by zero")
	}
	return a / b, nil
}

func mod(a, b int) (int, error) {
	if b == 0 {
		return 0, fmt.Errorf("mod: division by zero")
	}
	return a % b, nil
}

// clamp limits v to the range [lo, hi].
func clamp(lo, hi, v int) int {
	return max(lo, min(hi, v))
}
