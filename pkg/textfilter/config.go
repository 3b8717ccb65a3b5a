package textfilter

import "slices"

// Config controls which filters are registered and the limits they enforce.
type Config struct {
	// MaxRepeatLength caps the output of the repeat filter, in bytes.
	// Zero or less disables the cap.
	MaxRepeatLength int `json:"max_repeat_length"`

	// Disabled lists filter names that are left out of the FuncMap.
	Disabled []string `json:"disabled_filters"`
}

// DefaultConfig returns a Config with every filter enabled and repeat capped at 1MB.
func DefaultConfig() Config {
	return Config{
		MaxRepeatLength: 1048576, // 1MB
		Disabled:        []string{},
	}
}

func (c Config) enabled(name string) bool {
	return slices.Contains(allFilters, name) && !slices.Contains(c.Disabled, name)
}
