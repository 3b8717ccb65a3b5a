package templating

import "github.com/CTAG07/textfilters/pkg/textfilter"

// TemplateConfig holds all configuration options for the templating engine.
type TemplateConfig struct {
	// MaxRepeatLength sets a hard upper limit, in bytes, on the output of the repeat filter.
	// Zero disables the limit.
	MaxRepeatLength int `json:"max_repeat_length"`

	// DisabledFilters lists filter names that templates are not allowed to use.
	// Templates referencing a disabled filter fail to parse.
	DisabledFilters []string `json:"disabled_filters"`
}

// DefaultConfig returns a TemplateConfig with safe default values.
// Every filter is enabled by default.
func DefaultConfig() *TemplateConfig {
	return &TemplateConfig{
		MaxRepeatLength: 1048576, // 1MB
		DisabledFilters: []string{},
	}
}

// FilterConfig translates the template configuration into the filter package's terms.
func (c *TemplateConfig) FilterConfig() textfilter.Config {
	return textfilter.Config{
		MaxRepeatLength: c.MaxRepeatLength,
		Disabled:        c.DisabledFilters,
	}
}
