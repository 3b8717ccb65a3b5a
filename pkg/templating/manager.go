package templating

import (
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/CTAG07/textfilters/pkg/textfilter"
)

const (
	pageSuffix    = ".tmpl.html"
	partialSuffix = ".part.html"
)

// TemplateManager is the central controller for the templating engine.
// It owns the template set, the configuration and the function map, and is
// responsible for loading, parsing, and executing templates.
// All methods are concurrent-safe.
type TemplateManager struct {
	logger         *slog.Logger
	config         *TemplateConfig
	templates      *template.Template
	cleanTemplates *template.Template
	pageNames      []string
	funcMap        template.FuncMap
	templateDir    string
	mu             sync.RWMutex
}

// NewTemplateManager creates, initializes, and returns a new TemplateManager that
// reads templates from templateDir. A nil config is replaced by DefaultConfig.
// It performs an initial Refresh and fails if the templates on disk do not parse.
func NewTemplateManager(logger *slog.Logger, config *TemplateConfig, templateDir string) (*TemplateManager, error) {
	if config == nil {
		config = DefaultConfig()
	}
	tm := &TemplateManager{
		logger:      logger,
		templateDir: templateDir,
		config:      config,
	}
	tm.funcMap = tm.makeFuncMap()

	if err := tm.Refresh(); err != nil {
		return nil, err
	}

	logger.Info("Template manager initialized", "dir", templateDir, "filters", len(tm.FilterNames()))
	return tm, nil
}

// makeFuncMap merges the text filters enabled by the current configuration with
// the logic helpers. Callers must hold the write lock or own tm exclusively.
func (tm *TemplateManager) makeFuncMap() template.FuncMap {
	funcs := textfilter.Funcs(tm.config.FilterConfig())

	// Logic & Control (from funcs_logic.go)
	funcs["seq"] = seq
	funcs["list"] = list
	funcs["dict"] = dict
	funcs["default"] = defaultValue

	// Integer math (from funcs_math.go)
	funcs["add"] = add
	funcs["sub"] = sub
	funcs["mul"] = mul
	funcs["div"] = div
	funcs["mod"] = mod
	funcs["clamp"] = clamp

	return funcs
}

// SetConfig applies a new configuration to the TemplateManager. The function map
// is rebuilt immediately, but already parsed templates keep the old one until the
// next Refresh.
func (tm *TemplateManager) SetConfig(config *TemplateConfig) {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	tm.config = config
	tm.funcMap = tm.makeFuncMap()
}

// Refresh reloads all pages and partials from the filesystem. A directory with no
// templates is not an error; a template that fails to parse is, and leaves the
// previously loaded set in place.
func (tm *TemplateManager) Refresh() error {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	set := template.New("").Funcs(tm.funcMap)
	var names []string

	tm.logger.Info("Loading template files...")
	pages, err := filepath.Glob(filepath.Join(tm.templateDir, "*"+pageSuffix))
	if err != nil {
		return fmt.Errorf("failed to list template files: %w", err)
	}
	if len(pages) > 0 {
		if set, err = set.ParseFiles(pages...); err != nil {
			tm.logger.Error("failed to parse template files", "error", err)
			return err
		}
	}

	tm.logger.Info("Loading partial files...")
	partials, err := filepath.Glob(filepath.Join(tm.templateDir, "*"+partialSuffix))
	if err != nil {
		return fmt.Errorf("failed to list partial files: %w", err)
	}
	if len(partials) > 0 {
		if set, err = set.ParseFiles(partials...); err != nil {
			tm.logger.Error("failed to parse partial files", "error", err)
			return err
		}
	}

	for _, t := range set.Templates() {
		// The root template has no name, and {{define}} blocks are not pages.
		if strings.HasSuffix(t.Name(), pageSuffix) {
			names = append(names, t.Name())
		}
	}
	slices.Sort(names)

	if len(names) == 0 {
		tm.logger.Warn("No template files found", "dir", tm.templateDir)
	}

	// Create a clean clone for string executions before anything is executed.
	clean, err := set.Clone()
	if err != nil {
		tm.logger.Error("failed to create a clean clone of templates", "error", err)
		return err
	}

	tm.templates = set
	tm.cleanTemplates = clean
	tm.pageNames = names
	tm.logger.Info("Loaded template and partial files", "pages", len(pages), "partials", len(partials))
	return nil
}

// Execute renders a specific template by name, writing the output to w.
// The data argument is passed to the template as its dot.
func (tm *TemplateManager) Execute(w io.Writer, name string, data any) error {
	if name == "" {
		return fmt.Errorf("templating: empty template name")
	}
	tm.mu.RLock()
	defer tm.mu.RUnlock()
	return tm.templates.ExecuteTemplate(w, name, data)
}

// ExecuteTemplateString parses and executes a raw template string using the
// manager's function map. Loaded partials are available to it by name.
// This is ideal for testing or previewing templates without saving them to disk.
func (tm *TemplateManager) ExecuteTemplateString(w io.Writer, content string, data any) error {
	tm.mu.RLock()
	defer tm.mu.RUnlock()

	// Clone the clean, unexecuted set; an executed html/template cannot be parsed into.
	tempSet, err := tm.cleanTemplates.Clone()
	if err != nil {
		return fmt.Errorf("failed to clone clean templates for string execution: %w", err)
	}

	t, err := tempSet.Parse(content)
	if err != nil {
		return fmt.Errorf("failed to parse string template: %w", err)
	}
	return t.Execute(w, data)
}

// ValidateTemplateString parses content as the file name against the loaded set
// without executing it or changing the set. It reports syntax errors and calls to
// functions that are unknown or disabled.
func (tm *TemplateManager) ValidateTemplateString(name, content string) error {
	tm.mu.RLock()
	defer tm.mu.RUnlock()

	tempSet, err := tm.cleanTemplates.Clone()
	if err != nil {
		return fmt.Errorf("failed to clone clean templates for validation: %w", err)
	}
	if _, err = tempSet.New(name).Parse(content); err != nil {
		return fmt.Errorf("failed to parse %s: %w", name, err)
	}
	return nil
}

// HasPage reports whether a page with the given name is loaded.
func (tm *TemplateManager) HasPage(name string) bool {
	tm.mu.RLock()
	defer tm.mu.RUnlock()
	_, found := slices.BinarySearch(tm.pageNames, name)
	return found
}

// GetPageNames returns the sorted names of the loaded pages (*.tmpl.html).
func (tm *TemplateManager) GetPageNames() []string {
	tm.mu.RLock()
	defer tm.mu.RUnlock()
	return slices.Clone(tm.pageNames)
}

// GetTemplateNames returns the names of every loaded file, pages and partials alike.
func (tm *TemplateManager) GetTemplateNames() []string {
	tm.mu.RLock()
	defer tm.mu.RUnlock()
	var names []string
	for _, t := range tm.templates.Templates() {
		if strings.HasSuffix(t.Name(), pageSuffix) || strings.HasSuffix(t.Name(), partialSuffix) {
			names = append(names, t.Name())
		}
	}
	slices.Sort(names)
	return names
}

// GetConfig returns a copy of the current configuration.
func (tm *TemplateManager) GetConfig() TemplateConfig {
	tm.mu.RLock()
	defer tm.mu.RUnlock()
	return *tm.config
}

// GetTemplateDir returns the directory templates are loaded from.
func (tm *TemplateManager) GetTemplateDir() string {
	tm.mu.RLock()
	defer tm.mu.RUnlock()
	return tm.templateDir
}

// FilterNames returns the names of the text filters enabled by the current configuration.
func (tm *TemplateManager) FilterNames() []string {
	tm.mu.RLock()
	defer tm.mu.RUnlock()
	return textfilter.Names(tm.config.FilterConfig())
}

// ApplyFilter runs a single text filter on input under the current configuration.
func (tm *TemplateManager) ApplyFilter(name, input string, args ...string) (string, error) {
	tm.mu.RLock()
	cfg := tm.config.FilterConfig()
	tm.mu.RUnlock()
	return textfilter.Apply(cfg, name, input, args...)
}
