package main

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/CTAG07/textfilters/pkg/templating"
	"github.com/google/go-cmp/cmp"
)

func TestLoadConfig_CreatesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	config, err := LoadConfig(path, discardLogger())
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if diff := cmp.Diff(DefaultConfig(), config); diff != "" {
		t.Errorf("default config mismatch (-want +got):\n%s", diff)
	}
	if _, err = os.Stat(path); err != nil {
		t.Errorf("default config file was not written: %v", err)
	}

	reloaded, err := LoadConfig(path, discardLogger())
	if err != nil {
		t.Fatalf("LoadConfig of written defaults failed: %v", err)
	}
	if diff := cmp.Diff(config, reloaded); diff != "" {
		t.Errorf("written defaults did not round trip (-want +got):\n%s", diff)
	}
}

func TestLoadConfig_PartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	writeFile(t, path, `{"template_config":{"max_repeat_length":10,"disabled_filters":["hash"]}}`)

	config, err := LoadConfig(path, discardLogger())
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	want := &templating.TemplateConfig{MaxRepeatLength: 10, DisabledFilters: []string{"hash"}}
	if diff := cmp.Diff(want, config.Templates); diff != "" {
		t.Errorf("template config mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(DefaultServerConfig(), config.Server); diff != "" {
		t.Errorf("missing server section should keep defaults (-want +got):\n%s", diff)
	}
}

func TestLoadConfig_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	writeFile(t, path, `{"server_config":`)
	if _, err := LoadConfig(path, discardLogger()); err == nil {
		t.Fatal("expected an error for a malformed config file")
	}
}

func TestParseLogLevel(t *testing.T) {
	for in, want := range map[string]string{"DEBUG": "DEBUG", "warn": "WARN", "error": "ERROR", "": "INFO", "loud": "INFO"} {
		if got := parseLogLevel(in).String(); got != want {
			t.Errorf("parseLogLevel(%q) = %s, want %s", in, got, want)
		}
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestLoadConfig_UnwritableDefaults(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	path := filepath.Join(t.TempDir(), "missing", "config.json")

	config, err := LoadConfig(path, logger)
	if err != nil {
		t.Fatalf("an unwritable default config should not be fatal: %v", err)
	}
	if diff := cmp.Diff(DefaultConfig(), config); diff != "" {
		t.Errorf("expected defaults (-want +got):\n%s", diff)
	}
	if !strings.Contains(logs.String(), "Failed to write default config file") {
		t.Errorf("expected the failed write to be logged, got %q", logs.String())
	}
}

func TestConfigManager_UpdateWriteFailure(t *testing.T) {
	templateDir := t.TempDir()
	writeFile(t, filepath.Join(templateDir, "page.tmpl.html"), `{{ "ab" | repeat 2 }}`)

	cm := &ConfigManager{
		config:     DefaultConfig(),
		configPath: filepath.Join(t.TempDir(), "missing", "config.json"),
		logger:     discardLogger(),
	}
	tm, err := templating.NewTemplateManager(discardLogger(), cm.config.Templates, templateDir)
	if err != nil {
		t.Fatalf("NewTemplateManager failed: %v", err)
	}
	cm.SetTemplateManager(tm)

	update := cm.Get()
	update.Templates = &templating.TemplateConfig{MaxRepeatLength: 7, DisabledFilters: []string{}}
	if err = cm.Update(update); err == nil {
		t.Fatal("expected Update to fail when the config cannot be saved")
	}

	want := templating.DefaultConfig().MaxRepeatLength
	if got := cm.Get().Templates.MaxRepeatLength; got != want {
		t.Errorf("in-memory config changed despite the failed save: max_repeat_length = %d", got)
	}
	if got := tm.GetConfig().MaxRepeatLength; got != want {
		t.Errorf("template manager kept the unsaved config: max_repeat_length = %d", got)
	}
}
