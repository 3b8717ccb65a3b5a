package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/CTAG07/textfilters/pkg/templating"
	"github.com/natefinch/atomic"
)

// ServerConfig holds the configuration for the HTTP servers.
type ServerConfig struct {
	ServerAddr   string            `json:"server_addr"`
	ApiAddr      string            `json:"api_addr"`
	LogLevel     string            `json:"log_level"`
	DataDir      string            `json:"data_dir"`
	TemplateDir  string            `json:"template_dir"`
	DatabasePath string            `json:"database_path"`
	PageHeaders  map[string]string `json:"page_headers"`
}

// Config is the top-level configuration struct that aggregates all other configs.
type Config struct {
	Server    *ServerConfig              `json:"server_config"`
	Templates *templating.TemplateConfig `json:"template_config"`
}

// DefaultServerConfig creates a server configuration with default values.
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		ServerAddr:   ":7377",
		ApiAddr:      ":7378",
		LogLevel:     "info",
		DataDir:      "./data",
		TemplateDir:  "./data/templates",
		DatabasePath: "./data/textfilters.db?_journal_mode=WAL&_busy_timeout=5000",
		PageHeaders: map[string]string{
			"Cache-Control":          "no-cache",
			"Content-Type":           "text/html; charset=utf-8",
			"X-Content-Type-Options": "nosniff",
		},
	}
}

// DefaultConfig returns a Config with every section set to its defaults.
func DefaultConfig() *Config {
	return &Config{
		Server:    DefaultServerConfig(),
		Templates: templating.DefaultConfig(),
	}
}

// LoadConfig reads the configuration from a JSON file at the given path.
// If the file doesn't exist, it returns the defaults and tries to save them there;
// a failed save is logged to logger and does not stop the server.
// Sections missing from the file keep their defaults.
func LoadConfig(path string, logger *slog.Logger) (*Config, error) {
	config := DefaultConfig()

	file, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err = writeConfig(path, config); err != nil {
			logger.Warn("Failed to write default config file, running with defaults", "path", path, "error", err)
		}
		return config, nil
	}

	if err = json.Unmarshal(file, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if config.Server == nil {
		config.Server = DefaultServerConfig()
	}
	if config.Templates == nil {
		config.Templates = templating.DefaultConfig()
	}
	return config, nil
}

// writeConfig replaces the file at path with config, atomically.
func writeConfig(path string, config *Config) error {
	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err = atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// ConfigManager handles thread-safe access to the configuration and keeps the
// template manager in step with it.
type ConfigManager struct {
	config     *Config
	mu         sync.RWMutex
	configPath string
	logger     *slog.Logger
	tm         *templating.TemplateManager
}

// NewConfigManager loads the config at path and wraps it in a ConfigManager.
func NewConfigManager(path string) (*ConfigManager, error) {
	// Log to stdout until the configured logger is set.
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{}))
	cfg, err := LoadConfig(path, logger)
	if err != nil {
		return nil, err
	}
	return &ConfigManager{
		config:     cfg,
		configPath: path,
		logger:     logger,
	}, nil
}

// SetTemplateManager registers the template manager to receive config updates.
func (cm *ConfigManager) SetTemplateManager(tm *templating.TemplateManager) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.tm = tm
}

// SetLogger replaces the bootstrap logger.
func (cm *ConfigManager) SetLogger(logger *slog.Logger) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.logger = logger
}

// Get returns a copy of the current configuration.
func (cm *ConfigManager) Get() Config {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return *cm.config
}

// Update validates and applies newConfig, then saves it to disk. The template
// section is tried against the template manager first; if the templates on disk
// no longer parse under it (a filter they use was disabled, say) the update is
// rejected. The new config only becomes current once it has been saved; on any
// failure the template manager is put back on the old template config.
func (cm *ConfigManager) Update(newConfig Config) error {
	if newConfig.Server == nil || newConfig.Templates == nil {
		return fmt.Errorf("config must contain both server_config and template_config")
	}

	cm.mu.Lock()
	defer cm.mu.Unlock()

	oldTmplConfig := cm.config.Templates
	if cm.tm != nil {
		cm.tm.SetConfig(newConfig.Templates)
		if err := cm.tm.Refresh(); err != nil {
			cm.restoreTemplates(oldTmplConfig)
			return fmt.Errorf("template configuration rejected: %w", err)
		}
	}

	if err := writeConfig(cm.configPath, &newConfig); err != nil {
		cm.restoreTemplates(oldTmplConfig)
		return err
	}

	*cm.config = newConfig
	cm.logger.Info("Configuration updated", "path", cm.configPath)
	return nil
}

// restoreTemplates puts the template manager back on config. Callers hold cm.mu.
func (cm *ConfigManager) restoreTemplates(config *templating.TemplateConfig) {
	if cm.tm == nil {
		return
	}
	cm.tm.SetConfig(config)
	if err := cm.tm.Refresh(); err != nil {
		cm.logger.Error("Failed to restore templates after rejected config", "error", err)
	}
}
