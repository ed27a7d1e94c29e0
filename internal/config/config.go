package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config represents the main configuration
type Config struct {
	Store    StoreConfig    `yaml:"store"`
	Logging  LoggingConfig  `yaml:"logging"`
	Render   RenderConfig   `yaml:"render"`
	Database DatabaseConfig `yaml:"database"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// StoreConfig locates the log directories written by the agents
type StoreConfig struct {
	AgentLogsDir        string `yaml:"agent_logs_dir"`
	ConversationLogsDir string `yaml:"conversation_logs_dir"`
}

// LoggingConfig defines logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // json or console
}

// RenderConfig controls terminal presentation
type RenderConfig struct {
	Width          int               `yaml:"width"`
	BoxWidth       int               `yaml:"box_width"`
	PromptMaxLen   int               `yaml:"prompt_max_len"`
	ResponseMaxLen int               `yaml:"response_max_len"`
	NoColor        bool              `yaml:"no_color"`
	ProducerColors map[string]string `yaml:"producer_colors,omitempty"`
	ProducerIcons  map[string]string `yaml:"producer_icons,omitempty"`
	LevelColors    map[string]string `yaml:"level_colors,omitempty"`
}

// DatabaseConfig holds the SQLite catalog locations
type DatabaseConfig struct {
	PromptsPath    string `yaml:"prompts_path"`
	GuardrailsPath string `yaml:"guardrails_path"`
}

// MetricsConfig holds metrics export configuration
type MetricsConfig struct {
	Textfile string `yaml:"textfile,omitempty"`
}

// Default values
const (
	DefaultAgentLogsDir        = "agent_logs"
	DefaultConversationLogsDir = "conversation_logs"
	DefaultLogLevel            = "warn"
	DefaultLogFormat           = "console"
	DefaultWidth               = 80
	DefaultBoxWidth            = 68
	DefaultPromptMaxLen        = 800
	DefaultResponseMaxLen      = 1200
	DefaultPromptsPath         = "prompts.db"
	DefaultGuardrailsPath      = "guardrails.db"
	DefaultConfigFile          = "convlog.yaml"
)

// Load loads configuration from a YAML file with environment variable overrides
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Expand environment variables in the YAML content
	expandedData := []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err := yaml.Unmarshal(expandedData, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// LoadOrDefault loads the file when it exists. A missing file yields the
// default configuration; any other failure is returned.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if err == nil {
		return cfg, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return DefaultConfig(), nil
	}
	return nil, err
}

// applyDefaults sets default values for unspecified configuration
func (c *Config) applyDefaults() {
	if c.Store.AgentLogsDir == "" {
		c.Store.AgentLogsDir = DefaultAgentLogsDir
	}
	if c.Store.ConversationLogsDir == "" {
		c.Store.ConversationLogsDir = DefaultConversationLogsDir
	}
	if c.Logging.Level == "" {
		c.Logging.Level = DefaultLogLevel
	}
	if c.Logging.Format == "" {
		c.Logging.Format = DefaultLogFormat
	}
	if c.Render.Width == 0 {
		c.Render.Width = DefaultWidth
	}
	if c.Render.BoxWidth == 0 {
		c.Render.BoxWidth = DefaultBoxWidth
	}
	if c.Render.PromptMaxLen == 0 {
		c.Render.PromptMaxLen = DefaultPromptMaxLen
	}
	if c.Render.ResponseMaxLen == 0 {
		c.Render.ResponseMaxLen = DefaultResponseMaxLen
	}
	if c.Database.PromptsPath == "" {
		c.Database.PromptsPath = DefaultPromptsPath
	}
	if c.Database.GuardrailsPath == "" {
		c.Database.GuardrailsPath = DefaultGuardrailsPath
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true, "disabled": true,
	}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	validLogFormats := map[string]bool{
		"json": true, "console": true,
	}
	if !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("invalid log format: %s", c.Logging.Format)
	}

	// Truncation keeps the first n-3 characters plus an ellipsis
	if c.Render.PromptMaxLen < 3 {
		return fmt.Errorf("render.prompt_max_len must be at least 3, got %d", c.Render.PromptMaxLen)
	}
	if c.Render.ResponseMaxLen < 3 {
		return fmt.Errorf("render.response_max_len must be at least 3, got %d", c.Render.ResponseMaxLen)
	}
	if c.Render.Width < 10 {
		return fmt.Errorf("render.width must be at least 10, got %d", c.Render.Width)
	}
	if c.Render.BoxWidth < 10 {
		return fmt.Errorf("render.box_width must be at least 10, got %d", c.Render.BoxWidth)
	}

	return nil
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}
