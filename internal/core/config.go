package core

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator"
	"gopkg.in/yaml.v3"

	"github.com/jo-hoe/termreport/internal/backend/commandstructure"
	"github.com/jo-hoe/termreport/internal/backend/database"
	"github.com/jo-hoe/termreport/internal/rows"
)

const (
	defaultPort           = 8080
	defaultSessionTTL     = 2 * time.Hour
	defaultMaxUploadBytes = 5 << 20
	defaultPreviewWidth   = 240
	defaultPreviewHeight  = 240
)

// CommandConfig represents a generic command configuration
type CommandConfig struct {
	Name   string         `yaml:"name"`
	Params map[string]any `yaml:",inline"`
}

type Database struct {
	Type             string `yaml:"type" validate:"omitempty,oneof=sqlite redis"`
	ConnectionString string `yaml:"connectionString"`
}

type ServiceConfig struct {
	Port           int             `yaml:"port" validate:"gte=0,lte=65535"`
	LogLevel       string          `yaml:"logLevel" validate:"omitempty,oneof=debug info warn error"`
	Timezone       string          `yaml:"timezone"`
	DefaultRows    int             `yaml:"defaultRows" validate:"gte=0,lte=50"`
	SessionTTL     time.Duration   `yaml:"sessionTTL" validate:"gte=0"`
	MaxUploadBytes int64           `yaml:"maxUploadBytes" validate:"gte=0"`
	Database       Database        `yaml:"database"`
	Commands       []CommandConfig `yaml:"previewCommands"`
}

// LoadConfig loads configuration from the specified YAML file
func LoadConfig(configPath string) (*ServiceConfig, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}

	var config ServiceConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", configPath, err)
	}

	if err := validator.New().Struct(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration in %s: %w", configPath, err)
	}
	if err := validateCommands(config.Commands); err != nil {
		return nil, fmt.Errorf("invalid command configuration: %w", err)
	}
	if err := commandstructure.DefaultRegistry.Validate(config.PipelineConfigs()); err != nil {
		return nil, fmt.Errorf("invalid preview pipeline: %w", err)
	}
	if _, err := config.Location(); err != nil {
		return nil, err
	}

	config.applyDefaults()
	return &config, nil
}

// DefaultConfig returns the configuration used when no fields are set.
func DefaultConfig() *ServiceConfig {
	config := &ServiceConfig{}
	config.applyDefaults()
	return config
}

func (c *ServiceConfig) applyDefaults() {
	if c.Port == 0 {
		c.Port = defaultPort
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.DefaultRows == 0 {
		c.DefaultRows = rows.DefaultRowCount
	}
	if c.SessionTTL == 0 {
		c.SessionTTL = defaultSessionTTL
	}
	if c.MaxUploadBytes == 0 {
		c.MaxUploadBytes = defaultMaxUploadBytes
	}
	if c.Database.Type == "" {
		c.Database.Type = database.TypeSQLite
	}
	if c.Database.Type == database.TypeSQLite && c.Database.ConnectionString == "" {
		c.Database.ConnectionString = ":memory:"
	}
	if len(c.Commands) == 0 {
		c.Commands = []CommandConfig{
			{Name: "AutoOrientCommand"},
			{Name: "PngConverterCommand"},
			{Name: "PreviewScaleCommand", Params: map[string]any{"width": defaultPreviewWidth, "height": defaultPreviewHeight}},
		}
	}
}

// Location resolves the configured timezone; empty means UTC.
func (c *ServiceConfig) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// SlogLevel maps the configured log level onto slog.
func (c *ServiceConfig) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// PipelineConfigs converts the preview commands for the command registry.
func (c *ServiceConfig) PipelineConfigs() []commandstructure.CommandConfig {
	configs := make([]commandstructure.CommandConfig, len(c.Commands))
	for i, cmd := range c.Commands {
		configs[i] = commandstructure.CommandConfig{Name: cmd.Name, Params: cmd.Params}
	}
	return configs
}

// validateCommands ensures all command configurations have required fields
func validateCommands(commands []CommandConfig) error {
	seenNames := make(map[string]bool)

	for i, cmd := range commands {
		if cmd.Name == "" {
			return fmt.Errorf("command at index %d has empty name", i)
		}
		if seenNames[cmd.Name] {
			return fmt.Errorf("duplicate command name: %s", cmd.Name)
		}
		seenNames[cmd.Name] = true
	}

	return nil
}
