package core

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to create test config file: %v", err)
	}
	return configPath
}

func TestLoadConfig_Success(t *testing.T) {
	configPath := writeConfig(t, `port: 9090
logLevel: debug
timezone: Europe/Berlin
defaultRows: 3
sessionTTL: 30m
maxUploadBytes: 1024
database:
  type: redis
  connectionString: "redis://localhost:6379/0"
previewCommands:
  - name: PngConverterCommand
  - name: PreviewScaleCommand
    width: 120
`)

	config, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if config.Port != 9090 {
		t.Errorf("Expected port to be 9090, got %d", config.Port)
	}
	if config.SlogLevel() != slog.LevelDebug {
		t.Errorf("Expected debug level, got %v", config.SlogLevel())
	}
	if config.DefaultRows != 3 {
		t.Errorf("Expected 3 default rows, got %d", config.DefaultRows)
	}
	if config.SessionTTL != 30*time.Minute {
		t.Errorf("Expected session TTL 30m, got %v", config.SessionTTL)
	}
	if config.MaxUploadBytes != 1024 {
		t.Errorf("Expected maxUploadBytes 1024, got %d", config.MaxUploadBytes)
	}
	if config.Database.Type != "redis" || config.Database.ConnectionString != "redis://localhost:6379/0" {
		t.Errorf("Unexpected database config %+v", config.Database)
	}
	if len(config.Commands) != 2 {
		t.Fatalf("Expected 2 preview commands, got %d", len(config.Commands))
	}
	if got := config.Commands[1].Params["width"]; got != 120 {
		t.Errorf("Expected inline width param 120, got %v", got)
	}
	loc, err := config.Location()
	if err != nil || loc.String() != "Europe/Berlin" {
		t.Errorf("Expected Europe/Berlin location, got %v (%v)", loc, err)
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	config, err := LoadConfig(writeConfig(t, "{}\n"))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if config.Port != defaultPort {
		t.Errorf("Expected default port, got %d", config.Port)
	}
	if config.DefaultRows != 5 {
		t.Errorf("Expected 5 default rows, got %d", config.DefaultRows)
	}
	if config.Database.Type != "sqlite" || config.Database.ConnectionString != ":memory:" {
		t.Errorf("Expected in-memory sqlite, got %+v", config.Database)
	}
	if len(config.Commands) != 3 || config.Commands[0].Name != "AutoOrientCommand" {
		t.Errorf("Expected default preview pipeline, got %+v", config.Commands)
	}
	if config.SlogLevel() != slog.LevelInfo {
		t.Errorf("Expected info level, got %v", config.SlogLevel())
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad yaml", "port: [1,2"},
		{"port out of range", "port: 70000"},
		{"unknown log level", "logLevel: verbose"},
		{"unknown database", "database:\n  type: postgres"},
		{"too many rows", "defaultRows: 500"},
		{"bad timezone", "timezone: Mars/Olympus"},
		{"empty command name", "previewCommands:\n  - width: 10"},
		{"duplicate command", "previewCommands:\n  - name: PngConverterCommand\n  - name: PngConverterCommand"},
		{"unregistered command", "previewCommands:\n  - name: DitherCommand"},
		{"invalid command params", "previewCommands:\n  - name: PreviewScaleCommand\n    width: -5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config, err := LoadConfig(writeConfig(t, tt.content))
			if err == nil {
				t.Fatal("Expected error, got nil")
			}
			if config != nil {
				t.Error("Expected config to be nil on error")
			}
		})
	}
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	config, err := LoadConfig("/path/that/does/not/exist/config.yaml")
	if err == nil {
		t.Fatal("Expected error for non-existent file, got nil")
	}
	if config != nil {
		t.Error("Expected config to be nil when file doesn't exist")
	}
}
