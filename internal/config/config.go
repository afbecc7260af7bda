package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the application configuration
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Events  EventsConfig  `yaml:"events"`
	Import  ImportConfig  `yaml:"import"`
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port int    `yaml:"port"`
	Host string `yaml:"host"`
}

// StorageConfig holds storage configuration
type StorageConfig struct {
	Type string `yaml:"type"` // "memory" or "file"
	Path string `yaml:"path"` // Path for file storage
}

// EventsConfig holds import-event retention configuration
type EventsConfig struct {
	MaxEvents int `yaml:"maxEvents"`
}

// ImportConfig holds default merge behavior for imports that do not specify
// their own options
type ImportConfig struct {
	OnDuplicate      string `yaml:"onDuplicate"` // "replace" or "skip"
	MarkAsDeprecated bool   `yaml:"markAsDeprecated"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: 8080,
			Host: "0.0.0.0",
		},
		Storage: StorageConfig{
			Type: "memory",
			Path: "./data",
		},
		Events: EventsConfig{
			MaxEvents: 1000,
		},
		Import: ImportConfig{
			OnDuplicate:      "replace",
			MarkAsDeprecated: false,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads configuration from a YAML file, layered over the defaults
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate rejects configurations the server cannot run with
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Storage.Type != "memory" && c.Storage.Type != "file" {
		return fmt.Errorf("invalid storage type: %q", c.Storage.Type)
	}
	if c.Storage.Type == "file" && c.Storage.Path == "" {
		return fmt.Errorf("file storage requires a path")
	}
	if c.Import.OnDuplicate != "replace" && c.Import.OnDuplicate != "skip" {
		return fmt.Errorf("invalid onDuplicate policy: %q", c.Import.OnDuplicate)
	}
	if c.Events.MaxEvents < 1 {
		return fmt.Errorf("events.maxEvents must be positive")
	}
	return nil
}
