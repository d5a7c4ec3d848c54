// Package workspace manages mtforge's on-disk layout and configuration,
// and wires the infrastructure services together for the CLI.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config holds all toolkit configuration.
type Config struct {
	Workspace WorkspaceConfig `toml:"workspace"`
	Hub       HubConfig       `toml:"hub"`
	Convert   ConvertConfig   `toml:"convert"`
	API       APIConfig       `toml:"api"`
	Telemetry TelemetryConfig `toml:"telemetry"`
}

// WorkspaceConfig controls where artifacts and state live.
type WorkspaceConfig struct {
	Dir string `toml:"dir"`
}

// HubConfig controls the upstream model hub.
type HubConfig struct {
	Endpoint string `toml:"endpoint"`
	Token    string `toml:"token"`
}

// ConvertConfig controls the conversion pipeline.
type ConvertConfig struct {
	Quantize bool `toml:"quantize"`
}

// APIConfig controls the status HTTP server.
type APIConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// TelemetryConfig controls observability endpoints.
type TelemetryConfig struct {
	Prometheus bool `toml:"prometheus"`
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() Config {
	return Config{
		Workspace: WorkspaceConfig{
			Dir: Home(),
		},
		Hub: HubConfig{
			Endpoint: "https://huggingface.co",
		},
		Convert: ConvertConfig{
			Quantize: true,
		},
		API: APIConfig{
			Host: "127.0.0.1",
			Port: 8317,
		},
		Telemetry: TelemetryConfig{
			Prometheus: false,
		},
	}
}

// LoadConfig reads config from {home}/config.toml, falling back to defaults.
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()
	path := filepath.Join(Home(), "config.toml")

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil // No config file yet — use defaults
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// SaveConfig writes the config to {home}/config.toml.
func SaveConfig(cfg Config) error {
	path := filepath.Join(Home(), "config.toml")
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	return encoder.Encode(cfg)
}

// Home returns the mtforge data directory.
func Home() string {
	if env := os.Getenv("MTFORGE_HOME"); env != "" {
		return env
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".mtforge")
}
