package workspace

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Hub.Endpoint != "https://huggingface.co" {
		t.Errorf("Hub.Endpoint = %q", cfg.Hub.Endpoint)
	}
	if !cfg.Convert.Quantize {
		t.Error("quantization should default to on")
	}
}

func TestHome_EnvOverride(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("MTFORGE_HOME", dir)

	if got := Home(); got != dir {
		t.Errorf("Home() = %q, want %q", got, dir)
	}
}

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv("MTFORGE_HOME", t.TempDir())

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}
	if cfg.Hub.Endpoint != DefaultConfig().Hub.Endpoint {
		t.Errorf("Hub.Endpoint = %q, want default", cfg.Hub.Endpoint)
	}
}

func TestSaveLoadConfig_RoundTrip(t *testing.T) {
	t.Setenv("MTFORGE_HOME", t.TempDir())

	cfg := DefaultConfig()
	cfg.Hub.Endpoint = "http://localhost:9999"
	cfg.Convert.Quantize = false
	cfg.Telemetry.Prometheus = true

	if err := SaveConfig(cfg); err != nil {
		t.Fatalf("SaveConfig() error: %v", err)
	}
	if _, err := os.Stat(filepath.Join(Home(), "config.toml")); err != nil {
		t.Fatalf("config file not written: %v", err)
	}

	got, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}
	if got.Hub.Endpoint != "http://localhost:9999" {
		t.Errorf("Hub.Endpoint = %q", got.Hub.Endpoint)
	}
	if got.Convert.Quantize {
		t.Error("Convert.Quantize should be false after round trip")
	}
	if !got.Telemetry.Prometheus {
		t.Error("Telemetry.Prometheus should be true after round trip")
	}
}
