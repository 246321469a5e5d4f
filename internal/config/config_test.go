package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default config must validate: %v", err)
	}
}

func TestSaveLoadRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")

	cfg := Default()
	cfg.Engine.Backend = "ollama"
	cfg.Engine.Model = "llava"
	cfg.Heuristic.EdgeThreshold = 42

	if err := cfg.SaveToFile(path); err != nil {
		t.Fatalf("SaveToFile failed: %v", err)
	}

	loaded, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}
	if loaded.Engine.Backend != "ollama" || loaded.Engine.Model != "llava" {
		t.Errorf("engine settings lost in roundtrip: %+v", loaded.Engine)
	}
	if loaded.Heuristic.EdgeThreshold != 42 {
		t.Errorf("heuristic settings lost in roundtrip: %+v", loaded.Heuristic)
	}
}

func TestLoadFillsDefaults(t *testing.T) {
	// A partial file keeps defaults for everything it doesn't mention.
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"engine": {"backend": "ollama"}}`), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}
	if cfg.Engine.Backend != "ollama" {
		t.Errorf("expected overridden backend, got %q", cfg.Engine.Backend)
	}
	if cfg.Engine.ServerURL != Default().Engine.ServerURL {
		t.Errorf("expected default server URL, got %q", cfg.Engine.ServerURL)
	}
	if cfg.Heuristic.SaliencyMapSize != Default().Heuristic.SaliencyMapSize {
		t.Error("expected default heuristic settings")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadInvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFromFile(path); err == nil {
		t.Fatal("expected error for invalid JSON")
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown backend", func(c *Config) { c.Engine.Backend = "cloud" }},
		{"quality too low", func(c *Config) { c.Engine.SendQuality = 0 }},
		{"quality too high", func(c *Config) { c.Engine.SendQuality = 101 }},
		{"negative threshold", func(c *Config) { c.Heuristic.EdgeThreshold = -1 }},
		{"ratio above one", func(c *Config) { c.Heuristic.MinRegionRatio = 1.5 }},
		{"tolerance above one", func(c *Config) { c.Heuristic.RectangleTolerance = 2 }},
	}

	for _, tt := range tests {
		cfg := Default()
		tt.mutate(cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("%s: expected validation error", tt.name)
		}
	}
}

func TestGetConfigPath(t *testing.T) {
	if GetConfigPath() == "" {
		t.Fatal("config path must never be empty")
	}
}
