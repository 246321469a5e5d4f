package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config holds the application configuration
type Config struct {
	Engine    EngineConfig    `json:"engine"`
	Heuristic HeuristicConfig `json:"heuristic"`
	Output    OutputConfig    `json:"output"`
}

// EngineConfig selects and configures the vision backend
type EngineConfig struct {
	Backend     string `json:"backend"` // heuristic or ollama
	ServerURL   string `json:"server_url"`
	Model       string `json:"model"`
	SendMaxDim  int    `json:"send_max_dim"`
	SendQuality int    `json:"send_quality"`
}

// HeuristicConfig tunes the built-in detectors
type HeuristicConfig struct {
	EdgeThreshold      float64 `json:"edge_threshold"`
	SaliencyMapSize    int     `json:"saliency_map_size"`
	MinRegionRatio     float64 `json:"min_region_ratio"`
	RectangleTolerance float64 `json:"rectangle_tolerance"`
	MaxObservations    int     `json:"max_observations"`
}

// OutputConfig controls result and overlay output
type OutputConfig struct {
	OverlayFormat  string `json:"overlay_format"`
	OverlayQuality int    `json:"overlay_quality"`
	PrettyJSON     bool   `json:"pretty_json"`
}

// Default returns a configuration with default values
func Default() *Config {
	return &Config{
		Engine: EngineConfig{
			Backend:     "heuristic",
			ServerURL:   "http://localhost:11434",
			Model:       "openbmb/minicpm-v4.5",
			SendMaxDim:  1536,
			SendQuality: 85,
		},
		Heuristic: HeuristicConfig{
			EdgeThreshold:      30,
			SaliencyMapSize:    128,
			MinRegionRatio:     0.002,
			RectangleTolerance: 0.75,
			MaxObservations:    10,
		},
		Output: OutputConfig{
			OverlayFormat:  "png",
			OverlayQuality: 92,
			PrettyJSON:     true,
		},
	}
}

// LoadFromFile loads configuration from a JSON file
func LoadFromFile(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Default()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return config, nil
}

// SaveToFile saves configuration to a JSON file
func (c *Config) SaveToFile(filename string) error {
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Engine.Backend != "heuristic" && c.Engine.Backend != "ollama" {
		return fmt.Errorf("engine.backend must be heuristic or ollama")
	}

	if c.Engine.SendQuality < 1 || c.Engine.SendQuality > 100 {
		return fmt.Errorf("engine.send_quality must be between 1 and 100")
	}

	if c.Heuristic.EdgeThreshold < 0 || c.Heuristic.EdgeThreshold > 255 {
		return fmt.Errorf("heuristic.edge_threshold must be between 0 and 255")
	}

	if c.Heuristic.MinRegionRatio < 0 || c.Heuristic.MinRegionRatio > 1 {
		return fmt.Errorf("heuristic.min_region_ratio must be between 0 and 1")
	}

	if c.Heuristic.RectangleTolerance < 0 || c.Heuristic.RectangleTolerance > 1 {
		return fmt.Errorf("heuristic.rectangle_tolerance must be between 0 and 1")
	}

	return nil
}

// GetConfigPath returns the default configuration file path
func GetConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./config.json"
	}
	return filepath.Join(home, ".config", "vision-tasks", "config.json")
}
