// Package config provides configuration loading and management for dicommpr.
// It handles loading configuration from YAML files and provides default values.
package config

import (
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration loaded from YAML
type Config struct {
	// Display parameters
	Display struct {
		// Rows and Cols fix the canvas every view is fitted into.
		// Zero means "use the volume's height/width".
		Rows int `yaml:"rows"`
		Cols int `yaml:"cols"`

		// CrosshairColor is a #rrggbb color for the reference lines
		CrosshairColor string `yaml:"crosshairColor"`

		// Labels adds axis, index and window captions to exported images
		Labels bool `yaml:"labels"`
	} `yaml:"display"`

	// Window/level control parameters
	Window struct {
		// CenterMin and CenterMax bound the level slider
		CenterMin float64 `yaml:"centerMin"`
		CenterMax float64 `yaml:"centerMax"`

		// WidthMax bounds the width slider; the minimum is always 1
		WidthMax float64 `yaml:"widthMax"`

		// DragSensitivity scales mouse motion (pixels) into window units
		DragSensitivity float64 `yaml:"dragSensitivity"`
	} `yaml:"window"`

	// Load parameters
	Load struct {
		// Extensions restricts which files a DICOM directory scan considers.
		// Empty means every regular file is tried.
		Extensions []string `yaml:"extensions"`

		// Workers bounds parallel slice decoding; zero means one per CPU
		Workers int `yaml:"workers"`
	} `yaml:"load"`

	// Output parameters
	Output struct {
		// Format is the raster format for saved slices: png, jpeg or tiff
		Format string `yaml:"format"`

		// Dir is where saved slices go; empty means the input folder
		Dir string `yaml:"dir"`

		// Verbose controls the level of logging output
		Verbose bool `yaml:"verbose"`
	} `yaml:"output"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Display.Rows = 0
	cfg.Display.Cols = 0
	cfg.Display.CrosshairColor = "#ff0000"
	cfg.Display.Labels = false

	// Slider ranges used by the interactive viewer
	cfg.Window.CenterMin = -2000
	cfg.Window.CenterMax = 2000
	cfg.Window.WidthMax = 4000
	cfg.Window.DragSensitivity = 1.0

	cfg.Output.Format = "png"
	cfg.Output.Verbose = true

	return cfg
}

// LoadConfig loads configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if configPath == "" {
		return cfg, nil
	}

	// Check if config file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", configPath, err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// CreateDefaultConfigFile creates a default configuration file at the specified path
func CreateDefaultConfigFile(configPath string) error {
	cfg := DefaultConfig()
	return SaveConfig(cfg, configPath)
}

// Validate checks values that cannot be corrected silently.
func (c *Config) Validate() error {
	if c.Display.Rows < 0 || c.Display.Cols < 0 {
		return fmt.Errorf("display size must not be negative: %dx%d", c.Display.Cols, c.Display.Rows)
	}
	if c.Load.Workers < 0 {
		return fmt.Errorf("load workers must not be negative: %d", c.Load.Workers)
	}
	if _, err := ParseColor(c.Display.CrosshairColor); err != nil {
		return err
	}
	if c.Window.CenterMin >= c.Window.CenterMax {
		return fmt.Errorf("window centerMin %v must be below centerMax %v", c.Window.CenterMin, c.Window.CenterMax)
	}
	if c.Window.WidthMax < 1 {
		return fmt.Errorf("window widthMax must be at least 1, got %v", c.Window.WidthMax)
	}
	switch strings.ToLower(c.Output.Format) {
	case "png", "jpeg", "jpg", "tiff", "tif":
	default:
		return fmt.Errorf("unsupported output format %q", c.Output.Format)
	}
	return nil
}

// Target returns the configured canvas size for a volume of the given
// height and width. Unset dimensions follow the volume.
func (c *Config) Target(height, width int) image.Point {
	t := image.Pt(c.Display.Cols, c.Display.Rows)
	if t.X <= 0 {
		t.X = width
	}
	if t.Y <= 0 {
		t.Y = height
	}
	return t
}

// LineColor returns the crosshair color, falling back to red.
func (c *Config) LineColor() color.RGBA {
	col, err := ParseColor(c.Display.CrosshairColor)
	if err != nil {
		return color.RGBA{R: 255, A: 255}
	}
	return col
}

// ParseColor parses a #rrggbb string. An empty string means red.
func ParseColor(s string) (color.RGBA, error) {
	if s == "" {
		return color.RGBA{R: 255, A: 255}, nil
	}
	if len(s) != 7 || s[0] != '#' {
		return color.RGBA{}, fmt.Errorf("invalid color %q (want #rrggbb)", s)
	}
	v, err := strconv.ParseUint(s[1:], 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}, nil
}
