package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/pelletier/go-toml/v2"

	"github.com/gogpu/trimesh"
	"github.com/gogpu/trimesh/backend"
)

// Config holds the demo settings. Every field can come from the TOML file
// and be overridden by the flag of the same name.
type Config struct {
	// Backend names a registered HAL backend, or "auto" for the first
	// one that opens.
	Backend     string  `toml:"backend"`
	Width       uint32  `toml:"width"`
	Height      uint32  `toml:"height"`
	ScaleFactor float32 `toml:"scale_factor"`
	Samples     uint32  `toml:"samples"`
	Frames      int     `toml:"frames"`
	Meshes      int     `toml:"meshes"`
	Sides       int     `toml:"sides"`
	LogLevel    string  `toml:"log_level"`
}

// autoBackend selects backend.OpenDefault.
const autoBackend = "auto"

// DefaultConfig returns the settings used when no file is given.
func DefaultConfig() Config {
	return Config{
		Backend:     backend.Noop,
		Width:       800,
		Height:      600,
		ScaleFactor: 1,
		Samples:     1,
		Frames:      3,
		Meshes:      64,
		Sides:       6,
		LogLevel:    "info",
	}
}

// LoadConfig reads path over the defaults. Unknown keys are rejected.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return cfg, fmt.Errorf("config %s: %s", path, strict.String())
		}
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the settings and returns the antialiasing mode they select.
func (c Config) Validate() (trimesh.Antialiasing, error) {
	if c.Backend != autoBackend && !backend.IsRegistered(c.Backend) {
		return 0, fmt.Errorf("backend %q not in %v", c.Backend, backend.Available())
	}
	if c.Width == 0 || c.Height == 0 {
		return 0, fmt.Errorf("canvas size %dx%d must be positive", c.Width, c.Height)
	}
	if !(c.ScaleFactor > 0) {
		return 0, fmt.Errorf("scale_factor %v must be positive", c.ScaleFactor)
	}
	if c.Frames < 1 {
		return 0, fmt.Errorf("frames %d must be at least 1", c.Frames)
	}
	if c.Meshes < 0 {
		return 0, fmt.Errorf("meshes %d must not be negative", c.Meshes)
	}
	if c.Sides < 3 {
		return 0, fmt.Errorf("sides %d must be at least 3", c.Sides)
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return 0, fmt.Errorf("log_level: %w", err)
	}
	return trimesh.AntialiasingFromSamples(c.Samples)
}
