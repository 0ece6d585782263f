package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

// Load loads configuration with priority: defaults < file < flags.
func Load() (*Config, error) {
	// Start with defaults
	cfg := Default()

	// Try to load from file (explicit path takes priority)
	configPath := ConfigPath()
	if configPath == "" {
		configPath = findConfigFile()
	}

	if configPath != "" {
		if err := loadFromFile(cfg, configPath); err != nil {
			return nil, fmt.Errorf("loading config from %s: %w", configPath, err)
		}
	}

	// Apply CLI flags (highest priority)
	applyFlags(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// findConfigFile looks for config in standard locations.
func findConfigFile() string {
	candidates := []string{
		"./config.yaml",
		filepath.Join(ConfigDir(), "config.yaml"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// ConfigDir returns the OS-appropriate config directory.
func ConfigDir() string {
	switch runtime.GOOS {
	case "darwin":
		home, _ := os.UserHomeDir()
		return filepath.Join(home, "Library", "Application Support", "OrbitScene")
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "OrbitScene")
	default: // Linux and others
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "orbitscene")
		}
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "orbitscene")
	}
}

// loadFromFile loads config from a YAML file, merging with existing values.
func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// Validate rejects settings the renderer cannot run with.
func (c *Config) Validate() error {
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return fmt.Errorf("window size %dx%d must be positive", c.Window.Width, c.Window.Height)
	}
	if s := c.Scene.Light.OrbitSign; s != 1 && s != -1 {
		return fmt.Errorf("scene.light.orbit_sign must be 1 or -1, got %v", s)
	}
	if c.Scene.Camera.Near <= 0 || c.Scene.Camera.Far <= c.Scene.Camera.Near {
		return errors.New("scene.camera: need 0 < near < far")
	}
	if fov := c.Scene.Camera.FovY; fov <= 0 || fov >= 180 {
		return fmt.Errorf("scene.camera.fov must be in (0, 180) degrees, got %v", fov)
	}

	seen := make(map[string]bool, len(c.Models))
	for i, m := range c.Models {
		if m.Alias == "" || m.Path == "" {
			return fmt.Errorf("models[%d]: alias and path are required", i)
		}
		if seen[m.Alias] {
			return fmt.Errorf("models[%d]: duplicate alias %q", i, m.Alias)
		}
		seen[m.Alias] = true
	}

	if c.Skybox.Enabled {
		for i, f := range c.Skybox.Faces {
			if f == "" {
				return fmt.Errorf("skybox.faces[%d] is empty", i)
			}
		}
	}
	return nil
}
