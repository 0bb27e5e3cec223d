// Package config holds the client-side settings file: which server to
// talk to, the auth token, and where the snapshot slot lives.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type Config struct {
	ServerURL    string `yaml:"server_url"`
	Token        string `yaml:"token"`
	SnapshotPath string `yaml:"snapshot_path"`
}

func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve config dir: %w", err)
	}
	return filepath.Join(dir, "focusblock", "config.yaml"), nil
}

func Load(path string) (*Config, error) {
	cfg := &Config{
		ServerURL: "http://localhost:8080",
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg.withDefaults(path)
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg.withDefaults(path)
}

func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func (c *Config) withDefaults(path string) (*Config, error) {
	if c.ServerURL == "" {
		c.ServerURL = "http://localhost:8080"
	}
	if c.SnapshotPath == "" {
		c.SnapshotPath = filepath.Join(filepath.Dir(path), "snapshot.json")
	}
	return c, nil
}
