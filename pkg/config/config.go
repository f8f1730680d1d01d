// Package config loads and saves the daemon configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Engine names accepted by the store section.
const (
	EngineLog    = "log"
	EnginePebble = "pebble"
)

// Config is the daemon configuration.
type Config struct {
	DataDir string  `yaml:"data_dir"`
	Bind    string  `yaml:"bind"`
	Port    int     `yaml:"port"`
	Admin   Admin   `yaml:"admin"`
	Store   Store   `yaml:"store"`
	Logging Logging `yaml:"logging"`
}

// Admin configures the HTTP admin endpoint.
type Admin struct {
	Addr string `yaml:"addr"`
}

// Store selects and tunes the storage engine.
type Store struct {
	Engine        string        `yaml:"engine"`
	FsyncInterval time.Duration `yaml:"fsync_interval"`
}

// Logging contains logging configuration.
type Logging struct {
	Level string `yaml:"level"`
}

// DefaultConfig returns a default configuration.
func DefaultConfig() *Config {
	return &Config{
		DataDir: "./data",
		Bind:    "127.0.0.1",
		Port:    9420,
		Admin: Admin{
			Addr: "127.0.0.1:9421",
		},
		Store: Store{
			Engine:        EngineLog,
			FsyncInterval: 0,
		},
		Logging: Logging{
			Level: "info",
		},
	}
}

// ListenAddr returns the bind:port string for the TCP server.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Bind, c.Port)
}

// Validate checks the configuration for values no component can act on.
func (c *Config) Validate() error {
	if c.Store.Engine != EngineLog && c.Store.Engine != EnginePebble {
		return fmt.Errorf("unknown store engine %q (want %q or %q)", c.Store.Engine, EngineLog, EnginePebble)
	}
	if c.Port <= 0 || c.Port > 0xFFFF {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	return nil
}

// LoadConfig loads configuration from the specified path.
func LoadConfig(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// SaveConfig saves the configuration to the specified path.
func SaveConfig(config *Config, configPath string) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0750); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
