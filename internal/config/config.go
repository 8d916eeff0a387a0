package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v2"
)

const (
	// DefaultListenAddr is where serve binds when nothing else is configured.
	DefaultListenAddr = "127.0.0.1:7681"
	configFileName    = "config.yaml"
)

// Config holds settings for the agentdeck server and CLI.
type Config struct {
	ListenAddr string `yaml:"listen_addr"`
	AuthToken  string `yaml:"auth_token"`
	LogLevel   string `yaml:"log_level"`
	Dev        bool   `yaml:"dev"`
	// DataDir holds the config file and serve's log file.
	DataDir string `yaml:"data_dir"`
}

// HomeDir resolves the user's home directory, falling back to $HOME and
// finally the current directory.
func HomeDir() (string, error) {
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		return home, nil
	}
	if home := os.Getenv("HOME"); home != "" {
		return home, nil
	}
	return "", fmt.Errorf("unable to determine home directory")
}

// DefaultDataDir returns ~/.agentdeck.
func DefaultDataDir() string {
	home, err := HomeDir()
	if err != nil {
		return ".agentdeck"
	}
	return filepath.Join(home, ".agentdeck")
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		ListenAddr: DefaultListenAddr,
		LogLevel:   "info",
		DataDir:    DefaultDataDir(),
	}
}

// Load reads path (or <DataDir>/config.yaml when path is empty) over the
// defaults and applies environment overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		path = filepath.Join(cfg.DataDir, configFileName)
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	case os.IsNotExist(err):
	default:
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	cfg.applyEnv()
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = DefaultListenAddr
	}
	if cfg.DataDir == "" {
		cfg.DataDir = DefaultDataDir()
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("AGENTDECK_ADDR"); v != "" {
		c.ListenAddr = v
	}
	if v := os.Getenv("AGENTDECK_TOKEN"); v != "" {
		c.AuthToken = v
	}
	if v := strings.ToLower(os.Getenv("DEBUG")); v == "true" || v == "1" {
		c.LogLevel = "debug"
	}
}

// Save writes the configuration as YAML, creating parent directories.
// The file holds the auth token so it is written 0600.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
