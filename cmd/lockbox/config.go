package main

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	// Addr is the listen address.
	Addr string `yaml:"addr"`
	// Database is the sqlite file; empty means in-memory.
	Database string `yaml:"database"`
	// Data is the directory holding file blobs.
	Data string `yaml:"data"`
	// Web is the directory holding the preview pages.
	Web string `yaml:"web"`
	// SessionTTL bounds how long a login stays valid.
	SessionTTL time.Duration `yaml:"session_ttl"`
}

func DefaultConfig() Config {
	return Config{
		Addr:       "0.0.0.0:8080",
		Database:   "lockbox.db",
		Data:       "data",
		Web:        "web",
		SessionTTL: 24 * time.Hour,
	}
}

// LoadConfig reads a YAML config file over the defaults. A missing path
// returns the defaults untouched.
func LoadConfig(path string) (Config, error) {
	config := DefaultConfig()
	if path == "" {
		return config, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return config, err
	}
	if err := yaml.Unmarshal(raw, &config); err != nil {
		return config, err
	}
	return config, nil
}
