// Package config provides configuration loading and structs for the Ruiji server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hyperjump/ruiji/internal/similarity"
)

// Config holds all configuration for the application.
type Config struct {
	Debug      bool              `yaml:"debug"`
	Server     ServerConfig      `yaml:"server"`
	Storage    StorageConfig     `yaml:"storage"`
	Corpus     CorpusConfig      `yaml:"corpus"`
	Similarity similarity.Config `yaml:"similarity"`
	Spool      SpoolConfig       `yaml:"spool"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// StorageConfig holds the corpus database path.
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// CorpusConfig holds list and similarity query limits.
type CorpusConfig struct {
	DefaultListLimit    int `yaml:"default_list_limit"`
	MaxListLimit        int `yaml:"max_list_limit"`
	DefaultSimilarLimit int `yaml:"default_similar_limit"`
}

// SpoolConfig holds directories watched for producer JSONL spool files.
type SpoolConfig struct {
	Directories []string `yaml:"directories"`
}

// Load reads and parses the config file at path, expands paths, and applies defaults.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	for i := range cfg.Spool.Directories {
		cfg.Spool.Directories[i] = expandPath(cfg.Spool.Directories[i], configDir)
	}

	return &cfg, nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
