package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
debug: true
server:
  host: 0.0.0.0
  port: 9000
storage:
  database_path: /tmp/ruiji/corpus.db
corpus:
  default_list_limit: 25
  max_list_limit: 100
  default_similar_limit: 3
similarity:
  jaccard_weight: 2.0
spool:
  directories:
    - /tmp/ruiji/spool
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if !cfg.Debug {
		t.Error("debug should be true")
	}
	if cfg.Server.Host != "0.0.0.0" || cfg.Server.Port != 9000 {
		t.Errorf("server: %+v", cfg.Server)
	}
	if cfg.Storage.DatabasePath != "/tmp/ruiji/corpus.db" {
		t.Errorf("database path: %s", cfg.Storage.DatabasePath)
	}
	if cfg.Corpus.DefaultListLimit != 25 || cfg.Corpus.MaxListLimit != 100 || cfg.Corpus.DefaultSimilarLimit != 3 {
		t.Errorf("corpus: %+v", cfg.Corpus)
	}
	if cfg.Similarity.JaccardWeight != 2.0 {
		t.Errorf("jaccard weight: %f", cfg.Similarity.JaccardWeight)
	}
	// Unset weights still get their defaults.
	if cfg.Similarity.ReturnWeight != 1.0 {
		t.Errorf("return weight: %f", cfg.Similarity.ReturnWeight)
	}
	if len(cfg.Spool.Directories) != 1 || cfg.Spool.Directories[0] != "/tmp/ruiji/spool" {
		t.Errorf("spool: %+v", cfg.Spool)
	}
}

func TestLoad_EmptyConfigGetsDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, ""))
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Server.Host != "localhost" || cfg.Server.Port != 8091 {
		t.Errorf("server defaults: %+v", cfg.Server)
	}
	if cfg.Storage.DatabasePath != "/usr/local/var/ruiji/data/corpus.db" {
		t.Errorf("database default: %s", cfg.Storage.DatabasePath)
	}
	if cfg.Corpus.DefaultListLimit != 50 || cfg.Corpus.MaxListLimit != 200 || cfg.Corpus.DefaultSimilarLimit != 5 {
		t.Errorf("corpus defaults: %+v", cfg.Corpus)
	}
	if cfg.Similarity.ReturnWeight != 1.0 || cfg.Similarity.PerfectWeight != 1.0 {
		t.Errorf("similarity defaults: %+v", cfg.Similarity)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	if _, err := Load(writeConfig(t, "server: [not: valid")); err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestLoad_RelativePathsExpand(t *testing.T) {
	path := writeConfig(t, `
storage:
  database_path: ./data/corpus.db
spool:
  directories:
    - ./spool
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	configDir := filepath.Dir(path)
	if cfg.Storage.DatabasePath != filepath.Join(configDir, "data/corpus.db") {
		t.Errorf("database path not expanded relative to config dir: %s", cfg.Storage.DatabasePath)
	}
	if cfg.Spool.Directories[0] != filepath.Join(configDir, "spool") {
		t.Errorf("spool dir not expanded: %s", cfg.Spool.Directories[0])
	}
}
