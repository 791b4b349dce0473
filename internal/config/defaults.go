package config

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8091
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "/usr/local/var/ruiji/data/corpus.db"
	}
	if cfg.Corpus.DefaultListLimit == 0 {
		cfg.Corpus.DefaultListLimit = 50
	}
	if cfg.Corpus.MaxListLimit == 0 {
		cfg.Corpus.MaxListLimit = 200
	}
	if cfg.Corpus.DefaultSimilarLimit == 0 {
		cfg.Corpus.DefaultSimilarLimit = 5
	}
	cfg.Similarity.ApplyDefaults()
}
