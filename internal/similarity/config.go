package similarity

// Config holds the sub-score weights for the similarity formula. The composite
// score is the weighted sum normalized by the weight total, so any positive
// weights keep similarity in [0,1] with 1.0 attainable.
type Config struct {
	ReturnWeight  float64 `yaml:"return_weight"`  // default: 1.0
	ArgWeight     float64 `yaml:"arg_weight"`     // default: 1.0
	JaccardWeight float64 `yaml:"jaccard_weight"` // default: 1.0
	PerfectWeight float64 `yaml:"perfect_weight"` // default: 1.0
}

// DefaultConfig returns the default equal weighting.
func DefaultConfig() *Config {
	return &Config{
		ReturnWeight:  1.0,
		ArgWeight:     1.0,
		JaccardWeight: 1.0,
		PerfectWeight: 1.0,
	}
}

// ApplyDefaults fills in missing weights. Weights must be positive to keep the
// normalized composite in [0,1], so zero or negative values fall back to the
// default.
func (c *Config) ApplyDefaults() {
	defaults := DefaultConfig()
	if c.ReturnWeight <= 0 {
		c.ReturnWeight = defaults.ReturnWeight
	}
	if c.ArgWeight <= 0 {
		c.ArgWeight = defaults.ArgWeight
	}
	if c.JaccardWeight <= 0 {
		c.JaccardWeight = defaults.JaccardWeight
	}
	if c.PerfectWeight <= 0 {
		c.PerfectWeight = defaults.PerfectWeight
	}
}

func (c *Config) weightTotal() float64 {
	return c.ReturnWeight + c.ArgWeight + c.JaccardWeight + c.PerfectWeight
}
