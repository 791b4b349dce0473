package models

// ListResponse is the response for a list query.
type ListResponse struct {
	Items []*CorpusEntry `json:"items"`
	// HasMore is true iff at least one further matching entry exists beyond
	// the returned page.
	HasMore bool `json:"hasMore"`
}

// SimilarityBreakdown holds the four sub-scores, each in [0,1], whose weighted
// combination produced the composite similarity.
type SimilarityBreakdown struct {
	ReturnMatch  float64 `json:"returnMatch"`
	ArgMatch     float64 `json:"argMatch"`
	JaccardScore float64 `json:"jaccardScore"`
	PerfectBonus float64 `json:"perfectBonus"`
}

// SimilarityResult pairs an entry with its computed similarity. Results are
// ephemeral and recomputed per query.
type SimilarityResult struct {
	Entry      *CorpusEntry        `json:"entry"`
	Similarity float64             `json:"similarity"`
	Breakdown  SimilarityBreakdown `json:"breakdown"`
}

// SimilarResponse is the response for a similarity query, ordered by
// descending similarity.
type SimilarResponse struct {
	Results []*SimilarityResult `json:"results"`
}
