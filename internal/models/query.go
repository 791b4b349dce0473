package models

// ListQuery is a filtered, paginated corpus list request.
// MinScore and MaxScore are pointers so that an absent bound can be told apart
// from an explicit zero.
type ListQuery struct {
	Func        string   `json:"func,omitempty"`
	Limit       int      `json:"limit,omitempty"`
	Offset      int      `json:"offset,omitempty"`
	PerfectOnly bool     `json:"perfectOnly,omitempty"`
	MinScore    *float64 `json:"minScore,omitempty"`
	MaxScore    *float64 `json:"maxScore,omitempty"`
}

// Validate normalizes the query in place: a missing limit gets defaultLimit,
// limits above maxLimit are clamped, and a negative offset is clamped to 0.
// An explicitly negative limit or an inverted score range is an input error.
func (q *ListQuery) Validate(defaultLimit, maxLimit int) error {
	if q.Limit < 0 {
		return invalidInput("limit must be positive, got %d", q.Limit)
	}
	if q.Limit == 0 {
		q.Limit = defaultLimit
	}
	if q.Limit > maxLimit {
		q.Limit = maxLimit
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	if q.MinScore != nil && q.MaxScore != nil && *q.MinScore > *q.MaxScore {
		return invalidInput("minScore %v exceeds maxScore %v", *q.MinScore, *q.MaxScore)
	}
	return nil
}

// SimilarQuery asks for the stored entries most similar to a target signature
// key and post-condition token set.
type SimilarQuery struct {
	TargetSigKey  string   `json:"targetSigKey"`
	TargetPostBow []string `json:"targetPostBow"`
	Limit         int      `json:"limit,omitempty"`
}

// Validate normalizes the query in place. At least one of TargetSigKey and
// TargetPostBow must be non-empty; there is no signal to rank by otherwise.
func (q *SimilarQuery) Validate(defaultLimit int) error {
	if q.TargetSigKey == "" && len(q.TargetPostBow) == 0 {
		return invalidInput("targetSigKey or targetPostBow is required")
	}
	if q.Limit < 0 {
		return invalidInput("limit must be positive, got %d", q.Limit)
	}
	if q.Limit == 0 {
		q.Limit = defaultLimit
	}
	return nil
}
