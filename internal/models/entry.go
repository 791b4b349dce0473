// Package models defines core data structures for corpus entries, queries, and similarity results.
package models

import "time"

// ComplexityUnknown marks an entry whose structural complexity was not computed.
const ComplexityUnknown = -1

// CorpusEntry is one recorded synthesis attempt: a generated function plus its
// verification outcome. Entries are immutable once appended.
type CorpusEntry struct {
	ID            string    `json:"id"`
	Timestamp     time.Time `json:"timestamp"`
	SpecID        string    `json:"specId,omitempty"`
	SpecHash      string    `json:"specHash,omitempty"`
	FuncName      string    `json:"funcName"`
	FuncSignature string    `json:"funcSignature,omitempty"`
	// SigKey is the normalized signature fingerprint (e.g. "clamp(I,I,I)->I").
	// Empty means unknown; such entries are excluded from indexed similarity candidacy.
	SigKey string `json:"sigKey,omitempty"`
	Passed int    `json:"passed"`
	Total  int    `json:"total"`
	// Score is the verification score in [0,1]; exactly 1 is a perfect run.
	Score   float64 `json:"score"`
	Snippet string  `json:"snippet,omitempty"`
	// FailingTests is empty when Passed == Total.
	FailingTests []string `json:"failingTests,omitempty"`
	// CallsFunctions is nil when unknown; an empty non-nil slice means "calls nothing".
	CallsFunctions []string `json:"callsFunctions,omitempty"`
	// Complexity is ComplexityUnknown when not computed.
	Complexity int `json:"complexity"`
	Iteration  int `json:"iteration,omitempty"`
	// PostBow is the post-condition bag-of-words; nil is treated as empty for scoring.
	PostBow []string `json:"postBow,omitempty"`

	// Seq is the insertion-order sequence assigned by the store, used for
	// deterministic tie-breaking. Not part of the wire format.
	Seq int64 `json:"-"`
}

// IsPerfect reports whether the entry is a fully-passing run.
func (e *CorpusEntry) IsPerfect() bool {
	return e.Score == 1
}

// EntryInput is the append request from the synthesis producer. ID and
// Timestamp are optional and assigned by the engine when absent; SigKey is
// derived from FuncSignature and PostBow from PostConditions when absent.
type EntryInput struct {
	ID             string    `json:"id,omitempty"`
	Timestamp      time.Time `json:"timestamp,omitempty"`
	SpecID         string    `json:"specId,omitempty"`
	SpecHash       string    `json:"specHash,omitempty"`
	FuncName       string    `json:"funcName"`
	FuncSignature  string    `json:"funcSignature,omitempty"`
	SigKey         string    `json:"sigKey,omitempty"`
	Passed         int       `json:"passed"`
	Total          int       `json:"total"`
	Score          float64   `json:"score"`
	Snippet        string    `json:"snippet,omitempty"`
	FailingTests   []string  `json:"failingTests,omitempty"`
	CallsFunctions []string  `json:"callsFunctions,omitempty"`
	Complexity     *int      `json:"complexity,omitempty"`
	Iteration      int       `json:"iteration,omitempty"`
	PostBow        []string  `json:"postBow,omitempty"`
	PostConditions []string  `json:"postConditions,omitempty"`
}

// Validate checks the append-time invariants.
func (in *EntryInput) Validate() error {
	if in.FuncName == "" {
		return invalidInput("funcName is required")
	}
	if in.Passed < 0 || in.Total < 0 {
		return invalidInput("passed and total must be non-negative")
	}
	if in.Passed > in.Total {
		return invalidInput("passed must not exceed total")
	}
	if in.Score < 0 || in.Score > 1 {
		return invalidInput("score must be in [0,1]")
	}
	return nil
}
