// Package storage defines the persistence interface for the corpus of
// synthesized-function entries.
package storage

import (
	"context"

	"github.com/hyperjump/ruiji/internal/models"
)

// ListFilter selects a subset of corpus entries.
type ListFilter struct {
	// Func matches case-insensitively as a substring of funcName.
	Func string
	// PerfectOnly keeps only entries with score == 1.
	PerfectOnly bool
	// MinScore and MaxScore are inclusive bounds; nil means unbounded.
	MinScore *float64
	MaxScore *float64
}

// Storage defines corpus persistence. The corpus is an append-only log:
// AppendEntry is the only mutator, entries are never updated or deleted.
type Storage interface {
	// AppendEntry inserts an entry and assigns its insertion sequence.
	AppendEntry(ctx context.Context, entry *models.CorpusEntry) error
	// GetEntry returns one entry by ID, or models.ErrNotFound.
	GetEntry(ctx context.Context, id string) (*models.CorpusEntry, error)
	// GetEntries returns the entries for the given IDs, newest first.
	GetEntries(ctx context.Context, ids []string) ([]*models.CorpusEntry, error)
	// ListEntries returns a page of matching entries ordered by descending
	// timestamp (insertion order breaks ties), plus whether more remain.
	ListEntries(ctx context.Context, filter ListFilter, limit, offset int) ([]*models.CorpusEntry, bool, error)
	// ListSigKeyed returns every entry carrying a signature key, newest first.
	ListSigKeyed(ctx context.Context) ([]*models.CorpusEntry, error)

	// Stats
	CountEntries(ctx context.Context) (int64, error)
	CountPerfect(ctx context.Context) (int64, error)

	Close() error
}
