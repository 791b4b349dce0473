// Package corpus provides the query façade over the entry store, the
// signature index, and the similarity scorer.
package corpus

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperjump/ruiji/internal/config"
	"github.com/hyperjump/ruiji/internal/models"
	"github.com/hyperjump/ruiji/internal/sigindex"
	"github.com/hyperjump/ruiji/internal/signature"
	"github.com/hyperjump/ruiji/internal/similarity"
	"github.com/hyperjump/ruiji/internal/storage"
)

// Engine validates and normalizes query parameters and dispatches to the
// store, the signature index, and the scorer. Appends take the write lock so
// that the store insert and the index update become visible to readers as one
// atomic unit; reads take the read lock and may run concurrently.
type Engine struct {
	storage storage.Storage
	index   *sigindex.Index
	scorer  *similarity.Scorer
	config  *config.CorpusConfig
	logger  *zap.Logger
	mu      sync.RWMutex
}

// NewEngine creates an engine and warms the signature index from the store.
func NewEngine(
	store storage.Storage,
	scorer *similarity.Scorer,
	cfg *config.CorpusConfig,
	logger *zap.Logger,
) (*Engine, error) {
	e := &Engine{
		storage: store,
		index:   sigindex.New(),
		scorer:  scorer,
		config:  cfg,
		logger:  logger,
	}
	entries, err := store.ListSigKeyed(context.Background())
	if err != nil {
		return nil, fmt.Errorf("failed to warm signature index: %w", err)
	}
	// ListSigKeyed returns newest first; index in append order.
	for i := len(entries) - 1; i >= 0; i-- {
		e.index.OnAppend(entries[i])
	}
	if len(entries) > 0 {
		logger.Info("signature index warmed",
			zap.Int("entries", e.index.Size()),
			zap.Int("buckets", e.index.Buckets()),
		)
	}
	return e, nil
}

// Append validates and normalizes input, persists the entry, and updates the
// signature index. A failed insert leaves the index untouched.
func (e *Engine) Append(ctx context.Context, input *models.EntryInput) (*models.CorpusEntry, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}
	entry := buildEntry(input)

	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.storage.AppendEntry(ctx, entry); err != nil {
		return nil, fmt.Errorf("append entry: %w", err)
	}
	e.index.OnAppend(entry)

	e.logger.Debug("entry appended",
		zap.String("id", entry.ID),
		zap.String("func", entry.FuncName),
		zap.String("sig_key", entry.SigKey),
		zap.Float64("score", entry.Score),
	)
	return entry, nil
}

// buildEntry fills in the derived fields the producer may omit: ID, timestamp,
// the normalized signature key, and the post-condition bag-of-words.
func buildEntry(input *models.EntryInput) *models.CorpusEntry {
	entry := &models.CorpusEntry{
		ID:             input.ID,
		Timestamp:      input.Timestamp,
		SpecID:         input.SpecID,
		SpecHash:       input.SpecHash,
		FuncName:       input.FuncName,
		FuncSignature:  input.FuncSignature,
		SigKey:         input.SigKey,
		Passed:         input.Passed,
		Total:          input.Total,
		Score:          input.Score,
		Snippet:        input.Snippet,
		FailingTests:   input.FailingTests,
		CallsFunctions: input.CallsFunctions,
		Complexity:     models.ComplexityUnknown,
		Iteration:      input.Iteration,
		PostBow:        input.PostBow,
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	// Only an absent timestamp is stamped at append time; a spool backlog
	// imported after downtime keeps the producer's timestamps.
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	if entry.SigKey == "" && entry.FuncSignature != "" {
		entry.SigKey = signature.Normalize(entry.FuncSignature)
	}
	if entry.PostBow == nil && len(input.PostConditions) > 0 {
		entry.PostBow = signature.TokenizePost(input.PostConditions)
	}
	if input.Complexity != nil && *input.Complexity >= 0 {
		entry.Complexity = *input.Complexity
	}
	return entry
}

// List returns a filtered, paginated page of corpus entries, newest first.
func (e *Engine) List(ctx context.Context, query *models.ListQuery) (*models.ListResponse, error) {
	if err := query.Validate(e.config.DefaultListLimit, e.config.MaxListLimit); err != nil {
		return nil, err
	}
	filter := storage.ListFilter{
		Func:        query.Func,
		PerfectOnly: query.PerfectOnly,
		MinScore:    query.MinScore,
		MaxScore:    query.MaxScore,
	}

	e.mu.RLock()
	defer e.mu.RUnlock()
	items, hasMore, err := e.storage.ListEntries(ctx, filter, query.Limit, query.Offset)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	if items == nil {
		items = []*models.CorpusEntry{}
	}
	return &models.ListResponse{Items: items, HasMore: hasMore}, nil
}

// Get returns one entry by ID.
func (e *Engine) Get(ctx context.Context, id string) (*models.CorpusEntry, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.storage.GetEntry(ctx, id)
}

// Similar ranks stored entries against the query's signature key and
// post-condition token set. With a target key the candidate set comes from the
// signature index; without one every sig-keyed entry is scanned.
func (e *Engine) Similar(ctx context.Context, query *models.SimilarQuery) (*models.SimilarResponse, error) {
	if err := query.Validate(e.config.DefaultSimilarLimit); err != nil {
		return nil, err
	}

	e.mu.RLock()
	defer e.mu.RUnlock()
	candidates, err := e.candidates(ctx, query.TargetSigKey)
	if err != nil {
		return nil, err
	}
	target := similarity.Target{SigKey: query.TargetSigKey, PostBow: query.TargetPostBow}
	results := e.scorer.Rank(target, candidates, query.Limit)
	if results == nil {
		results = []*models.SimilarityResult{}
	}
	return &models.SimilarResponse{Results: results}, nil
}

func (e *Engine) candidates(ctx context.Context, targetSigKey string) ([]*models.CorpusEntry, error) {
	if targetSigKey == "" {
		entries, err := e.storage.ListSigKeyed(ctx)
		if err != nil {
			return nil, fmt.Errorf("scan candidates: %w", err)
		}
		return entries, nil
	}
	ids := e.index.Candidates(targetSigKey)
	if len(ids) == 0 {
		return nil, nil
	}
	entries, err := e.storage.GetEntries(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("fetch candidates: %w", err)
	}
	return entries, nil
}

// Stats describes the corpus for the status endpoint.
type Stats struct {
	Entries      int64 `json:"entries"`
	PerfectRuns  int64 `json:"perfect_runs"`
	IndexBuckets int   `json:"index_buckets"`
	IndexEntries int   `json:"index_entries"`
}

// Stats returns corpus and index counts.
func (e *Engine) Stats(ctx context.Context) (*Stats, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	entries, err := e.storage.CountEntries(ctx)
	if err != nil {
		return nil, err
	}
	perfect, err := e.storage.CountPerfect(ctx)
	if err != nil {
		return nil, err
	}
	return &Stats{
		Entries:      entries,
		PerfectRuns:  perfect,
		IndexBuckets: e.index.Buckets(),
		IndexEntries: e.index.Size(),
	}, nil
}
