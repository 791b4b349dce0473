// Package sigindex provides an in-memory secondary index from normalized
// signature keys to the corpus entries sharing them.
package sigindex

import (
	"sync"

	"github.com/hyperjump/ruiji/internal/models"
)

// Index maps a signature key to the IDs of entries carrying it. It holds IDs
// rather than entry data; the store remains the single copy of each entry.
type Index struct {
	mu      sync.RWMutex
	buckets map[string][]string
	size    int
}

// New creates an empty signature index.
func New() *Index {
	return &Index{buckets: make(map[string][]string)}
}

// OnAppend records a newly appended entry. Entries without a signature key are
// never inserted; they remain reachable only through the full-scan fallback.
func (ix *Index) OnAppend(entry *models.CorpusEntry) {
	if entry.SigKey == "" {
		return
	}
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.buckets[entry.SigKey] = append(ix.buckets[entry.SigKey], entry.ID)
	ix.size++
}

// Candidates returns the IDs of entries sharing sigKey, in append order.
// The returned slice is a copy.
func (ix *Index) Candidates(sigKey string) []string {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	ids := ix.buckets[sigKey]
	if len(ids) == 0 {
		return nil
	}
	return append([]string(nil), ids...)
}

// Buckets returns the number of distinct signature keys.
func (ix *Index) Buckets() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.buckets)
}

// Size returns the total number of indexed entries.
func (ix *Index) Size() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.size
}
