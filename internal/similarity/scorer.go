// Package similarity scores corpus entries against a target signature key and
// post-condition token set, and returns a ranked top-K.
package similarity

import (
	"sort"
	"strings"

	"github.com/hyperjump/ruiji/internal/models"
	"github.com/hyperjump/ruiji/internal/signature"
)

// Target is the query side of a similarity comparison.
type Target struct {
	SigKey  string
	PostBow []string
}

// Scorer computes similarity scores. It is stateless apart from its weights;
// scoring is pure computation over in-memory candidates.
type Scorer struct {
	config *Config
}

// NewScorer creates a Scorer with the given configuration.
func NewScorer(config *Config) *Scorer {
	if config == nil {
		config = DefaultConfig()
	}
	config.ApplyDefaults()
	return &Scorer{config: config}
}

// Rank scores every candidate against target and returns at most limit
// results, sorted by descending similarity. Ties break by descending entry
// score, then descending timestamp, then descending insertion order, so that
// repeated calls against an unchanged corpus are bit-identical.
func (s *Scorer) Rank(target Target, candidates []*models.CorpusEntry, limit int) []*models.SimilarityResult {
	targetArgs, targetRet, targetOK := signature.Parse(target.SigKey)
	targetBow := bowSet(target.PostBow)

	results := make([]*models.SimilarityResult, 0, len(candidates))
	for _, entry := range candidates {
		breakdown := s.score(targetArgs, targetRet, targetOK, targetBow, entry)
		results = append(results, &models.SimilarityResult{
			Entry:      entry,
			Similarity: s.combine(breakdown),
			Breakdown:  breakdown,
		})
	}

	sort.Slice(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.Similarity != b.Similarity {
			return a.Similarity > b.Similarity
		}
		if a.Entry.Score != b.Entry.Score {
			return a.Entry.Score > b.Entry.Score
		}
		if !a.Entry.Timestamp.Equal(b.Entry.Timestamp) {
			return a.Entry.Timestamp.After(b.Entry.Timestamp)
		}
		return a.Entry.Seq > b.Entry.Seq
	})

	if limit < len(results) {
		results = results[:limit]
	}
	return results
}

// score computes the four sub-scores for one candidate. A target or candidate
// without a parseable signature key earns no returnMatch/argMatch credit.
func (s *Scorer) score(targetArgs []string, targetRet string, targetOK bool, targetBow map[string]bool, entry *models.CorpusEntry) models.SimilarityBreakdown {
	var b models.SimilarityBreakdown

	candArgs, candRet, candOK := signature.Parse(entry.SigKey)
	if targetOK && candOK {
		if candRet == targetRet {
			b.ReturnMatch = 1.0
		}
		b.ArgMatch = argMatch(targetArgs, candArgs)
	}

	b.JaccardScore = jaccard(targetBow, bowSet(entry.PostBow))

	if entry.IsPerfect() {
		b.PerfectBonus = 1.0
	}
	return b
}

// combine folds the breakdown into the composite similarity via the weighted
// sum, normalized by the weight total.
func (s *Scorer) combine(b models.SimilarityBreakdown) float64 {
	total := s.config.weightTotal()
	if total == 0 {
		return 0
	}
	sum := s.config.ReturnWeight*b.ReturnMatch +
		s.config.ArgWeight*b.ArgMatch +
		s.config.JaccardWeight*b.JaccardScore +
		s.config.PerfectWeight*b.PerfectBonus
	return sum / total
}

// argMatch gives full credit for an identical argument segment (two empty
// arity lists count as trivially equal), otherwise partial credit proportional
// to the matching positional types over the larger arity.
func argMatch(target, cand []string) float64 {
	if len(target) == 0 && len(cand) == 0 {
		return 1.0
	}
	maxArity := len(target)
	if len(cand) > maxArity {
		maxArity = len(cand)
	}
	matched := 0
	for i := 0; i < len(target) && i < len(cand); i++ {
		if target[i] == cand[i] {
			matched++
		}
	}
	return float64(matched) / float64(maxArity)
}

// jaccard is |intersection| / |union|, and 0 when the union is empty.
func jaccard(a, b map[string]bool) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	intersection := 0
	for tok := range a {
		if b[tok] {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	return float64(intersection) / float64(union)
}

func bowSet(tokens []string) map[string]bool {
	if len(tokens) == 0 {
		return nil
	}
	set := make(map[string]bool, len(tokens))
	for _, tok := range tokens {
		set[strings.ToLower(tok)] = true
	}
	return set
}
