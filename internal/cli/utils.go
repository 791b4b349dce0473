// Package cli provides output formatting for the Ruiji command line.
package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/hyperjump/ruiji/internal/models"
	"github.com/hyperjump/ruiji/pkg/utils"
)

// OutputFormat selects how results are written.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// WriteListResults writes a corpus list page to w in the given format.
func WriteListResults(w io.Writer, response *models.ListResponse, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, response)
	}
	fmt.Fprintf(w, "\n%d entries (hasMore=%v)\n\n", len(response.Items), response.HasMore)
	for _, entry := range response.Items {
		writeEntry(w, entry)
	}
	return nil
}

// WriteSimilarResults writes similarity results to w in the given format.
func WriteSimilarResults(w io.Writer, response *models.SimilarResponse, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, response)
	}
	fmt.Fprintf(w, "\n%d similar entries\n\n", len(response.Results))
	for i, result := range response.Results {
		fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
		fmt.Fprintf(w, "Rank: %d | Similarity: %.4f (return: %.2f, args: %.2f, jaccard: %.2f, perfect: %.2f)\n",
			i+1, result.Similarity,
			result.Breakdown.ReturnMatch, result.Breakdown.ArgMatch,
			result.Breakdown.JaccardScore, result.Breakdown.PerfectBonus)
		writeEntry(w, result.Entry)
	}
	return nil
}

func writeEntry(w io.Writer, entry *models.CorpusEntry) {
	fmt.Fprintf(w, "ID: %s\n", entry.ID)
	fmt.Fprintf(w, "Func: %s", entry.FuncName)
	if entry.SigKey != "" {
		fmt.Fprintf(w, " [%s]", entry.SigKey)
	}
	fmt.Fprintf(w, " | Score: %.2f (%d/%d passed)\n", entry.Score, entry.Passed, entry.Total)
	if entry.Snippet != "" {
		fmt.Fprintf(w, "\n%s\n", utils.Truncate(entry.Snippet, 200))
	}
	fmt.Fprintln(w)
}

func writeJSON(w io.Writer, data interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}
