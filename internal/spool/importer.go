package spool

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"go.uber.org/zap"

	"github.com/hyperjump/ruiji/internal/models"
)

// maxLineBytes bounds a single spool line; snippets can be large.
const maxLineBytes = 4 * 1024 * 1024

// Appender is the subset of the corpus engine the importer needs.
type Appender interface {
	Append(ctx context.Context, input *models.EntryInput) (*models.CorpusEntry, error)
}

// Importer reads JSONL spool files and appends each line as a corpus entry.
// It remembers the byte offset already consumed per file, so repeated imports
// of a growing file only read the new tail. Malformed lines are logged and
// skipped; the producer never blocks on a bad record.
type Importer struct {
	engine  Appender
	logger  *zap.Logger
	mu      sync.Mutex
	offsets map[string]int64
}

// NewImporter creates an importer appending through engine.
func NewImporter(engine Appender, logger *zap.Logger) *Importer {
	return &Importer{
		engine:  engine,
		logger:  logger,
		offsets: make(map[string]int64),
	}
}

// ImportFile reads the unconsumed tail of the spool file at path and appends
// each parsed entry. Returns the number of entries appended. A truncated file
// (smaller than the recorded offset) is re-read from the start.
func (im *Importer) ImportFile(ctx context.Context, path string) (int, error) {
	im.mu.Lock()
	defer im.mu.Unlock()

	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open spool file: %w", err)
	}
	defer f.Close()

	var size int64
	if info, err := f.Stat(); err == nil {
		size = info.Size()
	}
	offset := im.offsets[path]
	if size < offset {
		offset = 0
	}
	if _, err := f.Seek(offset, 0); err != nil {
		return 0, fmt.Errorf("seek spool file: %w", err)
	}

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)

	appended := 0
	consumed := offset
	for scanner.Scan() {
		line := scanner.Bytes()
		consumed += int64(len(line)) + 1
		if len(line) == 0 {
			continue
		}
		var input models.EntryInput
		if err := json.Unmarshal(line, &input); err != nil {
			im.logger.Warn("spool line skipped: malformed JSON",
				zap.String("path", path), zap.Error(err))
			continue
		}
		if _, err := im.engine.Append(ctx, &input); err != nil {
			im.logger.Warn("spool line skipped: append failed",
				zap.String("path", path), zap.String("func", input.FuncName), zap.Error(err))
			continue
		}
		appended++
	}
	// The producer terminates every record with a newline; guard against a
	// final unterminated line pushing the offset past the file end.
	if consumed > size {
		consumed = size
	}
	// Persist the offset even on a scan error, so lines already appended in
	// this call are never re-read as duplicates.
	im.offsets[path] = consumed
	if err := scanner.Err(); err != nil {
		return appended, fmt.Errorf("read spool file: %w", err)
	}
	if appended > 0 {
		im.logger.Info("spool file imported",
			zap.String("path", path), zap.Int("entries", appended))
	}
	return appended, nil
}
