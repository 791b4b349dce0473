// Package storage provides the SQLite implementation of the Storage interface.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/ruiji/internal/models"
)

// SQLiteStorage implements Storage using SQLite.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens or creates a SQLite database at dbPath and initializes
// the schema. Parent directories are created if they do not exist.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS corpus_entries (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		timestamp TIMESTAMP NOT NULL,
		spec_id TEXT,
		spec_hash TEXT,
		func_name TEXT NOT NULL,
		func_signature TEXT,
		sig_key TEXT NOT NULL DEFAULT '',
		passed INTEGER NOT NULL,
		total INTEGER NOT NULL,
		score REAL NOT NULL,
		snippet TEXT,
		failing_tests TEXT,
		calls_functions TEXT,
		complexity INTEGER NOT NULL DEFAULT -1,
		iteration INTEGER NOT NULL DEFAULT 0,
		post_bow TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_corpus_timestamp ON corpus_entries(timestamp DESC, seq DESC);
	CREATE INDEX IF NOT EXISTS idx_corpus_sig_key ON corpus_entries(sig_key);
	CREATE INDEX IF NOT EXISTS idx_corpus_score ON corpus_entries(score);
	`
	_, err := db.Exec(schema)
	return err
}

const entryColumns = `seq, id, timestamp, spec_id, spec_hash, func_name, func_signature, sig_key,
	passed, total, score, snippet, failing_tests, calls_functions, complexity, iteration, post_bow`

// AppendEntry inserts an entry. The corpus is append-only; duplicate IDs fail.
func (s *SQLiteStorage) AppendEntry(ctx context.Context, entry *models.CorpusEntry) error {
	failingJSON, err := marshalStrings(entry.FailingTests)
	if err != nil {
		return fmt.Errorf("failed to marshal failing_tests: %w", err)
	}
	callsJSON, err := marshalStrings(entry.CallsFunctions)
	if err != nil {
		return fmt.Errorf("failed to marshal calls_functions: %w", err)
	}
	bowJSON, err := marshalStrings(entry.PostBow)
	if err != nil {
		return fmt.Errorf("failed to marshal post_bow: %w", err)
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO corpus_entries (id, timestamp, spec_id, spec_hash, func_name, func_signature, sig_key,
		 passed, total, score, snippet, failing_tests, calls_functions, complexity, iteration, post_bow)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.Timestamp, entry.SpecID, entry.SpecHash, entry.FuncName, entry.FuncSignature, entry.SigKey,
		entry.Passed, entry.Total, entry.Score, entry.Snippet, failingJSON, callsJSON, entry.Complexity, entry.Iteration, bowJSON,
	)
	if err != nil {
		return err
	}
	seq, err := res.LastInsertId()
	if err != nil {
		return err
	}
	entry.Seq = seq
	return nil
}

// GetEntry returns one entry by ID.
func (s *SQLiteStorage) GetEntry(ctx context.Context, id string) (*models.CorpusEntry, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+entryColumns+` FROM corpus_entries WHERE id = ?`, id)
	entry, err := scanEntry(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: entry %s", models.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// GetEntries returns the entries for the given IDs, newest first.
func (s *SQLiteStorage) GetEntries(ctx context.Context, ids []string) ([]*models.CorpusEntry, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	placeholders := strings.Repeat("?,", len(ids)-1) + "?"
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+entryColumns+` FROM corpus_entries
		 WHERE id IN (`+placeholders+`) ORDER BY timestamp DESC, seq DESC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEntries(rows)
}

// ListEntries returns a page of matching entries plus a has-more flag.
// One extra row is fetched to decide hasMore without a second count query.
func (s *SQLiteStorage) ListEntries(ctx context.Context, filter ListFilter, limit, offset int) ([]*models.CorpusEntry, bool, error) {
	where, args := buildFilter(filter)
	args = append(args, limit+1, offset)

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+entryColumns+` FROM corpus_entries `+where+
			` ORDER BY timestamp DESC, seq DESC LIMIT ? OFFSET ?`, args...)
	if err != nil {
		return nil, false, err
	}
	defer rows.Close()

	entries, err := scanEntries(rows)
	if err != nil {
		return nil, false, err
	}
	hasMore := false
	if len(entries) > limit {
		entries = entries[:limit]
		hasMore = true
	}
	return entries, hasMore, nil
}

// escapeLike makes a filter value safe for a LIKE pattern: % and _ match
// literally, not as wildcards.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func buildFilter(filter ListFilter) (string, []interface{}) {
	var clauses []string
	var args []interface{}
	if filter.Func != "" {
		clauses = append(clauses, `LOWER(func_name) LIKE '%' || ? || '%' ESCAPE '\'`)
		args = append(args, escapeLike(strings.ToLower(filter.Func)))
	}
	if filter.PerfectOnly {
		clauses = append(clauses, `score = 1.0`)
	}
	if filter.MinScore != nil {
		clauses = append(clauses, `score >= ?`)
		args = append(args, *filter.MinScore)
	}
	if filter.MaxScore != nil {
		clauses = append(clauses, `score <= ?`)
		args = append(args, *filter.MaxScore)
	}
	if len(clauses) == 0 {
		return "", args
	}
	return "WHERE " + strings.Join(clauses, " AND "), args
}

// ListSigKeyed returns every entry carrying a signature key, newest first.
// Used for the full-scan similarity fallback and for warming the index.
func (s *SQLiteStorage) ListSigKeyed(ctx context.Context) ([]*models.CorpusEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+entryColumns+` FROM corpus_entries
		 WHERE sig_key != '' ORDER BY timestamp DESC, seq DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEntries(rows)
}

// CountEntries returns the total number of corpus entries.
func (s *SQLiteStorage) CountEntries(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM corpus_entries`).Scan(&count)
	return count, err
}

// CountPerfect returns the number of fully-passing entries.
func (s *SQLiteStorage) CountPerfect(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM corpus_entries WHERE score = 1.0`).Scan(&count)
	return count, err
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanEntry(row rowScanner) (*models.CorpusEntry, error) {
	var entry models.CorpusEntry
	var specID, specHash, funcSignature, snippet sql.NullString
	var failingJSON, callsJSON, bowJSON sql.NullString
	if err := row.Scan(
		&entry.Seq, &entry.ID, &entry.Timestamp, &specID, &specHash, &entry.FuncName, &funcSignature, &entry.SigKey,
		&entry.Passed, &entry.Total, &entry.Score, &snippet, &failingJSON, &callsJSON, &entry.Complexity, &entry.Iteration, &bowJSON,
	); err != nil {
		return nil, err
	}
	entry.SpecID = specID.String
	entry.SpecHash = specHash.String
	entry.FuncSignature = funcSignature.String
	entry.Snippet = snippet.String

	var err error
	if entry.FailingTests, err = unmarshalStrings(failingJSON); err != nil {
		return nil, fmt.Errorf("failed to unmarshal failing_tests: %w", err)
	}
	if entry.CallsFunctions, err = unmarshalStrings(callsJSON); err != nil {
		return nil, fmt.Errorf("failed to unmarshal calls_functions: %w", err)
	}
	if entry.PostBow, err = unmarshalStrings(bowJSON); err != nil {
		return nil, fmt.Errorf("failed to unmarshal post_bow: %w", err)
	}
	return &entry, nil
}

func scanEntries(rows *sql.Rows) ([]*models.CorpusEntry, error) {
	var entries []*models.CorpusEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// marshalStrings stores nil as NULL so that "unknown" stays distinct from an
// empty list.
func marshalStrings(values []string) (interface{}, error) {
	if values == nil {
		return nil, nil
	}
	data, err := json.Marshal(values)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func unmarshalStrings(column sql.NullString) ([]string, error) {
	if !column.Valid || column.String == "" {
		return nil, nil
	}
	var values []string
	if err := json.Unmarshal([]byte(column.String), &values); err != nil {
		return nil, err
	}
	return values, nil
}
