// Package store persists processed requirements in a local SQLite database.
package store

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	_ "github.com/mattn/go-sqlite3"

	"github.com/JulianFrattini/cira/internal/cira"
	"github.com/JulianFrattini/cira/internal/graph"
	"github.com/JulianFrattini/cira/internal/labels"
	"github.com/JulianFrattini/cira/internal/logger"
	"github.com/JulianFrattini/cira/internal/testsuite"
)

// ErrNotFound is returned for unknown record ids.
var ErrNotFound = errors.New("requirement not found")

// DatabaseName is the file name of the database inside the data directory.
const DatabaseName = "cira.db"

// Record is a processed requirement.
type Record struct {
	ID        string            `json:"id" yaml:"id"`
	Sentence  string            `json:"sentence" yaml:"sentence"`
	Labels    []labels.Document `json:"labels" yaml:"labels"`
	Graph     graph.Document    `json:"graph" yaml:"graph"`
	Suite     testsuite.Suite   `json:"testsuite" yaml:"testsuite"`
	CreatedAt time.Time         `json:"created_at" yaml:"created_at"`
}

// NewRecord captures a pipeline result. The id is assigned on save.
func NewRecord(r *cira.Result) Record {
	doc := r.Document()
	return Record{
		Sentence: doc.Sentence,
		Labels:   doc.Labels,
		Graph:    doc.Graph,
		Suite:    *doc.Suite,
	}
}

// Store provides requirement storage using SQLite.
type Store struct {
	db      *sql.DB
	dataDir string
}

// New opens (and creates if needed) the database in dataDir.
func New(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}

	dbPath := filepath.Join(dataDir, DatabaseName)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db, dataDir: dataDir}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to init schema: %w", err)
	}

	logger.Debug("requirement store opened", "path", dbPath)
	return store, nil
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS requirements (
		id TEXT PRIMARY KEY,
		sentence TEXT NOT NULL,
		sentence_hash TEXT NOT NULL,
		labels TEXT NOT NULL,
		graph TEXT NOT NULL,
		suite TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_requirements_created_at ON requirements(created_at DESC);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_requirements_sentence_hash ON requirements(sentence_hash);
	`
	_, err := s.db.Exec(schema)
	return err
}

func sentenceHash(sentence string) string {
	h := sha256.Sum256([]byte(sentence))
	return hex.EncodeToString(h[:])
}

// Save stores a record. A record for the same sentence is replaced and keeps
// its id. The stored record is returned.
func (s *Store) Save(ctx context.Context, r Record) (*Record, error) {
	hash := sentenceHash(r.Sentence)

	var existingID string
	err := s.db.QueryRowContext(ctx, `SELECT id FROM requirements WHERE sentence_hash = ?`, hash).Scan(&existingID)
	switch {
	case err == nil:
		r.ID = existingID
	case errors.Is(err, sql.ErrNoRows):
		if r.ID == "" {
			if r.ID, err = gonanoid.New(); err != nil {
				return nil, fmt.Errorf("failed to generate id: %w", err)
			}
		}
	default:
		return nil, fmt.Errorf("failed to look up requirement: %w", err)
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}

	if err := s.upsert(ctx, r, hash); err != nil {
		return nil, err
	}
	return &r, nil
}

// Add inserts a record unless its id or sentence is already stored (used for
// imports). It reports whether the record was added.
func (s *Store) Add(ctx context.Context, r Record) (bool, error) {
	hash := sentenceHash(r.Sentence)

	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM requirements WHERE id = ? OR sentence_hash = ?`, r.ID, hash).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to look up requirement: %w", err)
	}
	if count > 0 {
		return false, nil
	}

	if r.ID == "" {
		if r.ID, err = gonanoid.New(); err != nil {
			return false, fmt.Errorf("failed to generate id: %w", err)
		}
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	if err := s.upsert(ctx, r, hash); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Store) upsert(ctx context.Context, r Record, hash string) error {
	labelsJSON, err := json.Marshal(r.Labels)
	if err != nil {
		return fmt.Errorf("failed to encode labels: %w", err)
	}
	graphJSON, err := json.Marshal(r.Graph)
	if err != nil {
		return fmt.Errorf("failed to encode graph: %w", err)
	}
	suiteJSON, err := json.Marshal(r.Suite)
	if err != nil {
		return fmt.Errorf("failed to encode test suite: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO requirements (id, sentence, sentence_hash, labels, graph, suite, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			sentence = excluded.sentence,
			sentence_hash = excluded.sentence_hash,
			labels = excluded.labels,
			graph = excluded.graph,
			suite = excluded.suite
	`, r.ID, r.Sentence, hash, string(labelsJSON), string(graphJSON), string(suiteJSON), r.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to store requirement: %w", err)
	}
	return nil
}

const columns = `id, sentence, labels, graph, suite, created_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (*Record, error) {
	var r Record
	var labelsJSON, graphJSON, suiteJSON string
	if err := row.Scan(&r.ID, &r.Sentence, &labelsJSON, &graphJSON, &suiteJSON, &r.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(labelsJSON), &r.Labels); err != nil {
		return nil, fmt.Errorf("requirement %s: labels: %w", r.ID, err)
	}
	if err := json.Unmarshal([]byte(graphJSON), &r.Graph); err != nil {
		return nil, fmt.Errorf("requirement %s: graph: %w", r.ID, err)
	}
	if err := json.Unmarshal([]byte(suiteJSON), &r.Suite); err != nil {
		return nil, fmt.Errorf("requirement %s: test suite: %w", r.ID, err)
	}
	return &r, nil
}

// Get returns the record with the given id.
func (s *Store) Get(ctx context.Context, id string) (*Record, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+columns+` FROM requirements WHERE id = ?`, id)
	r, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read requirement: %w", err)
	}
	return r, nil
}

// List returns the most recent records first. A limit of zero or less returns all.
func (s *Store) List(ctx context.Context, limit int) ([]*Record, error) {
	query := `SELECT ` + columns + ` FROM requirements ORDER BY created_at DESC, id`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list requirements: %w", err)
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			logger.Warn("skipping unreadable requirement", "error", err)
			continue
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// Forget deletes a record.
func (s *Store) Forget(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM requirements WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete requirement: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// Count returns the number of stored records.
func (s *Store) Count(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM requirements`).Scan(&count)
	return count, err
}

// Size returns the database file size as a human-readable string.
func (s *Store) Size() (string, error) {
	info, err := os.Stat(filepath.Join(s.dataDir, DatabaseName))
	if err != nil {
		return "unknown", err
	}

	size := info.Size()
	switch {
	case size < 1024:
		return fmt.Sprintf("%d B", size), nil
	case size < 1024*1024:
		return fmt.Sprintf("%.1f KB", float64(size)/1024), nil
	default:
		return fmt.Sprintf("%.1f MB", float64(size)/(1024*1024)), nil
	}
}

// LastActivity returns the creation time of the newest record, or the zero
// time for an empty store.
func (s *Store) LastActivity(ctx context.Context) (time.Time, error) {
	var last sql.NullString
	if err := s.db.QueryRowContext(ctx, `SELECT MAX(created_at) FROM requirements`).Scan(&last); err != nil {
		return time.Time{}, err
	}
	if !last.Valid || last.String == "" {
		return time.Time{}, nil
	}
	return parseTimestamp(last.String)
}

// parseTimestamp accepts the formats SQLite hands back for DATETIME columns.
func parseTimestamp(value string) (time.Time, error) {
	var err error
	for _, layout := range []string{
		"2006-01-02 15:04:05.999999999-07:00",
		"2006-01-02T15:04:05.999999999-07:00",
		"2006-01-02 15:04:05",
		time.RFC3339Nano,
	} {
		var t time.Time
		if t, err = time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unexpected timestamp %q: %w", value, err)
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
