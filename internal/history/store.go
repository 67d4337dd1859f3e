// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package history records completed essay runs in a SQLite database so they
// can be listed, searched and exported later. The pipeline writes to it
// after a run finishes and never reads from it.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/essay-engine/pkg/types"
)

const (
	dbFile       = "history.db"
	defaultLimit = 20
	// timeLayout is fixed width so created_at sorts lexically.
	timeLayout = "2006-01-02T15:04:05.000000000Z"
)

// ErrNotFound is returned by Get when no run has the given ID.
var ErrNotFound = errors.New("run not found")

// Run is one recorded pipeline invocation.
type Run struct {
	ID         string              `json:"id" yaml:"id"`
	Topic      string              `json:"topic" yaml:"topic"`
	Source     types.Source        `json:"source" yaml:"source"`
	Style      types.Style         `json:"style" yaml:"style"`
	State      string              `json:"state" yaml:"state"`
	Essay      string              `json:"essay" yaml:"essay"`
	References []string            `json:"references" yaml:"references"`
	Records    []types.PaperRecord `json:"records" yaml:"records"`
	CreatedAt  time.Time           `json:"created_at" yaml:"created_at"`
}

// Store manages the history SQLite database.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens or creates dir/history.db and its schema.
func Open(cfg types.HistoryConfig) (*Store, error) {
	dir := cfg.Dir
	if dir == "" {
		dir = types.DefaultHistoryDir
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating history directory: %w", err)
	}

	db, err := sql.Open("sqlite3", filepath.Join(dir, dbFile)+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, now: time.Now}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			topic TEXT NOT NULL,
			source TEXT NOT NULL,
			style TEXT NOT NULL,
			state TEXT NOT NULL,
			essay TEXT,
			refs TEXT,
			records TEXT,
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Save inserts run, assigning an ID and timestamp when they are unset. The
// assigned values are written back into run.
func (s *Store) Save(ctx context.Context, run *Run) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = s.now()
	}
	run.CreatedAt = run.CreatedAt.UTC()

	refs, err := json.Marshal(nonNil(run.References))
	if err != nil {
		return fmt.Errorf("marshaling references: %w", err)
	}
	records, err := json.Marshal(run.Records)
	if err != nil {
		return fmt.Errorf("marshaling records: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO runs (id, topic, source, style, state, essay, refs, records, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Topic, string(run.Source), string(run.Style), run.State,
		run.Essay, string(refs), string(records), run.CreatedAt.Format(timeLayout))
	if err != nil {
		return fmt.Errorf("inserting run %s: %w", run.ID, err)
	}
	return nil
}

const selectRuns = `SELECT id, topic, source, style, state, essay, refs, records, created_at FROM runs`

// Get returns the run with the given ID.
func (s *Store) Get(ctx context.Context, id string) (*Run, error) {
	rows, err := s.db.QueryContext(ctx, selectRuns+` WHERE id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("querying run: %w", err)
	}
	runs, err := scanRuns(rows)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	return &runs[0], nil
}

// List returns up to limit runs, newest first. limit <= 0 uses 20.
func (s *Store) List(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	rows, err := s.db.QueryContext(ctx,
		selectRuns+` ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	return scanRuns(rows)
}

// Search returns up to limit runs whose topic or essay contains text,
// case-insensitively for ASCII, newest first.
func (s *Store) Search(ctx context.Context, text string, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	pattern := "%" + escapeLike(text) + "%"
	rows, err := s.db.QueryContext(ctx,
		selectRuns+` WHERE topic LIKE ? ESCAPE '\' OR essay LIKE ? ESCAPE '\'
		ORDER BY created_at DESC, rowid DESC LIMIT ?`, pattern, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("searching runs: %w", err)
	}
	return scanRuns(rows)
}

func scanRuns(rows *sql.Rows) ([]Run, error) {
	defer rows.Close()
	var runs []Run
	for rows.Next() {
		var (
			r                 Run
			source, style     string
			essay, refs, recs sql.NullString
			createdAt         string
		)
		if err := rows.Scan(&r.ID, &r.Topic, &source, &style, &r.State,
			&essay, &refs, &recs, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		r.Source = types.Source(source)
		r.Style = types.Style(style)
		r.Essay = essay.String
		if refs.Valid && refs.String != "" {
			if err := json.Unmarshal([]byte(refs.String), &r.References); err != nil {
				return nil, fmt.Errorf("run %s: decoding references: %w", r.ID, err)
			}
		}
		if recs.Valid && recs.String != "" && recs.String != "null" {
			if err := json.Unmarshal([]byte(recs.String), &r.Records); err != nil {
				return nil, fmt.Errorf("run %s: decoding records: %w", r.ID, err)
			}
		}
		t, err := time.Parse(timeLayout, createdAt)
		if err != nil {
			return nil, fmt.Errorf("run %s: parsing created_at: %w", r.ID, err)
		}
		r.CreatedAt = t
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating runs: %w", err)
	}
	return runs, nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
