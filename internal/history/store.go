package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// DefaultDBPath is the SQLite file used when storage.path is unset.
const DefaultDBPath = "data/history.db"

const defaultLimit = 20

// Store records completed fetch runs.
type Store struct {
	db *sql.DB
}

// Entry is one recorded fetch run.
type Entry struct {
	ID         int64
	Dataset    string
	Config     string
	Method     string
	Splits     string
	Records    int64
	Skipped    int64
	DurationMS int64
	FetchedAt  time.Time
}

func NewStore(dbPath string) (*Store, error) {
	dbPath = strings.TrimSpace(dbPath)
	if dbPath == "" {
		return nil, errors.New("history: empty db path")
	}

	if dbPath != ":memory:" {
		dir := filepath.Dir(dbPath)
		if dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("history: create db dir: %w", err)
			}
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("history: open db: %w", err)
	}
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("history: ping db: %w", err)
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func initSchema(db *sql.DB) error {
	if db == nil {
		return errors.New("history: nil db")
	}

	stmts := []string{
		`PRAGMA journal_mode = WAL`,
		`CREATE TABLE IF NOT EXISTS fetch_runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			dataset TEXT NOT NULL,
			config TEXT NOT NULL,
			method TEXT NOT NULL,
			splits TEXT NOT NULL,
			records INTEGER NOT NULL,
			skipped INTEGER NOT NULL,
			duration_ms INTEGER NOT NULL,
			fetched_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_fetch_runs_dataset ON fetch_runs(dataset)`,
		`CREATE INDEX IF NOT EXISTS idx_fetch_runs_fetched_at ON fetch_runs(fetched_at)`,
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("history: init schema: %w", err)
		}
	}
	return nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Save inserts one entry and fills in its assigned ID.
func (s *Store) Save(ctx context.Context, entry *Entry) error {
	if s == nil || s.db == nil {
		return errors.New("history: nil store")
	}
	if ctx == nil {
		return errors.New("history: nil context")
	}
	if entry == nil {
		return errors.New("history: nil entry")
	}

	dataset := strings.TrimSpace(entry.Dataset)
	if dataset == "" {
		return errors.New("history: empty dataset")
	}
	fetchedAt := entry.FetchedAt
	if fetchedAt.IsZero() {
		fetchedAt = time.Now().UTC()
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO fetch_runs (dataset, config, method, splits, records, skipped, duration_ms, fetched_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		dataset,
		strings.TrimSpace(entry.Config),
		strings.TrimSpace(entry.Method),
		strings.TrimSpace(entry.Splits),
		entry.Records,
		entry.Skipped,
		entry.DurationMS,
		fetchedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("history: save entry: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("history: last insert id: %w", err)
	}
	entry.ID = id
	entry.FetchedAt = fetchedAt
	return nil
}

// List returns the most recent entries, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]*Entry, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("history: nil store")
	}
	if ctx == nil {
		return nil, errors.New("history: nil context")
	}
	if limit <= 0 {
		limit = defaultLimit
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, dataset, config, method, splits, records, skipped, duration_ms, fetched_at
		 FROM fetch_runs
		 ORDER BY fetched_at DESC, id DESC
		 LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("history: list entries: %w", err)
	}
	defer rows.Close()

	var out []*Entry
	for rows.Next() {
		var e Entry
		var fetchedAt int64
		if err := rows.Scan(&e.ID, &e.Dataset, &e.Config, &e.Method, &e.Splits,
			&e.Records, &e.Skipped, &e.DurationMS, &fetchedAt); err != nil {
			return nil, fmt.Errorf("history: scan entry: %w", err)
		}
		e.FetchedAt = time.Unix(fetchedAt, 0).UTC()
		out = append(out, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("history: iterate entries: %w", err)
	}
	return out, nil
}
