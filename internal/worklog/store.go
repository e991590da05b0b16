package worklog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // database/sql driver
)

// timeLayout is the fixed-width UTC layout used for the created_at column.
// Fixed fractional digits keep lexical order identical to time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// schema creates the append-only entries table plus a small key-value
// table for context metadata.
const schema = `
CREATE TABLE IF NOT EXISTS entries (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    kind       TEXT NOT NULL,
    content    TEXT NOT NULL,
    tags       TEXT NOT NULL DEFAULT '[]',
    metadata   TEXT NOT NULL DEFAULT '{}',
    created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_entries_created ON entries(created_at, id);
CREATE TABLE IF NOT EXISTS context_meta (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
`

// Retry policy for lock contention. Appends are short transactions, so a
// handful of attempts with growing backoff is enough before surfacing the
// error to the caller.
const (
	maxRetries   = 3
	retryBackoff = 50 * time.Millisecond
)

// Store provides append and list access to one context's entry log.
// Safe for concurrent use; each append is a single transaction, and the
// database runs in WAL mode to tolerate concurrent writers across processes.
type Store struct {
	db   *sql.DB
	path string

	// now is the clock used for timestamps; overridable in tests.
	now func() time.Time
}

// Open opens (creating if necessary) the entry store at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, &StorageError{Op: "create store directory", Err: err}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, &StorageError{Op: "open store", Err: err}
	}

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err = db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, &StorageError{Op: "configure store", Err: err}
		}
	}

	if _, err = db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, &StorageError{Op: "initialize schema", Err: err}
	}

	return &Store{db: db, path: path, now: time.Now}, nil
}

// Path returns the database file path backing this store.
func (s *Store) Path() string {
	return s.path
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return &StorageError{Op: "close store", Err: err}
	}
	return nil
}

// Append validates and durably persists a new entry, assigning its ID and
// timestamp. The timestamp is clamped to be non-decreasing relative to the
// last stored entry, so insertion order and time order never disagree.
// Returns a ValidationError for a bad kind or empty content, and a
// StorageError when persistence fails after retries.
func (s *Store) Append(ctx context.Context, kind Kind, content string, tags []string, metadata map[string]string) (*Entry, error) {
	if err := validateAppend(kind, content); err != nil {
		return nil, err
	}

	entry := &Entry{
		Kind:     kind,
		Content:  content,
		Tags:     normalizeTags(tags),
		Metadata: metadata,
	}

	tagsJSON, err := json.Marshal(entry.Tags)
	if err != nil {
		return nil, &StorageError{Op: "encode tags", Err: err}
	}
	if entry.Tags == nil {
		tagsJSON = []byte("[]")
	}
	metaJSON := []byte("{}")
	if len(entry.Metadata) > 0 {
		if metaJSON, err = json.Marshal(entry.Metadata); err != nil {
			return nil, &StorageError{Op: "encode metadata", Err: err}
		}
	}

	err = s.withRetry(ctx, "append entry", func() error {
		return s.appendTx(ctx, entry, tagsJSON, metaJSON)
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// appendTx runs one append attempt as a single transaction.
func (s *Store) appendTx(ctx context.Context, entry *Entry, tagsJSON, metaJSON []byte) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	// Clamp the timestamp against the newest stored entry so that
	// created_at is non-decreasing in insertion order even if the wall
	// clock steps backwards.
	ts := s.now().UTC()
	var last sql.NullString
	if err = tx.QueryRowContext(ctx, "SELECT MAX(created_at) FROM entries").Scan(&last); err != nil {
		return err
	}
	if last.Valid {
		if prev, parseErr := time.Parse(timeLayout, last.String); parseErr == nil && prev.After(ts) {
			ts = prev
		}
	}

	res, err := tx.ExecContext(ctx,
		"INSERT INTO entries (kind, content, tags, metadata, created_at) VALUES (?, ?, ?, ?, ?)",
		string(entry.Kind), entry.Content, string(tagsJSON), string(metaJSON), ts.Format(timeLayout),
	)
	if err != nil {
		return err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return err
	}

	entry.ID = id
	entry.CreatedAt = ts
	return nil
}

// List returns entries matching the filter, ordered by created_at ascending
// with id as tiebreak (insertion order). A nil filter returns everything.
func (s *Store) List(ctx context.Context, filter *Filter) ([]*Entry, error) {
	query := "SELECT id, kind, content, tags, metadata, created_at FROM entries"
	where, args := filter.whereClause()
	if where != "" {
		query += " WHERE " + where
	}
	query += " ORDER BY created_at ASC, id ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, &StorageError{Op: "list entries", Err: err, Transient: isBusy(err)}
	}
	defer func() { _ = rows.Close() }()

	var entries []*Entry
	for rows.Next() {
		entry, scanErr := scanEntry(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		entries = append(entries, entry)
	}
	if err = rows.Err(); err != nil {
		return nil, &StorageError{Op: "list entries", Err: err}
	}

	// Tags live in a JSON column, so tag filtering happens here rather
	// than in SQL.
	if filter != nil && len(filter.Tags) > 0 {
		entries = FilterByTags(entries, filter.Tags)
	}

	return entries, nil
}

// Get returns the entry with the given ID, or nil if it does not exist.
func (s *Store) Get(ctx context.Context, id int64) (*Entry, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT id, kind, content, tags, metadata, created_at FROM entries WHERE id = ?", id)
	entry, err := scanEntry(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return entry, nil
}

// Count returns the total number of entries in the store.
func (s *Store) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM entries").Scan(&count); err != nil {
		return 0, &StorageError{Op: "count entries", Err: err, Transient: isBusy(err)}
	}
	return count, nil
}

// SetMeta stores a key-value pair in the context metadata table.
func (s *Store) SetMeta(ctx context.Context, key, value string) error {
	return s.withRetry(ctx, "set metadata", func() error {
		_, err := s.db.ExecContext(ctx,
			"INSERT INTO context_meta (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
			key, value)
		return err
	})
}

// GetMeta returns the value for a context metadata key, or "" if unset.
func (s *Store) GetMeta(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM context_meta WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", &StorageError{Op: "read metadata", Err: err, Transient: isBusy(err)}
	}
	return value, nil
}

// rowScanner covers *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanEntry decodes one entries row.
func scanEntry(row rowScanner) (*Entry, error) {
	var (
		entry    Entry
		kind     string
		tagsJSON string
		metaJSON string
		created  string
	)
	if err := row.Scan(&entry.ID, &kind, &entry.Content, &tagsJSON, &metaJSON, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, &StorageError{Op: "scan entry", Err: err}
	}

	entry.Kind = Kind(kind)

	ts, err := time.Parse(timeLayout, created)
	if err != nil {
		return nil, &StorageError{Op: "parse entry timestamp", Err: err}
	}
	entry.CreatedAt = ts

	if tagsJSON != "" && tagsJSON != "[]" {
		if err = json.Unmarshal([]byte(tagsJSON), &entry.Tags); err != nil {
			return nil, &StorageError{Op: "decode entry tags", Err: err}
		}
	}
	if metaJSON != "" && metaJSON != "{}" {
		if err = json.Unmarshal([]byte(metaJSON), &entry.Metadata); err != nil {
			return nil, &StorageError{Op: "decode entry metadata", Err: err}
		}
	}

	return &entry, nil
}

// withRetry runs fn, retrying on lock contention with growing backoff.
// Non-transient errors surface immediately.
func (s *Store) withRetry(ctx context.Context, op string, fn func() error) error {
	backoff := retryBackoff
	var err error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		if !isBusy(err) {
			return &StorageError{Op: op, Err: err}
		}
		if attempt == maxRetries {
			break
		}
		select {
		case <-ctx.Done():
			return &StorageError{Op: op, Err: ctx.Err()}
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	return &StorageError{Op: op, Err: err, Transient: true}
}

// isBusy reports whether err is SQLite lock contention.
func isBusy(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") ||
		strings.Contains(msg, "SQLITE_LOCKED") ||
		strings.Contains(msg, "database is locked")
}
