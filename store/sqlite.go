package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/jonwraymond/tiercache/resilience"
)

var tableNamePattern = regexp.MustCompile(`^[a-z_][a-z0-9_]{0,62}$`)

// SQLiteConfig configures a SQLite database.
type SQLiteConfig struct {
	// Path is the database file. ":memory:" opens a private in-memory database.
	Path string

	// BusyTimeout is how long SQLite waits on a locked database before
	// returning SQLITE_BUSY. Default: 5s
	BusyTimeout time.Duration

	// Retry absorbs SQLITE_BUSY/SQLITE_LOCKED that outlive BusyTimeout.
	// Default: resilience.NewRetry with IsBusy as RetryIf.
	Retry *resilience.Retry
}

// SQLiteDB is a local SQLite database shared by one or more tier stores.
type SQLiteDB struct {
	db    *sql.DB
	path  string
	retry *resilience.Retry

	mu     sync.Mutex
	tables map[string]*SQLiteStore
	closed bool
}

// OpenSQLite opens (creating if needed) the database at cfg.Path.
func OpenSQLite(cfg SQLiteConfig) (*SQLiteDB, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, errors.New("store: sqlite path is required")
	}
	if cfg.BusyTimeout <= 0 {
		cfg.BusyTimeout = 5 * time.Second
	}
	if cfg.Retry == nil {
		cfg.Retry = resilience.NewRetry(resilience.RetryConfig{
			Jitter:  true,
			RetryIf: IsBusy,
		})
	}

	inMemory := cfg.Path == ":memory:"
	if !inMemory {
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o700); err != nil {
			return nil, fmt.Errorf("store: create directory: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_busy_timeout=%d", cfg.Path, cfg.BusyTimeout.Milliseconds())
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open database: %w", err)
	}
	if inMemory {
		// Every connection to :memory: is a different database.
		db.SetMaxOpenConns(1)
	}

	if err := configurePragmas(db, inMemory); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteDB{
		db:     db,
		path:   cfg.Path,
		retry:  cfg.Retry,
		tables: make(map[string]*SQLiteStore),
	}, nil
}

func configurePragmas(db *sql.DB, inMemory bool) error {
	pragmas := []string{"PRAGMA synchronous = NORMAL"}
	if !inMemory {
		pragmas = append(pragmas, "PRAGMA journal_mode = WAL")
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("store: execute %q: %w", pragma, err)
		}
	}
	return nil
}

// Store returns the tier store backed by table, creating the table if needed.
// Repeated calls with the same table return the same store.
func (d *SQLiteDB) Store(table string) (*SQLiteStore, error) {
	if !tableNamePattern.MatchString(table) {
		return nil, fmt.Errorf("store: invalid table name %q", table)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil, ErrClosed
	}
	if s, ok := d.tables[table]; ok {
		return s, nil
	}

	ddl := fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS %s (
		key        TEXT PRIMARY KEY,
		value      BLOB NOT NULL,
		updated_at INTEGER NOT NULL
	)`, table)
	if _, err := d.db.Exec(ddl); err != nil {
		return nil, fmt.Errorf("store: create table %s: %w", table, err)
	}

	s := &SQLiteStore{
		db:    d,
		table: table,
		qGet:  fmt.Sprintf("SELECT value FROM %s WHERE key = ?", table),
		qSet: fmt.Sprintf(`INSERT INTO %s (key, value, updated_at) VALUES (?, ?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`, table),
		qDelete: fmt.Sprintf("DELETE FROM %s WHERE key = ?", table),
		qKeys:   fmt.Sprintf("SELECT key FROM %s", table),
		qClear:  fmt.Sprintf("DELETE FROM %s", table),
	}
	d.tables[table] = s
	return s, nil
}

// Path returns the database file path.
func (d *SQLiteDB) Path() string {
	return d.path
}

// Ping verifies the database is reachable.
func (d *SQLiteDB) Ping(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

// Close closes the database. Stores obtained from it stop working.
func (d *SQLiteDB) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil
	}
	d.closed = true
	return d.db.Close()
}

// IsBusy reports whether err is transient SQLite lock contention.
func IsBusy(err error) bool {
	var se sqlite3.Error
	if errors.As(err, &se) {
		return se.Code == sqlite3.ErrBusy || se.Code == sqlite3.ErrLocked
	}
	return false
}

// SQLiteStore is a Store persisted in one SQLite table.
type SQLiteStore struct {
	db    *SQLiteDB
	table string

	qGet, qSet, qDelete, qKeys, qClear string
}

// Name returns the table name.
func (s *SQLiteStore) Name() string {
	return s.table
}

// Get returns the blob stored under key.
func (s *SQLiteStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	err := s.db.db.QueryRowContext(ctx, s.qGet, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, s.wrap("get", err)
	}
	if value == nil {
		value = []byte{}
	}
	return value, true, nil
}

// Set upserts value under key.
func (s *SQLiteStore) Set(ctx context.Context, key string, value []byte) error {
	if value == nil {
		value = []byte{}
	}
	return s.exec(ctx, "set", s.qSet, key, value, time.Now().Unix())
}

// Delete removes key. Idempotent - no error on miss.
func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	return s.exec(ctx, "delete", s.qDelete, key)
}

// Keys returns every key in the table.
func (s *SQLiteStore) Keys(ctx context.Context) ([]string, error) {
	rows, err := s.db.db.QueryContext(ctx, s.qKeys)
	if err != nil {
		return nil, s.wrap("keys", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, s.wrap("keys", err)
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return nil, s.wrap("keys", err)
	}
	return keys, nil
}

// Clear deletes every row in the table.
func (s *SQLiteStore) Clear(ctx context.Context) error {
	return s.exec(ctx, "clear", s.qClear)
}

// Ping verifies the underlying database is reachable.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close is a no-op; the shared SQLiteDB owns the connection.
func (s *SQLiteStore) Close() error {
	return nil
}

func (s *SQLiteStore) exec(ctx context.Context, op, query string, args ...any) error {
	err := s.db.retry.Execute(ctx, func(ctx context.Context) error {
		_, err := s.db.db.ExecContext(ctx, query, args...)
		return err
	})
	if err != nil {
		return s.wrap(op, err)
	}
	return nil
}

func (s *SQLiteStore) wrap(op string, err error) error {
	if errors.Is(err, sql.ErrConnDone) || strings.Contains(err.Error(), "database is closed") {
		return fmt.Errorf("store: %s %s: %w", s.table, op, ErrClosed)
	}
	return fmt.Errorf("store: %s %s: %w", s.table, op, err)
}

// Ensure SQLiteStore implements Store and Pinger
var (
	_ Store  = (*SQLiteStore)(nil)
	_ Pinger = (*SQLiteStore)(nil)
)
