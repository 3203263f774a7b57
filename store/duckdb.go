package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"
)

const duckdbTimeout = 2 * time.Second

// DuckDB keeps the best score in a key-value table of a DuckDB database
// file. It is handy when replays are analysed with DuckDB anyway, since the
// score lives next to them.
type DuckDB struct {
	mu   sync.Mutex
	path string
	db   *sql.DB
	log  *slog.Logger
}

// OpenDuckDB opens (or creates) the database at path. An empty path uses an
// in-memory database. Failure to open is logged and leaves a store that
// reads 0 and drops writes.
func OpenDuckDB(path string, logger *slog.Logger) *DuckDB {
	if logger == nil {
		logger = slog.Default()
	}
	d := &DuckDB{path: path, log: logger}
	db, err := openKV(path)
	if err != nil {
		logger.Warn("duckdb store unavailable", "path", path, "err", err)
		return d
	}
	d.db = db
	return d
}

func openKV(path string) (*sql.DB, error) {
	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create dir: %w", err)
		}
	}
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), duckdbTimeout)
	defer cancel()
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS kv (
		key VARCHAR PRIMARY KEY,
		value BIGINT NOT NULL,
		updated_at TIMESTAMP DEFAULT current_timestamp
	)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create kv table: %w", err)
	}
	return db, nil
}

// readDuckDB reads the best score from an existing database file without
// creating or migrating anything.
func readDuckDB(path string) (int, error) {
	db, err := sql.Open("duckdb", path+"?access_mode=read_only")
	if err != nil {
		return 0, fmt.Errorf("open duckdb: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), duckdbTimeout)
	defer cancel()

	var v int64
	err = db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, BestScoreKey).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("query best score: %w", err)
	}
	return max(int(v), 0), nil
}

func (d *DuckDB) Get() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.db == nil {
		return 0
	}

	ctx, cancel := context.WithTimeout(context.Background(), duckdbTimeout)
	defer cancel()

	var v int64
	err := d.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, BestScoreKey).Scan(&v)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			d.log.Warn("best score unreadable", "path", d.path, "err", err)
		}
		return 0
	}
	if v < 0 {
		return 0
	}
	return int(v)
}

func (d *DuckDB) Set(score int) {
	if score < 0 {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.db == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), duckdbTimeout)
	defer cancel()

	if _, err := d.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO kv (key, value, updated_at) VALUES (?, ?, current_timestamp)`,
		BestScoreKey, int64(score),
	); err != nil {
		d.log.Warn("best score not saved", "path", d.path, "err", err)
	}
}

func (d *DuckDB) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.db == nil {
		return nil
	}
	err := d.db.Close()
	d.db = nil
	return err
}
