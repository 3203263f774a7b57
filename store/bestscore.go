// Package store persists what outlives a session: the best score, and
// per-session replays written as Parquet.
//
// Best-score stores never return errors to the game. A missing, corrupt or
// unreachable store reads as 0 and writes are dropped after logging; the
// player never sees a storage failure.
package store

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// BestScoreKey is the key the best score is stored under.
const BestScoreKey = "snake_best_score"

// BestScoreStore is the get/set bridge used by session.Controller.
type BestScoreStore interface {
	Get() int
	Set(score int)
}

// Memory keeps the best score in process. It is the fallback when no
// persistent backend is configured.
type Memory struct {
	mu    sync.Mutex
	value int
}

func (m *Memory) Get() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.value
}

func (m *Memory) Set(score int) {
	if score < 0 {
		return
	}
	m.mu.Lock()
	m.value = score
	m.mu.Unlock()
}

// Backend names accepted by Open.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendLog    = "log"
	BackendDuckDB = "duckdb"
)

// Open returns the best-score store for backend at path. An unknown backend
// is an error; a backend that cannot reach its storage is not, it degrades
// to reads of 0 as documented above. The returned closer is never nil.
func Open(backend, path string, logger *slog.Logger) (BestScoreStore, func() error, error) {
	if logger == nil {
		logger = slog.Default()
	}
	nop := func() error { return nil }

	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "", BackendMemory:
		return &Memory{}, nop, nil
	case BackendFile:
		return NewFile(path, logger), nop, nil
	case BackendLog:
		l := OpenScoreLog(path, logger)
		return l, l.Close, nil
	case BackendDuckDB:
		d := OpenDuckDB(path, logger)
		return d, d.Close, nil
	default:
		return nil, nop, fmt.Errorf("unknown store backend %q", backend)
	}
}

// ReadBest reads the best score stored by backend at path without opening
// the store for writing: nothing is created when the path does not exist.
// A missing store reads as 0.
func ReadBest(backend, path string) (int, error) {
	backend = strings.ToLower(strings.TrimSpace(backend))
	switch backend {
	case "", BackendMemory:
		return 0, nil
	case BackendFile, BackendLog, BackendDuckDB:
	default:
		return 0, fmt.Errorf("unknown store backend %q", backend)
	}
	if path == "" {
		return 0, nil
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf("stat store: %w", err)
	}

	switch backend {
	case BackendFile:
		b, err := os.ReadFile(path)
		if err != nil {
			return 0, fmt.Errorf("read best score: %w", err)
		}
		return parseScore(string(b)), nil
	case BackendLog:
		best, err := readScoreLog(path)
		if err != nil {
			return 0, fmt.Errorf("read score log: %w", err)
		}
		return best, nil
	default:
		return readDuckDB(path)
	}
}
