package store

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"sync"
)

// ScoreLog is an append-only file of best scores, one per line.
//
// On open the file is scanned and the largest valid line becomes the best
// score; partial or corrupt lines (for example a final line cut short by a
// crash) are skipped. Each Set appends and fsyncs. Since the best score only
// grows, the log doubles as a history of when records were broken.
//
// Format: <score>\n
type ScoreLog struct {
	mu   sync.Mutex
	path string
	file *os.File
	best int
	log  *slog.Logger
}

// OpenScoreLog loads path and opens it for appending. If the file cannot be
// opened the log still works in memory and Set calls are logged and dropped.
func OpenScoreLog(path string, logger *slog.Logger) *ScoreLog {
	if logger == nil {
		logger = slog.Default()
	}
	l := &ScoreLog{path: path, log: logger}
	if path == "" {
		logger.Warn("score log has no path; best score will not persist")
		return l
	}

	// Best-effort load of existing lines.
	if best, err := readScoreLog(path); err == nil {
		l.best = best
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		logger.Warn("score log dir unavailable", "path", path, "err", err)
		return l
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		logger.Warn("score log unavailable", "path", path, "err", err)
		return l
	}
	l.file = file
	return l
}

// readScoreLog returns the largest valid line of the log at path.
func readScoreLog(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	best := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if v := parseScore(scanner.Text()); v > best {
			best = v
		}
	}
	return best, scanner.Err()
}

func (l *ScoreLog) Get() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.best
}

// Set records score if it beats the stored best.
func (l *ScoreLog) Set(score int) {
	if err := l.append(score); err != nil {
		l.log.Warn("best score not saved", "path", l.path, "err", err)
	}
}

func (l *ScoreLog) append(score int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if score <= l.best {
		return nil
	}
	l.best = score

	if l.file == nil {
		return fmt.Errorf("log file is closed")
	}
	if _, err := l.file.WriteString(strconv.Itoa(score) + "\n"); err != nil {
		return fmt.Errorf("append log: %w", err)
	}
	if err := l.file.Sync(); err != nil {
		return fmt.Errorf("sync log: %w", err)
	}
	return nil
}

func (l *ScoreLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}
