package store

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// File stores the best score as a decimal number in a small text file,
// the closest thing to a browser's localStorage entry.
//
// Writes go to a temp file that is renamed over the target, so a crash
// leaves either the old or the new value, never a torn one.
type File struct {
	path string
	log  *slog.Logger
}

func NewFile(path string, logger *slog.Logger) *File {
	if logger == nil {
		logger = slog.Default()
	}
	return &File{path: path, log: logger}
}

// Get returns the stored score, or 0 if the file is missing, unreadable or
// does not hold a positive integer.
func (f *File) Get() int {
	if f.path == "" {
		return 0
	}
	b, err := os.ReadFile(f.path)
	if err != nil {
		if !os.IsNotExist(err) {
			f.log.Warn("best score unreadable", "path", f.path, "err", err)
		}
		return 0
	}
	return parseScore(string(b))
}

// Set writes score, logging and dropping any failure.
func (f *File) Set(score int) {
	if err := f.write(score); err != nil {
		f.log.Warn("best score not saved", "path", f.path, "err", err)
	}
}

func (f *File) write(score int) error {
	if f.path == "" {
		return fmt.Errorf("no path configured")
	}
	if score < 0 {
		return fmt.Errorf("negative score %d", score)
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return fmt.Errorf("create dir: %w", err)
	}

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, []byte(strconv.Itoa(score)+"\n"), 0o644); err != nil {
		return fmt.Errorf("write tmp: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}

// parseScore accepts a non-negative decimal integer surrounded by optional
// whitespace. Everything else reads as 0.
func parseScore(s string) int {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || v < 0 {
		return 0
	}
	return v
}
