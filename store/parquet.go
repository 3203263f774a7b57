package store

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/compress/zstd"

	"github.com/brensch/gridsnake/game"
)

// TickRow is one committed tick of a recorded session.
//
// Rows are self-contained so a replay can be redrawn from any single row:
// the full body is stored, tail first, as parallel X/Y lists.
type TickRow struct {
	SessionID  string  `parquet:"session_id,dict"`
	Tick       int32   `parquet:"tick"`
	Cols       int32   `parquet:"cols"`
	Rows       int32   `parquet:"rows"`
	BodyX      []int32 `parquet:"body_x"`
	BodyY      []int32 `parquet:"body_y"`
	FoodX      int32   `parquet:"food_x"`
	FoodY      int32   `parquet:"food_y"`
	HasFood    bool    `parquet:"has_food"`
	Direction  string  `parquet:"direction,dict"`
	Score      int32   `parquet:"score"`
	Best       int32   `parquet:"best"`
	Level      int32   `parquet:"level"`
	Eaten      int32   `parquet:"eaten"`
	Difficulty string  `parquet:"difficulty,dict"`
	Status     string  `parquet:"status,dict"`
	Cause      string  `parquet:"cause,dict"`
	IntervalMs float32 `parquet:"interval_ms"`
	AtMs       int64   `parquet:"at_ms"`
}

// NewTickRow flattens a snapshot taken at time at.
func NewTickRow(sessionID string, s game.Snapshot, at time.Time) TickRow {
	bx := make([]int32, len(s.Snake))
	by := make([]int32, len(s.Snake))
	for i, p := range s.Snake {
		bx[i] = int32(p.X)
		by[i] = int32(p.Y)
	}
	return TickRow{
		SessionID:  sessionID,
		Tick:       int32(s.Tick),
		Cols:       int32(s.Cols),
		Rows:       int32(s.Rows),
		BodyX:      bx,
		BodyY:      by,
		FoodX:      int32(s.Food.X),
		FoodY:      int32(s.Food.Y),
		HasFood:    s.HasFood,
		Direction:  s.Direction.String(),
		Score:      int32(s.Score),
		Best:       int32(s.Best),
		Level:      int32(s.Level),
		Eaten:      int32(s.Eaten),
		Difficulty: s.Difficulty.String(),
		Status:     s.Status.String(),
		Cause:      s.Cause.String(),
		IntervalMs: float32(s.Interval) / float32(time.Millisecond),
		AtMs:       at.UnixMilli(),
	}
}

// Body rebuilds the snake from the parallel coordinate lists.
func (r TickRow) Body() []game.Point {
	n := min(len(r.BodyX), len(r.BodyY))
	out := make([]game.Point, n)
	for i := 0; i < n; i++ {
		out[i] = game.Point{X: int(r.BodyX[i]), Y: int(r.BodyY[i])}
	}
	return out
}

// SessionFileName is the replay file name for a session.
func SessionFileName(sessionID string) string {
	return "session_" + sessionID + ".parquet"
}

// WriteSessionParquet writes rows into outDir/tmp and then atomically moves
// the file into outDir, so readers globbing outDir never see a partial file.
// The returned path is the final file path.
func WriteSessionParquet(outDir, sessionID string, rows []TickRow) (string, error) {
	if len(rows) == 0 {
		return "", fmt.Errorf("no rows to write")
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	tmpDir := filepath.Join(outDir, "tmp")
	if err := os.MkdirAll(tmpDir, 0o755); err != nil {
		return "", fmt.Errorf("create tmp dir: %w", err)
	}

	name := SessionFileName(sessionID)
	finalPath := filepath.Join(outDir, name)
	tmpPath := filepath.Join(tmpDir, name+".tmp")
	_ = os.Remove(tmpPath)

	if err := parquet.WriteFile(tmpPath, rows,
		parquet.Compression(&zstd.Codec{Level: zstd.SpeedBetterCompression}),
		parquet.KeyValueMetadata("schema", "snake_tick_v1"),
	); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("write parquet: %w", err)
	}

	if err := os.Rename(tmpPath, finalPath); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("rename parquet: %w", err)
	}
	return finalPath, nil
}

// ReadSessionParquet loads every row of a replay file.
func ReadSessionParquet(path string) ([]TickRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, err
	}
	pf, err := parquet.OpenFile(f, stat.Size())
	if err != nil {
		return nil, fmt.Errorf("open parquet: %w", err)
	}

	reader := parquet.NewGenericReader[TickRow](pf)
	defer reader.Close()

	rows := make([]TickRow, reader.NumRows())
	n, err := reader.Read(rows)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	return rows[:n], nil
}
