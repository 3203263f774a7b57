// Package history queries recorded replays with DuckDB.
//
// Replays are the Parquet files written by store.Recorder. They are read in
// place through a view; nothing is imported or copied.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"
)

// Session summarises one recorded game.
type Session struct {
	ID         string
	File       string
	Started    time.Time
	Duration   time.Duration
	Ticks      int
	Score      int
	Level      int
	Difficulty string
	Cause      string
	Length     int
}

// Summary aggregates every recorded game.
type Summary struct {
	Games        int
	BestScore    int
	TotalFood    int
	TotalTicks   int
	ByDifficulty map[string]int
	ByCause      map[string]int
}

// DB is an in-memory DuckDB database with a ticks view over a replay
// directory.
type DB struct {
	db   *sql.DB
	root string
	glob string
}

// Open creates the view. A directory without replays yields an empty view.
func Open(replayDir string) (*DB, error) {
	db, err := sql.Open("duckdb", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}
	_, _ = db.Exec("PRAGMA threads=2")

	h := &DB{db: db, root: replayDir, glob: filepath.Join(replayDir, "*.parquet")}
	if err := h.createView(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return h, nil
}

func (h *DB) createView() error {
	matches, _ := filepath.Glob(h.glob)
	if len(matches) == 0 {
		_, err := h.db.Exec(`CREATE OR REPLACE VIEW ticks AS
			SELECT * FROM (
				SELECT
					NULL::VARCHAR AS session_id,
					NULL::INTEGER AS tick,
					NULL::INTEGER AS cols,
					NULL::INTEGER AS "rows",
					NULL::INTEGER[] AS body_x,
					NULL::INTEGER[] AS body_y,
					NULL::INTEGER AS score,
					NULL::INTEGER AS best,
					NULL::INTEGER AS level,
					NULL::INTEGER AS eaten,
					NULL::VARCHAR AS difficulty,
					NULL::VARCHAR AS status,
					NULL::VARCHAR AS cause,
					NULL::BIGINT AS at_ms,
					NULL::VARCHAR AS filename
			) WHERE 1=0`)
		if err != nil {
			return fmt.Errorf("create empty view: %w", err)
		}
		return nil
	}

	// The glob is not recursive, so in-progress files under tmp/ never match.
	sqlText := `CREATE OR REPLACE VIEW ticks AS
		SELECT * FROM read_parquet('` + escapeSQLString(h.glob) + `', filename=true, union_by_name=true)`
	if _, err := h.db.Exec(sqlText); err != nil {
		return fmt.Errorf("create ticks view: %w", err)
	}
	return nil
}

// Refresh re-reads the replay directory, picking up new files.
func (h *DB) Refresh() error {
	return h.createView()
}

func (h *DB) Close() error {
	return h.db.Close()
}

// Sessions lists recorded games, most recent first. limit <= 0 means all.
func (h *DB) Sessions(ctx context.Context, limit int) ([]Session, error) {
	q := `
		SELECT
			session_id,
			any_value(filename) AS file,
			min(at_ms) AS started_ms,
			max(at_ms) - min(at_ms) AS duration_ms,
			max(tick) AS ticks,
			max(score) AS score,
			max(level) AS level,
			any_value(difficulty) AS difficulty,
			arg_max(cause, tick) AS cause,
			arg_max(len(body_x), tick) AS length
		FROM ticks
		GROUP BY session_id
		ORDER BY started_ms DESC`
	var args []any
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := h.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var out []Session
	for rows.Next() {
		var (
			s                   Session
			file, diff, cause   sql.NullString
			startMs, durMs      int64
			ticks, score, level int64
			length              sql.NullInt64
		)
		if err := rows.Scan(&s.ID, &file, &startMs, &durMs, &ticks, &score, &level, &diff, &cause, &length); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		s.File = h.relative(file.String)
		s.Started = time.UnixMilli(startMs)
		s.Duration = time.Duration(durMs) * time.Millisecond
		s.Ticks = int(ticks)
		s.Score = int(score)
		s.Level = int(level)
		s.Difficulty = diff.String
		s.Cause = cause.String
		s.Length = int(length.Int64)
		out = append(out, s)
	}
	return out, rows.Err()
}

// Best is the highest score in any recorded game, or 0 when there are none.
func (h *DB) Best(ctx context.Context) (int, error) {
	var best sql.NullInt64
	if err := h.db.QueryRowContext(ctx, `SELECT max(score) FROM ticks`).Scan(&best); err != nil {
		return 0, fmt.Errorf("query best: %w", err)
	}
	return int(best.Int64), nil
}

// Summarize aggregates all recorded games.
func (h *DB) Summarize(ctx context.Context) (Summary, error) {
	sum := Summary{
		ByDifficulty: make(map[string]int),
		ByCause:      make(map[string]int),
	}

	var best, food, ticks sql.NullInt64
	err := h.db.QueryRowContext(ctx, `
		SELECT count(*), max(score), sum(eaten)::BIGINT, sum(ticks)::BIGINT
		FROM (
			SELECT session_id, max(score) AS score, max(eaten) AS eaten, max(tick) AS ticks
			FROM ticks
			GROUP BY session_id
		)`).Scan(&sum.Games, &best, &food, &ticks)
	if err != nil {
		return sum, fmt.Errorf("query summary: %w", err)
	}
	sum.BestScore = int(best.Int64)
	sum.TotalFood = int(food.Int64)
	sum.TotalTicks = int(ticks.Int64)

	if err := h.countBy(ctx, "any_value(difficulty)", sum.ByDifficulty); err != nil {
		return sum, err
	}
	if err := h.countBy(ctx, "arg_max(cause, tick)", sum.ByCause); err != nil {
		return sum, err
	}
	return sum, nil
}

// countBy counts sessions grouped by a per-session expression. expr is
// always a constant from this package.
func (h *DB) countBy(ctx context.Context, expr string, dst map[string]int) error {
	rows, err := h.db.QueryContext(ctx, `
		SELECT k, count(*) FROM (
			SELECT `+expr+` AS k FROM ticks GROUP BY session_id
		) GROUP BY k`)
	if err != nil {
		return fmt.Errorf("count by %s: %w", expr, err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			k sql.NullString
			n int
		)
		if err := rows.Scan(&k, &n); err != nil {
			return err
		}
		dst[k.String] += n
	}
	return rows.Err()
}

func (h *DB) relative(file string) string {
	if file == "" {
		return ""
	}
	if rel, err := filepath.Rel(h.root, file); err == nil && !strings.HasPrefix(rel, "..") {
		return rel
	}
	return file
}

func escapeSQLString(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
