package rules

import (
	"time"

	"github.com/brensch/gridsnake/game"
)

// LevelInterval is the per-tick interval for a level before the difficulty
// factor: BaseInterval shortened by IntervalStep per level, never below
// MinInterval.
func LevelInterval(level int, cfg game.Config) time.Duration {
	if level < 1 {
		level = 1
	}
	base := cfg.BaseInterval - time.Duration(level-1)*cfg.IntervalStep
	return max(cfg.MinInterval, base)
}

// Interval is the time between ticks for level and difficulty.
func Interval(level int, d game.Difficulty, cfg game.Config) time.Duration {
	base := LevelInterval(level, cfg)
	return time.Duration(float64(base) / d.SpeedFactor())
}

// SpeedFactor is how much faster than the level-1 Easy pace the game runs,
// the number shown next to the difficulty in the HUD.
func SpeedFactor(level int, d game.Difficulty, cfg game.Config) float64 {
	iv := Interval(level, d, cfg)
	if iv <= 0 {
		return 0
	}
	return float64(cfg.BaseInterval) / float64(iv)
}
