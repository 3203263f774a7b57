package game

import (
	"strings"
	"time"
)

// Config holds the build-time constants of the game. Nothing here is
// runtime-configurable; DefaultConfig is what the binaries use and tests
// build smaller boards from it.
type Config struct {
	Cols int
	Rows int

	BaseInterval time.Duration // tick interval at level 1 before the difficulty factor
	IntervalStep time.Duration // subtracted per level above 1
	MinInterval  time.Duration // floor applied before the difficulty factor

	MaxLevel     int
	FoodScore    int
	FoodPerLevel int

	MinSwipeDistance float64
	FlashDuration    time.Duration
}

// DefaultConfig matches the classic 20x20 board.
var DefaultConfig = Config{
	Cols:             20,
	Rows:             20,
	BaseInterval:     220 * time.Millisecond,
	IntervalStep:     18 * time.Millisecond,
	MinInterval:      80 * time.Millisecond,
	MaxLevel:         8,
	FoodScore:        10,
	FoodPerLevel:     5,
	MinSwipeDistance: 24,
	FlashDuration:    140 * time.Millisecond,
}

// Difficulty scales the tick rate.
type Difficulty int

const (
	Easy Difficulty = iota
	Normal
	Hard
	Hell
)

// Difficulties lists every selectable difficulty in menu order.
var Difficulties = []Difficulty{Easy, Normal, Hard, Hell}

// SpeedFactor divides the level interval. Unknown values behave like Normal.
func (d Difficulty) SpeedFactor() float64 {
	switch d {
	case Easy:
		return 1.0
	case Normal:
		return 1.4
	case Hard:
		return 2.0
	case Hell:
		return 3.0
	default:
		return 1.4
	}
}

func (d Difficulty) String() string {
	switch d {
	case Easy:
		return "easy"
	case Normal:
		return "normal"
	case Hard:
		return "hard"
	case Hell:
		return "hell"
	default:
		return "normal"
	}
}

// Valid reports whether d is one of the enumerated difficulties.
func (d Difficulty) Valid() bool {
	return d >= Easy && d <= Hell
}

// ParseDifficulty maps a selector value to a Difficulty.
// Anything unrecognised falls back to Normal rather than failing.
func ParseDifficulty(s string) Difficulty {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "easy", "1":
		return Easy
	case "normal", "2":
		return Normal
	case "hard", "3":
		return Hard
	case "hell", "4":
		return Hell
	default:
		return Normal
	}
}
