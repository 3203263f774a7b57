// food.go implements food placement.

package game

import (
	"math/rand"
)

// SpawnFood picks a uniformly random empty cell.
//
// Rather than sampling the board and retrying on occupied cells, the free
// cells are enumerated first so placement always terminates. ok is false
// only when the snake covers the whole board.
// If rng is nil, a deterministic hash of the snake length is used instead.
func SpawnFood(g Grid, snake []Point, rng *rand.Rand) (p Point, ok bool) {
	occupied := make(map[Point]bool, len(snake))
	for _, seg := range snake {
		occupied[seg] = true
	}

	free := make([]Point, 0, max(g.Cells()-len(occupied), 0))
	for y := 0; y < g.Rows; y++ {
		for x := 0; x < g.Cols; x++ {
			c := Point{X: x, Y: y}
			if !occupied[c] {
				free = append(free, c)
			}
		}
	}
	if len(free) == 0 {
		return Point{}, false
	}

	var idx int
	if rng != nil {
		idx = rng.Intn(len(free))
	} else {
		idx = int(deterministicU64Fast(uint64(len(snake)), 0xF00D) % uint64(len(free)))
	}
	return free[idx], true
}

// deterministicU64Fast is a splitmix64 step, used when no rng is supplied.
func deterministicU64Fast(a, b uint64) uint64 {
	x := a + b
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}
