package scoring

import (
	"errors"
	"fmt"
)

type Difficulty string

const (
	DifficultyEasy     Difficulty = "EASY"
	DifficultyMedium   Difficulty = "MEDIUM"
	DifficultyHard     Difficulty = "HARD"
	DifficultyAdvanced Difficulty = "ADVANCED"
)

// ErrInvalidLadder means the steps do not cover [0,100] in increasing order.
var ErrInvalidLadder = errors.New("invalid difficulty ladder")

func (d Difficulty) Known() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard, DifficultyAdvanced:
		return true
	}
	return false
}

// Step recommends Difficulty for percentages up to and including Max.
type Step struct {
	Difficulty Difficulty `json:"difficulty"`
	Max        int        `json:"max"`
}

// Ladder maps a percentage to the difficulty of the next quiz. It is kept
// apart from the display Scheme so relabelling bands never shifts difficulty.
type Ladder []Step

func DefaultLadder() Ladder {
	return Ladder{
		{Difficulty: DifficultyEasy, Max: PassThreshold - 1},
		{Difficulty: DifficultyMedium, Max: AverageCeiling},
		{Difficulty: DifficultyHard, Max: ExcellentFloor - 1},
		{Difficulty: DifficultyAdvanced, Max: MaxPercentage},
	}
}

// Validate checks that upper bounds strictly increase and end at 100.
func (l Ladder) Validate() error {
	if len(l) == 0 {
		return fmt.Errorf("%w: no steps", ErrInvalidLadder)
	}
	prev := MinPercentage - 1
	for i, s := range l {
		if !s.Difficulty.Known() {
			return fmt.Errorf("%w: step %d: unknown difficulty %q", ErrInvalidLadder, i, s.Difficulty)
		}
		if s.Max <= prev {
			return fmt.Errorf("%w: step %d: upper bound %d not above %d", ErrInvalidLadder, i, s.Max, prev)
		}
		prev = s.Max
	}
	if prev != MaxPercentage {
		return fmt.Errorf("%w: last upper bound is %d, want %d", ErrInvalidLadder, prev, MaxPercentage)
	}
	return nil
}

func (l Ladder) For(pct int) Difficulty {
	pct = clamp(pct)
	for _, s := range l {
		if pct <= s.Max {
			return s.Difficulty
		}
	}
	if len(l) > 0 {
		return l[len(l)-1].Difficulty
	}
	return DifficultyEasy
}
