// Package tiers describes reward tiers unlocked by accumulated points.
// ladder.go holds the immutable ladder of tier steps and its validation.
package tiers

import (
	"fmt"
	"math"

	"serotonyl.ru/activity-bot/internal/common"
)

// Step is one rung of the ladder. Cost is a delta added to the running
// total of the previous steps, not an absolute threshold.
type Step struct {
	Cost  int64  `json:"cost" yaml:"cost"`
	Label string `json:"label" yaml:"label"`
}

// InvalidLadderError names the step that broke validation.
// Overflow is set when the step is positive but the running total would
// exceed int64.
type InvalidLadderError struct {
	Index    int
	Step     Step
	Overflow bool
}

func (e *InvalidLadderError) Error() string {
	if e.Overflow {
		return fmt.Sprintf("tier step %d (%q) has cost %d, ladder total exceeds %d", e.Index+1, e.Step.Label, e.Step.Cost, int64(math.MaxInt64))
	}
	return fmt.Sprintf("tier step %d (%q) has cost %d, cost must be positive", e.Index+1, e.Step.Label, e.Step.Cost)
}

func (e *InvalidLadderError) Unwrap() error {
	return common.ErrInvalidLadder
}

// Ladder is an ordered, immutable sequence of steps. The zero value is an
// empty ladder: no tier applies.
type Ladder struct {
	steps []Step
}

// NewLadder validates the steps and copies them into a Ladder.
// A step with cost <= 0, or one that pushes the cumulative total past
// math.MaxInt64, is rejected with *InvalidLadderError.
func NewLadder(steps []Step) (Ladder, error) {
	var total int64
	for i, s := range steps {
		if s.Cost <= 0 {
			return Ladder{}, &InvalidLadderError{Index: i, Step: s}
		}
		if total > math.MaxInt64-s.Cost {
			return Ladder{}, &InvalidLadderError{Index: i, Step: s, Overflow: true}
		}
		total += s.Cost
	}
	cp := make([]Step, len(steps))
	copy(cp, steps)
	return Ladder{steps: cp}, nil
}

// MustLadder is NewLadder for literals known to be valid. Panics otherwise.
func MustLadder(steps ...Step) Ladder {
	l, err := NewLadder(steps)
	if err != nil {
		panic(err)
	}
	return l
}

// Len returns the number of steps.
func (l Ladder) Len() int { return len(l.steps) }

// Steps returns a copy of the steps in order.
func (l Ladder) Steps() []Step {
	out := make([]Step, len(l.steps))
	copy(out, l.steps)
	return out
}

// Threshold returns the cumulative points needed to clear step i.
func (l Ladder) Threshold(i int) int64 {
	var total int64
	for j := 0; j <= i && j < len(l.steps); j++ {
		total += l.steps[j].Cost
	}
	return total
}

// String renders the ladder the way admins type it: "100:Bronze 150:Silver".
func (l Ladder) String() string {
	out := ""
	for i, s := range l.steps {
		if i > 0 {
			out += " "
		}
		out += fmt.Sprintf("%d:%s", s.Cost, s.Label)
	}
	return out
}
