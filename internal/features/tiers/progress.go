package tiers

// Progress is where a point total sits on a ladder.
type Progress struct {
	// Label of the highest cleared step, "" when none is cleared.
	Label string
	// CurrentProgress is the points earned toward the step being worked on.
	// In the terminal state it is the whole point total.
	CurrentProgress int64
	// NextRequired is the cost of the step being worked on; 0 in the
	// terminal state (max tier reached or empty ladder).
	NextRequired int64
	// Cleared counts the fully cleared steps.
	Cleared int
	// MaxTier is set when every step of a non-empty ladder is cleared.
	MaxTier bool
}

// Terminal reports whether there is no further step to pursue.
func (p Progress) Terminal() bool {
	return p.NextRequired == 0
}

// fold is the accumulator of the ladder walk.
type fold struct {
	cumulative int64
	progress   Progress
	stopped    bool
}

func (f fold) apply(step Step, total int64) fold {
	start := f.cumulative
	f.cumulative += step.Cost

	if total >= f.cumulative {
		f.progress.Label = step.Label
		f.progress.Cleared++
		return f
	}

	f.progress.CurrentProgress = total - start
	f.progress.NextRequired = step.Cost
	f.stopped = true
	return f
}

// ComputeProgress walks the ladder against totalPoints.
//
// Each step's cost is added to a running total. A step whose running total
// is reached is cleared and its label adopted; the first step that is not
// reached is the one being worked on and stops the walk. When the walk ends
// without such a step the result is terminal: CurrentProgress is the whole
// total and NextRequired is 0.
//
// Example, ladder 100:Bronze 150:Silver:
//
//	ComputeProgress(l, 99)  → {"", 99, 100}
//	ComputeProgress(l, 100) → {"Bronze", 0, 150}
//	ComputeProgress(l, 300) → {"Silver", 300, 0, MaxTier}
func ComputeProgress(ladder Ladder, totalPoints int64) Progress {
	if totalPoints < 0 {
		totalPoints = 0
	}

	f := fold{progress: Progress{CurrentProgress: totalPoints}}
	for _, step := range ladder.steps {
		if f = f.apply(step, totalPoints); f.stopped {
			return f.progress
		}
	}

	f.progress.MaxTier = f.progress.Cleared > 0
	return f.progress
}
