package tiers

import (
	"errors"
	"math"
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"serotonyl.ru/activity-bot/internal/common"
)

func bronzeSilver() Ladder {
	return MustLadder(Step{Cost: 100, Label: "Bronze"}, Step{Cost: 150, Label: "Silver"})
}

func TestComputeProgress(t *testing.T) {
	tests := []struct {
		name   string
		ladder Ladder
		total  int64
		want   Progress
	}{
		{
			name:   "below first step",
			ladder: bronzeSilver(),
			total:  99,
			want:   Progress{Label: "", CurrentProgress: 99, NextRequired: 100},
		},
		{
			name:   "exactly first threshold moves to next step",
			ladder: bronzeSilver(),
			total:  100,
			want:   Progress{Label: "Bronze", CurrentProgress: 0, NextRequired: 150, Cleared: 1},
		},
		{
			name:   "inside second step",
			ladder: bronzeSilver(),
			total:  180,
			want:   Progress{Label: "Bronze", CurrentProgress: 80, NextRequired: 150, Cleared: 1},
		},
		{
			name:   "all steps cleared",
			ladder: bronzeSilver(),
			total:  250,
			want:   Progress{Label: "Silver", CurrentProgress: 250, NextRequired: 0, Cleared: 2, MaxTier: true},
		},
		{
			name:   "zero points",
			ladder: bronzeSilver(),
			total:  0,
			want:   Progress{Label: "", CurrentProgress: 0, NextRequired: 100},
		},
		{
			name:   "single step exact cost is max tier",
			ladder: MustLadder(Step{Cost: 100, Label: "Bronze"}),
			total:  100,
			want:   Progress{Label: "Bronze", CurrentProgress: 100, NextRequired: 0, Cleared: 1, MaxTier: true},
		},
		{
			name:   "single step overshoot is max tier",
			ladder: MustLadder(Step{Cost: 100, Label: "Bronze"}),
			total:  250,
			want:   Progress{Label: "Bronze", CurrentProgress: 250, NextRequired: 0, Cleared: 1, MaxTier: true},
		},
		{
			name:   "empty ladder",
			ladder: Ladder{},
			total:  500,
			want:   Progress{Label: "", CurrentProgress: 500, NextRequired: 0},
		},
		{
			name:   "negative total is clamped",
			ladder: bronzeSilver(),
			total:  -5,
			want:   Progress{Label: "", CurrentProgress: 0, NextRequired: 100},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeProgress(tt.ladder, tt.total)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestComputeProgress_TerminalStates(t *testing.T) {
	empty := ComputeProgress(Ladder{}, 500)
	assert.True(t, empty.Terminal())
	assert.False(t, empty.MaxTier)

	maxed := ComputeProgress(bronzeSilver(), 1000)
	assert.True(t, maxed.Terminal())
	assert.True(t, maxed.MaxTier)

	within := ComputeProgress(bronzeSilver(), 10)
	assert.False(t, within.Terminal())
}

// Position on the ladder never goes backwards as points grow: the pair
// (Cleared, CurrentProgress) is non-decreasing, and CurrentProgress alone
// is non-decreasing while the tier stays the same.
func TestComputeProgress_Monotonic(t *testing.T) {
	faker := gofakeit.New(42)

	for round := 0; round < 50; round++ {
		n := faker.IntRange(0, 6)
		steps := make([]Step, n)
		for i := range steps {
			steps[i] = Step{Cost: int64(faker.IntRange(1, 300)), Label: faker.Color()}
		}
		ladder := MustLadder(steps...)

		prev := ComputeProgress(ladder, 0)
		limit := ladder.Threshold(n-1) + 50
		for total := int64(1); total <= limit; total++ {
			cur := ComputeProgress(ladder, total)

			require.GreaterOrEqual(t, cur.Cleared, prev.Cleared, "ladder %s total %d", ladder, total)
			if cur.Cleared == prev.Cleared {
				require.GreaterOrEqual(t, cur.CurrentProgress, prev.CurrentProgress, "ladder %s total %d", ladder, total)
			}
			if !cur.Terminal() {
				require.Less(t, cur.CurrentProgress, cur.NextRequired)
				require.Equal(t, total, ladder.Threshold(cur.Cleared-1)+cur.CurrentProgress)
			}
			prev = cur
		}
	}
}

func TestNewLadder_RejectsNonPositiveCost(t *testing.T) {
	for _, cost := range []int64{0, -10} {
		_, err := NewLadder([]Step{{Cost: 100, Label: "Bronze"}, {Cost: cost, Label: "Broken"}})
		require.Error(t, err)
		assert.True(t, errors.Is(err, common.ErrInvalidLadder))

		var invalid *InvalidLadderError
		require.ErrorAs(t, err, &invalid)
		assert.Equal(t, 1, invalid.Index)
		assert.Contains(t, err.Error(), "Broken")
	}
}

func TestNewLadder_RejectsTotalOverflow(t *testing.T) {
	_, err := NewLadder([]Step{{Cost: math.MaxInt64, Label: "A"}, {Cost: 1, Label: "B"}})
	require.ErrorIs(t, err, common.ErrInvalidLadder)

	var invalid *InvalidLadderError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, 1, invalid.Index)
	assert.True(t, invalid.Overflow)

	// the largest total that still fits is accepted
	l, err := NewLadder([]Step{{Cost: math.MaxInt64 - 1, Label: "A"}, {Cost: 1, Label: "B"}})
	require.NoError(t, err)
	p := ComputeProgress(l, math.MaxInt64-1)
	assert.Equal(t, "A", p.Label)
	assert.Equal(t, 1, p.Cleared)
	assert.False(t, p.MaxTier)
}

func TestNewLadder_CopiesInput(t *testing.T) {
	steps := []Step{{Cost: 100, Label: "Bronze"}}
	ladder, err := NewLadder(steps)
	require.NoError(t, err)

	steps[0].Label = "Changed"
	assert.Equal(t, "Bronze", ladder.Steps()[0].Label)

	out := ladder.Steps()
	out[0].Cost = 1
	assert.Equal(t, int64(100), ladder.Steps()[0].Cost)
}

func TestLadder_ThresholdAndString(t *testing.T) {
	l := bronzeSilver()
	assert.Equal(t, 2, l.Len())
	assert.Equal(t, int64(100), l.Threshold(0))
	assert.Equal(t, int64(250), l.Threshold(1))
	assert.Equal(t, int64(0), l.Threshold(-1))
	assert.Equal(t, "100:Bronze 150:Silver", l.String())
}

func TestMustLadder_Panics(t *testing.T) {
	assert.Panics(t, func() { MustLadder(Step{Cost: 0, Label: "x"}) })
}
