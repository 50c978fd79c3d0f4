package game

import (
	"testing"
	"time"

	"github.com/fastprodman/arcadeledger/internal/repos/sessions"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultRules() Rules {
	return Rules{
		SpeedIncrement: decimal.RequireFromString("0.2"),
		EarnRate:       decimal.RequireFromString("0.01"),
		PenaltyRate:    decimal.RequireFromString("0.5"),
		VictoryScore:   100,
	}
}

func TestRules_LossSplit(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		rate        string
		earned      int64
		wantPenalty int64
		wantCredit  int64
	}{
		{name: "nothing_earned", rate: "0.5", earned: 0, wantPenalty: 0, wantCredit: 0},
		{name: "odd_rounds_penalty_up", rate: "0.5", earned: 7, wantPenalty: 4, wantCredit: 3},
		{name: "even", rate: "0.5", earned: 80, wantPenalty: 40, wantCredit: 40},
		{name: "single_unit_all_penalty", rate: "0.5", earned: 1, wantPenalty: 1, wantCredit: 0},
		{name: "zero_rate", rate: "0", earned: 9, wantPenalty: 0, wantCredit: 9},
		{name: "full_rate", rate: "1", earned: 9, wantPenalty: 9, wantCredit: 0},
		{name: "rate_above_one_capped", rate: "1.5", earned: 9, wantPenalty: 9, wantCredit: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := defaultRules()
			r.PenaltyRate = decimal.RequireFromString(tt.rate)

			penalty, credit := r.LossSplit(tt.earned)
			assert.Equal(t, tt.wantPenalty, penalty)
			assert.Equal(t, tt.wantCredit, credit)
			assert.Equal(t, tt.earned, penalty+credit)
		})
	}
}

func TestRules_StepMonotonic(t *testing.T) {
	t.Parallel()

	r := defaultRules()
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	s := sessions.Session{Status: sessions.StatusActive, Speed: initialSpeed, StartedAt: start, LastActivityAt: start}

	var victory bool

	for i := 1; i <= 100; i++ {
		prev := s
		now := start.Add(time.Duration(i) * time.Second)

		victory = r.Step(&s, now)

		require.Equal(t, prev.Score+1, s.Score)
		require.True(t, s.Speed.GreaterThan(prev.Speed), "speed must strictly increase")
		require.GreaterOrEqual(t, s.EarnedAmount, prev.EarnedAmount)
		require.Equal(t, now, s.LastActivityAt)
		require.Equal(t, i == 100, victory, "victory only at score 100 (step %d)", i)
	}

	assert.True(t, victory)
	assert.True(t, s.Speed.Equal(decimal.RequireFromString("21")), "speed after 100 steps: %s", s.Speed)
	// ceil(speed * 0.01) is 1 for every speed below 100
	assert.Equal(t, int64(100), s.EarnedAmount)
}

func TestRules_StepEarning(t *testing.T) {
	t.Parallel()

	r := defaultRules()

	assert.Equal(t, int64(1), r.StepEarning(decimal.RequireFromString("1.2")))
	assert.Equal(t, int64(1), r.StepEarning(decimal.RequireFromString("100")))
	assert.Equal(t, int64(2), r.StepEarning(decimal.RequireFromString("100.2")))
}
