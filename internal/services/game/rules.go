package game

import (
	"time"

	"github.com/fastprodman/arcadeledger/internal/config"
	"github.com/fastprodman/arcadeledger/internal/repos/sessions"
	"github.com/shopspring/decimal"
)

var initialSpeed = decimal.NewFromInt(1)

// Rules are the runner's accrual and penalty constants.
type Rules struct {
	SpeedIncrement decimal.Decimal
	EarnRate       decimal.Decimal
	PenaltyRate    decimal.Decimal
	VictoryScore   int64
}

func RulesFrom(cfg config.GameConfig) Rules {
	return Rules{
		SpeedIncrement: cfg.SpeedIncrement,
		EarnRate:       cfg.EarnRate,
		PenaltyRate:    cfg.PenaltyRate,
		VictoryScore:   cfg.VictoryScore,
	}
}

// Step applies one accrual step to an ACTIVE session and reports whether it
// reached the victory score. The step's earnings use the speed after the
// increment.
func (r Rules) Step(s *sessions.Session, now time.Time) bool {
	s.Speed = s.Speed.Add(r.SpeedIncrement)
	s.Score++
	s.EarnedAmount += r.StepEarning(s.Speed)
	s.LastActivityAt = now

	return s.Score >= r.VictoryScore
}

// StepEarning is ceil(speed * earnRate) minor units.
func (r Rules) StepEarning(speed decimal.Decimal) int64 {
	return speed.Mul(r.EarnRate).Ceil().IntPart()
}

// LossSplit divides the earnings of an interrupted session into the penalty
// kept back, ceil(earned * penaltyRate), and the credit paid out. The two
// always sum to earned.
func (r Rules) LossSplit(earned int64) (penalty, credit int64) {
	if earned <= 0 {
		return 0, 0
	}

	penalty = decimal.NewFromInt(earned).Mul(r.PenaltyRate).Ceil().IntPart()
	penalty = min(max(penalty, 0), earned)

	return penalty, earned - penalty
}
