package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type PostgresConfig struct {
	DSN             string        `env:"PG_DSN"`
	MaxOpenConns    int           `env:"PG_MAX_OPEN_CONNS" envDefault:"20"`
	MaxIdleConns    int           `env:"PG_MAX_IDLE_CONNS" envDefault:"10"`
	ConnMaxIdleTime time.Duration `env:"PG_CONN_MAX_IDLE_TIME" envDefault:"5m"`
	ConnMaxLifetime time.Duration `env:"PG_CONN_MAX_LIFETIME" envDefault:"30m"`
}

// LedgerConfig holds the balance engine constants.
type LedgerConfig struct {
	// BonusTarget is the balance, in minor units, a bonus claim tops the account up to.
	BonusTarget int64 `env:"LEDGER_BONUS_TARGET" envDefault:"420"`
}

// GameConfig holds the runner game rules.
type GameConfig struct {
	SpeedIncrement decimal.Decimal `env:"GAME_SPEED_INCREMENT" envDefault:"0.2"`
	EarnRate       decimal.Decimal `env:"GAME_EARN_RATE" envDefault:"0.01"`
	PenaltyRate    decimal.Decimal `env:"GAME_PENALTY_RATE" envDefault:"0.5"`
	VictoryScore   int64           `env:"GAME_VICTORY_SCORE" envDefault:"100"`
}

type ReaperConfig struct {
	Interval      time.Duration `env:"REAPER_INTERVAL" envDefault:"60s"`
	IdleTimeout   time.Duration `env:"REAPER_IDLE_TIMEOUT" envDefault:"5m"`
	SettleTimeout time.Duration `env:"REAPER_SETTLE_TIMEOUT" envDefault:"10s"`
	BatchSize     int           `env:"REAPER_BATCH" envDefault:"500"`
}

func (c PostgresConfig) Validate() error {
	if c.MaxOpenConns < 0 || c.MaxIdleConns < 0 {
		return errors.New("connection limits must not be negative")
	}

	return nil
}

func (c LedgerConfig) Validate() error {
	if c.BonusTarget <= 0 {
		return fmt.Errorf("bonus target must be positive, got %d", c.BonusTarget)
	}

	return nil
}

// Validate rejects rules that would break the session invariants: speed must
// strictly increase and the penalty can never exceed the earnings.
func (c GameConfig) Validate() error {
	switch {
	case !c.SpeedIncrement.IsPositive():
		return fmt.Errorf("speed increment must be positive, got %s", c.SpeedIncrement)
	case c.EarnRate.IsNegative():
		return fmt.Errorf("earn rate must not be negative, got %s", c.EarnRate)
	case c.PenaltyRate.IsNegative() || c.PenaltyRate.GreaterThan(decimal.NewFromInt(1)):
		return fmt.Errorf("penalty rate must be within [0, 1], got %s", c.PenaltyRate)
	case c.VictoryScore <= 0:
		return fmt.Errorf("victory score must be positive, got %d", c.VictoryScore)
	}

	return nil
}

func (c ReaperConfig) Validate() error {
	switch {
	case c.Interval <= 0:
		return fmt.Errorf("interval must be positive, got %s", c.Interval)
	case c.IdleTimeout <= 0:
		return fmt.Errorf("idle timeout must be positive, got %s", c.IdleTimeout)
	case c.SettleTimeout < 0:
		return fmt.Errorf("settle timeout must not be negative, got %s", c.SettleTimeout)
	case c.BatchSize <= 0:
		return fmt.Errorf("batch size must be positive, got %d", c.BatchSize)
	}

	return nil
}
