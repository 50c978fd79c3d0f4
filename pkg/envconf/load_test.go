package envconf

import (
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

type nestedConf struct {
	Rate decimal.Decimal `env:"TEST_ENVCONF_RATE" envDefault:"0.5"`
}

type testConf struct {
	Port     uint16        `env:"TEST_ENVCONF_PORT"`
	Level    slog.Level    `env:"TEST_ENVCONF_LEVEL" envDefault:"INFO"`
	Interval time.Duration `env:"TEST_ENVCONF_INTERVAL" envDefault:"1m"`
	Enabled  bool          `env:"TEST_ENVCONF_ENABLED" envDefault:"true"`
	Nested   nestedConf
	Ptr      *nestedConf
	skipped  string //nolint:unused
}

//nolint:paralleltest
func TestLoad_DefaultsAndOverrides(t *testing.T) {
	t.Setenv("TEST_ENVCONF_PORT", "8080")
	t.Setenv("TEST_ENVCONF_LEVEL", "DEBUG")

	cfg := new(testConf)

	err := Load(cfg)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Port != 8080 {
		t.Fatalf("port: want 8080, got %d", cfg.Port)
	}

	if cfg.Level != slog.LevelDebug {
		t.Fatalf("level: want DEBUG, got %v", cfg.Level)
	}

	if cfg.Interval != time.Minute {
		t.Fatalf("interval: want 1m, got %v", cfg.Interval)
	}

	if !cfg.Enabled {
		t.Fatalf("enabled: want true")
	}

	if !cfg.Nested.Rate.Equal(decimal.RequireFromString("0.5")) {
		t.Fatalf("nested rate: want 0.5, got %s", cfg.Nested.Rate)
	}

	if cfg.Ptr == nil || !cfg.Ptr.Rate.Equal(decimal.RequireFromString("0.5")) {
		t.Fatalf("pointer struct was not allocated and loaded: %+v", cfg.Ptr)
	}
}

//nolint:paralleltest
func TestLoad_MissingRequired(t *testing.T) {
	cfg := new(testConf)

	err := Load(cfg)
	if !errors.Is(err, ErrMissingRequired) {
		t.Fatalf("want ErrMissingRequired, got %v", err)
	}
}

//nolint:paralleltest
func TestLoad_InvalidValue(t *testing.T) {
	t.Setenv("TEST_ENVCONF_PORT", "not-a-port")

	err := Load(new(testConf))
	if err == nil {
		t.Fatalf("expected parse error, got nil")
	}
}

func TestLoad_RejectsNonPointer(t *testing.T) {
	t.Parallel()

	err := Load(testConf{})
	if err == nil {
		t.Fatalf("expected error for non-pointer destination")
	}

	err = Load(nil)
	if err == nil {
		t.Fatalf("expected error for nil destination")
	}
}

type twoRequired struct {
	A string `env:"TEST_ENVCONF_REQ_A"`
	B string `env:"TEST_ENVCONF_REQ_B"`
}

//nolint:paralleltest
func TestLoad_ReportsAllMissing(t *testing.T) {
	err := Load(new(twoRequired))
	if !errors.Is(err, ErrMissingRequired) {
		t.Fatalf("want ErrMissingRequired, got %v", err)
	}

	for _, name := range []string{"TEST_ENVCONF_REQ_A", "TEST_ENVCONF_REQ_B"} {
		if !strings.Contains(err.Error(), name) {
			t.Fatalf("missing %s not reported: %v", name, err)
		}
	}
}

type limits struct {
	Max int `env:"TEST_ENVCONF_MAX" envDefault:"10"`
}

func (l limits) Validate() error {
	if l.Max <= 0 {
		return errors.New("max must be positive")
	}

	return nil
}

type withLimits struct {
	Limits limits
}

//nolint:paralleltest
func TestLoad_ValidatesNestedGroups(t *testing.T) {
	err := Load(new(withLimits))
	if err != nil {
		t.Fatalf("load with defaults: %v", err)
	}

	t.Setenv("TEST_ENVCONF_MAX", "0")

	err = Load(new(withLimits))
	if !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("want ErrInvalidConfig, got %v", err)
	}

	if !strings.Contains(err.Error(), "Limits") {
		t.Fatalf("group name missing from error: %v", err)
	}
}
