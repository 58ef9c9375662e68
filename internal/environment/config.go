package environment

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/neotheprogramist/ai-playground/internal/types"
	"github.com/neotheprogramist/ai-playground/pkg/errors"
)

const (
	// DefaultInitialBalance is the cash balance a new environment starts with.
	DefaultInitialBalance = 10000.0
	// DefaultPctOfBalance is the fraction of the balance committed per buy.
	DefaultPctOfBalance = 0.1
	// MinBars is the smallest bar sequence that can yield a non-terminal step.
	MinBars = 2
)

// Rewards handed out by Step.
const (
	BuyReward         = 0.01
	HoldReward        = 0.1
	PenaltyReward     = -0.5
	SellRewardDivisor = 1000.0
)

// Config holds the construction parameters of a TradingEnvironment.
// InitialBalance has no range check: a negative balance is the
// only way to reach the insolvent-buy penalty.
type Config struct {
	InitialBalance float64 `yaml:"initial_balance" json:"initial_balance"`
	PctOfBalance   float64 `yaml:"pct_of_balance" json:"pct_of_balance" validate:"gt=0,lte=1"`
	// StartDate anchors the prediction date reported in step info (YYYY-MM-DD).
	StartDate string `yaml:"start_date" json:"start_date" validate:"required,datetime=2006-01-02"`
	// ResetCapital makes Reset also restore the initial balance and clear the position.
	ResetCapital bool `yaml:"reset_capital" json:"reset_capital"`
}

// DefaultConfig returns the default configuration anchored at startDate.
func DefaultConfig(startDate string) Config {
	return Config{
		InitialBalance: DefaultInitialBalance,
		PctOfBalance:   DefaultPctOfBalance,
		StartDate:      startDate,
		ResetCapital:   false,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid environment configuration", err)
	}

	return nil
}

// predictionDate parses StartDate. Validate guarantees the layout.
func (c Config) predictionDate() (time.Time, error) {
	date, err := time.Parse(types.DateLayout, c.StartDate)
	if err != nil {
		return time.Time{}, errors.Wrap(errors.ErrCodeInvalidDate, fmt.Sprintf("invalid start date %q", c.StartDate), err)
	}

	return date, nil
}
