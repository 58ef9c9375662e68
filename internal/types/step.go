package types

import (
	"encoding/json"
	"time"
)

// StepInfo is the auxiliary information returned with every step.
type StepInfo struct {
	// TotalReward is the cumulative reward since the last reset.
	TotalReward float64 `json:"total_reward" yaml:"total_reward"`
	// Balance is the cash balance after the step. It may be negative.
	Balance float64 `json:"balance" yaml:"balance"`
	// PortfolioValue is balance plus the position marked at the new bar's close.
	PortfolioValue float64 `json:"portfolio_value" yaml:"portfolio_value"`
	// PredictionDate is the anchor date offset by the current step in days.
	// It is informational only.
	PredictionDate time.Time `json:"-" yaml:"-"`
}

type stepInfoJSON struct {
	TotalReward    float64 `json:"total_reward"`
	Balance        float64 `json:"balance"`
	PortfolioValue float64 `json:"portfolio_value"`
	PredictionDate string  `json:"prediction_date"`
}

// MarshalJSON renders the prediction date as YYYY-MM-DD.
func (i StepInfo) MarshalJSON() ([]byte, error) {
	return json.Marshal(stepInfoJSON{
		TotalReward:    i.TotalReward,
		Balance:        i.Balance,
		PortfolioValue: i.PortfolioValue,
		PredictionDate: i.PredictionDate.Format(DateLayout),
	})
}

// UnmarshalJSON parses the YYYY-MM-DD prediction date.
func (i *StepInfo) UnmarshalJSON(data []byte) error {
	var raw stepInfoJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	date, err := time.Parse(DateLayout, raw.PredictionDate)
	if err != nil {
		return err
	}

	*i = StepInfo{
		TotalReward:    raw.TotalReward,
		Balance:        raw.Balance,
		PortfolioValue: raw.PortfolioValue,
		PredictionDate: date,
	}

	return nil
}

// StepResult is what the environment returns from a single step.
type StepResult struct {
	Observation Observation `json:"observation"`
	Reward      float64     `json:"reward"`
	Done        bool        `json:"done"`
	// Truncated is always false: episodes only end when the bars run out.
	Truncated bool     `json:"truncated"`
	Info      StepInfo `json:"info"`
}
