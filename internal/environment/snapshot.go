package environment

import (
	"github.com/neotheprogramist/ai-playground/internal/logger"
	"github.com/neotheprogramist/ai-playground/internal/types"
	"github.com/neotheprogramist/ai-playground/pkg/errors"
)

// Snapshot is a serializable copy of an environment, used to park sessions in
// an external store between requests.
type Snapshot struct {
	Bars        []types.PriceBar `json:"bars"`
	Config      Config           `json:"config"`
	CurrentStep int              `json:"current_step"`
	TotalReward float64          `json:"total_reward"`
	Balance     float64          `json:"balance"`
	TokenAmount float64          `json:"token_amount"`
	Done        bool             `json:"done"`
}

// Snapshot captures the environment state. The bar slice is shared, not copied.
func (e *TradingEnvironment) Snapshot() Snapshot {
	return Snapshot{
		Bars:        e.bars,
		Config:      e.config,
		CurrentStep: e.currentStep,
		TotalReward: e.totalReward,
		Balance:     e.balance,
		TokenAmount: e.tokenAmount,
		Done:        e.done,
	}
}

// Restore rebuilds an environment from a snapshot.
func Restore(snapshot Snapshot, log *logger.Logger) (*TradingEnvironment, error) {
	env, err := New(snapshot.Bars, snapshot.Config, log)
	if err != nil {
		return nil, err
	}

	if snapshot.CurrentStep < 0 || snapshot.CurrentStep > len(snapshot.Bars)-1 {
		return nil, errors.Newf(errors.ErrCodeInvalidParameter,
			"snapshot step %d out of range [0, %d]", snapshot.CurrentStep, len(snapshot.Bars)-1)
	}

	if snapshot.CurrentStep >= len(snapshot.Bars)-1 && !snapshot.Done {
		return nil, errors.Newf(errors.ErrCodeInvalidParameter,
			"snapshot step %d is the last bar but the episode is not done", snapshot.CurrentStep)
	}

	if snapshot.TokenAmount < 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidParameter,
			"snapshot token amount %v is negative", snapshot.TokenAmount)
	}

	env.currentStep = snapshot.CurrentStep
	env.totalReward = snapshot.TotalReward
	env.balance = snapshot.Balance
	env.tokenAmount = snapshot.TokenAmount
	env.done = snapshot.Done

	return env, nil
}
