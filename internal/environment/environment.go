// Package environment implements a single-asset trading environment that turns
// an ordered sequence of daily price bars into a step-wise decision process.
//
// An agent calls Reset once, then Step with one action per bar until the
// returned result reports Done. Each step settles the action against the close
// of the bar under the cursor, advances the cursor, and returns the observation
// of the next bar together with the reward and portfolio info.
//
// A TradingEnvironment is not safe for concurrent use. Give every concurrent
// simulation its own instance.
package environment

import (
	"time"

	"github.com/neotheprogramist/ai-playground/internal/logger"
	"github.com/neotheprogramist/ai-playground/internal/types"
	"github.com/neotheprogramist/ai-playground/pkg/errors"
	"go.uber.org/zap"
)

// TradingEnvironment holds the bar sequence and the mutable trading state.
type TradingEnvironment struct {
	bars           []types.PriceBar
	config         Config
	predictionDate time.Time
	logger         *logger.Logger

	currentStep int
	totalReward float64
	balance     float64
	tokenAmount float64
	done        bool
}

// New creates an environment over bars. The slice is owned by the environment
// from here on and must not be modified by the caller.
func New(bars []types.PriceBar, config Config, log *logger.Logger) (*TradingEnvironment, error) {
	if len(bars) < MinBars {
		symbol := ""
		if len(bars) > 0 {
			symbol = bars[0].Symbol
		}

		return nil, errors.NewInsufficientDataErrorf(MinBars, len(bars), symbol,
			"trading environment requires at least %d bars, got %d", MinBars, len(bars))
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	predictionDate, err := config.predictionDate()
	if err != nil {
		return nil, err
	}

	if log == nil {
		log = logger.NewNop()
	}

	env := &TradingEnvironment{
		bars:           bars,
		config:         config,
		predictionDate: predictionDate,
		logger:         log,
		currentStep:    0,
		totalReward:    0,
		balance:        config.InitialBalance,
		tokenAmount:    0,
		done:           false,
	}

	log.Debug("Trading environment created",
		zap.Int("bars", len(bars)),
		zap.Float64("initial_balance", config.InitialBalance),
		zap.Float64("pct_of_balance", config.PctOfBalance),
		zap.String("start_date", config.StartDate),
	)

	return env, nil
}

// Reset rewinds the cursor to the first bar and clears the cumulative reward.
// Balance and position carry over unless Config.ResetCapital is set.
func (e *TradingEnvironment) Reset() types.Observation {
	e.currentStep = 0
	e.totalReward = 0
	e.done = false

	if e.config.ResetCapital {
		e.balance = e.config.InitialBalance
		e.tokenAmount = 0
	}

	return e.observation()
}

// StepValue parses a raw action value and steps with it. Values outside
// {0, 1, 2} fail with an InvalidActionError and leave the state untouched.
func (e *TradingEnvironment) StepValue(value int) (types.StepResult, error) {
	action, err := types.ParseAction(value)
	if err != nil {
		return types.StepResult{}, err
	}

	return e.Step(action)
}

// Step settles action against the close of the current bar, then advances the
// cursor by one bar. It fails without mutating anything when the action is
// invalid, the episode already finished, or the current close is not positive.
func (e *TradingEnvironment) Step(action types.Action) (types.StepResult, error) {
	if !action.Valid() {
		return types.StepResult{}, errors.NewInvalidActionError(int(action))
	}

	if e.done {
		return types.StepResult{}, errors.NewEpisodeFinishedError(e.currentStep)
	}

	price := e.bars[e.currentStep].Close
	if price <= 0 {
		e.logger.Warn("Invalid close price in data",
			zap.Int("step", e.currentStep),
			zap.Float64("close", price),
		)

		return types.StepResult{}, errors.NewInvalidPriceError(e.currentStep, price)
	}

	var reward float64

	switch action {
	case types.ActionBuy:
		investment := e.balance * e.config.PctOfBalance
		if investment > 0 {
			e.tokenAmount += investment / price
			e.balance -= investment
			reward = BuyReward
		} else if e.balance < 0 {
			reward = PenaltyReward
		}
	case types.ActionHold:
		reward = HoldReward
	case types.ActionSell:
		if e.tokenAmount > 0 {
			balanceBeforeSell := e.balance
			e.balance += e.tokenAmount * price
			e.tokenAmount = 0
			reward = (e.balance - balanceBeforeSell) / SellRewardDivisor
		} else {
			reward = PenaltyReward
		}
	}

	e.currentStep++
	// The episode ends one bar early so the next observation always exists.
	e.done = e.currentStep >= len(e.bars)-1
	observation := e.observation()
	e.totalReward += reward

	result := types.StepResult{
		Observation: observation,
		Reward:      reward,
		Done:        e.done,
		Truncated:   false,
		Info:        e.Info(),
	}

	e.logger.Debug("Environment step",
		zap.Stringer("action", action),
		zap.Int("step", e.currentStep),
		zap.Float64("price", price),
		zap.Float64("reward", reward),
		zap.Float64("balance", e.balance),
		zap.Float64("token_amount", e.tokenAmount),
		zap.Bool("done", e.done),
	)

	return result, nil
}

// Info returns the step info for the current cursor position.
func (e *TradingEnvironment) Info() types.StepInfo {
	return types.StepInfo{
		TotalReward:    e.totalReward,
		Balance:        e.balance,
		PortfolioValue: e.PortfolioValue(),
		PredictionDate: e.predictionDate.AddDate(0, 0, e.currentStep),
	}
}

// Observation returns the observation of the bar under the cursor.
func (e *TradingEnvironment) Observation() types.Observation {
	return e.observation()
}

// PortfolioValue is the balance plus the position marked at the current close.
func (e *TradingEnvironment) PortfolioValue() float64 {
	return e.balance + e.tokenAmount*e.bars[e.currentStep].Close
}

// CurrentBar returns the bar under the cursor.
func (e *TradingEnvironment) CurrentBar() types.PriceBar {
	return e.bars[e.currentStep]
}

// CurrentStep returns the cursor index.
func (e *TradingEnvironment) CurrentStep() int { return e.currentStep }

// TotalReward returns the cumulative reward since the last reset.
func (e *TradingEnvironment) TotalReward() float64 { return e.totalReward }

// Balance returns the cash balance. It may be negative.
func (e *TradingEnvironment) Balance() float64 { return e.balance }

// TokenAmount returns the held position.
func (e *TradingEnvironment) TokenAmount() float64 { return e.tokenAmount }

// Done reports whether the last step ended the episode.
func (e *TradingEnvironment) Done() bool { return e.done }

// Len returns the number of bars.
func (e *TradingEnvironment) Len() int { return len(e.bars) }

// Symbol returns the symbol of the first bar.
func (e *TradingEnvironment) Symbol() string { return e.bars[0].Symbol }

// Config returns the construction configuration.
func (e *TradingEnvironment) Config() Config { return e.config }

func (e *TradingEnvironment) observation() types.Observation {
	return types.NewObservation(e.bars[e.currentStep])
}
