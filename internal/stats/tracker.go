// Package stats accumulates per-episode statistics from recorded steps.
package stats

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/neotheprogramist/ai-playground/internal/logger"
	"github.com/neotheprogramist/ai-playground/internal/types"
	"go.uber.org/zap"
)

// accumulator holds the running values of one episode. Money values use
// decimal arithmetic so long episodes do not drift.
type accumulator struct {
	steps       int
	buys        int
	holds       int
	sells       int
	penalties   int
	totalReward decimal.Decimal
	startValue  decimal.Decimal
	endValue    decimal.Decimal
	peakValue   decimal.Decimal
	maxDrawdown decimal.Decimal
}

func newAccumulator(startValue decimal.Decimal) *accumulator {
	return &accumulator{
		steps:       0,
		buys:        0,
		holds:       0,
		sells:       0,
		penalties:   0,
		totalReward: decimal.Zero,
		startValue:  startValue,
		endValue:    startValue,
		peakValue:   startValue,
		maxDrawdown: decimal.Zero,
	}
}

// Tracker tracks the statistics of one episode at a time.
type Tracker struct {
	episodeID       string
	symbol          string
	agent           string
	historyFilePath string
	finishedAt      time.Time
	acc             *accumulator

	mu     sync.Mutex
	logger *logger.Logger
}

// NewTracker creates a new Tracker.
func NewTracker(log *logger.Logger) *Tracker {
	if log == nil {
		log = logger.NewNop()
	}

	return &Tracker{
		episodeID:       "",
		symbol:          "",
		agent:           "",
		historyFilePath: "",
		finishedAt:      time.Time{},
		acc:             newAccumulator(decimal.Zero),
		mu:              sync.Mutex{},
		logger:          log,
	}
}

// Initialize starts a new episode, discarding previous values.
func (t *Tracker) Initialize(episodeID string, symbol string, agent string, startValue float64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.episodeID = episodeID
	t.symbol = symbol
	t.agent = agent
	t.finishedAt = time.Time{}
	t.acc = newAccumulator(decimal.NewFromFloat(startValue))

	t.logger.Debug("Stats tracker initialized",
		zap.String("episode_id", episodeID),
		zap.String("symbol", symbol),
		zap.String("agent", agent),
	)
}

// SetHistoryFilePath sets the path reported as the episode history.
func (t *Tracker) SetHistoryFilePath(path string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.historyFilePath = path
}

// RecordStep updates the statistics with one step.
func (t *Tracker) RecordStep(record types.StepRecord) {
	t.mu.Lock()
	defer t.mu.Unlock()

	acc := t.acc
	acc.steps++

	switch record.Action {
	case types.ActionBuy:
		acc.buys++
	case types.ActionHold:
		acc.holds++
	case types.ActionSell:
		acc.sells++
	}

	if record.Reward < 0 {
		acc.penalties++
	}

	acc.totalReward = acc.totalReward.Add(decimal.NewFromFloat(record.Reward))

	value := decimal.NewFromFloat(record.PortfolioValue)
	acc.endValue = value

	if value.GreaterThan(acc.peakValue) {
		acc.peakValue = value
	}

	drawdown := acc.peakValue.Sub(value)
	if drawdown.GreaterThan(acc.maxDrawdown) {
		acc.maxDrawdown = drawdown
	}

	if record.Done {
		t.finishedAt = time.Now()
	}
}

// Stats returns a snapshot of the current episode statistics.
func (t *Tracker) Stats() types.EpisodeStats {
	t.mu.Lock()
	defer t.mu.Unlock()

	acc := t.acc

	returnPct := decimal.Zero
	if !acc.startValue.IsZero() {
		returnPct = acc.endValue.Sub(acc.startValue).Div(acc.startValue).Mul(decimal.NewFromInt(100))
	}

	timestamp := t.finishedAt
	if timestamp.IsZero() {
		timestamp = time.Now()
	}

	return types.EpisodeStats{
		ID:              t.episodeID,
		Timestamp:       timestamp,
		Symbol:          t.symbol,
		Agent:           t.agent,
		Steps:           acc.steps,
		Buys:            acc.buys,
		Holds:           acc.holds,
		Sells:           acc.sells,
		Penalties:       acc.penalties,
		TotalReward:     acc.totalReward.InexactFloat64(),
		StartValue:      acc.startValue.InexactFloat64(),
		EndValue:        acc.endValue.InexactFloat64(),
		PeakValue:       acc.peakValue.InexactFloat64(),
		ReturnPct:       returnPct.Round(4).InexactFloat64(),
		MaxDrawdown:     acc.maxDrawdown.InexactFloat64(),
		HistoryFilePath: t.historyFilePath,
	}
}

// WriteStats writes the current statistics to path as YAML.
func (t *Tracker) WriteStats(path string) error {
	stats := t.Stats()

	if err := types.WriteEpisodeStats(path, []types.EpisodeStats{stats}); err != nil {
		return err
	}

	t.logger.Info("Episode stats written",
		zap.String("episode_id", stats.ID),
		zap.String("path", path),
	)

	return nil
}
