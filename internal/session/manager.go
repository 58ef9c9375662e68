package session

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/moznion/go-optional"

	"github.com/neotheprogramist/ai-playground/internal/agent"
	"github.com/neotheprogramist/ai-playground/internal/environment"
	"github.com/neotheprogramist/ai-playground/internal/logger"
	"github.com/neotheprogramist/ai-playground/internal/recorder"
	"github.com/neotheprogramist/ai-playground/internal/types"
	"github.com/neotheprogramist/ai-playground/pkg/errors"
	"github.com/neotheprogramist/ai-playground/pkg/marketdata/provider"
	"go.uber.org/zap"
)

// CreateParams describes a new session.
type CreateParams struct {
	Symbol string
	// Start and End are inclusive calendar dates. End is clamped to today.
	Start time.Time
	End   time.Time
	// InitialBalance overrides the manager's default balance.
	InitialBalance optional.Option[float64]
}

// CreateResult is returned by Create.
type CreateResult struct {
	Token       string            `json:"token"`
	Observation types.Observation `json:"observation"`
	Symbol      string            `json:"symbol"`
	Start       string            `json:"adjusted_start"`
	End         string            `json:"adjusted_end"`
	Bars        int               `json:"bars"`
}

// State describes a live session.
type State struct {
	Token          string            `json:"token"`
	Symbol         string            `json:"symbol"`
	Step           int               `json:"step"`
	Bars           int               `json:"bars"`
	Observation    types.Observation `json:"observation"`
	Balance        float64           `json:"balance"`
	TokenAmount    float64           `json:"token_amount"`
	PortfolioValue float64           `json:"portfolio_value"`
	TotalReward    float64           `json:"total_reward"`
}

// Manager creates sessions and steps their environments on behalf of remote
// callers. Calls on the same token are serialized within this process only:
// managers in separate processes sharing one RedisStore can load, step and save
// the same token concurrently, so route each token to a single replica.
type Manager struct {
	store    Store
	source   provider.Source
	config   environment.Config
	recorder recorder.Recorder
	locks    *keyedMutex
	logger   *logger.Logger
	now      func() time.Time
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithRecorder records every step taken through the manager.
func WithRecorder(r recorder.Recorder) ManagerOption {
	return func(m *Manager) {
		m.recorder = r
	}
}

// WithLogger sets the logger.
func WithLogger(log *logger.Logger) ManagerOption {
	return func(m *Manager) {
		m.logger = log
	}
}

// WithClock overrides the time source used to clamp end dates.
func WithClock(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.now = now
	}
}

// NewManager creates a Manager. config supplies the balance, allocation and
// reset policy of new environments; its StartDate is replaced per session.
func NewManager(store Store, source provider.Source, config environment.Config, opts ...ManagerOption) *Manager {
	m := &Manager{
		store:    store,
		source:   source,
		config:   config,
		recorder: nil,
		locks:    newKeyedMutex(),
		logger:   nil,
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(m)
	}

	if m.logger == nil {
		m.logger = logger.NewNop()
	}

	return m
}

// Create fetches the bars for params, builds and resets an environment and
// stores it under a new token.
func (m *Manager) Create(ctx context.Context, params CreateParams) (CreateResult, error) {
	if params.Symbol == "" {
		return CreateResult{}, errors.New(errors.ErrCodeMissingParameter, "symbol is required")
	}

	start := truncateDay(params.Start)
	end := truncateDay(params.End)

	today := truncateDay(m.now())
	if end.After(today) {
		end = today
	}

	if end.Before(start) {
		return CreateResult{}, errors.Newf(errors.ErrCodeInvalidDate,
			"end date %s is before start date %s", end.Format(types.DateLayout), start.Format(types.DateLayout))
	}

	bars, err := m.source.FetchBars(ctx, params.Symbol, start, end)
	if err != nil {
		return CreateResult{}, err
	}

	config := m.config
	config.StartDate = start.Format(types.DateLayout)

	if balance, err := params.InitialBalance.Take(); err == nil {
		config.InitialBalance = balance
	}

	env, err := environment.New(bars, config, m.logger)
	if err != nil {
		return CreateResult{}, err
	}

	observation := env.Reset()

	session := Session{
		Token:     uuid.New().String(),
		EpisodeID: uuid.New().String(),
		Symbol:    params.Symbol,
		Start:     start,
		End:       end,
		CreatedAt: m.now(),
		Snapshot:  env.Snapshot(),
	}

	if err := m.store.Save(ctx, session); err != nil {
		return CreateResult{}, err
	}

	m.logger.Info("Session started",
		zap.String("token", session.Token),
		zap.String("symbol", session.Symbol),
		zap.Int("bars", len(bars)),
	)

	return CreateResult{
		Token:       session.Token,
		Observation: observation,
		Symbol:      session.Symbol,
		Start:       start.Format(types.DateLayout),
		End:         end.Format(types.DateLayout),
		Bars:        len(bars),
	}, nil
}

// Step applies a raw action value to the session's environment. The session
// is deleted once the episode is done.
func (m *Manager) Step(ctx context.Context, token string, value int) (types.StepResult, error) {
	unlock := m.locks.Lock(token)
	defer unlock()

	session, env, err := m.load(ctx, token)
	if err != nil {
		return types.StepResult{}, err
	}

	result, err := env.StepValue(value)
	if err != nil {
		return types.StepResult{}, err
	}

	if m.recorder != nil {
		record := agent.NewStepRecord(session.EpisodeID, env, types.Action(value), result)
		if err := m.recorder.Record(record); err != nil {
			m.logger.Warn("Failed to record step", zap.String("token", token), zap.Error(err))
		}
	}

	if result.Done {
		if err := m.store.Delete(ctx, token); err != nil {
			return types.StepResult{}, err
		}

		m.logger.Info("Session finished",
			zap.String("token", token),
			zap.Float64("total_reward", result.Info.TotalReward),
		)

		return result, nil
	}

	session.Snapshot = env.Snapshot()
	if err := m.store.Save(ctx, session); err != nil {
		return types.StepResult{}, err
	}

	m.logger.Debug("Session stepped",
		zap.String("token", token),
		zap.Int("action", value),
		zap.Float64("reward", result.Reward),
	)

	return result, nil
}

// Reset rewinds the session's environment to the first bar and starts a new
// episode under the same token.
func (m *Manager) Reset(ctx context.Context, token string) (types.Observation, error) {
	unlock := m.locks.Lock(token)
	defer unlock()

	session, env, err := m.load(ctx, token)
	if err != nil {
		return types.Observation{}, err
	}

	observation := env.Reset()
	session.EpisodeID = uuid.New().String()
	session.Snapshot = env.Snapshot()

	if err := m.store.Save(ctx, session); err != nil {
		return types.Observation{}, err
	}

	m.logger.Info("Session reset", zap.String("token", token))

	return observation, nil
}

// Get describes the session.
func (m *Manager) Get(ctx context.Context, token string) (State, error) {
	unlock := m.locks.Lock(token)
	defer unlock()

	session, env, err := m.load(ctx, token)
	if err != nil {
		return State{}, err
	}

	return State{
		Token:          session.Token,
		Symbol:         session.Symbol,
		Step:           env.CurrentStep(),
		Bars:           env.Len(),
		Observation:    env.Observation(),
		Balance:        env.Balance(),
		TokenAmount:    env.TokenAmount(),
		PortfolioValue: env.PortfolioValue(),
		TotalReward:    env.TotalReward(),
	}, nil
}

// Delete ends the session.
func (m *Manager) Delete(ctx context.Context, token string) error {
	unlock := m.locks.Lock(token)
	defer unlock()

	if _, err := m.store.Load(ctx, token); err != nil {
		return err
	}

	if err := m.store.Delete(ctx, token); err != nil {
		return err
	}

	m.logger.Info("Session deleted", zap.String("token", token))

	return nil
}

// Close closes the store.
func (m *Manager) Close() error {
	return m.store.Close()
}

func (m *Manager) load(ctx context.Context, token string) (Session, *environment.TradingEnvironment, error) {
	session, err := m.store.Load(ctx, token)
	if err != nil {
		return Session{}, nil, err
	}

	env, err := environment.Restore(session.Snapshot, m.logger)
	if err != nil {
		return Session{}, nil, errors.Wrap(errors.ErrCodeSessionStore, "failed to restore session", err)
	}

	return session, env, nil
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
