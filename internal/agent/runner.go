package agent

import (
	"context"

	"github.com/google/uuid"

	"github.com/neotheprogramist/ai-playground/internal/environment"
	"github.com/neotheprogramist/ai-playground/internal/logger"
	"github.com/neotheprogramist/ai-playground/internal/recorder"
	"github.com/neotheprogramist/ai-playground/internal/stats"
	"github.com/neotheprogramist/ai-playground/internal/types"
	"go.uber.org/zap"
)

// Runner drives one agent over one environment until the episode is done.
type Runner struct {
	env      *environment.TradingEnvironment
	agent    Agent
	recorder recorder.Recorder
	tracker  *stats.Tracker
	logger   *logger.Logger
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithRecorder records every step.
func WithRecorder(r recorder.Recorder) RunnerOption {
	return func(runner *Runner) {
		runner.recorder = r
	}
}

// WithTracker replaces the default statistics tracker.
func WithTracker(tracker *stats.Tracker) RunnerOption {
	return func(runner *Runner) {
		runner.tracker = tracker
	}
}

// WithLogger sets the logger.
func WithLogger(log *logger.Logger) RunnerOption {
	return func(runner *Runner) {
		runner.logger = log
	}
}

// NewRunner creates a Runner. The runner owns env for the duration of Run.
func NewRunner(env *environment.TradingEnvironment, agent Agent, opts ...RunnerOption) *Runner {
	runner := &Runner{
		env:      env,
		agent:    agent,
		recorder: nil,
		tracker:  nil,
		logger:   nil,
	}

	for _, opt := range opts {
		opt(runner)
	}

	if runner.logger == nil {
		runner.logger = logger.NewNop()
	}

	if runner.tracker == nil {
		runner.tracker = stats.NewTracker(runner.logger)
	}

	return runner
}

// Run resets the environment and steps it with the agent's decisions until
// done. Cancelling ctx stops the loop between steps; the statistics gathered so
// far are returned together with the context error.
func (r *Runner) Run(ctx context.Context) (types.EpisodeStats, error) {
	episodeID := uuid.New().String()

	if resetter, ok := r.agent.(Resetter); ok {
		resetter.Reset()
	}

	observation := r.env.Reset()
	r.tracker.Initialize(episodeID, r.env.Symbol(), r.agent.Name(), r.env.PortfolioValue())

	r.logger.Info("Episode started",
		zap.String("episode_id", episodeID),
		zap.String("agent", r.agent.Name()),
		zap.String("symbol", r.env.Symbol()),
		zap.Int("bars", r.env.Len()),
	)

	for {
		if err := ctx.Err(); err != nil {
			r.logger.Warn("Episode cancelled", zap.String("episode_id", episodeID), zap.Int("step", r.env.CurrentStep()))

			return r.tracker.Stats(), err
		}

		action, err := r.agent.Decide(ctx, observation)
		if err != nil {
			return r.tracker.Stats(), err
		}

		result, err := r.env.Step(action)
		if err != nil {
			r.logger.Error("Episode step failed",
				zap.String("episode_id", episodeID),
				zap.Int("step", r.env.CurrentStep()),
				zap.Error(err),
			)

			return r.tracker.Stats(), err
		}

		record := NewStepRecord(episodeID, r.env, action, result)

		if r.recorder != nil {
			if err := r.recorder.Record(record); err != nil {
				return r.tracker.Stats(), err
			}
		}

		r.tracker.RecordStep(record)

		observation = result.Observation

		if result.Done {
			break
		}
	}

	episodeStats := r.tracker.Stats()

	r.logger.Info("Episode finished",
		zap.String("episode_id", episodeID),
		zap.Int("steps", episodeStats.Steps),
		zap.Float64("total_reward", episodeStats.TotalReward),
		zap.Float64("end_value", episodeStats.EndValue),
	)

	return episodeStats, nil
}

// NewStepRecord builds the record of a step that env just performed.
func NewStepRecord(episodeID string, env *environment.TradingEnvironment, action types.Action, result types.StepResult) types.StepRecord {
	return types.StepRecord{
		EpisodeID:      episodeID,
		Symbol:         env.Symbol(),
		Step:           env.CurrentStep(),
		Date:           result.Info.PredictionDate,
		Action:         action,
		Reward:         result.Reward,
		Observation:    result.Observation,
		Balance:        result.Info.Balance,
		TokenAmount:    env.TokenAmount(),
		PortfolioValue: result.Info.PortfolioValue,
		TotalReward:    result.Info.TotalReward,
		Done:           result.Done,
	}
}
