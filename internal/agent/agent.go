// Package agent provides decision agents and the loop that runs them against a
// trading environment.
package agent

import (
	"context"
	"math/rand"

	"github.com/neotheprogramist/ai-playground/internal/types"
	"github.com/neotheprogramist/ai-playground/pkg/errors"
)

// Agent chooses an action for each observation.
type Agent interface {
	// Name identifies the agent in statistics and logs.
	Name() string
	// Decide returns the action to take for the observation of the current bar.
	Decide(ctx context.Context, observation types.Observation) (types.Action, error)
}

// Resetter is implemented by agents that keep state between decisions.
// The runner calls Reset at the start of every episode.
type Resetter interface {
	Reset()
}

// HoldAgent always holds.
type HoldAgent struct{}

func NewHoldAgent() *HoldAgent { return &HoldAgent{} }

func (a *HoldAgent) Name() string { return "hold" }

func (a *HoldAgent) Decide(_ context.Context, _ types.Observation) (types.Action, error) {
	return types.ActionHold, nil
}

// SequenceAgent replays a fixed list of actions, then holds.
type SequenceAgent struct {
	actions []types.Action
	next    int
}

// NewSequenceAgent creates an agent replaying actions. Every action must be valid.
func NewSequenceAgent(actions ...types.Action) (*SequenceAgent, error) {
	for _, action := range actions {
		if !action.Valid() {
			return nil, errors.NewInvalidActionError(int(action))
		}
	}

	return &SequenceAgent{actions: actions, next: 0}, nil
}

// ParseSequence builds a SequenceAgent from action names such as "buy", "h" or "2".
func ParseSequence(names []string) (*SequenceAgent, error) {
	actions := make([]types.Action, 0, len(names))

	for _, name := range names {
		action, err := types.ParseActionName(name)
		if err != nil {
			return nil, err
		}

		actions = append(actions, action)
	}

	return NewSequenceAgent(actions...)
}

func (a *SequenceAgent) Name() string { return "sequence" }

func (a *SequenceAgent) Decide(_ context.Context, _ types.Observation) (types.Action, error) {
	if a.next >= len(a.actions) {
		return types.ActionHold, nil
	}

	action := a.actions[a.next]
	a.next++

	return action, nil
}

func (a *SequenceAgent) Reset() { a.next = 0 }

// RandomAgent picks uniformly among the three actions.
type RandomAgent struct {
	seed int64
	rng  *rand.Rand
}

// NewRandomAgent creates a RandomAgent. The same seed yields the same decisions.
func NewRandomAgent(seed int64) *RandomAgent {
	return &RandomAgent{
		seed: seed,
		rng:  rand.New(rand.NewSource(seed)),
	}
}

func (a *RandomAgent) Name() string { return "random" }

func (a *RandomAgent) Decide(_ context.Context, _ types.Observation) (types.Action, error) {
	return types.Actions[a.rng.Intn(len(types.Actions))], nil
}

// Reset restarts the random sequence from the seed.
func (a *RandomAgent) Reset() { a.rng = rand.New(rand.NewSource(a.seed)) }

// MomentumAgent buys when the close rises by more than Threshold relative to
// the previous close, sells when it falls by more than Threshold, and holds otherwise.
type MomentumAgent struct {
	threshold float64
	lastClose float64
	seen      bool
}

// NewMomentumAgent creates a MomentumAgent. threshold is a fraction, e.g. 0.01 for 1%.
func NewMomentumAgent(threshold float64) *MomentumAgent {
	return &MomentumAgent{threshold: threshold, lastClose: 0, seen: false}
}

func (a *MomentumAgent) Name() string { return "momentum" }

func (a *MomentumAgent) Decide(_ context.Context, observation types.Observation) (types.Action, error) {
	closePrice := observation.Close()
	defer func() {
		a.lastClose = closePrice
		a.seen = true
	}()

	if !a.seen || a.lastClose <= 0 {
		return types.ActionHold, nil
	}

	change := (closePrice - a.lastClose) / a.lastClose

	switch {
	case change > a.threshold:
		return types.ActionBuy, nil
	case change < -a.threshold:
		return types.ActionSell, nil
	default:
		return types.ActionHold, nil
	}
}

func (a *MomentumAgent) Reset() {
	a.lastClose = 0
	a.seen = false
}
