package agent

import (
	"github.com/neotheprogramist/ai-playground/pkg/errors"
)

// Params configures the agents built by New.
type Params struct {
	// Seed drives the random agent.
	Seed int64 `yaml:"seed" json:"seed"`
	// Threshold is the fractional close change the momentum agent reacts to.
	Threshold float64 `yaml:"threshold" json:"threshold" validate:"gte=0"`
	// Sequence lists the actions replayed by the sequence agent.
	Sequence []string `yaml:"sequence" json:"sequence"`
}

// Names lists the agents New can build.
var Names = []string{"hold", "sequence", "random", "momentum"}

// New builds an agent by name.
func New(name string, params Params) (Agent, error) {
	switch name {
	case "hold":
		return NewHoldAgent(), nil
	case "sequence":
		return ParseSequence(params.Sequence)
	case "random":
		return NewRandomAgent(params.Seed), nil
	case "momentum":
		return NewMomentumAgent(params.Threshold), nil
	default:
		return nil, errors.Newf(errors.ErrCodeInvalidParameter, "unknown agent %q", name)
	}
}
