package types

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/neotheprogramist/ai-playground/pkg/errors"
)

// Action is the decision an agent submits to the environment on each step.
// Only the three named values are valid; ParseAction rejects anything else.
type Action int

const (
	// ActionBuy commits a fixed fraction of the cash balance to the asset.
	ActionBuy Action = 0
	// ActionHold leaves balance and position untouched.
	ActionHold Action = 1
	// ActionSell liquidates the whole position at the current close.
	ActionSell Action = 2
)

// Actions lists every valid action in wire order.
var Actions = []Action{ActionBuy, ActionHold, ActionSell}

// ParseAction converts a raw integer into an Action.
func ParseAction(value int) (Action, error) {
	action := Action(value)
	if !action.Valid() {
		return 0, errors.NewInvalidActionError(value)
	}

	return action, nil
}

// ParseActionName accepts "buy", "hold", "sell" (any case) or the numeric form.
func ParseActionName(name string) (Action, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "buy", "b":
		return ActionBuy, nil
	case "hold", "h":
		return ActionHold, nil
	case "sell", "s":
		return ActionSell, nil
	}

	value, err := strconv.Atoi(strings.TrimSpace(name))
	if err != nil {
		return 0, errors.Wrapf(errors.ErrCodeInvalidAction, err, "unknown action %q", name)
	}

	return ParseAction(value)
}

// Valid reports whether a is one of the three named actions.
func (a Action) Valid() bool {
	return a == ActionBuy || a == ActionHold || a == ActionSell
}

// String implements fmt.Stringer.
func (a Action) String() string {
	switch a {
	case ActionBuy:
		return "buy"
	case ActionHold:
		return "hold"
	case ActionSell:
		return "sell"
	default:
		return fmt.Sprintf("Action(%d)", int(a))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (a Action) MarshalText() ([]byte, error) {
	if !a.Valid() {
		return nil, errors.NewInvalidActionError(int(a))
	}

	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Action) UnmarshalText(text []byte) error {
	parsed, err := ParseActionName(string(text))
	if err != nil {
		return err
	}

	*a = parsed

	return nil
}
