package types

import (
	"encoding/json"
	"testing"

	"github.com/neotheprogramist/ai-playground/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type ActionTestSuite struct {
	suite.Suite
}

func TestActionSuite(t *testing.T) {
	suite.Run(t, new(ActionTestSuite))
}

func (suite *ActionTestSuite) TestParseActionValid() {
	for value, expected := range map[int]Action{0: ActionBuy, 1: ActionHold, 2: ActionSell} {
		action, err := ParseAction(value)
		suite.NoError(err)
		suite.Equal(expected, action)
	}
}

func (suite *ActionTestSuite) TestParseActionOutOfRange() {
	for _, value := range []int{-1, 3, 42} {
		_, err := ParseAction(value)
		suite.Error(err)
		suite.True(errors.IsInvalidActionError(err))

		var actionErr *errors.InvalidActionError
		suite.True(errors.As(err, &actionErr))
		suite.Equal(value, actionErr.Value)
	}
}

func (suite *ActionTestSuite) TestParseActionName() {
	tests := []struct {
		input    string
		expected Action
	}{
		{"buy", ActionBuy},
		{"BUY", ActionBuy},
		{" hold ", ActionHold},
		{"s", ActionSell},
		{"2", ActionSell},
		{"0", ActionBuy},
	}

	for _, tt := range tests {
		action, err := ParseActionName(tt.input)
		suite.NoError(err, tt.input)
		suite.Equal(tt.expected, action, tt.input)
	}

	_, err := ParseActionName("short")
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidAction))

	_, err = ParseActionName("5")
	suite.True(errors.IsInvalidActionError(err))
}

func (suite *ActionTestSuite) TestString() {
	suite.Equal("buy", ActionBuy.String())
	suite.Equal("hold", ActionHold.String())
	suite.Equal("sell", ActionSell.String())
	suite.Equal("Action(9)", Action(9).String())
}

func (suite *ActionTestSuite) TestTextEncoding() {
	data, err := json.Marshal(map[string]Action{"action": ActionSell})
	suite.NoError(err)
	suite.JSONEq(`{"action":"sell"}`, string(data))

	var decoded map[string]Action
	suite.NoError(json.Unmarshal([]byte(`{"action":"hold"}`), &decoded))
	suite.Equal(ActionHold, decoded["action"])

	_, err = Action(7).MarshalText()
	suite.Error(err)
}
