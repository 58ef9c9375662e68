package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/suite"
)

type ErrorTestSuite struct {
	suite.Suite
}

func TestErrorSuite(t *testing.T) {
	suite.Run(t, new(ErrorTestSuite))
}

func (suite *ErrorTestSuite) TestNewError() {
	err := New(ErrCodeInvalidParameter, "invalid parameter")
	suite.NotNil(err)
	suite.Equal(ErrCodeInvalidParameter, err.Code)
	suite.Equal("invalid parameter", err.Message)
	suite.Nil(err.Cause)
}

func (suite *ErrorTestSuite) TestNewfError() {
	err := Newf(ErrCodeInvalidParameter, "invalid parameter: %s", "test")
	suite.Equal("invalid parameter: test", err.Message)
}

func (suite *ErrorTestSuite) TestWrapfError() {
	cause := errors.New("underlying error")
	err := Wrapf(ErrCodeDataNotFound, cause, "data not found for symbol: %s", "IBM")
	suite.Equal(ErrCodeDataNotFound, err.Code)
	suite.Equal("data not found for symbol: IBM", err.Message)
	suite.Equal(cause, err.Cause)
}

func (suite *ErrorTestSuite) TestErrorString() {
	err := New(ErrCodeInvalidParameter, "invalid parameter")
	suite.Equal("[100] invalid parameter", err.Error())

	wrapped := Wrap(ErrCodeDataNotFound, "data not found", errors.New("underlying error"))
	suite.Equal("[200] data not found: underlying error", wrapped.Error())
}

func (suite *ErrorTestSuite) TestUnwrap() {
	cause := errors.New("underlying error")
	err := Wrap(ErrCodeQueryFailed, "query failed", cause)
	suite.True(Is(err, cause))
}

func (suite *ErrorTestSuite) TestGetCode() {
	suite.Equal(ErrCodeUnknown, GetCode(errors.New("plain")))
	suite.Equal(ErrCodeUnknown, GetCode(nil))
	suite.Equal(ErrCodeQueryFailed, GetCode(New(ErrCodeQueryFailed, "x")))
	suite.True(HasCode(fmt.Errorf("outer: %w", New(ErrCodeSessionNotFound, "x")), ErrCodeSessionNotFound))
}

func (suite *ErrorTestSuite) TestTypedErrorCodes() {
	tests := []struct {
		name  string
		err   error
		code  ErrorCode
		check func(error) bool
	}{
		{"invalid price", NewInvalidPriceError(3, 0), ErrCodeInvalidPrice, IsInvalidPriceError},
		{"invalid action", NewInvalidActionError(7), ErrCodeInvalidAction, IsInvalidActionError},
		{"episode finished", NewEpisodeFinishedError(4), ErrCodeEpisodeFinished, IsEpisodeFinishedError},
		{"credential", NewCredentialRequiredError("alphavantage"), ErrCodeCredentialRequired, IsCredentialRequiredError},
		{"upstream", NewUpstreamError("alphavantage", "Invalid API call"), ErrCodeUpstream, IsUpstreamError},
		{"no data", NewNoDataError("alphavantage", "IBM"), ErrCodeNoData, IsNoDataError},
		{"fetch", NewFetchError("alphavantage", errors.New("eof")), ErrCodeMarketDataFetchFailed, IsFetchError},
		{"insufficient", NewInsufficientDataError(2, 1, "IBM", "need 2 bars"), ErrCodeInsufficientData, IsInsufficientDataError},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			wrapped := fmt.Errorf("context: %w", tt.err)
			suite.Equal(tt.code, GetCode(wrapped))
			suite.True(tt.check(wrapped))
			suite.False(tt.check(errors.New("other")))
		})
	}
}

func (suite *ErrorTestSuite) TestTypedErrorMessages() {
	suite.Equal("invalid close price 0 at step 3", NewInvalidPriceError(3, 0).Error())
	suite.Equal("invalid action 7: must be 0 (buy), 1 (hold) or 2 (sell)", NewInvalidActionError(7).Error())
	suite.Equal("alphavantage: API key is required", NewCredentialRequiredError("alphavantage").Error())
	suite.Equal("alphavantage: no data available for IBM", NewNoDataError("alphavantage", "IBM").Error())
	suite.Equal("need 2 bars", NewInsufficientDataErrorf(2, 1, "IBM", "need %d bars", 2).Error())
}

func (suite *ErrorTestSuite) TestFetchErrorUnwrap() {
	cause := errors.New("connection refused")
	err := NewFetchError("polygon", cause)
	suite.True(errors.Is(err, cause))
	suite.Contains(err.Error(), "connection refused")
}
