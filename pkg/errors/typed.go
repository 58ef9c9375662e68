package errors

import (
	"errors"
	"fmt"
)

// InsufficientDataError represents an error when there are not enough price bars
// to build an environment or run a calculation.
type InsufficientDataError struct {
	Required int    // Minimum bars required
	Actual   int    // Actual bars available
	Symbol   string // Optional: symbol context
	Message  string // Human-readable message
}

// NewInsufficientDataError creates a new InsufficientDataError.
func NewInsufficientDataError(required, actual int, symbol, message string) *InsufficientDataError {
	return &InsufficientDataError{
		Required: required,
		Actual:   actual,
		Symbol:   symbol,
		Message:  message,
	}
}

// NewInsufficientDataErrorf creates a new InsufficientDataError with a formatted message.
func NewInsufficientDataErrorf(required, actual int, symbol, format string, args ...any) *InsufficientDataError {
	return &InsufficientDataError{
		Required: required,
		Actual:   actual,
		Symbol:   symbol,
		Message:  fmt.Sprintf(format, args...),
	}
}

// Error implements the error interface.
func (e *InsufficientDataError) Error() string {
	return e.Message
}

// ErrorCode returns ErrCodeInsufficientData.
func (e *InsufficientDataError) ErrorCode() ErrorCode {
	return ErrCodeInsufficientData
}

// IsInsufficientDataError checks if an error is an InsufficientDataError.
func IsInsufficientDataError(err error) bool {
	var target *InsufficientDataError

	return errors.As(err, &target)
}

// InvalidPriceError is returned when the bar under the cursor has a close price <= 0.
type InvalidPriceError struct {
	Step  int
	Price float64
}

// NewInvalidPriceError creates a new InvalidPriceError.
func NewInvalidPriceError(step int, price float64) *InvalidPriceError {
	return &InvalidPriceError{Step: step, Price: price}
}

// Error implements the error interface.
func (e *InvalidPriceError) Error() string {
	return fmt.Sprintf("invalid close price %v at step %d", e.Price, e.Step)
}

// ErrorCode returns ErrCodeInvalidPrice.
func (e *InvalidPriceError) ErrorCode() ErrorCode {
	return ErrCodeInvalidPrice
}

// IsInvalidPriceError checks if an error is an InvalidPriceError.
func IsInvalidPriceError(err error) bool {
	var target *InvalidPriceError

	return errors.As(err, &target)
}

// InvalidActionError is returned when an integer does not name one of the three actions.
type InvalidActionError struct {
	Value int
}

// NewInvalidActionError creates a new InvalidActionError.
func NewInvalidActionError(value int) *InvalidActionError {
	return &InvalidActionError{Value: value}
}

// Error implements the error interface.
func (e *InvalidActionError) Error() string {
	return fmt.Sprintf("invalid action %d: must be 0 (buy), 1 (hold) or 2 (sell)", e.Value)
}

// ErrorCode returns ErrCodeInvalidAction.
func (e *InvalidActionError) ErrorCode() ErrorCode {
	return ErrCodeInvalidAction
}

// IsInvalidActionError checks if an error is an InvalidActionError.
func IsInvalidActionError(err error) bool {
	var target *InvalidActionError

	return errors.As(err, &target)
}

// EpisodeFinishedError is returned by Step once the episode reported done and
// Reset has not been called since.
type EpisodeFinishedError struct {
	Step int
}

// NewEpisodeFinishedError creates a new EpisodeFinishedError.
func NewEpisodeFinishedError(step int) *EpisodeFinishedError {
	return &EpisodeFinishedError{Step: step}
}

// Error implements the error interface.
func (e *EpisodeFinishedError) Error() string {
	return fmt.Sprintf("episode finished at step %d, call reset before stepping again", e.Step)
}

// ErrorCode returns ErrCodeEpisodeFinished.
func (e *EpisodeFinishedError) ErrorCode() ErrorCode {
	return ErrCodeEpisodeFinished
}

// IsEpisodeFinishedError checks if an error is an EpisodeFinishedError.
func IsEpisodeFinishedError(err error) bool {
	var target *EpisodeFinishedError

	return errors.As(err, &target)
}

// CredentialRequiredError is returned by a price bar source before any network call
// when its API key is missing or blank.
type CredentialRequiredError struct {
	Provider string
}

// NewCredentialRequiredError creates a new CredentialRequiredError.
func NewCredentialRequiredError(provider string) *CredentialRequiredError {
	return &CredentialRequiredError{Provider: provider}
}

// Error implements the error interface.
func (e *CredentialRequiredError) Error() string {
	return fmt.Sprintf("%s: API key is required", e.Provider)
}

// ErrorCode returns ErrCodeCredentialRequired.
func (e *CredentialRequiredError) ErrorCode() ErrorCode {
	return ErrCodeCredentialRequired
}

// IsCredentialRequiredError checks if an error is a CredentialRequiredError.
func IsCredentialRequiredError(err error) bool {
	var target *CredentialRequiredError

	return errors.As(err, &target)
}

// UpstreamError carries an error message reported by the data provider itself.
type UpstreamError struct {
	Provider string
	Message  string
}

// NewUpstreamError creates a new UpstreamError.
func NewUpstreamError(provider, message string) *UpstreamError {
	return &UpstreamError{Provider: provider, Message: message}
}

// Error implements the error interface.
func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: %s", e.Provider, e.Message)
}

// ErrorCode returns ErrCodeUpstream.
func (e *UpstreamError) ErrorCode() ErrorCode {
	return ErrCodeUpstream
}

// IsUpstreamError checks if an error is an UpstreamError.
func IsUpstreamError(err error) bool {
	var target *UpstreamError

	return errors.As(err, &target)
}

// NoDataError is returned when the provider has no bars for the symbol and range.
type NoDataError struct {
	Provider string
	Symbol   string
}

// NewNoDataError creates a new NoDataError.
func NewNoDataError(provider, symbol string) *NoDataError {
	return &NoDataError{Provider: provider, Symbol: symbol}
}

// Error implements the error interface.
func (e *NoDataError) Error() string {
	return fmt.Sprintf("%s: no data available for %s", e.Provider, e.Symbol)
}

// ErrorCode returns ErrCodeNoData.
func (e *NoDataError) ErrorCode() ErrorCode {
	return ErrCodeNoData
}

// IsNoDataError checks if an error is a NoDataError.
func IsNoDataError(err error) bool {
	var target *NoDataError

	return errors.As(err, &target)
}

// FetchError wraps a transport or decoding failure while talking to a provider.
type FetchError struct {
	Provider string
	Cause    error
}

// NewFetchError creates a new FetchError.
func NewFetchError(provider string, cause error) *FetchError {
	return &FetchError{Provider: provider, Cause: cause}
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	return fmt.Sprintf("%s: failed to fetch data: %v", e.Provider, e.Cause)
}

// Unwrap returns the underlying transport or parse error.
func (e *FetchError) Unwrap() error {
	return e.Cause
}

// ErrorCode returns ErrCodeMarketDataFetchFailed.
func (e *FetchError) ErrorCode() ErrorCode {
	return ErrCodeMarketDataFetchFailed
}

// IsFetchError checks if an error is a FetchError.
func IsFetchError(err error) bool {
	var target *FetchError

	return errors.As(err, &target)
}
