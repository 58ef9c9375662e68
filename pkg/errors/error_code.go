package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Validation errors (100-199)
	ErrCodeInvalidParameter     ErrorCode = 100
	ErrCodeInvalidConfiguration ErrorCode = 101
	ErrCodeInvalidAction        ErrorCode = 102
	ErrCodeInsufficientData     ErrorCode = 103
	ErrCodeMissingParameter     ErrorCode = 104
	ErrCodeInvalidVersion       ErrorCode = 105
	ErrCodeInvalidDate          ErrorCode = 106

	// Data/Resource errors (200-299)
	ErrCodeDataNotFound          ErrorCode = 200
	ErrCodeDataSourceUnavailable ErrorCode = 201
	ErrCodeQueryFailed           ErrorCode = 202
	ErrCodeWriteFailed           ErrorCode = 203

	// Environment errors (300-399)
	ErrCodeInvalidPrice    ErrorCode = 300
	ErrCodeEpisodeFinished ErrorCode = 301

	// Market data errors (700-799)
	ErrCodeMarketDataFetchFailed ErrorCode = 700
	ErrCodeCredentialRequired    ErrorCode = 701
	ErrCodeUpstream              ErrorCode = 702
	ErrCodeNoData                ErrorCode = 703
	ErrCodeInvalidProvider       ErrorCode = 704

	// Session errors (800-899)
	ErrCodeSessionNotFound ErrorCode = 800
	ErrCodeSessionStore    ErrorCode = 801
)
