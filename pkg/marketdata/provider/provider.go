package provider

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/neotheprogramist/ai-playground/internal/logger"
	"github.com/neotheprogramist/ai-playground/internal/types"
	"github.com/neotheprogramist/ai-playground/pkg/errors"
)

// ProviderType defines the type of market data provider.
type ProviderType string

const (
	ProviderAlphaVantage ProviderType = "alphavantage"
	ProviderPolygon      ProviderType = "polygon"
	ProviderBinance      ProviderType = "binance"
)

// SupportedProviders lists every provider NewSource can build.
var SupportedProviders = []ProviderType{ProviderAlphaVantage, ProviderPolygon, ProviderBinance}

// Source produces daily price bars for a symbol.
type Source interface {
	// Name returns the provider name used in errors and logs.
	Name() string
	// FetchBars returns the bars whose calendar date falls in [start, end],
	// sorted by ascending date. A single attempt is made; there are no retries.
	// example:
	// FetchBars(ctx, "IBM", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC))
	FetchBars(ctx context.Context, symbol string, start time.Time, end time.Time) ([]types.PriceBar, error)
}

type options struct {
	baseURL    string
	httpClient *http.Client
	logger     *logger.Logger
}

// Option customizes a Source built by NewSource.
type Option func(*options)

// WithBaseURL overrides the provider endpoint. Used to point clients at a fake server.
func WithBaseURL(baseURL string) Option {
	return func(o *options) {
		o.baseURL = baseURL
	}
}

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(client *http.Client) Option {
	return func(o *options) {
		o.httpClient = client
	}
}

// WithLogger sets the logger.
func WithLogger(log *logger.Logger) Option {
	return func(o *options) {
		o.logger = log
	}
}

func buildOptions(opts []Option) options {
	o := options{
		baseURL:    "",
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     nil,
	}

	for _, opt := range opts {
		opt(&o)
	}

	if o.logger == nil {
		o.logger = logger.NewNop()
	}

	return o
}

// ParseProviderType validates a provider name.
func ParseProviderType(name string) (ProviderType, error) {
	providerType := ProviderType(strings.ToLower(strings.TrimSpace(name)))
	for _, supported := range SupportedProviders {
		if providerType == supported {
			return providerType, nil
		}
	}

	return "", errors.Newf(errors.ErrCodeInvalidProvider, "unsupported market data provider: %s", name)
}

// NewSource creates a price bar source based on the provider type.
// AlphaVantage and Polygon require a non-blank API key; Binance klines are public.
func NewSource(providerType ProviderType, apiKey string, opts ...Option) (Source, error) {
	switch providerType {
	case ProviderAlphaVantage:
		return NewAlphaVantageClient(apiKey, opts...)
	case ProviderPolygon:
		return NewPolygonClient(apiKey, opts...)
	case ProviderBinance:
		return NewBinanceClient(opts...)
	default:
		return nil, errors.Newf(errors.ErrCodeInvalidProvider, "unsupported market data provider: %s", providerType)
	}
}

func requireAPIKey(provider ProviderType, apiKey string) error {
	if strings.TrimSpace(apiKey) == "" {
		return errors.NewCredentialRequiredError(string(provider))
	}

	return nil
}
