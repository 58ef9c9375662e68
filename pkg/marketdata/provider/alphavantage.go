package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/neotheprogramist/ai-playground/internal/logger"
	"github.com/neotheprogramist/ai-playground/internal/types"
	"github.com/neotheprogramist/ai-playground/pkg/errors"
	"go.uber.org/zap"
)

// DefaultAlphaVantageURL is the AlphaVantage query endpoint.
const DefaultAlphaVantageURL = "https://www.alphavantage.co/query"

// AlphaVantageClient fetches daily bars from the AlphaVantage TIME_SERIES_DAILY endpoint.
type AlphaVantageClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	logger     *logger.Logger
}

// alphaVantageDaily is the TIME_SERIES_DAILY response. Error payloads come back
// with HTTP 200 and one of the message fields set instead of the series.
type alphaVantageDaily struct {
	TimeSeries   map[string]alphaVantageBar `json:"Time Series (Daily)"`
	ErrorMessage string                     `json:"Error Message"`
	Note         string                     `json:"Note"`
	Information  string                     `json:"Information"`
}

type alphaVantageBar struct {
	Open   string `json:"1. open"`
	High   string `json:"2. high"`
	Low    string `json:"3. low"`
	Close  string `json:"4. close"`
	Volume string `json:"5. volume"`
}

// NewAlphaVantageClient creates a client. A blank apiKey fails with a
// CredentialRequiredError.
func NewAlphaVantageClient(apiKey string, opts ...Option) (*AlphaVantageClient, error) {
	if err := requireAPIKey(ProviderAlphaVantage, apiKey); err != nil {
		return nil, err
	}

	o := buildOptions(opts)
	if o.baseURL == "" {
		o.baseURL = DefaultAlphaVantageURL
	}

	return &AlphaVantageClient{
		apiKey:     apiKey,
		baseURL:    o.baseURL,
		httpClient: o.httpClient,
		logger:     o.logger,
	}, nil
}

func (c *AlphaVantageClient) Name() string { return string(ProviderAlphaVantage) }

// FetchBars downloads the full daily history of symbol and filters it to [start, end].
func (c *AlphaVantageClient) FetchBars(ctx context.Context, symbol string, start time.Time, end time.Time) ([]types.PriceBar, error) {
	if err := requireAPIKey(ProviderAlphaVantage, c.apiKey); err != nil {
		return nil, err
	}

	if err := validateRange(start, end); err != nil {
		return nil, err
	}

	payload, err := c.query(ctx, symbol)
	if err != nil {
		return nil, err
	}

	switch {
	case payload.ErrorMessage != "":
		return nil, errors.NewUpstreamError(c.Name(), payload.ErrorMessage)
	case payload.Note != "":
		return nil, errors.NewUpstreamError(c.Name(), payload.Note)
	case payload.Information != "":
		return nil, errors.NewUpstreamError(c.Name(), payload.Information)
	case len(payload.TimeSeries) == 0:
		return nil, errors.NewNoDataError(c.Name(), symbol)
	}

	bars := make([]types.PriceBar, 0, len(payload.TimeSeries))

	for date, values := range payload.TimeSeries {
		bar, err := values.toPriceBar(symbol, date)
		if err != nil {
			return nil, errors.NewFetchError(c.Name(), err)
		}

		bars = append(bars, bar)
	}

	bars = FilterAndSort(bars, start, end)
	if len(bars) == 0 {
		return nil, errors.NewNoDataError(c.Name(), symbol)
	}

	c.logger.Debug("Fetched daily bars",
		zap.String("provider", c.Name()),
		zap.String("symbol", symbol),
		zap.Int("bars", len(bars)),
	)

	return bars, nil
}

func (c *AlphaVantageClient) query(ctx context.Context, symbol string) (*alphaVantageDaily, error) {
	params := url.Values{}
	params.Set("function", "TIME_SERIES_DAILY")
	params.Set("symbol", symbol)
	params.Set("apikey", c.apiKey)
	params.Set("outputsize", "full")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, errors.NewFetchError(c.Name(), err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.NewFetchError(c.Name(), err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.NewFetchError(c.Name(), err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, errors.NewFetchError(c.Name(), fmt.Errorf("status %d: %s", resp.StatusCode, string(body)))
	}

	var payload alphaVantageDaily
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, errors.NewFetchError(c.Name(), err)
	}

	return &payload, nil
}

type barField struct {
	name  string
	value string
	dest  *float64
}

func (b alphaVantageBar) toPriceBar(symbol string, date string) (types.PriceBar, error) {
	openTime, err := time.Parse(types.DateLayout, date)
	if err != nil {
		return types.PriceBar{}, fmt.Errorf("invalid date %q: %w", date, err)
	}

	bar := types.PriceBar{Symbol: symbol, Time: openTime}
	fields := []barField{
		{"open", b.Open, &bar.Open},
		{"high", b.High, &bar.High},
		{"low", b.Low, &bar.Low},
		{"close", b.Close, &bar.Close},
		{"volume", b.Volume, &bar.Volume},
	}

	for _, field := range fields {
		parsed, err := strconv.ParseFloat(field.value, 64)
		if err != nil {
			return types.PriceBar{}, fmt.Errorf("invalid %s %q on %s: %w", field.name, field.value, date, err)
		}

		*field.dest = parsed
	}

	return bar, nil
}
