package provider

import (
	"context"
	"time"

	polygon "github.com/polygon-io/client-go/rest"
	"github.com/polygon-io/client-go/rest/models"

	"github.com/neotheprogramist/ai-playground/internal/logger"
	"github.com/neotheprogramist/ai-playground/internal/types"
	"github.com/neotheprogramist/ai-playground/pkg/errors"
	"go.uber.org/zap"
)

// PolygonAggsIterator is the subset of the polygon aggregates iterator the client reads.
type PolygonAggsIterator interface {
	Next() bool
	Item() models.Agg
	Err() error
}

// PolygonAPIClient is the subset of the polygon REST client used to list aggregates.
type PolygonAPIClient interface {
	ListAggs(ctx context.Context, params *models.ListAggsParams, options ...models.RequestOption) PolygonAggsIterator
}

type polygonAPIAdapter struct {
	client *polygon.Client
}

func (a *polygonAPIAdapter) ListAggs(ctx context.Context, params *models.ListAggsParams, options ...models.RequestOption) PolygonAggsIterator {
	return a.client.ListAggs(ctx, params, options...)
}

// PolygonClient fetches daily aggregates from Polygon.io.
type PolygonClient struct {
	apiClient PolygonAPIClient
	logger    *logger.Logger
}

// NewPolygonClient creates a client. A blank apiKey fails with a CredentialRequiredError.
func NewPolygonClient(apiKey string, opts ...Option) (*PolygonClient, error) {
	if err := requireAPIKey(ProviderPolygon, apiKey); err != nil {
		return nil, err
	}

	o := buildOptions(opts)

	return &PolygonClient{
		apiClient: &polygonAPIAdapter{client: polygon.NewWithClient(apiKey, o.httpClient)},
		logger:    o.logger,
	}, nil
}

// NewPolygonClientWithAPI creates a client over an existing API implementation.
func NewPolygonClientWithAPI(apiClient PolygonAPIClient, log *logger.Logger) *PolygonClient {
	if log == nil {
		log = logger.NewNop()
	}

	return &PolygonClient{
		apiClient: apiClient,
		logger:    log,
	}
}

func (c *PolygonClient) Name() string { return string(ProviderPolygon) }

// FetchBars lists the 1-day aggregates of symbol between start and end.
func (c *PolygonClient) FetchBars(ctx context.Context, symbol string, start time.Time, end time.Time) ([]types.PriceBar, error) {
	if err := validateRange(start, end); err != nil {
		return nil, err
	}

	//nolint:exhaustruct // third-party struct with many optional fields
	params := models.ListAggsParams{
		Ticker:     symbol,
		Multiplier: 1,
		Timespan:   models.Day,
		From:       models.Millis(calendarDate(start)),
		To:         models.Millis(calendarDate(end).Add(24*time.Hour - time.Millisecond)),
	}.WithOrder(models.Asc).WithLimit(50000)

	iter := c.apiClient.ListAggs(ctx, params)

	bars := make([]types.PriceBar, 0)

	for iter.Next() {
		agg := iter.Item()
		bars = append(bars, types.PriceBar{
			Symbol: symbol,
			Time:   time.Time(agg.Timestamp).UTC(),
			Open:   agg.Open,
			High:   agg.High,
			Low:    agg.Low,
			Close:  agg.Close,
			Volume: agg.Volume,
		})
	}

	if err := iter.Err(); err != nil {
		if upstream := polygonUpstreamError(err); upstream != nil {
			return nil, upstream
		}

		return nil, errors.NewFetchError(c.Name(), err)
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

// polygonUpstreamError maps an error response reported by the Polygon API to an
// UpstreamError. It returns nil for any other error.
func polygonUpstreamError(err error) error {
	var apiErr *models.ErrorResponse
	if !errors.As(err, &apiErr) {
		return nil
	}

	message := apiErr.ErrorMessage
	if message == "" {
		message = apiErr.Message
	}

	if message == "" {
		message = apiErr.Status
	}

	return errors.NewUpstreamError(string(ProviderPolygon), message)
}
