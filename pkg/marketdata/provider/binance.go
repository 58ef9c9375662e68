package provider

import (
	"context"
	"fmt"
	"strconv"
	"time"

	binance "github.com/adshao/go-binance/v2"
	"github.com/adshao/go-binance/v2/common"

	"github.com/neotheprogramist/ai-playground/internal/logger"
	"github.com/neotheprogramist/ai-playground/internal/types"
	"github.com/neotheprogramist/ai-playground/pkg/errors"
	"go.uber.org/zap"
)

// binancePageSize is the default number of klines Binance returns per request.
const binancePageSize = 500

// BinanceKlinesService is the subset of the binance klines service the client uses.
type BinanceKlinesService interface {
	Symbol(symbol string) BinanceKlinesService
	Interval(interval string) BinanceKlinesService
	StartTime(startTime int64) BinanceKlinesService
	EndTime(endTime int64) BinanceKlinesService
	Do(ctx context.Context) ([]*binance.Kline, error)
}

// BinanceAPIClient creates klines services.
type BinanceAPIClient interface {
	NewKlinesService() BinanceKlinesService
}

type binanceAPIAdapter struct {
	client *binance.Client
}

func (a *binanceAPIAdapter) NewKlinesService() BinanceKlinesService {
	return &binanceKlinesAdapter{service: a.client.NewKlinesService()}
}

type binanceKlinesAdapter struct {
	service *binance.KlinesService
}

func (a *binanceKlinesAdapter) Symbol(symbol string) BinanceKlinesService {
	a.service.Symbol(symbol)

	return a
}

func (a *binanceKlinesAdapter) Interval(interval string) BinanceKlinesService {
	a.service.Interval(interval)

	return a
}

func (a *binanceKlinesAdapter) StartTime(startTime int64) BinanceKlinesService {
	a.service.StartTime(startTime)

	return a
}

func (a *binanceKlinesAdapter) EndTime(endTime int64) BinanceKlinesService {
	a.service.EndTime(endTime)

	return a
}

func (a *binanceKlinesAdapter) Do(ctx context.Context) ([]*binance.Kline, error) {
	return a.service.Do(ctx)
}

// BinanceClient fetches daily klines from Binance. No API key is needed for klines.
type BinanceClient struct {
	apiClient BinanceAPIClient
	logger    *logger.Logger
}

// NewBinanceClient creates a client against the public Binance API.
func NewBinanceClient(opts ...Option) (*BinanceClient, error) {
	o := buildOptions(opts)

	client := binance.NewClient("", "")
	client.HTTPClient = o.httpClient

	if o.baseURL != "" {
		client.BaseURL = o.baseURL
	}

	return &BinanceClient{
		apiClient: &binanceAPIAdapter{client: client},
		logger:    o.logger,
	}, nil
}

// NewBinanceClientWithAPI creates a client over an existing API implementation.
func NewBinanceClientWithAPI(apiClient BinanceAPIClient, log *logger.Logger) *BinanceClient {
	if log == nil {
		log = logger.NewNop()
	}

	return &BinanceClient{
		apiClient: apiClient,
		logger:    log,
	}
}

func (c *BinanceClient) Name() string { return string(ProviderBinance) }

// FetchBars pages through the 1d klines of symbol between start and end.
func (c *BinanceClient) FetchBars(ctx context.Context, symbol string, start time.Time, end time.Time) ([]types.PriceBar, error) {
	if err := validateRange(start, end); err != nil {
		return nil, err
	}

	// Binance API uses milliseconds for timestamps
	currentStartTime := calendarDate(start).UnixMilli()
	endTimeMillis := calendarDate(end).Add(24*time.Hour - time.Millisecond).UnixMilli()

	bars := make([]types.PriceBar, 0)

	for {
		klines, err := c.apiClient.NewKlinesService().
			Symbol(symbol).
			Interval("1d").
			StartTime(currentStartTime).
			EndTime(endTimeMillis).
			Do(ctx)
		if err != nil {
			if common.IsAPIError(err) {
				return nil, errors.NewUpstreamError(c.Name(), err.Error())
			}

			return nil, errors.NewFetchError(c.Name(), err)
		}

		converted, err := convertKlines(symbol, klines)
		if err != nil {
			return nil, errors.NewFetchError(c.Name(), err)
		}

		bars = append(bars, converted...)

		if len(klines) < binancePageSize {
			break
		}

		// Use the close time of the last kline + 1ms to avoid duplicates
		currentStartTime = klines[len(klines)-1].CloseTime + 1
		if currentStartTime >= endTimeMillis {
			break
		}
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

// convertKlines converts Binance kline data to price bars.
func convertKlines(symbol string, klines []*binance.Kline) ([]types.PriceBar, error) {
	bars := make([]types.PriceBar, 0, len(klines))

	for _, k := range klines {
		values := make([]float64, 5)

		for i, raw := range []string{k.Open, k.High, k.Low, k.Close, k.Volume} {
			parsed, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid kline value %q at %d: %w", raw, k.OpenTime, err)
			}

			values[i] = parsed
		}

		bars = append(bars, types.PriceBar{
			Symbol: symbol,
			Time:   time.UnixMilli(k.OpenTime).UTC(),
			Open:   values[0],
			High:   values[1],
			Low:    values[2],
			Close:  values[3],
			Volume: values[4],
		})
	}

	return bars, nil
}
