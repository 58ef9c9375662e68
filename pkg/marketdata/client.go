package marketdata

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/schollz/progressbar/v3"

	"github.com/neotheprogramist/ai-playground/internal/logger"
	"github.com/neotheprogramist/ai-playground/internal/types"
	"github.com/neotheprogramist/ai-playground/pkg/errors"
	"github.com/neotheprogramist/ai-playground/pkg/marketdata/provider"
	"github.com/neotheprogramist/ai-playground/pkg/marketdata/writer"
	"go.uber.org/zap"
)

// WriterType defines the type of market data writer.
type WriterType string

const (
	WriterDuckDB WriterType = "duckdb"
)

// ClientConfig holds the configuration for the market data client.
type ClientConfig struct {
	ProviderType provider.ProviderType `validate:"required,oneof=alphavantage polygon binance"`
	WriterType   WriterType            `validate:"required,oneof=duckdb"`
	DataPath     string                `validate:"required"`
	APIKey       string
	// BaseURL overrides the provider endpoint.
	BaseURL string
	// ProgressWriter receives the progress bar; nil hides it.
	ProgressWriter io.Writer
}

// DownloadParams holds the parameters for a market data download request.
type DownloadParams struct {
	Ticker    string    `validate:"required"`
	StartDate time.Time `validate:"required"`
	EndDate   time.Time `validate:"required,gtefield=StartDate"`
}

// OutputFileName returns TICKER_START_END.parquet.
func (p DownloadParams) OutputFileName() string {
	return fmt.Sprintf("%s_%s_%s.parquet",
		p.Ticker,
		p.StartDate.Format(types.DateLayout),
		p.EndDate.Format(types.DateLayout))
}

// Client is the market data client responsible for fetching bars from a
// source and storing them using writers.
type Client struct {
	source   provider.Source
	config   ClientConfig
	validate *validator.Validate
	logger   *logger.Logger
}

// NewClient creates a new market data client with the given configuration.
func NewClient(config ClientConfig, log *logger.Logger) (*Client, error) {
	validate := validator.New()
	if err := validate.Struct(config); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid client configuration", err)
	}

	if log == nil {
		log = logger.NewNop()
	}

	opts := []provider.Option{provider.WithLogger(log)}
	if config.BaseURL != "" {
		opts = append(opts, provider.WithBaseURL(config.BaseURL))
	}

	source, err := provider.NewSource(config.ProviderType, config.APIKey, opts...)
	if err != nil {
		return nil, err
	}

	return NewClientWithSource(source, config, log), nil
}

// NewClientWithSource creates a client over an existing source.
func NewClientWithSource(source provider.Source, config ClientConfig, log *logger.Logger) *Client {
	if log == nil {
		log = logger.NewNop()
	}

	return &Client{
		source:   source,
		config:   config,
		validate: validator.New(),
		logger:   log,
	}
}

// Download fetches the bars for params and writes them to a parquet file
// under the configured data path. It returns the output path.
// The context can be used to cancel the download operation.
func (c *Client) Download(ctx context.Context, params DownloadParams) (path string, err error) {
	if err := c.validate.Struct(params); err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidParameter, "invalid download parameters", err)
	}

	bars, err := c.source.FetchBars(ctx, params.Ticker, params.StartDate, params.EndDate)
	if err != nil {
		return "", err
	}

	marketWriter, err := c.setupWriter(params)
	if err != nil {
		return "", err
	}

	defer func() {
		if cerr := marketWriter.Close(); cerr != nil {
			if err == nil {
				err = cerr
			} else {
				c.logger.Warn("Failed to close writer after another error", zap.Error(cerr))
			}
		}
	}()

	bar := c.newProgressBar(len(bars), params.Ticker)

	for _, priceBar := range bars {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		if err := marketWriter.Write(priceBar); err != nil {
			return "", err
		}

		bar.Add(1)
	}

	bar.Finish()

	outputPath, err := marketWriter.Finalize()
	if err != nil {
		return "", err
	}

	c.logger.Info("Downloaded price bars",
		zap.String("provider", c.source.Name()),
		zap.String("ticker", params.Ticker),
		zap.Int("bars", len(bars)),
		zap.String("path", outputPath),
	)

	return outputPath, nil
}

func (c *Client) newProgressBar(total int, ticker string) *progressbar.ProgressBar {
	progressWriter := c.config.ProgressWriter
	if progressWriter == nil {
		progressWriter = io.Discard
	}

	return progressbar.NewOptions(total,
		progressbar.OptionSetDescription(fmt.Sprintf("Writing %s", ticker)),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWriter(progressWriter),
	)
}

// setupWriter initializes the appropriate market data writer based on configuration.
func (c *Client) setupWriter(params DownloadParams) (writer.MarketDataWriter, error) {
	switch c.config.WriterType {
	case WriterDuckDB:
		if err := os.MkdirAll(c.config.DataPath, 0o755); err != nil {
			return nil, errors.Wrapf(errors.ErrCodeWriteFailed, err, "failed to create data path %s", c.config.DataPath)
		}

		outputPath := filepath.Join(c.config.DataPath, params.OutputFileName())
		duckdbWriter := writer.NewDuckDBWriter(outputPath, c.logger)

		if err := duckdbWriter.Initialize(); err != nil {
			return nil, err
		}

		return duckdbWriter, nil
	default:
		return nil, errors.Newf(errors.ErrCodeInvalidConfiguration, "unsupported writer type: %s", c.config.WriterType)
	}
}
