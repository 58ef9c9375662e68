package main

import (
	"context"
	"path/filepath"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/neotheprogramist/ai-playground/internal/config"
	"github.com/neotheprogramist/ai-playground/internal/datasource"
	"github.com/neotheprogramist/ai-playground/internal/environment"
	"github.com/neotheprogramist/ai-playground/internal/logger"
	"github.com/neotheprogramist/ai-playground/internal/types"
	"github.com/neotheprogramist/ai-playground/pkg/errors"
	"github.com/neotheprogramist/ai-playground/pkg/marketdata/provider"
)

// setup loads the configuration named by the root flags and builds the logger.
func setup(cmd *cli.Command) (config.Config, *logger.Logger, error) {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return config.Config{}, nil, err
	}

	if level := cmd.String("log-level"); level != "" {
		cfg.Log.Level = level
	}

	log, err := logger.NewLoggerWithLevel(cfg.Log.Level)
	if err != nil {
		return config.Config{}, nil, errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to create logger", err)
	}

	return cfg, log, nil
}

// barFlags select the bars an episode runs over: a downloaded parquet file or
// a provider fetch.
func barFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "ticker",
			Aliases: []string{"t"},
			Usage:   "Asset symbol",
		},
		&cli.TimestampFlag{
			Name:    "start",
			Aliases: []string{"s"},
			Usage:   "Inclusive start date in `YYYY-MM-DD` format",
			Config:  cli.TimestampConfig{Layouts: []string{types.DateLayout}},
		},
		&cli.TimestampFlag{
			Name:    "end",
			Aliases: []string{"e"},
			Usage:   "Inclusive end date in `YYYY-MM-DD` format. Defaults to today.",
			Value:   time.Now(),
			Config:  cli.TimestampConfig{Layouts: []string{types.DateLayout}},
		},
		&cli.StringFlag{
			Name:    "data",
			Aliases: []string{"d"},
			Usage:   "Parquet file written by the download command. Replaces the provider fetch.",
		},
	}
}

// newSource returns the parquet source when path is set, otherwise the configured provider.
func newSource(cfg config.Config, path string, log *logger.Logger) (provider.Source, func() error, error) {
	if path != "" {
		source, err := datasource.NewParquetSource(path, log)
		if err != nil {
			return nil, nil, err
		}

		return source, source.Close, nil
	}

	providerType, err := provider.ParseProviderType(cfg.Provider.Type)
	if err != nil {
		return nil, nil, err
	}

	opts := []provider.Option{provider.WithLogger(log)}
	if cfg.Provider.BaseURL != "" {
		opts = append(opts, provider.WithBaseURL(cfg.Provider.BaseURL))
	}

	source, err := provider.NewSource(providerType, cfg.Provider.APIKey, opts...)
	if err != nil {
		return nil, nil, err
	}

	return source, func() error { return nil }, nil
}

// loadEnvironment fetches the bars selected by the bar flags and builds an environment over them.
func loadEnvironment(ctx context.Context, cmd *cli.Command, cfg config.Config, log *logger.Logger) (*environment.TradingEnvironment, error) {
	ticker := cmd.String("ticker")
	if ticker == "" {
		return nil, errors.New(errors.ErrCodeMissingParameter, "--ticker is required")
	}

	start := cmd.Timestamp("start")
	if start.IsZero() {
		return nil, errors.New(errors.ErrCodeMissingParameter, "--start is required")
	}

	end := cmd.Timestamp("end")

	source, closeSource, err := newSource(cfg, cmd.String("data"), log)
	if err != nil {
		return nil, err
	}
	defer closeSource()

	bars, err := source.FetchBars(ctx, ticker, start, end)
	if err != nil {
		return nil, err
	}

	return environment.New(bars, cfg.EnvironmentConfig(start.Format(types.DateLayout)), log)
}

// historyPath names the step history file for name under dir.
func historyPath(dir, name string) string {
	return filepath.Join(dir, name+"_history.parquet")
}
