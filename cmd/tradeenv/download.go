package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/neotheprogramist/ai-playground/internal/types"
	"github.com/neotheprogramist/ai-playground/pkg/marketdata"
	"github.com/neotheprogramist/ai-playground/pkg/marketdata/provider"
	"go.uber.org/zap"
)

func downloadCommand() *cli.Command {
	return &cli.Command{
		Name:  "download",
		Usage: "Download daily bars to a parquet file",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "ticker",
				Aliases:  []string{"t"},
				Usage:    "Asset symbol",
				Required: true,
			},
			&cli.TimestampFlag{
				Name:     "start",
				Aliases:  []string{"s"},
				Usage:    "Inclusive start date in `YYYY-MM-DD` format",
				Required: true,
				Config:   cli.TimestampConfig{Layouts: []string{types.DateLayout}},
			},
			&cli.TimestampFlag{
				Name:    "end",
				Aliases: []string{"e"},
				Usage:   "Inclusive end date in `YYYY-MM-DD` format. Defaults to today.",
				Value:   time.Now(),
				Config:  cli.TimestampConfig{Layouts: []string{types.DateLayout}},
			},
			&cli.StringFlag{
				Name:    "provider",
				Aliases: []string{"p"},
				Usage:   fmt.Sprintf("Data provider (%v). Defaults to provider.type from the config", provider.SupportedProviders),
			},
			&cli.StringFlag{
				Name:    "out",
				Aliases: []string{"o"},
				Usage:   "Output directory",
				Value:   "data",
			},
		},
		Action: downloadAction,
	}
}

func downloadAction(ctx context.Context, cmd *cli.Command) error {
	cfg, log, err := setup(cmd)
	if err != nil {
		return err
	}
	defer log.Sync()

	if name := cmd.String("provider"); name != "" && name != cfg.Provider.Type {
		cfg.Provider.Type = name
		cfg.Provider.APIKey = ""
		cfg.Provider.BaseURL = ""

		if info, err := marketdata.GetProviderInfo(name); err == nil && info.APIKeyEnv != "" {
			cfg.Provider.APIKey = os.Getenv(info.APIKeyEnv)
		}
	}

	providerType, err := provider.ParseProviderType(cfg.Provider.Type)
	if err != nil {
		return err
	}

	client, err := marketdata.NewClient(marketdata.ClientConfig{
		ProviderType:   providerType,
		WriterType:     marketdata.WriterDuckDB,
		DataPath:       cmd.String("out"),
		APIKey:         cfg.Provider.APIKey,
		BaseURL:        cfg.Provider.BaseURL,
		ProgressWriter: os.Stderr,
	}, log)
	if err != nil {
		return err
	}

	params := marketdata.DownloadParams{
		Ticker:    cmd.String("ticker"),
		StartDate: cmd.Timestamp("start"),
		EndDate:   cmd.Timestamp("end"),
	}

	log.Info("Starting download",
		zap.String("ticker", params.Ticker),
		zap.String("start", params.StartDate.Format(types.DateLayout)),
		zap.String("end", params.EndDate.Format(types.DateLayout)),
		zap.String("provider", string(providerType)),
	)

	path, err := client.Download(ctx, params)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.Root().Writer, path)

	return nil
}
