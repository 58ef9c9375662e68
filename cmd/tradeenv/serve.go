package main

import (
	"context"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/neotheprogramist/ai-playground/internal/config"
	"github.com/neotheprogramist/ai-playground/internal/logger"
	"github.com/neotheprogramist/ai-playground/internal/recorder"
	"github.com/neotheprogramist/ai-playground/internal/server"
	"github.com/neotheprogramist/ai-playground/internal/session"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve trading sessions over HTTP",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Listen address. Defaults to server.addr from the config",
			},
			&cli.StringFlag{
				Name:    "data",
				Aliases: []string{"d"},
				Usage:   "Serve sessions from this parquet file instead of the provider",
			},
		},
		Action: serveAction,
	}
}

func serveAction(ctx context.Context, cmd *cli.Command) error {
	cfg, log, err := setup(cmd)
	if err != nil {
		return err
	}
	defer log.Sync()

	if addr := cmd.String("addr"); addr != "" {
		cfg.Server.Addr = addr
	}

	store, err := newStore(ctx, cfg, log)
	if err != nil {
		return err
	}

	source, closeSource, err := newSource(cfg, cmd.String("data"), log)
	if err != nil {
		store.Close()

		return err
	}
	defer closeSource()

	opts := []session.ManagerOption{session.WithLogger(log)}

	var history *recorder.ParquetRecorder

	if cfg.Recorder.OutputDir != "" {
		history = recorder.NewParquetRecorder(historyPath(cfg.Recorder.OutputDir, "sessions"), log)
		if err := history.Initialize(); err != nil {
			store.Close()

			return err
		}

		opts = append(opts, session.WithRecorder(history))
	}

	manager := session.NewManager(store, source, cfg.EnvironmentConfig(""), opts...)
	defer func() {
		if err := manager.Close(); err != nil {
			log.Warn("Failed to close session store", zap.Error(err))
		}

		if history != nil {
			if err := history.Close(); err != nil {
				log.Error("Failed to write step history", zap.Error(err))
			}
		}
	}()

	srv := server.New(manager, log)
	if err := srv.Start(cfg.Server.Addr); err != nil {
		return err
	}

	<-ctx.Done()

	log.Info("Shutting down HTTP server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	return srv.Stop(shutdownCtx)
}

// newStore picks the Redis store when enabled, otherwise an in-process one.
func newStore(ctx context.Context, cfg config.Config, log *logger.Logger) (session.Store, error) {
	if !cfg.Redis.Enabled {
		log.Info("Using in-memory session store", zap.Duration("ttl", cfg.Server.SessionTTL))

		return session.NewMemoryStore(cfg.Server.SessionTTL), nil
	}

	log.Info("Using Redis session store", zap.String("addr", cfg.Redis.Addr))

	return session.NewRedisStore(ctx, cfg.SessionRedisConfig())
}
