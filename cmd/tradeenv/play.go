package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v3"

	"github.com/neotheprogramist/ai-playground/internal/recorder"
	"github.com/neotheprogramist/ai-playground/internal/stats"
	"github.com/neotheprogramist/ai-playground/internal/tui"
	"go.uber.org/zap"
)

func playCommand() *cli.Command {
	return &cli.Command{
		Name:   "play",
		Usage:  "Play an episode from the terminal",
		Flags:  barFlags(),
		Action: playAction,
	}
}

func playAction(ctx context.Context, cmd *cli.Command) error {
	cfg, log, err := setup(cmd)
	if err != nil {
		return err
	}
	defer log.Sync()

	env, err := loadEnvironment(ctx, cmd, cfg, log)
	if err != nil {
		return err
	}

	tracker := stats.NewTracker(log)
	opts := []tui.Option{tui.WithTracker(tracker)}

	if cfg.Recorder.OutputDir != "" {
		history := recorder.NewParquetRecorder(historyPath(cfg.Recorder.OutputDir, env.Symbol()+"_human"), log)
		if err := history.Initialize(); err != nil {
			return err
		}

		defer func() {
			if err := history.Close(); err != nil {
				log.Error("Failed to write step history", zap.Error(err))
			}
		}()

		opts = append(opts, tui.WithRecorder(history))
	}

	if _, err := tea.NewProgram(tui.NewModel(env, opts...), tea.WithContext(ctx)).Run(); err != nil {
		return fmt.Errorf("play: %w", err)
	}

	return printStats(cmd, tracker.Stats())
}
