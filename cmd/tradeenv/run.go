package main

import (
	"context"
	"strings"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"

	"github.com/neotheprogramist/ai-playground/internal/agent"
	"github.com/neotheprogramist/ai-playground/internal/recorder"
	"github.com/neotheprogramist/ai-playground/internal/stats"
	"github.com/neotheprogramist/ai-playground/internal/types"
	"go.uber.org/zap"
)

func runCommand() *cli.Command {
	flags := append(barFlags(),
		&cli.StringFlag{
			Name:    "agent",
			Aliases: []string{"a"},
			Usage:   "Decision agent: " + strings.Join(agent.Names, ", "),
			Value:   "hold",
		},
		&cli.IntFlag{
			Name:  "seed",
			Usage: "Seed of the random agent",
			Value: 1,
		},
		&cli.FloatFlag{
			Name:  "threshold",
			Usage: "Close change that triggers the momentum agent, as a fraction",
			Value: 0.01,
		},
		&cli.StringSliceFlag{
			Name:  "sequence",
			Usage: "Actions replayed by the sequence agent (buy, hold, sell)",
		},
		&cli.StringFlag{
			Name:  "history",
			Usage: "Directory for the step history parquet file. Defaults to recorder.output_dir",
		},
		&cli.StringFlag{
			Name:  "stats",
			Usage: "Write the episode statistics to this YAML file",
		},
	)

	return &cli.Command{
		Name:   "run",
		Usage:  "Run a decision agent through one episode",
		Flags:  flags,
		Action: runAction,
	}
}

func runAction(ctx context.Context, cmd *cli.Command) error {
	cfg, log, err := setup(cmd)
	if err != nil {
		return err
	}
	defer log.Sync()

	decider, err := agent.New(cmd.String("agent"), agent.Params{
		Seed:      int64(cmd.Int("seed")),
		Threshold: cmd.Float("threshold"),
		Sequence:  cmd.StringSlice("sequence"),
	})
	if err != nil {
		return err
	}

	env, err := loadEnvironment(ctx, cmd, cfg, log)
	if err != nil {
		return err
	}

	tracker := stats.NewTracker(log)
	opts := []agent.RunnerOption{agent.WithLogger(log), agent.WithTracker(tracker)}

	historyDir := cmd.String("history")
	if historyDir == "" {
		historyDir = cfg.Recorder.OutputDir
	}

	var history *recorder.ParquetRecorder

	if historyDir != "" {
		history = recorder.NewParquetRecorder(historyPath(historyDir, env.Symbol()+"_"+decider.Name()), log)

		if err := history.Initialize(); err != nil {
			return err
		}

		opts = append(opts, agent.WithRecorder(history))
	}

	episode, runErr := agent.NewRunner(env, decider, opts...).Run(ctx)

	if history != nil {
		if err := history.Close(); err != nil {
			log.Error("Failed to write step history", zap.Error(err))
		} else {
			tracker.SetHistoryFilePath(history.GetOutputPath())
			episode.HistoryFilePath = history.GetOutputPath()
		}
	}

	if path := cmd.String("stats"); path != "" {
		if err := tracker.WriteStats(path); err != nil {
			return err
		}
	}

	if err := printStats(cmd, episode); err != nil {
		return err
	}

	return runErr
}

func printStats(cmd *cli.Command, episode types.EpisodeStats) error {
	data, err := yaml.Marshal(episode)
	if err != nil {
		return err
	}

	_, err = cmd.Root().Writer.Write(data)

	return err
}
