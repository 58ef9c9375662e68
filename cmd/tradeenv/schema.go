package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/neotheprogramist/ai-playground/internal/config"
	"github.com/neotheprogramist/ai-playground/pkg/errors"
	"github.com/neotheprogramist/ai-playground/pkg/marketdata"
)

func schemaCommand() *cli.Command {
	return &cli.Command{
		Name:      "schema",
		Usage:     "Print a JSON schema",
		ArgsUsage: "[config|download]",
		Action: func(_ context.Context, cmd *cli.Command) error {
			var (
				out string
				err error
			)

			switch name := cmd.Args().First(); name {
			case "", "config":
				out, err = config.JSONSchema()
			case "download":
				out, err = marketdata.GetDownloadConfigSchema()
			default:
				return errors.Newf(errors.ErrCodeInvalidParameter, "unknown schema %q", name)
			}

			if err != nil {
				return err
			}

			_, err = fmt.Fprintln(cmd.Root().Writer, out)

			return err
		},
	}
}
