// Package main provides the journey HTTP API server.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/dukex/journeys/pkg/cmd"
	"github.com/dukex/journeys/pkg/log"
	"github.com/joho/godotenv"
	cli "github.com/urfave/cli/v3"
)

const serviceName = "journey-api"

func main() {
	_ = godotenv.Load()

	command := &cli.Command{
		Name:  serviceName,
		Usage: "Serve the journey REST API",
		Flags: append(cmd.RuntimeFlags(),
			&cli.IntFlag{
				Name:    "port",
				Usage:   "Port to listen on",
				Value:   9091,
				Sources: cli.EnvVars("PORT"),
			},
		),
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"), command.String("log-format"))

			logger := log.WithModule(serviceName)

			rt, err := cmd.NewRuntime(ctx, logger, cmd.RuntimeConfigFrom(command, serviceName))
			if err != nil {
				return err
			}

			defer func() {
				err := rt.Close(ctx)
				if err != nil {
					logger.ErrorContext(ctx, "Failed to close runtime", slog.Any("error", err))
				}
			}()

			logger.InfoContext(ctx, "Starting journey API", slog.Int("port", int(command.Int("port"))))

			return NewAPI(logger, rt).Start(int(command.Int("port")))
		},
	}

	err := command.Run(context.Background(), os.Args)
	if err != nil {
		panic(err)
	}
}
