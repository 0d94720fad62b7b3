package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/dukex/journeys/pkg/cmd"
	"github.com/dukex/journeys/pkg/engine"
	"github.com/dukex/journeys/pkg/log"
	"github.com/robfig/cron/v3"
	cli "github.com/urfave/cli/v3"
)

func NewRunCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Poll for due executions on a schedule",
		Flags: append(cmd.RuntimeFlags(),
			&cli.StringFlag{
				Name:    "schedule",
				Usage:   "Cron expression for polling (seconds field optional)",
				Value:   "@every 1m",
				Sources: cli.EnvVars("POLL_SCHEDULE"),
			},
			&cli.BoolFlag{
				Name:  "once",
				Usage: "Process ready executions once and exit",
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
				err := rt.Close(context.WithoutCancel(ctx))
				if err != nil {
					logger.ErrorContext(ctx, "Failed to close runtime", slog.Any("error", err))
				}
			}()

			logger = logger.With(slog.String("worker_id", rt.Engine.Config().WorkerID))

			if command.Bool("once") {
				report, err := rt.Engine.ProcessReadyExecutions(ctx)
				if err != nil {
					return err
				}

				fmt.Printf("claimed=%d advanced=%d failed=%d lease_lost=%d\n",
					report.Claimed, report.Advanced, report.Failed, report.LeaseLost)

				return nil
			}

			ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return runScheduled(ctx, rt.Engine, command.String("schedule"), logger)
		},
	}
}

// runScheduled calls ProcessReadyExecutions on schedule until ctx is done.
// A poll still running when the next one is due is skipped.
func runScheduled(ctx context.Context, eng *engine.Engine, schedule string, logger *slog.Logger) error {
	parser := cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

	cronLogger := cron.VerbosePrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelDebug))

	scheduler := cron.New(
		cron.WithParser(parser),
		cron.WithChain(
			cron.SkipIfStillRunning(cronLogger),
			cron.Recover(cronLogger),
		),
	)

	_, err := scheduler.AddFunc(schedule, func() {
		_, err := eng.ProcessReadyExecutions(ctx)
		if err != nil {
			logger.ErrorContext(ctx, "Failed to process ready executions", slog.Any("error", err))
		}
	})
	if err != nil {
		return fmt.Errorf("invalid schedule %q: %w", schedule, err)
	}

	logger.InfoContext(ctx, "Journey worker started", slog.String("schedule", schedule))

	scheduler.Start()

	<-ctx.Done()

	logger.InfoContext(ctx, "Shutting down journey worker")

	<-scheduler.Stop().Done()

	return nil
}
