package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/dukex/journeys/pkg/cmd"
	"github.com/dukex/journeys/pkg/engine"
	"github.com/dukex/journeys/pkg/log"
	cli "github.com/urfave/cli/v3"
)

// exitRejected is the exit status when the engine refuses the enrollment,
// as opposed to an infrastructure failure.
const exitRejected = 3

func NewStartCommand() *cli.Command {
	return &cli.Command{
		Name:      "start",
		Usage:     "Enroll one contact in a journey",
		ArgsUsage: "<journey-id> <contact-id>",
		Flags:     cmd.RuntimeFlags(),
		Action: func(ctx context.Context, command *cli.Command) error {
			if command.NArg() != 2 {
				return cli.Exit("usage: start <journey-id> <contact-id>", 2)
			}

			log.Setup(command.String("log-level"), command.String("log-format"))

			logger := log.WithModule(serviceName)

			rt, err := cmd.NewRuntime(ctx, logger, cmd.RuntimeConfigFrom(command, serviceName))
			if err != nil {
				return err
			}

			defer func() {
				_ = rt.Close(ctx)
			}()

			execution, err := rt.Engine.StartJourney(ctx, command.Args().Get(0), command.Args().Get(1))
			if err != nil {
				return startFailure(err)
			}

			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")

			err = encoder.Encode(execution)
			if err != nil {
				return fmt.Errorf("failed to print execution: %w", err)
			}

			return nil
		},
	}
}

// startFailure maps refused enrollments to exitRejected.
func startFailure(err error) error {
	if engine.IsStartRejected(err) {
		return cli.Exit(err.Error(), exitRejected)
	}

	return err
}
