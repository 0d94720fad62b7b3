// Package main provides the journey worker: it polls for due executions and
// offers maintenance commands over the journey store.
package main

import (
	"context"
	"os"

	"github.com/joho/godotenv"
	cli "github.com/urfave/cli/v3"
)

const serviceName = "journey-worker"

func main() {
	_ = godotenv.Load()

	cmd := &cli.Command{
		Name:                  serviceName,
		EnableShellCompletion: true,
		Usage:                 "Advance contact journeys",
		Commands: []*cli.Command{
			NewRunCommand(),
			NewValidateCommand(),
			NewStartCommand(),
			NewTailCommand(),
		},
	}

	err := cmd.Run(context.Background(), os.Args)
	if err != nil {
		panic(err)
	}
}
