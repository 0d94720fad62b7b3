package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dukex/journeys/pkg/cmd"
	"github.com/dukex/journeys/pkg/log"
	"github.com/dukex/journeys/pkg/models"
	cli "github.com/urfave/cli/v3"
)

func NewValidateCommand() *cli.Command {
	return &cli.Command{
		Name:    "validate",
		Aliases: []string{"v"},
		Usage:   "Validate every stored journey definition",
		Flags:   cmd.RuntimeFlags(),
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"), command.String("log-format"))

			logger := log.WithModule(serviceName).With(slog.String("action", "validate"))

			rt, err := cmd.NewRuntime(ctx, logger, cmd.RuntimeConfigFrom(command, serviceName))
			if err != nil {
				return err
			}

			defer func() {
				_ = rt.Close(ctx)
			}()

			journeys, err := rt.Persistence.Journeys(ctx)
			if err != nil {
				return fmt.Errorf("failed to fetch journeys: %w", err)
			}

			invalid := 0

			for _, journey := range journeys {
				problems := journeyProblems(journey, func(kind models.StepKind) bool {
					_, ok := rt.Registry.Lookup(kind)

					return ok
				})

				if len(problems) == 0 {
					fmt.Printf("OK       %s (%s)\n", journey.Name, journey.ID)

					continue
				}

				invalid++

				fmt.Printf("INVALID  %s (%s)\n", journey.Name, journey.ID)

				for _, problem := range problems {
					fmt.Printf("         - %s\n", problem)
				}
			}

			fmt.Printf("\n%d journeys, %d invalid\n", len(journeys), invalid)

			if invalid > 0 {
				return cli.Exit("journey validation failed", 1)
			}

			return nil
		},
	}
}

// journeyProblems lists definition errors and steps no registered action handles.
func journeyProblems(journey *models.Journey, handled func(models.StepKind) bool) []string {
	var problems []string

	err := models.ValidateJourney(journey)
	if err != nil {
		problems = append(problems, err.Error())
	}

	if journey.Status == models.JourneyStatusActive && len(journey.Steps) == 0 {
		problems = append(problems, "active journey has no steps")
	}

	for _, step := range journey.OrderedSteps() {
		if !handled(step.Kind) {
			problems = append(problems, fmt.Sprintf("step %s: no action registered for kind %q", step.ID, step.Kind))
		}
	}

	return problems
}
