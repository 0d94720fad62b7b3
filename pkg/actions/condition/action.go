// Package condition provides the condition step action, which records the
// outcome of a standalone check without changing control flow.
package condition

import (
	"context"
	"log/slog"

	"github.com/dukex/journeys/pkg/condition"
	"github.com/dukex/journeys/pkg/models"
	"github.com/dukex/journeys/pkg/protocol"
)

type Action struct{}

func NewAction() *Action {
	return &Action{}
}

func (*Action) Kind() models.StepKind {
	return models.StepKindCondition
}

func (*Action) Execute(ctx context.Context, step *models.Step, actx *protocol.ActionContext) (protocol.Outcome, error) {
	config, err := protocol.StepConfig[models.ConditionConfig](step)
	if err != nil {
		return protocol.Outcome{}, err
	}

	result := condition.Check(actx.Values, config.Condition)
	met := result.Found && result.Met

	actx.Logger.DebugContext(ctx, "Condition evaluated",
		slog.String("field", result.Field),
		slog.Bool("result", met),
	)

	return protocol.Outcome{
		Entries: []models.DataEntry{
			actx.Entry(models.DataEntryConditionResult, step, map[string]any{
				"field":    result.Field,
				"operator": string(result.Operator),
				"expected": result.Expected,
				"actual":   result.Actual,
				"result":   met,
			}),
		},
	}, nil
}
