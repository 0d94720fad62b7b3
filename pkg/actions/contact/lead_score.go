package contact

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dukex/journeys/pkg/models"
	"github.com/dukex/journeys/pkg/protocol"
)

type LeadScoreAction struct {
	contacts protocol.ContactStore
}

func NewLeadScoreAction(contacts protocol.ContactStore) *LeadScoreAction {
	return &LeadScoreAction{contacts: contacts}
}

func (*LeadScoreAction) Kind() models.StepKind {
	return models.StepKindUpdateLeadScore
}

func (a *LeadScoreAction) Execute(ctx context.Context, step *models.Step, actx *protocol.ActionContext) (protocol.Outcome, error) {
	config, err := protocol.StepConfig[models.LeadScoreConfig](step)
	if err != nil {
		return protocol.Outcome{}, err
	}

	current := 0
	if actx.Contact != nil {
		current = actx.Contact.LeadScore
	}

	score, err := ApplyLeadScore(current, config.Action, config.Points)
	if err != nil {
		return protocol.Outcome{}, err
	}

	err = a.contacts.Update(ctx, actx.Execution.ContactID, map[string]any{models.ContactFieldLeadScore: score})
	if err != nil {
		return protocol.Outcome{}, fmt.Errorf("update lead score: %w", err)
	}

	actx.Logger.InfoContext(ctx, "Lead score updated",
		slog.Int("from", current),
		slog.Int("to", score),
	)

	return protocol.Outcome{}, nil
}

// ApplyLeadScore computes the new score. Subtraction floors at zero.
func ApplyLeadScore(current int, action models.LeadScoreAction, points int) (int, error) {
	switch action {
	case models.LeadScoreAdd:
		return current + points, nil
	case models.LeadScoreSubtract:
		return max(current-points, 0), nil
	case models.LeadScoreSet:
		return points, nil
	default:
		return current, fmt.Errorf("%w: unsupported lead score action %q", models.ErrInvalidStep, action)
	}
}
