// Package flow provides the wait and end step actions.
package flow

import (
	"context"

	"github.com/dukex/journeys/pkg/models"
	"github.com/dukex/journeys/pkg/protocol"
)

// WaitAction does nothing; the delay comes from the wake time the engine
// computes when a wait step becomes current.
type WaitAction struct{}

func NewWaitAction() *WaitAction {
	return &WaitAction{}
}

func (*WaitAction) Kind() models.StepKind {
	return models.StepKindWait
}

func (*WaitAction) Execute(context.Context, *models.Step, *protocol.ActionContext) (protocol.Outcome, error) {
	return protocol.Outcome{}, nil
}

// EndAction completes the execution regardless of the steps that follow.
type EndAction struct{}

func NewEndAction() *EndAction {
	return &EndAction{}
}

func (*EndAction) Kind() models.StepKind {
	return models.StepKindEnd
}

func (*EndAction) Execute(context.Context, *models.Step, *protocol.ActionContext) (protocol.Outcome, error) {
	return protocol.Outcome{Complete: true}, nil
}
