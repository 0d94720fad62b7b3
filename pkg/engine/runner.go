package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dukex/journeys/pkg/otelhelper"
	"github.com/dukex/journeys/pkg/persistence"
	"go.opentelemetry.io/otel/attribute"
)

// ProcessReport summarizes one ProcessReadyExecutions call.
type ProcessReport struct {
	Claimed  int `json:"claimed"`
	Advanced int `json:"advanced"`
	Failed   int `json:"failed"`
	// LeaseLost counts executions whose result could not be written because
	// another runner took over the lease.
	LeaseLost int `json:"lease_lost"`
	// Interrupted counts executions released mid-step because ctx ended.
	Interrupted int `json:"interrupted"`
}

// ProcessReadyExecutions claims due executions and advances each of them.
// A failing execution is marked failed and never stops the rest of the batch;
// only a failed claim is returned as an error.
func (e *Engine) ProcessReadyExecutions(ctx context.Context) (ProcessReport, error) {
	ctx, span := otelhelper.StartSpan(ctx, e.tracer, "engine.process_ready_executions",
		attribute.String(otelhelper.WorkerIDKey, e.config.WorkerID),
	)
	defer span.End()

	var report ProcessReport

	claimed, err := e.executions.ClaimDueExecutions(ctx, e.config.WorkerID, e.now(), e.config.LeaseDuration, e.config.BatchSize)
	if err != nil {
		otelhelper.SetError(span, err)

		return report, fmt.Errorf("failed to claim due executions: %w", err)
	}

	report.Claimed = len(claimed)

	for _, execution := range claimed {
		if ctx.Err() != nil {
			e.logger.WarnContext(ctx, "Processing interrupted, remaining claims will expire",
				slog.Int("remaining", report.Claimed-report.Advanced-report.Failed-report.LeaseLost-report.Interrupted))

			break
		}

		err := e.runClaimed(ctx, execution, e.config.MaxStepsPerTick)

		switch {
		case err == nil:
			report.Advanced++
		case errors.Is(err, errInterrupted):
			report.Interrupted++
		case errors.Is(err, persistence.ErrLeaseLost):
			report.LeaseLost++

			executionLogger(e.logger, execution).WarnContext(ctx, "Lease lost before write, dropping result")
		default:
			report.Failed++
		}
	}

	span.SetAttributes(
		attribute.Int("journeys.claimed", report.Claimed),
		attribute.Int("journeys.failed", report.Failed),
	)

	if report.Claimed > 0 {
		e.logger.InfoContext(ctx, "Processed ready executions",
			slog.Int("claimed", report.Claimed),
			slog.Int("advanced", report.Advanced),
			slog.Int("failed", report.Failed),
			slog.Int("lease_lost", report.LeaseLost),
		)
	}

	return report, nil
}
