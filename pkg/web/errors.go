package web

import (
	"errors"

	"github.com/dukex/journeys/pkg/engine"
	"github.com/dukex/journeys/pkg/journeydoc"
	"github.com/dukex/journeys/pkg/models"
	"github.com/dukex/journeys/pkg/persistence"
	"github.com/dukex/journeys/pkg/protocol"
	"github.com/gofiber/fiber/v3"
	"github.com/moogar0880/problems"
)

func problem(c fiber.Ctx, status int, kind, detail string) error {
	p := problems.NewStatusProblem(status).
		WithInstance(c.Path()).
		WithType(kind).
		WithDetail(detail)

	return c.Status(status).JSON(p)
}

func badRequest(c fiber.Ctx, detail string) error {
	return problem(c, fiber.StatusBadRequest, "validation_error", detail)
}

func internalError(c fiber.Ctx, err error) error {
	p := problems.NewStatusProblem(fiber.StatusInternalServerError).
		WithInstance(c.Path()).
		WithType("internal_error").
		WithError(err)

	return c.Status(fiber.StatusInternalServerError).JSON(p)
}

// handleError maps engine and persistence errors to problem responses.
func handleError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, persistence.ErrJourneyNotFound):
		return problem(c, fiber.StatusNotFound, "journey_not_found", "journey not found")
	case errors.Is(err, persistence.ErrExecutionNotFound):
		return problem(c, fiber.StatusNotFound, "execution_not_found", "execution not found")
	case errors.Is(err, protocol.ErrContactNotFound):
		return problem(c, fiber.StatusNotFound, "contact_not_found", "contact not found")
	case errors.Is(err, engine.ErrDuplicateExecution):
		return problem(c, fiber.StatusConflict, "duplicate_execution", err.Error())
	case errors.Is(err, engine.ErrExecutionBusy):
		return problem(c, fiber.StatusConflict, "execution_busy", err.Error())
	case errors.Is(err, engine.ErrInvalidTransition):
		return problem(c, fiber.StatusConflict, "invalid_transition", err.Error())
	case errors.Is(err, engine.ErrJourneyNotExecutable), errors.Is(err, engine.ErrNoEntryStep):
		return problem(c, fiber.StatusUnprocessableEntity, "journey_not_executable", err.Error())
	case errors.Is(err, models.ErrInvalidJourney), errors.Is(err, models.ErrInvalidStep),
		errors.Is(err, journeydoc.ErrInvalidDocument):
		return badRequest(c, err.Error())
	default:
		return internalError(c, err)
	}
}
