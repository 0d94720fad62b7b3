// Package web exposes journey definitions and executions over a REST API.
package web

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukex/journeys/pkg/engine"
	"github.com/dukex/journeys/pkg/journeydoc"
	"github.com/dukex/journeys/pkg/models"
	"github.com/dukex/journeys/pkg/persistence"
	"github.com/dukex/journeys/pkg/protocol"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

// Engine is the part of the execution engine the API drives.
type Engine interface {
	StartJourney(ctx context.Context, journeyID, contactID string) (*models.Execution, error)
	PauseExecution(ctx context.Context, executionID string) (*models.Execution, error)
	ResumeExecution(ctx context.Context, executionID string) (*models.Execution, error)
	ProcessReadyExecutions(ctx context.Context) (engine.ProcessReport, error)
}

// ActionLookup reports whether a step kind has a registered action.
type ActionLookup interface {
	Lookup(kind models.StepKind) (protocol.Action, bool)
}

type APIHandlers struct {
	engine      Engine
	persistence persistence.Persistence
	actions     ActionLookup
	validator   *validator.Validate
	logger      *slog.Logger
}

func NewAPIHandlers(
	engine Engine,
	persistence persistence.Persistence,
	actions ActionLookup,
	validator *validator.Validate,
	logger *slog.Logger,
) *APIHandlers {
	return &APIHandlers{
		engine:      engine,
		persistence: persistence,
		actions:     actions,
		validator:   validator,
		logger:      logger.With(slog.String("module", "web")),
	}
}

func (h *APIHandlers) GetJourneys(c fiber.Ctx) error {
	journeys, err := h.persistence.Journeys(c.Context())
	if err != nil {
		return handleError(c, err)
	}

	return c.JSON(journeys)
}

func (h *APIHandlers) GetJourney(c fiber.Ctx) error {
	journey, err := h.persistence.JourneyByID(c.Context(), c.Params("id"))
	if err != nil {
		return handleError(c, err)
	}

	return c.JSON(journey)
}

// SaveJourney creates or replaces the journey named by the path from a YAML
// or JSON document.
func (h *APIHandlers) SaveJourney(c fiber.Ctx) error {
	id := c.Params("id")

	journey, err := journeydoc.Decode(c.Body())
	if err != nil {
		return handleError(c, err)
	}

	if journey.ID != id {
		return badRequest(c, "journey id in body does not match the path")
	}

	existing, err := h.persistence.JourneyByID(c.Context(), id)

	switch {
	case err == nil:
		journey.CreatedAt = existing.CreatedAt
	case persistence.IsJourneyNotFound(err):
		journey.CreatedAt = time.Now().UTC()
	default:
		return handleError(c, err)
	}

	journey.UpdatedAt = time.Now().UTC()

	err = h.persistence.SaveJourney(c.Context(), journey)
	if err != nil {
		return handleError(c, err)
	}

	var unhandled []string

	for _, step := range journey.Steps {
		if _, ok := h.actions.Lookup(step.Kind); !ok {
			unhandled = append(unhandled, step.ID)
		}
	}

	if len(unhandled) > 0 {
		h.logger.WarnContext(c.Context(), "Journey has steps without a registered action",
			slog.String("journey_id", id), slog.Any("step_ids", unhandled))
	}

	return c.JSON(SaveJourneyResponse{Journey: journey, UnhandledSteps: unhandled})
}

func (h *APIHandlers) DeleteJourney(c fiber.Ctx) error {
	err := h.persistence.DeleteJourney(c.Context(), c.Params("id"))
	if err != nil {
		return handleError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// StartExecution enrolls a contact. A first step that fails is reported in
// the returned execution, not as an error status.
func (h *APIHandlers) StartExecution(c fiber.Ctx) error {
	var req StartExecutionRequest

	err := c.Bind().JSON(&req)
	if err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	err = h.validator.Struct(req)
	if err != nil {
		return badRequest(c, err.Error())
	}

	execution, err := h.engine.StartJourney(c.Context(), c.Params("id"), req.ContactID)
	if err != nil {
		return handleError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(NewExecutionResponse(execution))
}

func (h *APIHandlers) GetJourneyExecutions(c fiber.Ctx) error {
	id := c.Params("id")

	_, err := h.persistence.JourneyByID(c.Context(), id)
	if err != nil {
		return handleError(c, err)
	}

	executions, err := h.persistence.ExecutionsByJourney(c.Context(), id)
	if err != nil {
		return handleError(c, err)
	}

	status := models.ExecutionStatus(c.Query("status"))

	response := make([]ExecutionResponse, 0, len(executions))
	for _, execution := range executions {
		if status != "" && execution.Status != status {
			continue
		}

		response = append(response, NewExecutionResponse(execution))
	}

	return c.JSON(response)
}

func (h *APIHandlers) GetExecution(c fiber.Ctx) error {
	execution, err := h.persistence.ExecutionByID(c.Context(), c.Params("id"))
	if err != nil {
		return handleError(c, err)
	}

	return c.JSON(NewExecutionResponse(execution))
}

func (h *APIHandlers) PauseExecution(c fiber.Ctx) error {
	execution, err := h.engine.PauseExecution(c.Context(), c.Params("id"))
	if err != nil {
		return handleError(c, err)
	}

	return c.JSON(NewExecutionResponse(execution))
}

func (h *APIHandlers) ResumeExecution(c fiber.Ctx) error {
	execution, err := h.engine.ResumeExecution(c.Context(), c.Params("id"))
	if err != nil {
		return handleError(c, err)
	}

	return c.JSON(NewExecutionResponse(execution))
}

// ProcessExecutions runs one polling pass synchronously.
func (h *APIHandlers) ProcessExecutions(c fiber.Ctx) error {
	report, err := h.engine.ProcessReadyExecutions(c.Context())
	if err != nil {
		return handleError(c, err)
	}

	return c.JSON(report)
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	status := "healthy"
	httpStatus := http.StatusOK
	repository := "ok"

	err := h.persistence.HealthCheck(c.Context())
	if err != nil {
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable
		repository = err.Error()
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status": status,
		"checkers": fiber.Map{
			"repository": repository,
		},
		"timestamp": time.Now().UTC(),
	})
}

// Register mounts the journey routes on app.
func (h *APIHandlers) Register(app *fiber.App) {
	j := app.Group("/journeys")
	j.Get("/", h.GetJourneys)
	j.Get("/:id", h.GetJourney)
	j.Put("/:id", h.SaveJourney)
	j.Delete("/:id", h.DeleteJourney)
	j.Post("/:id/executions", h.StartExecution)
	j.Get("/:id/executions", h.GetJourneyExecutions)

	e := app.Group("/executions")
	e.Post("/process", h.ProcessExecutions)
	e.Get("/:id", h.GetExecution)
	e.Post("/:id/pause", h.PauseExecution)
	e.Post("/:id/resume", h.ResumeExecution)

	app.Get("/health", h.HealthCheck)
}
