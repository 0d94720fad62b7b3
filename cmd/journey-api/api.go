package main

import (
	"log/slog"
	"strconv"

	"github.com/dukex/journeys/pkg/cmd"
	"github.com/dukex/journeys/pkg/web"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"
)

type API struct {
	logger  *slog.Logger
	runtime *cmd.Runtime
}

func NewAPI(logger *slog.Logger, runtime *cmd.Runtime) *API {
	return &API{logger: logger, runtime: runtime}
}

func (a *API) App() *fiber.App {
	handlers := web.NewAPIHandlers(
		a.runtime.Engine,
		a.runtime.Persistence,
		a.runtime.Registry,
		validator.New(validator.WithRequiredStructEnabled()),
		a.logger,
	)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Journeys API")
	})

	handlers.Register(app)

	return app
}

func (a *API) Start(port int) error {
	return a.App().Listen(":" + strconv.Itoa(port))
}
