package server

import (
	"context"
	"time"

	"github.com/publora/publora/internal/controllers"
	"github.com/publora/publora/internal/middlewares"
	"github.com/publora/publora/internal/oauth"
	"github.com/publora/publora/internal/version"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/logger"
)

type HTTPServerDependencies struct {
	JWTSecret            string
	ConnectionController *controllers.ConnectionController
	PublishController    *controllers.PublishController
	TelemetryController  *controllers.TelemetryController
	TeamController       *controllers.TeamController
}

func NewHTTPServer(ctx context.Context, deps HTTPServerDependencies) *fiber.App {
	router := fiber.New(fiber.Config{
		AppName: "publora",
	})

	router.Use(cors.New())
	router.Use(logger.New())

	router.Get("/health", func(c fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status":    "healthy",
			"service":   "publora",
			"version":   version.GetVersion(),
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	})

	// Provider-invoked endpoints carry no session; the state token is the
	// only credential that binds them to the original request.
	router.Get("/oauth/callback/:provider", deps.ConnectionController.HandleCallback)
	router.Get(oauth.SandboxCompletePath, deps.ConnectionController.CompleteSandboxConnection)

	api := router.Group("/api/v1")
	api.Use(middlewares.AuthMiddleware(deps.JWTSecret))

	api.Post("/teams", deps.TeamController.CreateTeam)
	api.Post("/connections/initiate", deps.ConnectionController.InitiateConnection)
	api.Get("/teams/:teamID/accounts", deps.ConnectionController.ListTeamAccounts)
	api.Delete("/accounts/:accountID", deps.ConnectionController.DisconnectAccount)
	api.Post("/contents/:contentID/publish", deps.PublishController.PublishContent)
	api.Post("/telemetry/events", deps.TelemetryController.RecordEvent)

	return router
}
