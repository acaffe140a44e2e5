package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/publora/publora/internal/server"

	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func NewServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long:  `Start the HTTP API server serving the connection and publish endpoints.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}

	return cmd
}

func runServe() error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	config, err := LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	deps, err := BuildDependencies(ctx, config)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build dependencies")
	}
	defer deps.Close(context.Background())

	if err := deps.TokenSweeper.Start(); err != nil {
		log.Fatal().Err(err).Msg("Failed to start token sweeper")
	}

	app := server.NewHTTPServer(ctx, server.HTTPServerDependencies{
		JWTSecret:            config.JWTSecret,
		ConnectionController: deps.ConnectionController,
		PublishController:    deps.PublishController,
		TelemetryController:  deps.TelemetryController,
		TeamController:       deps.TeamController,
	})

	log.Info().
		Str("address", config.HTTPAddress).
		Bool("sandbox_mode", config.SandboxMode).
		Msg("Starting API server")

	if err := app.Listen(config.HTTPAddress, fiber.ListenConfig{
		GracefulContext:       ctx,
		DisableStartupMessage: true,
	}); err != nil {
		log.Error().Err(err).Msg("HTTP server failed")
	}

	log.Info().Msg("API server stopped")
	return nil
}
