package controllers

import (
	"time"

	"github.com/publora/publora/internal/middlewares"
	"github.com/publora/publora/pkg/domain"

	"github.com/gofiber/fiber/v3"
)

type TelemetryControllerDependencies struct {
	EventPublisher domain.EventPublisher
}

type TelemetryController struct {
	eventPublisher domain.EventPublisher
}

func NewTelemetryController(deps TelemetryControllerDependencies) *TelemetryController {
	return &TelemetryController{eventPublisher: deps.EventPublisher}
}

type telemetryEventRequest struct {
	Type       string         `json:"type"`
	TeamID     string         `json:"team_id"`
	Provider   string         `json:"provider"`
	Properties map[string]any `json:"properties"`
}

// RecordEvent accepts a client telemetry event. The response is always 202;
// a dropped event must never surface as a client error.
func (ctrl *TelemetryController) RecordEvent(c fiber.Ctx) error {
	var req telemetryEventRequest

	if err := c.Bind().Body(&req); err != nil {
		return c.SendStatus(fiber.StatusAccepted)
	}

	_ = ctrl.eventPublisher.PublishEvent(c.RequestCtx(), domain.Event{
		Type:       domain.EventType(req.Type),
		TeamID:     req.TeamID,
		UserID:     middlewares.UserIDFromContext(c),
		Provider:   domain.ProviderType(req.Provider),
		Properties: req.Properties,
		OccurredAt: time.Now(),
	})

	return c.SendStatus(fiber.StatusAccepted)
}
