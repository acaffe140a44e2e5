package controllers

import (
	"github.com/publora/publora/internal/middlewares"
	"github.com/publora/publora/internal/publish"
	"github.com/publora/publora/pkg/domain"

	"github.com/gofiber/fiber/v3"
)

type PublishControllerDependencies struct {
	Orchestrator *publish.PublishOrchestrator
}

type PublishController struct {
	orchestrator *publish.PublishOrchestrator
}

func NewPublishController(deps PublishControllerDependencies) *PublishController {
	return &PublishController{orchestrator: deps.Orchestrator}
}

type publishRequest struct {
	TargetProviders []string `json:"target_providers"`
}

// PublishContent fans the content out to the requested providers and returns
// per-attempt results with a summary. Partial success returns 200; the
// summary counts let the UI distinguish full, partial and zero success.
func (ctrl *PublishController) PublishContent(c fiber.Ctx) error {
	var req publishRequest

	if err := c.Bind().Body(&req); err != nil {
		return writeErrorCode(c, domain.ErrorCode_MissingParams, "invalid request body")
	}

	outcome, err := ctrl.orchestrator.Publish(c.RequestCtx(), publish.PublishParams{
		UserID:          middlewares.UserIDFromContext(c),
		ContentID:       c.Params("contentID"),
		TargetProviders: req.TargetProviders,
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(outcome)
}
