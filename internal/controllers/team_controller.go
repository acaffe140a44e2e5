package controllers

import (
	"github.com/publora/publora/internal/managers"
	"github.com/publora/publora/internal/middlewares"
	"github.com/publora/publora/pkg/domain"

	"github.com/gofiber/fiber/v3"
)

type TeamControllerDependencies struct {
	TeamManager *managers.TeamManager
}

// TeamController exposes team creation. Every other operation requires a
// team, so this is the first call a fresh account makes.
type TeamController struct {
	teamManager *managers.TeamManager
}

func NewTeamController(deps TeamControllerDependencies) *TeamController {
	return &TeamController{teamManager: deps.TeamManager}
}

type createTeamRequest struct {
	Name string `json:"name"`
}

// CreateTeam creates a team owned by the authenticated caller.
func (ctrl *TeamController) CreateTeam(c fiber.Ctx) error {
	var req createTeamRequest

	if err := c.Bind().Body(&req); err != nil {
		return writeErrorCode(c, domain.ErrorCode_MissingParams, "invalid request body")
	}

	team, err := ctrl.teamManager.CreateTeam(c.RequestCtx(), managers.CreateTeamParams{
		Name:    req.Name,
		OwnerID: middlewares.UserIDFromContext(c),
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"team": team})
}
