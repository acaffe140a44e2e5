package controllers

import (
	"errors"

	"github.com/publora/publora/internal/middlewares"
	"github.com/publora/publora/internal/oauth"
	"github.com/publora/publora/pkg/domain"

	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog/log"
)

type ConnectionControllerDependencies struct {
	InitiationService *oauth.ConnectionInitiationService
	CallbackService   *oauth.ConnectionCallbackService
	SandboxService    *oauth.SandboxConnectionService
	AccountRepo       domain.ConnectedAccountRepository
	TeamRepo          domain.TeamRepository
}

// ConnectionController exposes the OAuth handshake over HTTP: initiation for
// the UI, the provider-invoked callback, and the sandbox short-circuit.
type ConnectionController struct {
	initiationService *oauth.ConnectionInitiationService
	callbackService   *oauth.ConnectionCallbackService
	sandboxService    *oauth.SandboxConnectionService
	accountRepo       domain.ConnectedAccountRepository
	teamRepo          domain.TeamRepository
}

func NewConnectionController(deps ConnectionControllerDependencies) *ConnectionController {
	return &ConnectionController{
		initiationService: deps.InitiationService,
		callbackService:   deps.CallbackService,
		sandboxService:    deps.SandboxService,
		accountRepo:       deps.AccountRepo,
		teamRepo:          deps.TeamRepo,
	}
}

type initiateConnectionRequest struct {
	Provider     string `json:"provider"`
	TeamID       string `json:"team_id"`
	TeamSlug     string `json:"team_slug"`
	ReturnPath   string `json:"return_path"`
	DeliveryMode string `json:"delivery_mode"`
}

type initiateConnectionResponse struct {
	AuthorizationURL string `json:"authorization_url"`
	Sandbox          bool   `json:"sandbox"`
}

// InitiateConnection builds the provider authorization URL for the caller.
func (ctrl *ConnectionController) InitiateConnection(c fiber.Ctx) error {
	var req initiateConnectionRequest

	if err := c.Bind().Body(&req); err != nil {
		return writeErrorCode(c, domain.ErrorCode_MissingParams, "invalid request body")
	}

	result, err := ctrl.initiationService.InitiateConnection(c.RequestCtx(), oauth.InitiateConnectionParams{
		UserID:       middlewares.UserIDFromContext(c),
		Provider:     domain.ProviderType(req.Provider),
		TeamID:       req.TeamID,
		TeamSlug:     req.TeamSlug,
		ReturnPath:   req.ReturnPath,
		DeliveryMode: domain.DeliveryMode(req.DeliveryMode),
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(initiateConnectionResponse{
		AuthorizationURL: result.AuthorizationURL,
		Sandbox:          result.Sandbox,
	})
}

// HandleCallback receives the provider redirect. The response shape depends
// on the delivery mode recorded at initiation: a redirect back to the app,
// or an HTML document that messages the opener window.
func (ctrl *ConnectionController) HandleCallback(c fiber.Ctx) error {
	termination := ctrl.callbackService.HandleCallback(c.RequestCtx(), oauth.CallbackParams{
		Provider:         domain.ProviderType(c.Params("provider")),
		Code:             c.Query("code"),
		State:            c.Query("state"),
		ProviderError:    c.Query("error"),
		ErrorDescription: c.Query("error_description"),
	})

	return writeTermination(c, termination)
}

// CompleteSandboxConnection fabricates a sandbox account for the pending
// state token and returns it as JSON; the client orchestrator fetches this
// directly instead of opening a window.
func (ctrl *ConnectionController) CompleteSandboxConnection(c fiber.Ctx) error {
	account, err := ctrl.sandboxService.CompleteSandboxConnection(c.RequestCtx(), c.Query("state"))
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(fiber.Map{"account": account})
}

// ListTeamAccounts returns the team's connected accounts for the UI.
func (ctrl *ConnectionController) ListTeamAccounts(c fiber.Ctx) error {
	teamID := c.Params("teamID")

	team, err := ctrl.teamRepo.GetByID(c.RequestCtx(), teamID)
	if err != nil {
		return writeErrorCode(c, domain.ErrorCode_NotFound, "team not found")
	}

	if _, ok := team.RoleOf(middlewares.UserIDFromContext(c)); !ok {
		return writeErrorCode(c, domain.ErrorCode_Forbidden, "not a member of this team")
	}

	accounts, err := ctrl.accountRepo.ListByTeam(c.RequestCtx(), teamID)
	if err != nil {
		log.Error().Err(err).Str("team_id", teamID).Msg("Failed to list connected accounts")
		return writeErrorCode(c, domain.ErrorCode_StorageFailed, "could not load connected accounts")
	}

	return c.JSON(fiber.Map{"accounts": accounts})
}

// DisconnectAccount deletes a connected account.
func (ctrl *ConnectionController) DisconnectAccount(c fiber.Ctx) error {
	accountID := c.Params("accountID")

	account, err := ctrl.accountRepo.GetByID(c.RequestCtx(), accountID)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return writeErrorCode(c, domain.ErrorCode_NotFound, "account not found")
		}
		return writeErrorCode(c, domain.ErrorCode_StorageFailed, "could not load the account")
	}

	team, err := ctrl.teamRepo.GetByID(c.RequestCtx(), account.TeamID)
	if err != nil {
		return writeErrorCode(c, domain.ErrorCode_StorageFailed, "could not load the account's team")
	}

	role, ok := team.RoleOf(middlewares.UserIDFromContext(c))
	if !ok || !role.CanPublish() {
		return writeErrorCode(c, domain.ErrorCode_Forbidden, "disconnecting requires an owner, admin or editor role")
	}

	if err := ctrl.accountRepo.Delete(c.RequestCtx(), accountID); err != nil {
		return writeErrorCode(c, domain.ErrorCode_StorageFailed, "could not disconnect the account")
	}

	return c.JSON(fiber.Map{"disconnected": accountID})
}

func writeTermination(c fiber.Ctx, termination oauth.Termination) error {
	if termination.Kind == oauth.TerminationKind_HTML {
		c.Type("html")
		return c.SendString(termination.HTML)
	}

	return c.Redirect().Status(fiber.StatusFound).To(termination.Location)
}
