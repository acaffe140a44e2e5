package oauth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/publora/publora/pkg/domain"
	"github.com/publora/publora/pkg/providers/catalog"

	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

// DefaultReturnPath is where the browser lands after a flow whose return
// path was absent or rejected by sanitization.
const DefaultReturnPath = "/connections"

type ClientCredentials struct {
	ClientID     string
	ClientSecret string
}

func (c ClientCredentials) Configured() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

type ConnectionInitiationServiceDependencies struct {
	TeamRepo        domain.TeamRepository
	StateStore      domain.AuthorizationStateStore
	AdapterSelector domain.AdapterSelector
	Catalog         *catalog.Catalog
	Credentials     map[domain.ProviderType]ClientCredentials
	AppBaseURL      string
	SandboxMode     bool
}

// ConnectionInitiationService builds provider authorization URLs and
// persists the pending handshake state. The caller only ever sees the URL;
// the verifier and state token round-trip through the provider redirect.
type ConnectionInitiationService struct {
	teamRepo        domain.TeamRepository
	stateStore      domain.AuthorizationStateStore
	adapterSelector domain.AdapterSelector
	catalog         *catalog.Catalog
	credentials     map[domain.ProviderType]ClientCredentials
	appBaseURL      string
	sandboxMode     bool
}

func NewConnectionInitiationService(deps ConnectionInitiationServiceDependencies) *ConnectionInitiationService {
	return &ConnectionInitiationService{
		teamRepo:        deps.TeamRepo,
		stateStore:      deps.StateStore,
		adapterSelector: deps.AdapterSelector,
		catalog:         deps.Catalog,
		credentials:     deps.Credentials,
		appBaseURL:      strings.TrimSuffix(deps.AppBaseURL, "/"),
		sandboxMode:     deps.SandboxMode,
	}
}

type InitiateConnectionParams struct {
	UserID       string
	Provider     domain.ProviderType
	TeamID       string
	TeamSlug     string
	ReturnPath   string
	DeliveryMode domain.DeliveryMode
}

type InitiateConnectionResult struct {
	AuthorizationURL string
	Sandbox          bool
}

func (s *ConnectionInitiationService) InitiateConnection(ctx context.Context, p InitiateConnectionParams) (InitiateConnectionResult, error) {
	if p.Provider == "" {
		return InitiateConnectionResult{}, domain.NewFlowError(domain.ErrorCode_MissingParams, "provider is required")
	}

	team, err := s.resolveTeam(ctx, p.TeamID, p.TeamSlug)
	if err != nil {
		return InitiateConnectionResult{}, err
	}

	if _, ok := team.RoleOf(p.UserID); !ok {
		return InitiateConnectionResult{}, domain.NewFlowError(domain.ErrorCode_Forbidden, "not a member of this team")
	}

	returnPath := SanitizeReturnPath(p.ReturnPath)

	deliveryMode := p.DeliveryMode
	if deliveryMode != domain.DeliveryMode_Popup {
		deliveryMode = domain.DeliveryMode_Redirect
	}

	stateToken, err := randomToken()
	if err != nil {
		return InitiateConnectionResult{}, fmt.Errorf("generate state token: %w", err)
	}

	state := domain.AuthorizationState{
		StateToken:   stateToken,
		Provider:     p.Provider,
		TeamID:       team.ID,
		UserID:       p.UserID,
		ReturnPath:   returnPath,
		DeliveryMode: deliveryMode,
		TeamSlug:     team.Slug,
		ExpiresAt:    time.Now().Add(domain.AuthorizationStateTTL),
	}

	if s.sandboxMode {
		if err := s.stateStore.Save(ctx, state); err != nil {
			return InitiateConnectionResult{}, fmt.Errorf("persist authorization state: %w", err)
		}

		return InitiateConnectionResult{
			AuthorizationURL: s.appBaseURL + SandboxCompletePath + "?state=" + url.QueryEscape(stateToken),
			Sandbox:          true,
		}, nil
	}

	credentials := s.credentials[p.Provider]
	endpoints, known := s.catalog.Endpoints(p.Provider)
	if !credentials.Configured() || !known || endpoints.AuthURL == "" {
		return InitiateConnectionResult{}, domain.NewFlowError(domain.ErrorCode_NotConfigured,
			fmt.Sprintf("provider %s has no client credentials configured", p.Provider))
	}

	capabilities, err := s.adapterSelector.SelectCapabilities(ctx, domain.SelectAdapterParams{Provider: p.Provider})
	if err != nil {
		return InitiateConnectionResult{}, domain.NewFlowError(domain.ErrorCode_NotConfigured,
			fmt.Sprintf("provider %s is not available", p.Provider))
	}

	oauthConfig := &oauth2.Config{
		ClientID:     credentials.ClientID,
		ClientSecret: credentials.ClientSecret,
		RedirectURL:  s.redirectURL(p.Provider),
		Scopes:       endpoints.Scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:  endpoints.AuthURL,
			TokenURL: endpoints.TokenURL,
		},
	}

	var authCodeOptions []oauth2.AuthCodeOption

	if capabilities.UsesPKCE() {
		verifier := oauth2.GenerateVerifier()
		state.CodeVerifier = verifier
		authCodeOptions = append(authCodeOptions, oauth2.S256ChallengeOption(verifier))
	}

	if err := s.stateStore.Save(ctx, state); err != nil {
		return InitiateConnectionResult{}, fmt.Errorf("persist authorization state: %w", err)
	}

	log.Info().
		Str("provider", string(p.Provider)).
		Str("team_id", team.ID).
		Str("delivery_mode", string(deliveryMode)).
		Msg("Initiated provider connection")

	return InitiateConnectionResult{
		AuthorizationURL: oauthConfig.AuthCodeURL(stateToken, authCodeOptions...),
	}, nil
}

func (s *ConnectionInitiationService) resolveTeam(ctx context.Context, teamID, teamSlug string) (domain.Team, error) {
	switch {
	case teamID != "":
		team, err := s.teamRepo.GetByID(ctx, teamID)
		if err != nil {
			return domain.Team{}, domain.NewFlowError(domain.ErrorCode_MissingParams, "team not found")
		}
		return team, nil
	case teamSlug != "":
		team, err := s.teamRepo.GetBySlug(ctx, teamSlug)
		if err != nil {
			return domain.Team{}, domain.NewFlowError(domain.ErrorCode_MissingParams, "team not found")
		}
		return team, nil
	default:
		return domain.Team{}, domain.NewFlowError(domain.ErrorCode_MissingParams, "team is required")
	}
}

func (s *ConnectionInitiationService) redirectURL(provider domain.ProviderType) string {
	return s.appBaseURL + "/oauth/callback/" + string(provider)
}

// SanitizeReturnPath keeps return paths same-origin. Anything not starting
// with a single "/" falls back to the default; "//" would be interpreted by
// browsers as a protocol-relative URL and is an open redirect.
func SanitizeReturnPath(path string) string {
	if !strings.HasPrefix(path, "/") || strings.HasPrefix(path, "//") {
		return DefaultReturnPath
	}
	return path
}

func randomToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
