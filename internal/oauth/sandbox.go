package oauth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/publora/publora/pkg/domain"

	"github.com/google/uuid"
	"github.com/rs/xid"
	"github.com/rs/zerolog/log"
)

// SandboxCompletePath is the same-origin endpoint that short-circuits the
// provider flow in local/dev deployments. Fetching it fabricates a connected
// account without any provider network call.
const SandboxCompletePath = "/oauth/sandbox/complete"

type SandboxConnectionServiceDependencies struct {
	StateStore  domain.AuthorizationStateStore
	AccountRepo domain.ConnectedAccountRepository
}

type SandboxConnectionService struct {
	stateStore  domain.AuthorizationStateStore
	accountRepo domain.ConnectedAccountRepository
}

func NewSandboxConnectionService(deps SandboxConnectionServiceDependencies) *SandboxConnectionService {
	return &SandboxConnectionService{
		stateStore:  deps.StateStore,
		accountRepo: deps.AccountRepo,
	}
}

// CompleteSandboxConnection consumes the pending state and fabricates a
// connected account with connectionMode=local_sandbox. The state token is
// single-use here exactly as in the real callback.
func (s *SandboxConnectionService) CompleteSandboxConnection(ctx context.Context, stateToken string) (domain.ConnectedAccount, error) {
	state, err := s.stateStore.Consume(ctx, stateToken)
	if err != nil {
		if errors.Is(err, domain.ErrStateNotFound) {
			return domain.ConnectedAccount{}, domain.NewFlowError(domain.ErrorCode_InvalidState, "unknown or already used state token")
		}
		return domain.ConnectedAccount{}, fmt.Errorf("consume authorization state: %w", err)
	}

	if state.Expired(time.Now()) {
		return domain.ConnectedAccount{}, domain.NewFlowError(domain.ErrorCode_StateExpired, "authorization attempt expired")
	}

	externalID := uuid.NewString()
	providerName := string(state.Provider)

	account := domain.ConnectedAccount{
		ID:                xid.New().String(),
		TeamID:            state.TeamID,
		UserID:            state.UserID,
		Provider:          state.Provider,
		ExternalAccountID: externalID,
		DisplayName:       fmt.Sprintf("Demo %s Account", strings.ToUpper(providerName[:1])+providerName[1:]),
		Handle:            "demo_" + externalID[:8],
		AccessToken:       "sandbox-token-" + xid.New().String(),
		ConnectionMode:    domain.ConnectionMode_LocalSandbox,
		ConnectionStatus:  domain.ConnectionStatus_Connected,
		CreatedAt:         time.Now(),
	}

	if err := s.accountRepo.Create(ctx, account); err != nil {
		return domain.ConnectedAccount{}, domain.NewFlowError(domain.ErrorCode_StorageFailed, "could not save the connected account")
	}

	log.Info().
		Str("provider", providerName).
		Str("team_id", state.TeamID).
		Str("account_id", account.ID).
		Msg("Fabricated sandbox account")

	return account, nil
}
