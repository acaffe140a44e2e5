package oauth

import (
	"context"
	"errors"
	"time"

	"github.com/publora/publora/pkg/domain"

	"github.com/rs/xid"
	"github.com/rs/zerolog/log"
)

type ConnectionCallbackServiceDependencies struct {
	StateStore      domain.AuthorizationStateStore
	AccountRepo     domain.ConnectedAccountRepository
	AdapterSelector domain.AdapterSelector
	AppOrigin       string
}

// ConnectionCallbackService consumes the provider redirect, exchanges the
// authorization code and persists the connected account. Every branch,
// success or failure, terminates through the completion channel matching the
// original delivery mode.
type ConnectionCallbackService struct {
	stateStore      domain.AuthorizationStateStore
	accountRepo     domain.ConnectedAccountRepository
	adapterSelector domain.AdapterSelector
	appOrigin       string
}

func NewConnectionCallbackService(deps ConnectionCallbackServiceDependencies) *ConnectionCallbackService {
	return &ConnectionCallbackService{
		stateStore:      deps.StateStore,
		accountRepo:     deps.AccountRepo,
		adapterSelector: deps.AdapterSelector,
		appOrigin:       deps.AppOrigin,
	}
}

type CallbackParams struct {
	Provider         domain.ProviderType
	Code             string
	State            string
	ProviderError    string
	ErrorDescription string
}

// HandleCallback always returns a Termination; handshake failures surface in
// the termination payload rather than as an error.
func (s *ConnectionCallbackService) HandleCallback(ctx context.Context, p CallbackParams) Termination {
	// Consume deletes the row before any further work so a replayed callback
	// with the same state token fails closed instead of minting a second
	// account.
	state, consumeErr := s.stateStore.Consume(ctx, p.State)

	deliveryMode := domain.DeliveryMode_Redirect
	returnPath := DefaultReturnPath
	if consumeErr == nil {
		deliveryMode = state.DeliveryMode
		returnPath = state.ReturnPath
	}

	if p.ProviderError != "" {
		log.Warn().
			Str("provider", string(p.Provider)).
			Str("provider_error", p.ProviderError).
			Str("description", p.ErrorDescription).
			Msg("Provider returned an authorization error")

		return s.terminate(deliveryMode, CompletionResult{
			Status:     CompletionStatus_Error,
			Provider:   p.Provider,
			Error:      p.ProviderError,
			ReturnPath: returnPath,
		})
	}

	if consumeErr != nil {
		if !errors.Is(consumeErr, domain.ErrStateNotFound) {
			log.Error().Err(consumeErr).Msg("Failed to load authorization state")
		}

		return s.terminateError(deliveryMode, p.Provider, domain.ErrorCode_InvalidState, returnPath)
	}

	if state.Expired(time.Now()) {
		return s.terminateError(deliveryMode, state.Provider, domain.ErrorCode_StateExpired, returnPath)
	}

	if p.Code == "" {
		return s.terminateError(deliveryMode, state.Provider, domain.ErrorCode_MissingParams, returnPath)
	}

	adapter, err := s.adapterSelector.SelectAdapter(ctx, domain.SelectAdapterParams{Provider: state.Provider})
	if err != nil {
		return s.terminateError(deliveryMode, state.Provider, domain.ErrorCode_NotConfigured, returnPath)
	}

	tokens, err := adapter.ExchangeAuthorizationCode(ctx, p.Code, state.CodeVerifier)
	if err != nil || tokens.AccessToken == "" {
		if err != nil {
			log.Warn().Err(err).Str("provider", string(state.Provider)).Msg("Token exchange failed")
		}

		return s.terminateError(deliveryMode, state.Provider, domain.ErrorCode_TokenExchangeFailed, returnPath)
	}

	// Identity is best effort: adapters return blank fields instead of
	// failing when the profile endpoint is unreachable.
	identity, err := adapter.FetchAccountIdentity(ctx, tokens.AccessToken)
	if err != nil {
		log.Warn().Err(err).Str("provider", string(state.Provider)).Msg("Account identity fetch failed")
		identity = domain.AccountIdentity{}
	}

	account := domain.ConnectedAccount{
		ID:                xid.New().String(),
		TeamID:            state.TeamID,
		UserID:            state.UserID,
		Provider:          state.Provider,
		ExternalAccountID: identity.ExternalAccountID,
		DisplayName:       identity.DisplayName,
		Handle:            identity.Handle,
		AccessToken:       tokens.AccessToken,
		RefreshToken:      tokens.RefreshToken,
		TokenExpiresAt:    tokens.ExpiresAt,
		Scope:             tokens.Scope,
		ConnectionMode:    domain.ConnectionMode_RealOAuth,
		ConnectionStatus:  domain.ConnectionStatus_Connected,
		CreatedAt:         time.Now(),
	}

	if err := s.accountRepo.Create(ctx, account); err != nil {
		log.Error().Err(err).Str("provider", string(state.Provider)).Msg("Failed to persist connected account")

		return s.terminateError(deliveryMode, state.Provider, domain.ErrorCode_StorageFailed, returnPath)
	}

	log.Info().
		Str("provider", string(state.Provider)).
		Str("team_id", state.TeamID).
		Str("account_id", account.ID).
		Msg("Connected provider account")

	return s.terminate(deliveryMode, CompletionResult{
		Status:     CompletionStatus_Success,
		Provider:   state.Provider,
		ReturnPath: returnPath,
	})
}

func (s *ConnectionCallbackService) terminateError(mode domain.DeliveryMode, provider domain.ProviderType, code domain.ErrorCode, returnPath string) Termination {
	return s.terminate(mode, CompletionResult{
		Status:     CompletionStatus_Error,
		Provider:   provider,
		Error:      string(code),
		ReturnPath: returnPath,
	})
}

func (s *ConnectionCallbackService) terminate(mode domain.DeliveryMode, result CompletionResult) Termination {
	var channel CompletionChannel = RedirectChannel{}
	if mode == domain.DeliveryMode_Popup {
		channel = MessageChannel{AppOrigin: s.appOrigin}
	}

	return channel.Terminate(result)
}
