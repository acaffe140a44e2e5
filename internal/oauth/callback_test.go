package oauth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/publora/publora/pkg/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleCallback_Success(t *testing.T) {
	f := newHandshakeFixture()
	expiresAt := time.Now().Add(2 * time.Hour)
	f.registerAdapter(domain.ProviderType_X, &stubAdapter{
		usesPKCE: true,
		token: domain.TokenResult{
			AccessToken:  "access-token",
			RefreshToken: "refresh-token",
			ExpiresAt:    &expiresAt,
			Scope:        "tweet.read tweet.write",
		},
		identity: domain.AccountIdentity{
			ExternalAccountID: "ext-123",
			DisplayName:       "Jordan",
			Handle:            "jordan",
		},
	})
	f.savedState("state-1", nil)

	termination := f.callbackService().HandleCallback(context.Background(), CallbackParams{
		Provider: domain.ProviderType_X,
		Code:     "auth-code",
		State:    "state-1",
	})

	assert.Equal(t, TerminationKind_Redirect, termination.Kind)
	assert.Equal(t, "/connections?connected=x", termination.Location)

	accounts, err := f.accountRepo.ListByTeam(context.Background(), "team-1")
	require.NoError(t, err)
	require.Len(t, accounts, 1)

	account := accounts[0]
	assert.Equal(t, domain.ProviderType_X, account.Provider)
	assert.Equal(t, "ext-123", account.ExternalAccountID)
	assert.Equal(t, "access-token", account.AccessToken)
	assert.Equal(t, domain.ConnectionMode_RealOAuth, account.ConnectionMode)
	assert.Equal(t, domain.ConnectionStatus_Connected, account.ConnectionStatus)
	require.NotNil(t, account.TokenExpiresAt)
}

func TestHandleCallback_ReplayedStateFailsClosed(t *testing.T) {
	f := newHandshakeFixture()
	f.registerAdapter(domain.ProviderType_X, &stubAdapter{
		usesPKCE: true,
		token:    domain.TokenResult{AccessToken: "access-token"},
	})
	f.savedState("state-1", nil)

	params := CallbackParams{Provider: domain.ProviderType_X, Code: "auth-code", State: "state-1"}
	service := f.callbackService()

	first := service.HandleCallback(context.Background(), params)
	assert.Equal(t, "/connections?connected=x", first.Location)

	// The state row was deleted on consumption; replaying the same
	// {code, state} pair must not mint a second account.
	second := service.HandleCallback(context.Background(), params)
	assert.Equal(t, TerminationKind_Redirect, second.Kind)
	assert.Equal(t, "/connections?error=invalid_state", second.Location)

	accounts, err := f.accountRepo.ListByTeam(context.Background(), "team-1")
	require.NoError(t, err)
	assert.Len(t, accounts, 1)
}

func TestHandleCallback_FailureBranches(t *testing.T) {
	tests := []struct {
		name         string
		setup        func(f *handshakeFixture)
		params       CallbackParams
		wantLocation string
	}{
		{
			name:         "unknown state token",
			setup:        func(f *handshakeFixture) {},
			params:       CallbackParams{Provider: domain.ProviderType_X, Code: "auth-code", State: "missing"},
			wantLocation: "/connections?error=invalid_state",
		},
		{
			name: "expired state",
			setup: func(f *handshakeFixture) {
				f.savedState("state-1", func(s *domain.AuthorizationState) {
					s.ExpiresAt = time.Now().Add(-time.Minute)
					s.ReturnPath = "/settings"
				})
			},
			params:       CallbackParams{Provider: domain.ProviderType_X, Code: "auth-code", State: "state-1"},
			wantLocation: "/settings?error=state_expired",
		},
		{
			name: "missing authorization code",
			setup: func(f *handshakeFixture) {
				f.savedState("state-1", nil)
			},
			params:       CallbackParams{Provider: domain.ProviderType_X, State: "state-1"},
			wantLocation: "/connections?error=missing_params",
		},
		{
			name: "no adapter registered",
			setup: func(f *handshakeFixture) {
				f.savedState("state-1", nil)
			},
			params:       CallbackParams{Provider: domain.ProviderType_X, Code: "auth-code", State: "state-1"},
			wantLocation: "/connections?error=not_configured",
		},
		{
			name: "token exchange error",
			setup: func(f *handshakeFixture) {
				f.registerAdapter(domain.ProviderType_X, &stubAdapter{exchangeErr: errors.New("boom")})
				f.savedState("state-1", nil)
			},
			params:       CallbackParams{Provider: domain.ProviderType_X, Code: "auth-code", State: "state-1"},
			wantLocation: "/connections?error=token_exchange_failed",
		},
		{
			name: "exchange returned empty access token",
			setup: func(f *handshakeFixture) {
				f.registerAdapter(domain.ProviderType_X, &stubAdapter{})
				f.savedState("state-1", nil)
			},
			params:       CallbackParams{Provider: domain.ProviderType_X, Code: "auth-code", State: "state-1"},
			wantLocation: "/connections?error=token_exchange_failed",
		},
		{
			name: "provider denied authorization",
			setup: func(f *handshakeFixture) {
				f.savedState("state-1", func(s *domain.AuthorizationState) {
					s.ReturnPath = "/connections?tab=social"
				})
			},
			params: CallbackParams{
				Provider:      domain.ProviderType_X,
				State:         "state-1",
				ProviderError: "access_denied",
			},
			wantLocation: "/connections?tab=social&error=access_denied",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newHandshakeFixture()
			tt.setup(f)

			termination := f.callbackService().HandleCallback(context.Background(), tt.params)

			assert.Equal(t, TerminationKind_Redirect, termination.Kind)
			assert.Equal(t, tt.wantLocation, termination.Location)

			accounts, err := f.accountRepo.ListByTeam(context.Background(), "team-1")
			require.NoError(t, err)
			assert.Empty(t, accounts, "no failure branch may create an account")
		})
	}
}

func TestHandleCallback_IdentityFetchIsBestEffort(t *testing.T) {
	f := newHandshakeFixture()
	f.registerAdapter(domain.ProviderType_X, &stubAdapter{
		token:       domain.TokenResult{AccessToken: "access-token"},
		identityErr: errors.New("profile endpoint down"),
	})
	f.savedState("state-1", nil)

	termination := f.callbackService().HandleCallback(context.Background(), CallbackParams{
		Provider: domain.ProviderType_X,
		Code:     "auth-code",
		State:    "state-1",
	})

	assert.Equal(t, "/connections?connected=x", termination.Location)

	accounts, err := f.accountRepo.ListByTeam(context.Background(), "team-1")
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Empty(t, accounts[0].DisplayName)
	assert.Equal(t, "access-token", accounts[0].AccessToken)
}

func TestHandleCallback_PopupModeTerminatesWithMessageDocument(t *testing.T) {
	f := newHandshakeFixture()
	f.registerAdapter(domain.ProviderType_X, &stubAdapter{
		token: domain.TokenResult{AccessToken: "access-token"},
	})
	f.savedState("state-1", func(s *domain.AuthorizationState) {
		s.DeliveryMode = domain.DeliveryMode_Popup
		s.ReturnPath = "/connections"
	})

	termination := f.callbackService().HandleCallback(context.Background(), CallbackParams{
		Provider: domain.ProviderType_X,
		Code:     "auth-code",
		State:    "state-1",
	})

	require.Equal(t, TerminationKind_HTML, termination.Kind)
	assert.Empty(t, termination.Location)
	assert.Contains(t, termination.HTML, OAuthResultMessageType)
	assert.Contains(t, termination.HTML, `"status":"success"`)
	assert.Contains(t, termination.HTML, `"provider":"x"`)
	assert.Contains(t, termination.HTML, `"https://app.example.com"`)
	assert.Contains(t, termination.HTML, "window.opener.postMessage")
}

func TestHandleCallback_PopupModeFailureAlsoUsesMessageDocument(t *testing.T) {
	f := newHandshakeFixture()
	f.savedState("state-1", func(s *domain.AuthorizationState) {
		s.DeliveryMode = domain.DeliveryMode_Popup
	})

	termination := f.callbackService().HandleCallback(context.Background(), CallbackParams{
		Provider: domain.ProviderType_X,
		State:    "state-1",
	})

	require.Equal(t, TerminationKind_HTML, termination.Kind)
	assert.Contains(t, termination.HTML, `"status":"error"`)
	assert.Contains(t, termination.HTML, `"error":"missing_params"`)
}
