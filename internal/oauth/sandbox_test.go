package oauth

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/publora/publora/pkg/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompleteSandboxConnection_FabricatesLocalAccount(t *testing.T) {
	f := newHandshakeFixture()
	f.savedState("state-1", func(s *domain.AuthorizationState) {
		s.Provider = domain.ProviderType_Demo
	})

	service := NewSandboxConnectionService(SandboxConnectionServiceDependencies{
		StateStore:  f.stateStore,
		AccountRepo: f.accountRepo,
	})

	account, err := service.CompleteSandboxConnection(context.Background(), "state-1")
	require.NoError(t, err)

	assert.Equal(t, domain.ConnectionMode_LocalSandbox, account.ConnectionMode)
	assert.Equal(t, domain.ConnectionStatus_Connected, account.ConnectionStatus)
	assert.Equal(t, domain.ProviderType_Demo, account.Provider)
	assert.Equal(t, "team-1", account.TeamID)
	assert.Equal(t, "Demo Demo Account", account.DisplayName)
	assert.True(t, strings.HasPrefix(account.Handle, "demo_"))
	assert.NotEmpty(t, account.ExternalAccountID)

	stored, err := f.accountRepo.GetByID(context.Background(), account.ID)
	require.NoError(t, err)
	assert.Equal(t, account.ID, stored.ID)
}

func TestCompleteSandboxConnection_StateTokenIsSingleUse(t *testing.T) {
	f := newHandshakeFixture()
	f.savedState("state-1", func(s *domain.AuthorizationState) {
		s.Provider = domain.ProviderType_Demo
	})

	service := NewSandboxConnectionService(SandboxConnectionServiceDependencies{
		StateStore:  f.stateStore,
		AccountRepo: f.accountRepo,
	})

	_, err := service.CompleteSandboxConnection(context.Background(), "state-1")
	require.NoError(t, err)

	_, err = service.CompleteSandboxConnection(context.Background(), "state-1")
	require.Error(t, err)

	var flowErr *domain.FlowError
	require.True(t, errors.As(err, &flowErr))
	assert.Equal(t, domain.ErrorCode_InvalidState, flowErr.Code)

	accounts, err := f.accountRepo.ListByTeam(context.Background(), "team-1")
	require.NoError(t, err)
	assert.Len(t, accounts, 1)
}

func TestCompleteSandboxConnection_ExpiredState(t *testing.T) {
	f := newHandshakeFixture()
	f.savedState("state-1", func(s *domain.AuthorizationState) {
		s.Provider = domain.ProviderType_Demo
		s.ExpiresAt = time.Now().Add(-time.Minute)
	})

	service := NewSandboxConnectionService(SandboxConnectionServiceDependencies{
		StateStore:  f.stateStore,
		AccountRepo: f.accountRepo,
	})

	_, err := service.CompleteSandboxConnection(context.Background(), "state-1")
	require.Error(t, err)

	var flowErr *domain.FlowError
	require.True(t, errors.As(err, &flowErr))
	assert.Equal(t, domain.ErrorCode_StateExpired, flowErr.Code)

	accounts, err := f.accountRepo.ListByTeam(context.Background(), "team-1")
	require.NoError(t, err)
	assert.Empty(t, accounts)
}
