package oauth

import (
	"context"
	"time"

	memorystore "github.com/publora/publora/internal/storage/memory"
	"github.com/publora/publora/pkg/domain"
	"github.com/publora/publora/pkg/providers/catalog"
)

// stubAdapter is a configurable provider adapter for handshake tests.
type stubAdapter struct {
	exchangeErr   error
	token         domain.TokenResult
	identity      domain.AccountIdentity
	identityErr   error
	publishResult domain.PublishResult
	usesPKCE      bool
}

func (a *stubAdapter) ExchangeAuthorizationCode(ctx context.Context, code, codeVerifier string) (domain.TokenResult, error) {
	if a.exchangeErr != nil {
		return domain.TokenResult{}, a.exchangeErr
	}
	return a.token, nil
}

func (a *stubAdapter) FetchAccountIdentity(ctx context.Context, accessToken string) (domain.AccountIdentity, error) {
	if a.identityErr != nil {
		return domain.AccountIdentity{}, a.identityErr
	}
	return a.identity, nil
}

func (a *stubAdapter) Publish(ctx context.Context, account domain.ConnectedAccount, payload domain.PublishPayload) domain.PublishResult {
	return a.publishResult
}

func (a *stubAdapter) SupportsThreads() bool { return true }

func (a *stubAdapter) MaxTextLength() int { return 280 }

func (a *stubAdapter) UsesPKCE() bool { return a.usesPKCE }

type handshakeFixture struct {
	stateStore  *memorystore.AuthorizationStateStore
	accountRepo *memorystore.ConnectedAccountRepository
	teamRepo    *memorystore.TeamRepository
	selector    domain.AdapterSelector
	catalog     *catalog.Catalog
}

func newHandshakeFixture() *handshakeFixture {
	f := &handshakeFixture{
		stateStore:  memorystore.NewAuthorizationStateStore(),
		accountRepo: memorystore.NewConnectedAccountRepository(),
		teamRepo:    memorystore.NewTeamRepository(),
		selector:    domain.NewAdapterSelector(),
	}

	f.catalog, _ = catalog.Load("")

	f.teamRepo.Create(context.Background(), domain.Team{
		ID:   "team-1",
		Slug: "acme",
		Name: "Acme",
		Members: []domain.TeamMember{
			{UserID: "user-1", Role: domain.TeamRole_Owner},
			{UserID: "user-viewer", Role: domain.TeamRole_Viewer},
		},
	})

	return f
}

func (f *handshakeFixture) registerAdapter(provider domain.ProviderType, adapter *stubAdapter) {
	f.selector.RegisterAdapter(provider, adapter)
	f.selector.RegisterCapabilities(provider, adapter)
}

func (f *handshakeFixture) initiationService(sandboxMode bool) *ConnectionInitiationService {
	return NewConnectionInitiationService(ConnectionInitiationServiceDependencies{
		TeamRepo:        f.teamRepo,
		StateStore:      f.stateStore,
		AdapterSelector: f.selector,
		Catalog:         f.catalog,
		Credentials: map[domain.ProviderType]ClientCredentials{
			domain.ProviderType_X:        {ClientID: "x-client", ClientSecret: "x-secret"},
			domain.ProviderType_LinkedIn: {ClientID: "li-client", ClientSecret: "li-secret"},
		},
		AppBaseURL:  "https://app.example.com",
		SandboxMode: sandboxMode,
	})
}

func (f *handshakeFixture) callbackService() *ConnectionCallbackService {
	return NewConnectionCallbackService(ConnectionCallbackServiceDependencies{
		StateStore:      f.stateStore,
		AccountRepo:     f.accountRepo,
		AdapterSelector: f.selector,
		AppOrigin:       "https://app.example.com",
	})
}

func (f *handshakeFixture) savedState(token string, mutate func(*domain.AuthorizationState)) domain.AuthorizationState {
	state := domain.AuthorizationState{
		StateToken:   token,
		Provider:     domain.ProviderType_X,
		TeamID:       "team-1",
		UserID:       "user-1",
		CodeVerifier: "verifier",
		ReturnPath:   "/connections",
		DeliveryMode: domain.DeliveryMode_Redirect,
		TeamSlug:     "acme",
		ExpiresAt:    time.Now().Add(domain.AuthorizationStateTTL),
	}

	if mutate != nil {
		mutate(&state)
	}

	f.stateStore.Save(context.Background(), state)
	return state
}
