package publish

import (
	"context"
	"net/url"
	"strings"
	"testing"

	"github.com/publora/publora/internal/oauth"
	memorystore "github.com/publora/publora/internal/storage/memory"
	"github.com/publora/publora/pkg/domain"
	"github.com/publora/publora/pkg/providers/catalog"
	demoprovider "github.com/publora/publora/pkg/providers/demo"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Connect a demo account in sandbox mode, then fan the content out to it.
// The whole flow runs against in-memory stores with zero provider traffic.
func TestSandboxConnectThenPublish(t *testing.T) {
	ctx := context.Background()

	stateStore := memorystore.NewAuthorizationStateStore()
	accountRepo := memorystore.NewConnectedAccountRepository()
	contentRepo := memorystore.NewContentRepository()
	scheduleRepo := memorystore.NewScheduleRepository()
	activityRepo := memorystore.NewActivityRepository()
	teamRepo := memorystore.NewTeamRepository()

	teamRepo.Create(ctx, domain.Team{
		ID:      "T1",
		Slug:    "team-one",
		Members: []domain.TeamMember{{UserID: "user-1", Role: domain.TeamRole_Owner}},
	})

	selector := domain.NewAdapterSelector()
	demoAdapter := demoprovider.NewDemoAdapter()
	selector.RegisterAdapter(domain.ProviderType_Demo, demoAdapter)
	selector.RegisterCapabilities(domain.ProviderType_Demo, demoAdapter)

	providerCatalog, err := catalog.Load("")
	require.NoError(t, err)

	initiation := oauth.NewConnectionInitiationService(oauth.ConnectionInitiationServiceDependencies{
		TeamRepo:        teamRepo,
		StateStore:      stateStore,
		AdapterSelector: selector,
		Catalog:         providerCatalog,
		Credentials:     map[domain.ProviderType]oauth.ClientCredentials{},
		AppBaseURL:      "http://localhost:8080",
		SandboxMode:     true,
	})

	sandbox := oauth.NewSandboxConnectionService(oauth.SandboxConnectionServiceDependencies{
		StateStore:  stateStore,
		AccountRepo: accountRepo,
	})

	initResult, err := initiation.InitiateConnection(ctx, oauth.InitiateConnectionParams{
		UserID:   "user-1",
		Provider: domain.ProviderType_Demo,
		TeamID:   "T1",
	})
	require.NoError(t, err)
	require.True(t, initResult.Sandbox)
	require.True(t, strings.Contains(initResult.AuthorizationURL, oauth.SandboxCompletePath))

	sandboxURL, err := url.Parse(initResult.AuthorizationURL)
	require.NoError(t, err)

	account, err := sandbox.CompleteSandboxConnection(ctx, sandboxURL.Query().Get("state"))
	require.NoError(t, err)
	assert.Equal(t, domain.ConnectionMode_LocalSandbox, account.ConnectionMode)
	assert.Equal(t, "T1", account.TeamID)

	contentRepo.Create(ctx, domain.Content{
		ID:     "C1",
		TeamID: "T1",
		Blocks: []domain.Block{
			{ID: "b1", Type: domain.BlockType_Text, Text: "Hello from the sandbox"},
		},
		Status: domain.ContentStatus_Draft,
	})

	orchestrator := NewPublishOrchestrator(PublishOrchestratorDependencies{
		ContentRepo:     contentRepo,
		TeamRepo:        teamRepo,
		AccountRepo:     accountRepo,
		ScheduleRepo:    scheduleRepo,
		ActivityRepo:    activityRepo,
		AdapterSelector: selector,
	})

	outcome, err := orchestrator.Publish(ctx, PublishParams{
		UserID:          "user-1",
		ContentID:       "C1",
		TargetProviders: []string{"demo"},
	})
	require.NoError(t, err)

	assert.Equal(t, PublishSummary{Requested: 1, Total: 1, Successful: 1, Failed: 0}, outcome.Summary)
	require.Len(t, outcome.Results, 1)
	assert.True(t, outcome.Results[0].Success)
	assert.NotEmpty(t, outcome.Results[0].PostID)

	content, err := contentRepo.Get(ctx, "C1")
	require.NoError(t, err)
	assert.Equal(t, domain.ContentStatus_Published, content.Status)

	records, err := scheduleRepo.ListByContent(ctx, "C1")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, domain.ScheduleStatus_Sent, records[0].Status)
	assert.Equal(t, account.ID, records[0].PlatformAccountID)
}
