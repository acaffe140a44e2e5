package cli

import (
	"context"
	"fmt"

	"github.com/publora/publora/internal/controllers"
	"github.com/publora/publora/internal/managers"
	"github.com/publora/publora/internal/oauth"
	"github.com/publora/publora/internal/publish"
	memorystore "github.com/publora/publora/internal/storage/memory"
	mongostore "github.com/publora/publora/internal/storage/mongo"
	redisstore "github.com/publora/publora/internal/storage/redis"
	"github.com/publora/publora/pkg/domain"
	"github.com/publora/publora/pkg/providers/catalog"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// AppDependencies is everything the serve command wires together.
type AppDependencies struct {
	ConnectionController *controllers.ConnectionController
	PublishController    *controllers.PublishController
	TelemetryController  *controllers.TelemetryController
	TeamController       *controllers.TeamController

	TokenSweeper       *managers.TokenSweeper
	TelemetryPublisher *managers.TelemetryPublisher

	mongoClient *mongo.Client
	redisClient *redis.Client
}

type storageSet struct {
	StateStore   domain.AuthorizationStateStore
	AccountRepo  domain.ConnectedAccountRepository
	ContentRepo  domain.ContentRepository
	ScheduleRepo domain.ScheduleRepository
	ActivityRepo domain.ActivityRepository
	TeamRepo     domain.TeamRepository
}

func BuildDependencies(ctx context.Context, config *Config) (*AppDependencies, error) {
	deps := &AppDependencies{}

	storage, err := deps.buildStorage(ctx, config)
	if err != nil {
		return nil, err
	}

	providerCatalog, err := catalog.Load(config.ProviderCatalogFile)
	if err != nil {
		return nil, fmt.Errorf("load provider catalog: %w", err)
	}

	credentials := map[domain.ProviderType]oauth.ClientCredentials{
		domain.ProviderType_X:        {ClientID: config.XClientID, ClientSecret: config.XClientSecret},
		domain.ProviderType_LinkedIn: {ClientID: config.LinkedInClientID, ClientSecret: config.LinkedInClientSecret},
	}

	adapterSelector := domain.NewAdapterSelector()

	RegisterProviders(RegisterProvidersParams{
		AdapterSelector: adapterSelector,
		Catalog:         providerCatalog,
		Credentials:     credentials,
		AppBaseURL:      config.AppBaseURL,
	})

	deps.TelemetryPublisher = managers.NewTelemetryPublisher()
	deps.TokenSweeper = managers.NewTokenSweeper(managers.TokenSweeperDependencies{
		AccountRepo: storage.AccountRepo,
	})

	initiationService := oauth.NewConnectionInitiationService(oauth.ConnectionInitiationServiceDependencies{
		TeamRepo:        storage.TeamRepo,
		StateStore:      storage.StateStore,
		AdapterSelector: adapterSelector,
		Catalog:         providerCatalog,
		Credentials:     credentials,
		AppBaseURL:      config.AppBaseURL,
		SandboxMode:     config.SandboxMode,
	})

	callbackService := oauth.NewConnectionCallbackService(oauth.ConnectionCallbackServiceDependencies{
		StateStore:      storage.StateStore,
		AccountRepo:     storage.AccountRepo,
		AdapterSelector: adapterSelector,
		AppOrigin:       config.AppOrigin(),
	})

	sandboxService := oauth.NewSandboxConnectionService(oauth.SandboxConnectionServiceDependencies{
		StateStore:  storage.StateStore,
		AccountRepo: storage.AccountRepo,
	})

	orchestrator := publish.NewPublishOrchestrator(publish.PublishOrchestratorDependencies{
		ContentRepo:     storage.ContentRepo,
		TeamRepo:        storage.TeamRepo,
		AccountRepo:     storage.AccountRepo,
		ScheduleRepo:    storage.ScheduleRepo,
		ActivityRepo:    storage.ActivityRepo,
		AdapterSelector: adapterSelector,
		EventPublisher:  deps.TelemetryPublisher,
	})

	deps.ConnectionController = controllers.NewConnectionController(controllers.ConnectionControllerDependencies{
		InitiationService: initiationService,
		CallbackService:   callbackService,
		SandboxService:    sandboxService,
		AccountRepo:       storage.AccountRepo,
		TeamRepo:          storage.TeamRepo,
	})

	deps.PublishController = controllers.NewPublishController(controllers.PublishControllerDependencies{
		Orchestrator: orchestrator,
	})

	deps.TelemetryController = controllers.NewTelemetryController(controllers.TelemetryControllerDependencies{
		EventPublisher: deps.TelemetryPublisher,
	})

	deps.TeamController = controllers.NewTeamController(controllers.TeamControllerDependencies{
		TeamManager: managers.NewTeamManager(managers.TeamManagerDependencies{
			TeamRepo: storage.TeamRepo,
		}),
	})

	return deps, nil
}

func (deps *AppDependencies) buildStorage(ctx context.Context, config *Config) (storageSet, error) {
	if config.InMemoryStorage {
		log.Info().Bool("sandbox_mode", config.SandboxMode).Msg("Using in-memory storage")

		return storageSet{
			StateStore:   memorystore.NewAuthorizationStateStore(),
			AccountRepo:  memorystore.NewConnectedAccountRepository(),
			ContentRepo:  memorystore.NewContentRepository(),
			ScheduleRepo: memorystore.NewScheduleRepository(),
			ActivityRepo: memorystore.NewActivityRepository(),
			TeamRepo:     memorystore.NewTeamRepository(),
		}, nil
	}

	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(config.MongoURI))
	if err != nil {
		return storageSet{}, fmt.Errorf("connect to mongo: %w", err)
	}
	deps.mongoClient = mongoClient

	database := mongoClient.Database(config.MongoDatabase)

	redisClient := redis.NewClient(&redis.Options{
		Addr:     config.RedisAddr,
		Password: config.RedisPassword,
	})
	deps.redisClient = redisClient

	if err := redisClient.Ping(ctx).Err(); err != nil {
		return storageSet{}, fmt.Errorf("connect to redis: %w", err)
	}

	return storageSet{
		StateStore:   redisstore.NewAuthorizationStateStore(redisClient),
		AccountRepo:  mongostore.NewConnectedAccountRepository(database),
		ContentRepo:  mongostore.NewContentRepository(database),
		ScheduleRepo: mongostore.NewScheduleRepository(database),
		ActivityRepo: mongostore.NewActivityRepository(database),
		TeamRepo:     mongostore.NewTeamRepository(database),
	}, nil
}

func (deps *AppDependencies) Close(ctx context.Context) {
	if deps.TokenSweeper != nil {
		deps.TokenSweeper.Stop()
	}

	if deps.TelemetryPublisher != nil {
		deps.TelemetryPublisher.Close()
	}

	if deps.redisClient != nil {
		if err := deps.redisClient.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close redis client")
		}
	}

	if deps.mongoClient != nil {
		if err := deps.mongoClient.Disconnect(ctx); err != nil {
			log.Warn().Err(err).Msg("Failed to disconnect mongo client")
		}
	}
}
