package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/publora/publora/pkg/domain"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const connectedAccountsCollection = "connected_accounts"

type ConnectedAccountRepository struct {
	database *mongo.Database
}

var _ domain.ConnectedAccountRepository = (*ConnectedAccountRepository)(nil)

func NewConnectedAccountRepository(database *mongo.Database) *ConnectedAccountRepository {
	repo := &ConnectedAccountRepository{database: database}
	repo.ensureIndexes()
	return repo
}

func (r *ConnectedAccountRepository) ensureIndexes() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	collection := r.database.Collection(connectedAccountsCollection)

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{
				{Key: "team_id", Value: 1},
				{Key: "provider", Value: 1},
			},
		},
	}

	if _, err := collection.Indexes().CreateMany(ctx, indexes); err != nil {
		log.Warn().Err(err).Str("collection", connectedAccountsCollection).Msg("Failed to create indexes")
	}
}

func (r *ConnectedAccountRepository) Create(ctx context.Context, account domain.ConnectedAccount) error {
	collection := r.database.Collection(connectedAccountsCollection)

	if _, err := collection.InsertOne(ctx, account); err != nil {
		return fmt.Errorf("insert connected account: %w", err)
	}

	return nil
}

func (r *ConnectedAccountRepository) GetByID(ctx context.Context, id string) (domain.ConnectedAccount, error) {
	collection := r.database.Collection(connectedAccountsCollection)

	var account domain.ConnectedAccount
	err := collection.FindOne(ctx, bson.M{"id": id}).Decode(&account)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.ConnectedAccount{}, domain.ErrAccountNotFound
		}
		return domain.ConnectedAccount{}, fmt.Errorf("find connected account: %w", err)
	}

	return account, nil
}

func (r *ConnectedAccountRepository) ListByTeam(ctx context.Context, teamID string) ([]domain.ConnectedAccount, error) {
	return r.list(ctx, bson.M{"team_id": teamID})
}

func (r *ConnectedAccountRepository) ListByTeamAndProviders(ctx context.Context, teamID string, providers []domain.ProviderType) ([]domain.ConnectedAccount, error) {
	return r.list(ctx, bson.M{
		"team_id":  teamID,
		"provider": bson.M{"$in": providers},
	})
}

func (r *ConnectedAccountRepository) list(ctx context.Context, filter bson.M) ([]domain.ConnectedAccount, error) {
	collection := r.database.Collection(connectedAccountsCollection)

	cursor, err := collection.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list connected accounts: %w", err)
	}
	defer cursor.Close(ctx)

	var accounts []domain.ConnectedAccount
	if err := cursor.All(ctx, &accounts); err != nil {
		return nil, fmt.Errorf("decode connected accounts: %w", err)
	}

	return accounts, nil
}

func (r *ConnectedAccountRepository) ListExpiredTokens(ctx context.Context, before time.Time) ([]domain.ConnectedAccount, error) {
	return r.list(ctx, bson.M{
		"connection_mode":   domain.ConnectionMode_RealOAuth,
		"connection_status": domain.ConnectionStatus_Connected,
		"token_expires_at":  bson.M{"$lt": before},
	})
}

func (r *ConnectedAccountRepository) UpdateStatus(ctx context.Context, id string, status domain.ConnectionStatus) error {
	collection := r.database.Collection(connectedAccountsCollection)

	result, err := collection.UpdateOne(ctx, bson.M{"id": id}, bson.M{"$set": bson.M{"connection_status": status}})
	if err != nil {
		return fmt.Errorf("update connection status: %w", err)
	}
	if result.MatchedCount == 0 {
		return domain.ErrAccountNotFound
	}

	return nil
}

func (r *ConnectedAccountRepository) Delete(ctx context.Context, id string) error {
	collection := r.database.Collection(connectedAccountsCollection)

	result, err := collection.DeleteOne(ctx, bson.M{"id": id})
	if err != nil {
		return fmt.Errorf("delete connected account: %w", err)
	}
	if result.DeletedCount == 0 {
		return domain.ErrAccountNotFound
	}

	return nil
}
