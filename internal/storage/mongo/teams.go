package mongostore

import (
	"context"
	"errors"
	"fmt"

	"github.com/publora/publora/pkg/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const teamsCollection = "teams"

type TeamRepository struct {
	database *mongo.Database
}

var _ domain.TeamRepository = (*TeamRepository)(nil)

func NewTeamRepository(database *mongo.Database) *TeamRepository {
	return &TeamRepository{database: database}
}

func (r *TeamRepository) GetByID(ctx context.Context, id string) (domain.Team, error) {
	return r.findOne(ctx, bson.M{"id": id})
}

func (r *TeamRepository) GetBySlug(ctx context.Context, slug string) (domain.Team, error) {
	return r.findOne(ctx, bson.M{"slug": slug})
}

func (r *TeamRepository) findOne(ctx context.Context, filter bson.M) (domain.Team, error) {
	collection := r.database.Collection(teamsCollection)

	var team domain.Team
	err := collection.FindOne(ctx, filter).Decode(&team)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.Team{}, domain.ErrTeamNotFound
		}
		return domain.Team{}, fmt.Errorf("find team: %w", err)
	}

	return team, nil
}

func (r *TeamRepository) Create(ctx context.Context, team domain.Team) error {
	collection := r.database.Collection(teamsCollection)

	if _, err := collection.InsertOne(ctx, team); err != nil {
		return fmt.Errorf("insert team: %w", err)
	}

	return nil
}
