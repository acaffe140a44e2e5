package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/publora/publora/pkg/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const contentsCollection = "contents"

type ContentRepository struct {
	database *mongo.Database
}

var _ domain.ContentRepository = (*ContentRepository)(nil)

func NewContentRepository(database *mongo.Database) *ContentRepository {
	return &ContentRepository{database: database}
}

func (r *ContentRepository) Get(ctx context.Context, id string) (domain.Content, error) {
	collection := r.database.Collection(contentsCollection)

	var content domain.Content
	err := collection.FindOne(ctx, bson.M{"id": id}).Decode(&content)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.Content{}, domain.ErrContentNotFound
		}
		return domain.Content{}, fmt.Errorf("find content: %w", err)
	}

	return content, nil
}

func (r *ContentRepository) Create(ctx context.Context, content domain.Content) error {
	collection := r.database.Collection(contentsCollection)

	if content.CreatedAt.IsZero() {
		content.CreatedAt = time.Now()
	}
	content.UpdatedAt = time.Now()

	if _, err := collection.InsertOne(ctx, content); err != nil {
		return fmt.Errorf("insert content: %w", err)
	}

	return nil
}

func (r *ContentRepository) UpdateStatus(ctx context.Context, id string, status domain.ContentStatus) error {
	collection := r.database.Collection(contentsCollection)

	update := bson.M{"$set": bson.M{
		"status":     status,
		"updated_at": time.Now(),
	}}

	result, err := collection.UpdateOne(ctx, bson.M{"id": id}, update)
	if err != nil {
		return fmt.Errorf("update content status: %w", err)
	}
	if result.MatchedCount == 0 {
		return domain.ErrContentNotFound
	}

	return nil
}
