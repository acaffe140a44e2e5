package mongostore

import (
	"context"
	"fmt"

	"github.com/publora/publora/pkg/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	scheduleRecordsCollection = "schedule_records"
	activityRecordsCollection = "activity_records"
)

// ScheduleRepository appends publish attempt outcomes. Rows are never
// updated; a retry writes a new row.
type ScheduleRepository struct {
	database *mongo.Database
}

var _ domain.ScheduleRepository = (*ScheduleRepository)(nil)

func NewScheduleRepository(database *mongo.Database) *ScheduleRepository {
	return &ScheduleRepository{database: database}
}

func (r *ScheduleRepository) Append(ctx context.Context, record domain.ScheduleRecord) error {
	collection := r.database.Collection(scheduleRecordsCollection)

	if _, err := collection.InsertOne(ctx, record); err != nil {
		return fmt.Errorf("append schedule record: %w", err)
	}

	return nil
}

func (r *ScheduleRepository) ListByContent(ctx context.Context, contentID string) ([]domain.ScheduleRecord, error) {
	collection := r.database.Collection(scheduleRecordsCollection)

	cursor, err := collection.Find(ctx, bson.M{"content_id": contentID},
		options.Find().SetSort(bson.D{{Key: "scheduled_at", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list schedule records: %w", err)
	}
	defer cursor.Close(ctx)

	var records []domain.ScheduleRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("decode schedule records: %w", err)
	}

	return records, nil
}

type ActivityRepository struct {
	database *mongo.Database
}

var _ domain.ActivityRepository = (*ActivityRepository)(nil)

func NewActivityRepository(database *mongo.Database) *ActivityRepository {
	return &ActivityRepository{database: database}
}

func (r *ActivityRepository) Append(ctx context.Context, record domain.ActivityRecord) error {
	collection := r.database.Collection(activityRecordsCollection)

	if _, err := collection.InsertOne(ctx, record); err != nil {
		return fmt.Errorf("append activity record: %w", err)
	}

	return nil
}

func (r *ActivityRepository) ListByContent(ctx context.Context, contentID string) ([]domain.ActivityRecord, error) {
	collection := r.database.Collection(activityRecordsCollection)

	cursor, err := collection.Find(ctx, bson.M{"content_id": contentID},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list activity records: %w", err)
	}
	defer cursor.Close(ctx)

	var records []domain.ActivityRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("decode activity records: %w", err)
	}

	return records, nil
}
