package domain

import (
	"context"
	"time"
)

// ActivityRecord captures a content status transition, ordered by creation
// time. Append-only.
type ActivityRecord struct {
	ID         string        `json:"id" bson:"id"`
	ContentID  string        `json:"content_id" bson:"content_id"`
	TeamID     string        `json:"team_id" bson:"team_id"`
	UserID     string        `json:"user_id" bson:"user_id"`
	FromStatus ContentStatus `json:"from_status" bson:"from_status"`
	ToStatus   ContentStatus `json:"to_status" bson:"to_status"`
	Source     string        `json:"source" bson:"source"`
	CreatedAt  time.Time     `json:"created_at" bson:"created_at"`
}

type ActivityRepository interface {
	Append(ctx context.Context, record ActivityRecord) error
	ListByContent(ctx context.Context, contentID string) ([]ActivityRecord, error)
}
