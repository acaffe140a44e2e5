package domain

import (
	"context"
	"time"
)

type ScheduleStatus string

const (
	ScheduleStatus_Sent   ScheduleStatus = "SENT"
	ScheduleStatus_Failed ScheduleStatus = "FAILED"
)

// ScheduleRecord is one publish attempt against one connected account.
// Records are append-only; a retry appends a new record instead of mutating
// the old one, so the full publish history of a content item is preserved.
type ScheduleRecord struct {
	ID                string         `json:"id" bson:"id"`
	ContentID         string         `json:"content_id" bson:"content_id"`
	PlatformAccountID string         `json:"platform_account_id" bson:"platform_account_id"`
	PlatformPostID    string         `json:"platform_post_id,omitempty" bson:"platform_post_id,omitempty"`
	ScheduledAt       time.Time      `json:"scheduled_at" bson:"scheduled_at"`
	Status            ScheduleStatus `json:"status" bson:"status"`
	ErrorMessage      string         `json:"error_message,omitempty" bson:"error_message,omitempty"`
}

type ScheduleRepository interface {
	Append(ctx context.Context, record ScheduleRecord) error
	ListByContent(ctx context.Context, contentID string) ([]ScheduleRecord, error)
}
