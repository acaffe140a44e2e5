package domain

import (
	"context"
	"time"
)

type EventType string

const (
	EventType_ConnectClicked   EventType = "connect_clicked"
	EventType_AccountConnected EventType = "account_connected"
	EventType_ContentPublished EventType = "content_published"
	EventType_PublishAttempted EventType = "publish_attempted"
)

// Event is a telemetry record. Publishing is fire-and-forget; a failed emit
// must never block or fail the flow that produced it.
type Event struct {
	Type       EventType      `json:"type"`
	TeamID     string         `json:"team_id,omitempty"`
	UserID     string         `json:"user_id,omitempty"`
	Provider   ProviderType   `json:"provider,omitempty"`
	Properties map[string]any `json:"properties,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

type EventPublisher interface {
	PublishEvent(ctx context.Context, event Event) error
}
