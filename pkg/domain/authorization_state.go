package domain

import (
	"context"
	"time"
)

type DeliveryMode string

const (
	DeliveryMode_Redirect DeliveryMode = "redirect"
	DeliveryMode_Popup    DeliveryMode = "popup"
)

// AuthorizationStateTTL bounds an in-flight OAuth attempt. A consent page
// left open longer than this fails with state_expired at the callback.
const AuthorizationStateTTL = 10 * time.Minute

// AuthorizationState is one in-flight OAuth attempt. Exactly one unconsumed
// row exists per state token; the row is deleted on consumption so a replayed
// callback can never mint a second account.
type AuthorizationState struct {
	StateToken   string       `json:"state_token"`
	Provider     ProviderType `json:"provider"`
	TeamID       string       `json:"team_id"`
	UserID       string       `json:"user_id"`
	CodeVerifier string       `json:"code_verifier,omitempty"`
	ReturnPath   string       `json:"return_path"`
	DeliveryMode DeliveryMode `json:"delivery_mode"`
	TeamSlug     string       `json:"team_slug"`
	ExpiresAt    time.Time    `json:"expires_at"`
}

func (s AuthorizationState) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// AuthorizationStateStore persists pending authorization attempts.
//
// Consume atomically loads and deletes the row for a state token, returning
// ErrStateNotFound when the token is unknown or already consumed. Two
// callbacks racing on the same token must not both observe the row.
type AuthorizationStateStore interface {
	Save(ctx context.Context, state AuthorizationState) error
	Consume(ctx context.Context, stateToken string) (AuthorizationState, error)
}
