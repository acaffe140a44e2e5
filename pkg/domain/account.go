package domain

import (
	"context"
	"time"
)

type ConnectionMode string

const (
	ConnectionMode_RealOAuth    ConnectionMode = "real_oauth"
	ConnectionMode_LocalSandbox ConnectionMode = "local_sandbox"
)

type ConnectionStatus string

const (
	ConnectionStatus_Connected ConnectionStatus = "connected"
	ConnectionStatus_Degraded  ConnectionStatus = "degraded"
)

// ConnectedAccount is one external account connected to a team. A team may
// hold multiple accounts per provider. The access token is opaque to the
// orchestrators; only the matching provider adapter interprets it.
type ConnectedAccount struct {
	ID                string           `json:"id" bson:"id"`
	TeamID            string           `json:"team_id" bson:"team_id"`
	UserID            string           `json:"user_id" bson:"user_id"`
	Provider          ProviderType     `json:"provider" bson:"provider"`
	ExternalAccountID string           `json:"external_account_id" bson:"external_account_id"`
	DisplayName       string           `json:"display_name" bson:"display_name"`
	Handle            string           `json:"handle,omitempty" bson:"handle,omitempty"`
	AccessToken       string           `json:"-" bson:"access_token"`
	RefreshToken      string           `json:"-" bson:"refresh_token,omitempty"`
	TokenExpiresAt    *time.Time       `json:"token_expires_at,omitempty" bson:"token_expires_at,omitempty"`
	Scope             string           `json:"scope,omitempty" bson:"scope,omitempty"`
	ConnectionMode    ConnectionMode   `json:"connection_mode" bson:"connection_mode"`
	ConnectionStatus  ConnectionStatus `json:"connection_status" bson:"connection_status"`
	CreatedAt         time.Time        `json:"created_at" bson:"created_at"`
}

type ConnectedAccountRepository interface {
	Create(ctx context.Context, account ConnectedAccount) error
	GetByID(ctx context.Context, id string) (ConnectedAccount, error)
	ListByTeam(ctx context.Context, teamID string) ([]ConnectedAccount, error)
	ListByTeamAndProviders(ctx context.Context, teamID string, providers []ProviderType) ([]ConnectedAccount, error)
	ListExpiredTokens(ctx context.Context, before time.Time) ([]ConnectedAccount, error)
	UpdateStatus(ctx context.Context, id string, status ConnectionStatus) error
	Delete(ctx context.Context, id string) error
}
