package domain

import (
	"context"
	"time"
)

type ProviderType string

const (
	ProviderType_X        ProviderType = "x"
	ProviderType_LinkedIn ProviderType = "linkedin"
	ProviderType_Demo     ProviderType = "demo"
)

// TokenResult is the outcome of an authorization-code exchange. An empty
// AccessToken signals failure so the callback handler can apply a uniform
// failure path instead of branching on adapter-specific errors.
type TokenResult struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    *time.Time
	Scope        string
}

// AccountIdentity describes the external account behind an access token.
// Fields may be blank when the provider's profile endpoint is unreachable.
type AccountIdentity struct {
	ExternalAccountID string
	DisplayName       string
	Handle            string
}

// PublishPayload carries the ordered text parts extracted from a content
// document. A single-part payload is a flat post; multiple parts form a
// thread for providers that support one.
type PublishPayload struct {
	Parts []string
}

func (p PublishPayload) IsEmpty() bool {
	for _, part := range p.Parts {
		if part != "" {
			return false
		}
	}
	return true
}

type PublishResult struct {
	Success bool
	PostID  string
	Error   string
}

// ProviderAdapter is the capability contract every provider implements.
// Providers share no behavior, only this shape.
type ProviderAdapter interface {
	ExchangeAuthorizationCode(ctx context.Context, code, codeVerifier string) (TokenResult, error)
	FetchAccountIdentity(ctx context.Context, accessToken string) (AccountIdentity, error)
	Publish(ctx context.Context, account ConnectedAccount, payload PublishPayload) PublishResult
}

// ProviderCapabilities declares per-provider formatting and handshake traits
// the orchestrators consult without knowing the provider.
type ProviderCapabilities interface {
	SupportsThreads() bool
	MaxTextLength() int
	UsesPKCE() bool
}

type SelectAdapterParams struct {
	Provider ProviderType
}
