package demoprovider

import (
	"context"
	"fmt"
	"time"

	"github.com/publora/publora/pkg/domain"

	"github.com/rs/xid"
)

// DemoAdapter is a loopback provider for local development. It never reaches
// the network: exchanges mint fake tokens and publishes return generated post
// IDs, so the full connect-and-publish flow is exercisable offline.
type DemoAdapter struct{}

func NewDemoAdapter() *DemoAdapter {
	return &DemoAdapter{}
}

func (a *DemoAdapter) SupportsThreads() bool { return true }

func (a *DemoAdapter) MaxTextLength() int { return 10000 }

func (a *DemoAdapter) UsesPKCE() bool { return true }

func (a *DemoAdapter) ExchangeAuthorizationCode(ctx context.Context, code, codeVerifier string) (domain.TokenResult, error) {
	expiry := time.Now().Add(24 * time.Hour)

	return domain.TokenResult{
		AccessToken:  "demo-access-" + xid.New().String(),
		RefreshToken: "demo-refresh-" + xid.New().String(),
		ExpiresAt:    &expiry,
	}, nil
}

func (a *DemoAdapter) FetchAccountIdentity(ctx context.Context, accessToken string) (domain.AccountIdentity, error) {
	id := xid.New().String()

	return domain.AccountIdentity{
		ExternalAccountID: id,
		DisplayName:       "Demo Account",
		Handle:            fmt.Sprintf("demo_%s", id[:8]),
	}, nil
}

func (a *DemoAdapter) Publish(ctx context.Context, account domain.ConnectedAccount, payload domain.PublishPayload) domain.PublishResult {
	if payload.IsEmpty() {
		return domain.PublishResult{Success: false, Error: "no text to publish"}
	}

	return domain.PublishResult{Success: true, PostID: "demo-post-" + xid.New().String()}
}
