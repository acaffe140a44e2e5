package connect

import (
	"sync"

	"github.com/publora/publora/pkg/domain"
)

// AccountCache remembers accounts connected during the current session,
// keyed by team, so panels can show a sandbox account without a refetch.
type AccountCache struct {
	mu       sync.RWMutex
	accounts map[string][]domain.ConnectedAccount
}

func NewAccountCache() *AccountCache {
	return &AccountCache{accounts: make(map[string][]domain.ConnectedAccount)}
}

func (c *AccountCache) Remember(teamID string, account domain.ConnectedAccount) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, existing := range c.accounts[teamID] {
		if existing.ID == account.ID {
			c.accounts[teamID][i] = account
			return
		}
	}

	c.accounts[teamID] = append(c.accounts[teamID], account)
}

func (c *AccountCache) ListTeam(teamID string) []domain.ConnectedAccount {
	c.mu.RLock()
	defer c.mu.RUnlock()

	cached := c.accounts[teamID]
	out := make([]domain.ConnectedAccount, len(cached))
	copy(out, cached)

	return out
}

func (c *AccountCache) Forget(teamID string, accountID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	cached := c.accounts[teamID]
	for i, existing := range cached {
		if existing.ID == accountID {
			c.accounts[teamID] = append(cached[:i], cached[i+1:]...)
			return
		}
	}
}
