// Package memory holds in-memory repository implementations backing the
// local sandbox deployment and the test suites. Semantics match the mongo
// and redis implementations, including single-use state consumption.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/publora/publora/pkg/domain"
)

type AuthorizationStateStore struct {
	mu     sync.Mutex
	states map[string]domain.AuthorizationState
}

func NewAuthorizationStateStore() *AuthorizationStateStore {
	return &AuthorizationStateStore{states: make(map[string]domain.AuthorizationState)}
}

func (s *AuthorizationStateStore) Save(ctx context.Context, state domain.AuthorizationState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.states[state.StateToken] = state
	return nil
}

// Consume deletes under the same lock it reads, so concurrent callbacks on
// one token see exactly one winner.
func (s *AuthorizationStateStore) Consume(ctx context.Context, stateToken string) (domain.AuthorizationState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.states[stateToken]
	if !ok {
		return domain.AuthorizationState{}, domain.ErrStateNotFound
	}

	delete(s.states, stateToken)
	return state, nil
}

type ConnectedAccountRepository struct {
	mu       sync.RWMutex
	accounts map[string]domain.ConnectedAccount
}

func NewConnectedAccountRepository() *ConnectedAccountRepository {
	return &ConnectedAccountRepository{accounts: make(map[string]domain.ConnectedAccount)}
}

func (r *ConnectedAccountRepository) Create(ctx context.Context, account domain.ConnectedAccount) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.accounts[account.ID] = account
	return nil
}

func (r *ConnectedAccountRepository) GetByID(ctx context.Context, id string) (domain.ConnectedAccount, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	account, ok := r.accounts[id]
	if !ok {
		return domain.ConnectedAccount{}, domain.ErrAccountNotFound
	}
	return account, nil
}

func (r *ConnectedAccountRepository) ListByTeam(ctx context.Context, teamID string) ([]domain.ConnectedAccount, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var accounts []domain.ConnectedAccount
	for _, account := range r.accounts {
		if account.TeamID == teamID {
			accounts = append(accounts, account)
		}
	}

	sortAccounts(accounts)
	return accounts, nil
}

func (r *ConnectedAccountRepository) ListByTeamAndProviders(ctx context.Context, teamID string, providers []domain.ProviderType) ([]domain.ConnectedAccount, error) {
	wanted := make(map[domain.ProviderType]bool, len(providers))
	for _, provider := range providers {
		wanted[provider] = true
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var accounts []domain.ConnectedAccount
	for _, account := range r.accounts {
		if account.TeamID == teamID && wanted[account.Provider] {
			accounts = append(accounts, account)
		}
	}

	sortAccounts(accounts)
	return accounts, nil
}

func (r *ConnectedAccountRepository) ListExpiredTokens(ctx context.Context, before time.Time) ([]domain.ConnectedAccount, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var accounts []domain.ConnectedAccount
	for _, account := range r.accounts {
		if account.ConnectionMode != domain.ConnectionMode_RealOAuth {
			continue
		}
		if account.ConnectionStatus != domain.ConnectionStatus_Connected {
			continue
		}
		if account.TokenExpiresAt != nil && account.TokenExpiresAt.Before(before) {
			accounts = append(accounts, account)
		}
	}

	sortAccounts(accounts)
	return accounts, nil
}

func (r *ConnectedAccountRepository) UpdateStatus(ctx context.Context, id string, status domain.ConnectionStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	account, ok := r.accounts[id]
	if !ok {
		return domain.ErrAccountNotFound
	}

	account.ConnectionStatus = status
	r.accounts[id] = account
	return nil
}

func (r *ConnectedAccountRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.accounts[id]; !ok {
		return domain.ErrAccountNotFound
	}

	delete(r.accounts, id)
	return nil
}

func sortAccounts(accounts []domain.ConnectedAccount) {
	sort.SliceStable(accounts, func(i, j int) bool {
		if accounts[i].CreatedAt.Equal(accounts[j].CreatedAt) {
			return accounts[i].ID < accounts[j].ID
		}
		return accounts[i].CreatedAt.Before(accounts[j].CreatedAt)
	})
}

type ContentRepository struct {
	mu       sync.RWMutex
	contents map[string]domain.Content
}

func NewContentRepository() *ContentRepository {
	return &ContentRepository{contents: make(map[string]domain.Content)}
}

func (r *ContentRepository) Get(ctx context.Context, id string) (domain.Content, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	content, ok := r.contents[id]
	if !ok {
		return domain.Content{}, domain.ErrContentNotFound
	}
	return content, nil
}

func (r *ContentRepository) Create(ctx context.Context, content domain.Content) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.contents[content.ID] = content
	return nil
}

func (r *ContentRepository) UpdateStatus(ctx context.Context, id string, status domain.ContentStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	content, ok := r.contents[id]
	if !ok {
		return domain.ErrContentNotFound
	}

	content.Status = status
	r.contents[id] = content
	return nil
}

type ScheduleRepository struct {
	mu      sync.RWMutex
	records []domain.ScheduleRecord
}

func NewScheduleRepository() *ScheduleRepository {
	return &ScheduleRepository{}
}

func (r *ScheduleRepository) Append(ctx context.Context, record domain.ScheduleRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.records = append(r.records, record)
	return nil
}

func (r *ScheduleRepository) ListByContent(ctx context.Context, contentID string) ([]domain.ScheduleRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var records []domain.ScheduleRecord
	for _, record := range r.records {
		if record.ContentID == contentID {
			records = append(records, record)
		}
	}
	return records, nil
}

type ActivityRepository struct {
	mu      sync.RWMutex
	records []domain.ActivityRecord
}

func NewActivityRepository() *ActivityRepository {
	return &ActivityRepository{}
}

func (r *ActivityRepository) Append(ctx context.Context, record domain.ActivityRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.records = append(r.records, record)
	return nil
}

func (r *ActivityRepository) ListByContent(ctx context.Context, contentID string) ([]domain.ActivityRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var records []domain.ActivityRecord
	for _, record := range r.records {
		if record.ContentID == contentID {
			records = append(records, record)
		}
	}
	return records, nil
}

type TeamRepository struct {
	mu    sync.RWMutex
	teams map[string]domain.Team
}

func NewTeamRepository() *TeamRepository {
	return &TeamRepository{teams: make(map[string]domain.Team)}
}

func (r *TeamRepository) GetByID(ctx context.Context, id string) (domain.Team, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	team, ok := r.teams[id]
	if !ok {
		return domain.Team{}, domain.ErrTeamNotFound
	}
	return team, nil
}

func (r *TeamRepository) GetBySlug(ctx context.Context, slug string) (domain.Team, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, team := range r.teams {
		if team.Slug == slug {
			return team, nil
		}
	}
	return domain.Team{}, domain.ErrTeamNotFound
}

func (r *TeamRepository) Create(ctx context.Context, team domain.Team) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.teams[team.ID] = team
	return nil
}
