package publish

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/publora/publora/pkg/domain"

	"github.com/rs/xid"
	"github.com/rs/zerolog/log"
)

type PublishOrchestratorDependencies struct {
	ContentRepo     domain.ContentRepository
	TeamRepo        domain.TeamRepository
	AccountRepo     domain.ConnectedAccountRepository
	ScheduleRepo    domain.ScheduleRepository
	ActivityRepo    domain.ActivityRepository
	AdapterSelector domain.AdapterSelector
	EventPublisher  domain.EventPublisher
}

// PublishOrchestrator fans one content document out to every connected
// account of the requested providers. Attempts run sequentially so the
// schedule log stays trivially ordered, and one account's failure never
// suppresses another's attempt.
type PublishOrchestrator struct {
	contentRepo     domain.ContentRepository
	teamRepo        domain.TeamRepository
	accountRepo     domain.ConnectedAccountRepository
	scheduleRepo    domain.ScheduleRepository
	activityRepo    domain.ActivityRepository
	adapterSelector domain.AdapterSelector
	eventPublisher  domain.EventPublisher
}

func NewPublishOrchestrator(deps PublishOrchestratorDependencies) *PublishOrchestrator {
	return &PublishOrchestrator{
		contentRepo:     deps.ContentRepo,
		teamRepo:        deps.TeamRepo,
		accountRepo:     deps.AccountRepo,
		scheduleRepo:    deps.ScheduleRepo,
		activityRepo:    deps.ActivityRepo,
		adapterSelector: deps.AdapterSelector,
		eventPublisher:  deps.EventPublisher,
	}
}

type PublishParams struct {
	UserID          string
	ContentID       string
	TargetProviders []string
}

type PublishAttemptResult struct {
	Provider    domain.ProviderType `json:"provider"`
	AccountID   string              `json:"account_id,omitempty"`
	AccountName string              `json:"account_name,omitempty"`
	Success     bool                `json:"success"`
	PostID      string              `json:"post_id,omitempty"`
	Error       string              `json:"error,omitempty"`
}

type PublishSummary struct {
	Requested  int `json:"requested"`
	Total      int `json:"total"`
	Successful int `json:"successful"`
	Failed     int `json:"failed"`
}

type PublishOutcome struct {
	Results []PublishAttemptResult `json:"results"`
	Summary PublishSummary         `json:"summary"`
}

func (o *PublishOrchestrator) Publish(ctx context.Context, p PublishParams) (PublishOutcome, error) {
	providers := normalizeProviders(p.TargetProviders)
	if len(providers) == 0 {
		return PublishOutcome{}, domain.NewFlowError(domain.ErrorCode_MissingParams, "at least one target provider is required")
	}

	content, err := o.contentRepo.Get(ctx, p.ContentID)
	if err != nil {
		if errors.Is(err, domain.ErrContentNotFound) {
			return PublishOutcome{}, domain.NewFlowError(domain.ErrorCode_NotFound, "content not found")
		}
		return PublishOutcome{}, fmt.Errorf("load content: %w", err)
	}

	team, err := o.teamRepo.GetByID(ctx, content.TeamID)
	if err != nil {
		return PublishOutcome{}, fmt.Errorf("load team: %w", err)
	}

	role, isMember := team.RoleOf(p.UserID)
	if !isMember || !role.CanPublish() {
		return PublishOutcome{}, domain.NewFlowError(domain.ErrorCode_Forbidden, "publishing requires an owner, admin or editor role")
	}

	accounts, err := o.accountRepo.ListByTeamAndProviders(ctx, team.ID, providers)
	if err != nil {
		return PublishOutcome{}, fmt.Errorf("resolve connected accounts: %w", err)
	}

	accountsByProvider := make(map[domain.ProviderType][]domain.ConnectedAccount)
	for _, account := range accounts {
		accountsByProvider[account.Provider] = append(accountsByProvider[account.Provider], account)
	}

	var results []PublishAttemptResult

	for _, provider := range providers {
		if !o.adapterSelector.IsRegistered(provider) {
			results = append(results, PublishAttemptResult{
				Provider: provider,
				Success:  false,
				Error:    "not implemented",
			})
			continue
		}

		providerAccounts := accountsByProvider[provider]
		if len(providerAccounts) == 0 {
			results = append(results, PublishAttemptResult{
				Provider: provider,
				Success:  false,
				Error:    fmt.Sprintf("no connected %s account", provider),
			})
			continue
		}

		for _, account := range providerAccounts {
			results = append(results, o.attempt(ctx, content, provider, account))
		}
	}

	summary := PublishSummary{
		Requested: len(providers),
		Total:     len(results),
	}
	for _, result := range results {
		if result.Success {
			summary.Successful++
		} else {
			summary.Failed++
		}
	}

	if summary.Successful > 0 && content.Status != domain.ContentStatus_Published {
		o.markPublished(ctx, content, p.UserID)
	}

	log.Info().
		Str("content_id", content.ID).
		Int("requested", summary.Requested).
		Int("successful", summary.Successful).
		Int("failed", summary.Failed).
		Msg("Publish fan-out finished")

	return PublishOutcome{Results: results, Summary: summary}, nil
}

// attempt publishes to a single account and appends exactly one schedule
// record, whatever the outcome.
func (o *PublishOrchestrator) attempt(ctx context.Context, content domain.Content, provider domain.ProviderType, account domain.ConnectedAccount) PublishAttemptResult {
	result := PublishAttemptResult{
		Provider:    provider,
		AccountID:   account.ID,
		AccountName: account.DisplayName,
	}

	capabilities, err := o.adapterSelector.SelectCapabilities(ctx, domain.SelectAdapterParams{Provider: provider})
	if err != nil {
		result.Error = "not implemented"
		o.appendScheduleRecord(ctx, content.ID, account.ID, result)
		return result
	}

	payload := ExtractPayload(content, capabilities)
	if payload.IsEmpty() {
		result.Error = "content has no publishable text"
		o.appendScheduleRecord(ctx, content.ID, account.ID, result)
		return result
	}

	adapter, err := o.adapterSelector.SelectAdapter(ctx, domain.SelectAdapterParams{Provider: provider})
	if err != nil {
		result.Error = "not implemented"
		o.appendScheduleRecord(ctx, content.ID, account.ID, result)
		return result
	}

	publishResult := o.safePublish(ctx, adapter, account, payload)

	result.Success = publishResult.Success
	result.PostID = publishResult.PostID
	result.Error = publishResult.Error

	o.appendScheduleRecord(ctx, content.ID, account.ID, result)
	o.emitEvent(ctx, domain.Event{
		Type:     domain.EventType_PublishAttempted,
		TeamID:   content.TeamID,
		Provider: provider,
		Properties: map[string]any{
			"content_id": content.ID,
			"account_id": account.ID,
			"success":    result.Success,
		},
		OccurredAt: time.Now(),
	})

	return result
}

// safePublish guards the fan-out against a panicking adapter; a crash in one
// provider's client must not cancel the remaining attempts.
func (o *PublishOrchestrator) safePublish(ctx context.Context, adapter domain.ProviderAdapter, account domain.ConnectedAccount, payload domain.PublishPayload) (result domain.PublishResult) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().
				Interface("panic", r).
				Str("provider", string(account.Provider)).
				Msg("Provider adapter panicked during publish")

			result = domain.PublishResult{Success: false, Error: fmt.Sprintf("publish failed: %v", r)}
		}
	}()

	return adapter.Publish(ctx, account, payload)
}

func (o *PublishOrchestrator) appendScheduleRecord(ctx context.Context, contentID, accountID string, result PublishAttemptResult) {
	record := domain.ScheduleRecord{
		ID:                xid.New().String(),
		ContentID:         contentID,
		PlatformAccountID: accountID,
		PlatformPostID:    result.PostID,
		ScheduledAt:       time.Now(),
		Status:            domain.ScheduleStatus_Failed,
		ErrorMessage:      result.Error,
	}
	if result.Success {
		record.Status = domain.ScheduleStatus_Sent
		record.ErrorMessage = ""
	}

	if err := o.scheduleRepo.Append(ctx, record); err != nil {
		log.Error().Err(err).Str("content_id", contentID).Msg("Failed to append schedule record")
	}
}

func (o *PublishOrchestrator) markPublished(ctx context.Context, content domain.Content, userID string) {
	if err := o.contentRepo.UpdateStatus(ctx, content.ID, domain.ContentStatus_Published); err != nil {
		log.Error().Err(err).Str("content_id", content.ID).Msg("Failed to update content status")
		return
	}

	activity := domain.ActivityRecord{
		ID:         xid.New().String(),
		ContentID:  content.ID,
		TeamID:     content.TeamID,
		UserID:     userID,
		FromStatus: content.Status,
		ToStatus:   domain.ContentStatus_Published,
		Source:     "publish",
		CreatedAt:  time.Now(),
	}

	if err := o.activityRepo.Append(ctx, activity); err != nil {
		log.Error().Err(err).Str("content_id", content.ID).Msg("Failed to append activity record")
	}

	o.emitEvent(ctx, domain.Event{
		Type:       domain.EventType_ContentPublished,
		TeamID:     content.TeamID,
		UserID:     userID,
		Properties: map[string]any{"content_id": content.ID},
		OccurredAt: time.Now(),
	})
}

func (o *PublishOrchestrator) emitEvent(ctx context.Context, event domain.Event) {
	if o.eventPublisher == nil {
		return
	}

	if err := o.eventPublisher.PublishEvent(ctx, event); err != nil {
		log.Debug().Err(err).Str("event_type", string(event.Type)).Msg("Telemetry event dropped")
	}
}

func normalizeProviders(raw []string) []domain.ProviderType {
	seen := make(map[domain.ProviderType]bool)
	var providers []domain.ProviderType

	for _, value := range raw {
		provider := domain.ProviderType(strings.ToLower(strings.TrimSpace(value)))
		if provider == "" || seen[provider] {
			continue
		}
		seen[provider] = true
		providers = append(providers, provider)
	}

	return providers
}
