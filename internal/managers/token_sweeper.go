package managers

import (
	"context"
	"time"

	"github.com/publora/publora/pkg/domain"

	"github.com/robfig/cron"
	"github.com/rs/zerolog/log"
)

type TokenSweeperDependencies struct {
	AccountRepo domain.ConnectedAccountRepository
}

// TokenSweeper periodically flags real-OAuth accounts whose access token has
// expired as degraded. The publish path still attempts degraded accounts
// since adapters own token refresh; the flag only drives the UI.
type TokenSweeper struct {
	accountRepo domain.ConnectedAccountRepository
	cron        *cron.Cron
}

func NewTokenSweeper(deps TokenSweeperDependencies) *TokenSweeper {
	return &TokenSweeper{
		accountRepo: deps.AccountRepo,
		cron:        cron.New(),
	}
}

func (s *TokenSweeper) Start() error {
	if err := s.cron.AddFunc("@every 10m", s.sweep); err != nil {
		return err
	}

	s.cron.Start()
	return nil
}

func (s *TokenSweeper) Stop() {
	s.cron.Stop()
}

func (s *TokenSweeper) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	accounts, err := s.accountRepo.ListExpiredTokens(ctx, time.Now())
	if err != nil {
		log.Error().Err(err).Msg("Token sweep failed to list expired accounts")
		return
	}

	for _, account := range accounts {
		if err := s.accountRepo.UpdateStatus(ctx, account.ID, domain.ConnectionStatus_Degraded); err != nil {
			log.Error().Err(err).Str("account_id", account.ID).Msg("Failed to mark account degraded")
			continue
		}

		log.Info().
			Str("account_id", account.ID).
			Str("provider", string(account.Provider)).
			Msg("Marked account with expired token as degraded")
	}
}
