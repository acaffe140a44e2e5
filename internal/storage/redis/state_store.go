// Package redisstore persists in-flight authorization state in Redis. The
// key TTL mirrors the state expiry, so abandoned handshakes reclaim
// themselves without a sweep.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/publora/publora/pkg/domain"

	"github.com/redis/go-redis/v9"
)

const stateKeyPrefix = "oauth:state:"

type AuthorizationStateStore struct {
	client redis.UniversalClient
}

var _ domain.AuthorizationStateStore = (*AuthorizationStateStore)(nil)

func NewAuthorizationStateStore(client redis.UniversalClient) *AuthorizationStateStore {
	return &AuthorizationStateStore{client: client}
}

func (s *AuthorizationStateStore) Save(ctx context.Context, state domain.AuthorizationState) error {
	payload, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal authorization state: %w", err)
	}

	if err := s.client.Set(ctx, stateKey(state.StateToken), payload, domain.AuthorizationStateTTL).Err(); err != nil {
		return fmt.Errorf("persist authorization state: %w", err)
	}

	return nil
}

// Consume reads and deletes in one round trip via GETDEL. Two callbacks
// racing on the same token cannot both observe the row.
func (s *AuthorizationStateStore) Consume(ctx context.Context, stateToken string) (domain.AuthorizationState, error) {
	raw, err := s.client.GetDel(ctx, stateKey(stateToken)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.AuthorizationState{}, domain.ErrStateNotFound
		}
		return domain.AuthorizationState{}, fmt.Errorf("consume authorization state: %w", err)
	}

	var state domain.AuthorizationState
	if err := json.Unmarshal(raw, &state); err != nil {
		return domain.AuthorizationState{}, fmt.Errorf("decode authorization state: %w", err)
	}

	return state, nil
}

func stateKey(stateToken string) string {
	return stateKeyPrefix + stateToken
}
