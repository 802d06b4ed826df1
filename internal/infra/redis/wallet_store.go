package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/sreenu926/50cube-staging/internal/domain"
)

// WalletStore keeps one JSON document per user under wallet:{userID}.
// Writes are last-writer-wins; a FLUSHDB loses every wallet.
type WalletStore struct {
	client *redis.Client
}

func NewWalletStore(client *redis.Client) *WalletStore {
	return &WalletStore{client: client}
}

func (s *WalletStore) Load(ctx context.Context, userID string) (domain.Wallet, bool, error) {
	raw, err := s.client.Get(ctx, s.key(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Wallet{}, false, nil
	}
	if err != nil {
		return domain.Wallet{}, false, err
	}
	var w domain.Wallet
	if err := json.Unmarshal(raw, &w); err != nil {
		return domain.Wallet{}, false, fmt.Errorf("decode wallet %s: %w", userID, err)
	}
	if w.Library == nil {
		w.Library = []domain.LibraryItem{}
	}
	return w, true, nil
}

func (s *WalletStore) Save(ctx context.Context, wallet domain.Wallet) error {
	raw, err := json.Marshal(wallet)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key(wallet.UserID), raw, 0).Err()
}

func (s *WalletStore) key(userID string) string {
	return "wallet:" + userID
}
