package memory

import (
	"context"
	"sync"

	"github.com/sreenu926/50cube-staging/internal/domain"
)

// WalletStore keeps wallets in process memory; everything is lost on restart.
type WalletStore struct {
	mu      sync.RWMutex
	wallets map[string]domain.Wallet
}

func NewWalletStore() *WalletStore {
	return &WalletStore{wallets: make(map[string]domain.Wallet)}
}

func (s *WalletStore) Load(_ context.Context, userID string) (domain.Wallet, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	w, ok := s.wallets[userID]
	if !ok {
		return domain.Wallet{}, false, nil
	}
	w.Library = append([]domain.LibraryItem{}, w.Library...)
	return w, true, nil
}

func (s *WalletStore) Save(_ context.Context, wallet domain.Wallet) error {
	wallet.Library = append([]domain.LibraryItem{}, wallet.Library...)
	s.mu.Lock()
	s.wallets[wallet.UserID] = wallet
	s.mu.Unlock()
	return nil
}
