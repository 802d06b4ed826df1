package app

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/sreenu926/50cube-staging/internal/domain"
)

const (
	DefaultStartingCredits = 1000
	DefaultMaxDownloads    = 5
	DefaultLinkTTL         = 24 * time.Hour
)

// CatalogSource fetches the remote readers catalog.
type CatalogSource interface {
	ReadersCatalog(ctx context.Context) ([]domain.Reader, error)
}

// CatalogFallback supplies the sample catalog.
type CatalogFallback interface {
	Catalog() []domain.Reader
}

// WalletStore persists one wallet per user. Load reports false for users that
// have never been seen. Save overwrites; concurrent purchases by the same user
// may lose one update.
type WalletStore interface {
	Load(ctx context.Context, userID string) (domain.Wallet, bool, error)
	Save(ctx context.Context, wallet domain.Wallet) error
}

// ReadersConfig holds wallet and download limits.
type ReadersConfig struct {
	StartingCredits int
	MaxDownloads    int
	LinkTTL         time.Duration
	DownloadBaseURL string
}

// ReadersService runs the readers store: catalog, purchases and downloads.
type ReadersService struct {
	source   CatalogSource
	fallback CatalogFallback
	wallets  WalletStore
	cfg      ReadersConfig
	metrics  Metrics
	log      logrus.FieldLogger
	now      func() time.Time
	newToken func() string
}

func NewReadersService(source CatalogSource, fallback CatalogFallback, wallets WalletStore, cfg ReadersConfig, metrics Metrics, log logrus.FieldLogger) *ReadersService {
	if cfg.StartingCredits <= 0 {
		cfg.StartingCredits = DefaultStartingCredits
	}
	if cfg.MaxDownloads <= 0 {
		cfg.MaxDownloads = DefaultMaxDownloads
	}
	if cfg.LinkTTL <= 0 {
		cfg.LinkTTL = DefaultLinkTTL
	}
	if cfg.DownloadBaseURL == "" {
		cfg.DownloadBaseURL = "/api/readers/files"
	}
	if metrics == nil {
		metrics = NoopMetrics{}
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &ReadersService{
		source:   source,
		fallback: fallback,
		wallets:  wallets,
		cfg:      cfg,
		metrics:  metrics,
		log:      log,
		now:      time.Now,
		newToken: uuid.NewString,
	}
}

// SetClock is test-only.
func (s *ReadersService) SetClock(now func() time.Time) { s.now = now }

func (s *ReadersService) catalog(ctx context.Context) ([]domain.Reader, bool) {
	if s.source != nil {
		readers, err := s.source.ReadersCatalog(ctx)
		if err == nil && len(readers) > 0 {
			return readers, false
		}
		s.metrics.FallbackUsed("readers")
		s.log.WithError(err).Warn("readers catalog unavailable, serving fallback")
	}
	return s.fallback.Catalog(), true
}

// Catalog lists readers, marking those the user already owns.
func (s *ReadersService) Catalog(ctx context.Context, userID string) (domain.ReaderCatalog, error) {
	readers, fromFallback := s.catalog(ctx)
	wallet, err := s.Wallet(ctx, userID)
	if err != nil {
		return domain.ReaderCatalog{}, err
	}
	out := make([]domain.Reader, len(readers))
	for i, r := range readers {
		r.Purchased = wallet.Owns(r.ID)
		out[i] = r
	}
	return domain.ReaderCatalog{Readers: out, FromFallback: fromFallback}, nil
}

// Wallet returns the user's wallet, opening one with the starting credits on
// first use.
func (s *ReadersService) Wallet(ctx context.Context, userID string) (domain.Wallet, error) {
	wallet, ok, err := s.wallets.Load(ctx, userID)
	if err != nil {
		return domain.Wallet{}, fmt.Errorf("load wallet %s: %w", userID, err)
	}
	if !ok {
		wallet = domain.Wallet{UserID: userID, Credits: s.cfg.StartingCredits, Library: []domain.LibraryItem{}}
	}
	return wallet, nil
}

// Purchase buys a reader with credits and adds it to the user's library.
func (s *ReadersService) Purchase(ctx context.Context, userID, readerID string) (domain.Wallet, domain.LibraryItem, error) {
	readers, _ := s.catalog(ctx)
	var reader *domain.Reader
	for i := range readers {
		if readers[i].ID == readerID {
			reader = &readers[i]
			break
		}
	}
	if reader == nil {
		return domain.Wallet{}, domain.LibraryItem{}, domain.ErrReaderNotFound
	}

	wallet, err := s.Wallet(ctx, userID)
	if err != nil {
		return domain.Wallet{}, domain.LibraryItem{}, err
	}
	if wallet.Owns(readerID) {
		return wallet, domain.LibraryItem{}, domain.ErrAlreadyPurchased
	}
	if wallet.Credits < reader.Price {
		return wallet, domain.LibraryItem{}, domain.ErrInsufficientCredits
	}

	item := domain.LibraryItem{
		ReaderID:      reader.ID,
		Title:         reader.Title,
		Author:        reader.Author,
		Category:      reader.Category,
		Pages:         reader.Pages,
		Price:         reader.Price,
		PurchasedAt:   s.now(),
		DownloadToken: s.newToken(),
		MaxDownloads:  s.cfg.MaxDownloads,
	}
	wallet.Credits -= reader.Price
	wallet.Library = append(wallet.Library, item)
	if err := s.wallets.Save(ctx, wallet); err != nil {
		return domain.Wallet{}, domain.LibraryItem{}, fmt.Errorf("save wallet %s: %w", userID, err)
	}

	s.log.WithFields(logrus.Fields{"user": userID, "reader": readerID, "credits": wallet.Credits}).Info("reader purchased")
	return wallet, item, nil
}

// Library lists the user's purchased readers.
func (s *ReadersService) Library(ctx context.Context, userID string) ([]domain.LibraryItem, error) {
	wallet, err := s.Wallet(ctx, userID)
	if err != nil {
		return nil, err
	}
	return wallet.Library, nil
}

// Download issues a download link for an owned reader. Links stop working
// LinkTTL after purchase or after MaxDownloads uses.
func (s *ReadersService) Download(ctx context.Context, userID, readerID string) (domain.DownloadLink, error) {
	wallet, err := s.Wallet(ctx, userID)
	if err != nil {
		return domain.DownloadLink{}, err
	}
	idx := -1
	for i := range wallet.Library {
		if wallet.Library[i].ReaderID == readerID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return domain.DownloadLink{}, domain.ErrNotPurchased
	}

	item := &wallet.Library[idx]
	expires := item.PurchasedAt.Add(s.cfg.LinkTTL)
	if !s.now().Before(expires) {
		return domain.DownloadLink{}, domain.ErrDownloadExpired
	}
	if item.DownloadCount >= item.MaxDownloads {
		return domain.DownloadLink{}, domain.ErrDownloadLimit
	}
	item.DownloadCount++
	if err := s.wallets.Save(ctx, wallet); err != nil {
		return domain.DownloadLink{}, fmt.Errorf("save wallet %s: %w", userID, err)
	}

	return domain.DownloadLink{
		URL:       fmt.Sprintf("%s/%s?token=%s", s.cfg.DownloadBaseURL, readerID, item.DownloadToken),
		ExpiresAt: expires,
		Remaining: item.MaxDownloads - item.DownloadCount,
	}, nil
}

// ClearLibrary empties the user's library. Spent credits are not refunded.
func (s *ReadersService) ClearLibrary(ctx context.Context, userID string) (domain.Wallet, error) {
	wallet, err := s.Wallet(ctx, userID)
	if err != nil {
		return domain.Wallet{}, err
	}
	wallet.Library = []domain.LibraryItem{}
	if err := s.wallets.Save(ctx, wallet); err != nil {
		return domain.Wallet{}, fmt.Errorf("save wallet %s: %w", userID, err)
	}
	return wallet, nil
}
