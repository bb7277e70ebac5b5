// Package backup exports and imports the full dataset as one compressed
// JSON document.
package backup

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/klauspost/compress/zstd"

	"balcao/internal/core/apperror"
	"balcao/internal/core/entity"
	"balcao/internal/core/tx"
	"balcao/internal/domain/auth"
	"balcao/internal/domain/catalog/customer"
	"balcao/internal/domain/catalog/kit"
	"balcao/internal/domain/catalog/product"
	"balcao/internal/domain/catalog/supplier"
	"balcao/internal/domain/finance"
	"balcao/internal/domain/promotion"
	"balcao/internal/domain/purchase"
	"balcao/internal/domain/sale"
	"balcao/pkg/logger"
)

// snapshotVersion guards against importing documents written by an
// incompatible schema.
const snapshotVersion = 1

// Snapshot is the complete dataset at one point in time.
type Snapshot struct {
	Version   int       `json:"version"`
	CreatedAt time.Time `json:"createdAt"`

	Products     []*product.Product       `json:"products"`
	Kits         []*kit.Kit               `json:"kits"`
	Customers    []*customer.Customer     `json:"customers"`
	Suppliers    []*supplier.Supplier     `json:"suppliers"`
	Promotions   []*promotion.Promotion   `json:"promotions"`
	Sales        []*sale.Sale             `json:"sales"`
	Purchases    []*purchase.Purchase     `json:"purchases"`
	Transactions []*finance.Transaction   `json:"transactions"`
	Movements    []entity.StockMovement   `json:"movements"`
	Batches      []*entity.StockBatch     `json:"batches"`
	Users        []*auth.User             `json:"users"`
}

// Store reads and replaces the persisted dataset. Import runs inside the
// transaction the service opens: a half-restored database never becomes
// visible.
type Store interface {
	Export(ctx context.Context) (*Snapshot, error)
	Import(ctx context.Context, snap *Snapshot) error
}

// Service streams snapshots as zstd-compressed JSON.
type Service struct {
	store     Store
	txManager tx.Manager
}

// NewService creates the backup service.
func NewService(store Store, txManager tx.Manager) *Service {
	return &Service{store: store, txManager: txManager}
}

// Export writes the full dataset to w.
func (s *Service) Export(ctx context.Context, w io.Writer) error {
	snap, err := s.store.Export(ctx)
	if err != nil {
		return fmt.Errorf("export snapshot: %w", err)
	}
	snap.Version = snapshotVersion
	snap.CreatedAt = time.Now().UTC()

	enc, err := zstd.NewWriter(w)
	if err != nil {
		return fmt.Errorf("open zstd writer: %w", err)
	}

	if err := json.NewEncoder(enc).Encode(snap); err != nil {
		enc.Close()
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("flush zstd writer: %w", err)
	}

	logger.Info(ctx, "backup exported",
		"products", len(snap.Products),
		"sales", len(snap.Sales),
		"transactions", len(snap.Transactions),
	)
	return nil
}

// Import replaces the entire dataset with the snapshot read from r,
// all-or-nothing.
func (s *Service) Import(ctx context.Context, r io.Reader) error {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return apperror.NewValidation("backup file is not a valid zstd stream")
	}
	defer dec.Close()

	var snap Snapshot
	if err := json.NewDecoder(dec).Decode(&snap); err != nil {
		return apperror.NewValidation("backup file is not a valid snapshot").
			WithDetail("error", err.Error())
	}
	if snap.Version != snapshotVersion {
		return apperror.NewValidation("unsupported backup version").
			WithDetail("version", snap.Version).
			WithDetail("supported", snapshotVersion)
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.store.Import(ctx, &snap)
	})
	if err != nil {
		return fmt.Errorf("import snapshot: %w", err)
	}

	logger.Info(ctx, "backup imported",
		"created_at", snap.CreatedAt,
		"products", len(snap.Products),
		"sales", len(snap.Sales),
	)
	return nil
}
