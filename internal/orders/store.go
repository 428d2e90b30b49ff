package orders

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/verdantlabs/canopy-backend/internal/catalog"
	"github.com/verdantlabs/canopy-backend/pkg/db"
	"github.com/verdantlabs/canopy-backend/pkg/db/models"
)

// StockConflictError reports a decrement rejected by the stock guard while an
// order was being applied. The validated snapshot can go stale between
// computation and commit, so the guard is the final arbiter.
type StockConflictError struct {
	BatchID   uuid.UUID
	Requested int
}

func (e *StockConflictError) Error() string {
	return fmt.Sprintf("stock guard rejected %d units from batch %s", e.Requested, e.BatchID)
}

// TxStore commits a computed order atomically: line items, order row, and
// every stock decrement land in one transaction or not at all.
type TxStore struct {
	db      *db.Client
	orders  *Repository
	catalog *catalog.Repository
}

// NewTxStore wires the transactional order writer.
func NewTxStore(client *db.Client, orders *Repository, cat *catalog.Repository) *TxStore {
	return &TxStore{db: client, orders: orders, catalog: cat}
}

// Apply decrements stock for every batch in the order and inserts the order
// with its lines. Any guard rejection rolls the whole transaction back and
// surfaces as *StockConflictError.
func (s *TxStore) Apply(ctx context.Context, order *models.WholesaleOrder, decrements map[uuid.UUID]int) (*models.WholesaleOrder, error) {
	var created *models.WholesaleOrder
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		catRepo := s.catalog.WithTx(tx)
		for batchID, qty := range decrements {
			ok, err := catRepo.DecrementStock(ctx, batchID, qty)
			if err != nil {
				return err
			}
			if !ok {
				return &StockConflictError{BatchID: batchID, Requested: qty}
			}
		}
		var err error
		created, err = s.orders.WithTx(tx).Create(ctx, order)
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}
