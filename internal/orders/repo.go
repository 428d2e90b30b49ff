package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/verdantlabs/canopy-backend/pkg/db/models"
	"github.com/verdantlabs/canopy-backend/pkg/pagination"
)

// Repository exposes wholesale order persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// Create inserts the order and its line items in one write.
func (r *Repository) Create(ctx context.Context, order *models.WholesaleOrder) (*models.WholesaleOrder, error) {
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

// FindByID loads an order with its line items.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.WholesaleOrder, error) {
	var order models.WholesaleOrder
	err := r.db.WithContext(ctx).
		Preload("LineItems").
		First(&order, "id = ?", id).
		Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// List returns one cursor page of orders matching the filters, newest first.
func (r *Repository) List(ctx context.Context, query OrderListQuery) ([]models.WholesaleOrder, string, error) {
	pageSize := pagination.NormalizeLimit(query.Pagination.Limit)
	limitWithBuffer := pagination.LimitWithBuffer(query.Pagination.Limit)

	cursor, err := pagination.ParseCursor(query.Pagination.Cursor)
	if err != nil {
		return nil, "", err
	}

	qb := r.db.WithContext(ctx).Model(&models.WholesaleOrder{}).Preload("LineItems")

	filter := query.Filters
	if filter.DispensaryID != nil {
		qb = qb.Where("dispensary_id = ?", *filter.DispensaryID)
	}
	if filter.PaymentStatus != nil {
		qb = qb.Where("payment_status = ?", *filter.PaymentStatus)
	}
	if filter.From != nil {
		qb = qb.Where("ordered_at >= ?", *filter.From)
	}
	if filter.To != nil {
		qb = qb.Where("ordered_at <= ?", *filter.To)
	}

	if cursor != nil {
		qb = qb.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var rows []models.WholesaleOrder
	err = qb.Order("created_at DESC").Order("id DESC").Limit(limitWithBuffer).Find(&rows).Error
	if err != nil {
		return nil, "", err
	}

	nextCursor := ""
	if len(rows) > pageSize {
		rows = rows[:pageSize]
		last := rows[len(rows)-1]
		nextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return rows, nextCursor, nil
}

// ListInRange loads all orders whose order date falls inside [from, to],
// with line items, for reporting and insights aggregation.
func (r *Repository) ListInRange(ctx context.Context, query RangeQuery) ([]models.WholesaleOrder, error) {
	qb := r.db.WithContext(ctx).Model(&models.WholesaleOrder{}).Preload("LineItems")
	if !query.From.IsZero() {
		qb = qb.Where("ordered_at >= ?", query.From)
	}
	if !query.To.IsZero() {
		qb = qb.Where("ordered_at <= ?", query.To)
	}
	if query.ExcludeCancelled {
		qb = qb.Where("payment_status <> ?", "cancelled")
	}

	var rows []models.WholesaleOrder
	if err := qb.Order("ordered_at ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// UpdatePaymentStatus writes the new status.
func (r *Repository) UpdatePaymentStatus(ctx context.Context, id uuid.UUID, status string) error {
	return r.db.WithContext(ctx).
		Model(&models.WholesaleOrder{}).
		Where("id = ?", id).
		UpdateColumn("payment_status", status).Error
}

// UpdateFulfillment writes shipment tracking fields.
func (r *Repository) UpdateFulfillment(ctx context.Context, id uuid.UUID, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.WholesaleOrder{}).
		Where("id = ?", id).
		Updates(fields).Error
}
