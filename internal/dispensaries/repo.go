package dispensaries

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/verdantlabs/canopy-backend/pkg/db/models"
	"github.com/verdantlabs/canopy-backend/pkg/pagination"
)

// Repository exposes dispensary persistence.
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

func (r *Repository) Create(ctx context.Context, dispensary *models.Dispensary) (*models.Dispensary, error) {
	if err := r.db.WithContext(ctx).Create(dispensary).Error; err != nil {
		return nil, err
	}
	return dispensary, nil
}

func (r *Repository) Update(ctx context.Context, dispensary *models.Dispensary) (*models.Dispensary, error) {
	if err := r.db.WithContext(ctx).Save(dispensary).Error; err != nil {
		return nil, err
	}
	return dispensary, nil
}

func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.Dispensary{}, "id = ?", id).Error
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Dispensary, error) {
	var dispensary models.Dispensary
	if err := r.db.WithContext(ctx).First(&dispensary, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &dispensary, nil
}

// List returns one cursor page, optionally filtered by a case-insensitive
// search across name and license number.
func (r *Repository) List(ctx context.Context, query ListQuery) ([]models.Dispensary, string, error) {
	pageSize := pagination.NormalizeLimit(query.Pagination.Limit)
	limitWithBuffer := pagination.LimitWithBuffer(query.Pagination.Limit)

	cursor, err := pagination.ParseCursor(query.Pagination.Cursor)
	if err != nil {
		return nil, "", err
	}

	qb := r.db.WithContext(ctx).Model(&models.Dispensary{})
	if search := strings.TrimSpace(query.Query); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		qb = qb.Where("LOWER(name) LIKE ? OR LOWER(license_number) LIKE ?", pattern, pattern)
	}
	if cursor != nil {
		qb = qb.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var rows []models.Dispensary
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

// ListAll loads every dispensary, for snapshot consumers.
func (r *Repository) ListAll(ctx context.Context) ([]models.Dispensary, error) {
	var rows []models.Dispensary
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// CountOrders reports how many orders reference the dispensary.
func (r *Repository) CountOrders(ctx context.Context, id uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.WholesaleOrder{}).
		Where("dispensary_id = ?", id).
		Count(&count).
		Error
	return count, err
}
