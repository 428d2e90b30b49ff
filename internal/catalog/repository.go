package catalog

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/verdantlabs/canopy-backend/pkg/db/models"
	"github.com/verdantlabs/canopy-backend/pkg/pagination"
)

// Repository wires together catalog persistence for templates and batches.
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

// CreateTemplate inserts a new template row.
func (r *Repository) CreateTemplate(ctx context.Context, template *models.ProductTemplate) (*models.ProductTemplate, error) {
	if err := r.db.WithContext(ctx).Create(template).Error; err != nil {
		return nil, err
	}
	return template, nil
}

// UpdateTemplate saves the full template row.
func (r *Repository) UpdateTemplate(ctx context.Context, template *models.ProductTemplate) (*models.ProductTemplate, error) {
	if err := r.db.WithContext(ctx).Save(template).Error; err != nil {
		return nil, err
	}
	return template, nil
}

// DeleteTemplate removes a template; batches cascade at the database level.
func (r *Repository) DeleteTemplate(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.ProductTemplate{}).Error
}

// FindTemplateByID loads the template without associations.
func (r *Repository) FindTemplateByID(ctx context.Context, id uuid.UUID) (*models.ProductTemplate, error) {
	var template models.ProductTemplate
	if err := r.db.WithContext(ctx).First(&template, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &template, nil
}

// FindTemplateDetail loads the template with all its batches, newest first.
func (r *Repository) FindTemplateDetail(ctx context.Context, id uuid.UUID) (*models.ProductTemplate, error) {
	var template models.ProductTemplate
	err := r.db.WithContext(ctx).
		Preload("Batches", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at DESC")
		}).
		First(&template, "id = ?", id).
		Error
	if err != nil {
		return nil, err
	}
	return &template, nil
}

// ListTemplates returns one cursor page of templates matching the filters.
func (r *Repository) ListTemplates(ctx context.Context, query TemplateListQuery) ([]models.ProductTemplate, string, error) {
	pageSize := pagination.NormalizeLimit(query.Pagination.Limit)
	limitWithBuffer := pagination.LimitWithBuffer(query.Pagination.Limit)

	cursor, err := pagination.ParseCursor(query.Pagination.Cursor)
	if err != nil {
		return nil, "", err
	}

	qb := r.db.WithContext(ctx).Model(&models.ProductTemplate{})

	filter := query.Filters
	if filter.Category != nil {
		qb = qb.Where("category = ?", *filter.Category)
	}
	if filter.StrainType != nil {
		qb = qb.Where("strain_type = ?", *filter.StrainType)
	}
	if filter.ActiveOnly {
		qb = qb.Where("is_active = ?", true)
	}
	if search := strings.TrimSpace(filter.Query); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		qb = qb.Where("(LOWER(name) LIKE ? OR LOWER(supplier) LIKE ?)", pattern, pattern)
	}

	if cursor != nil {
		qb = qb.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var rows []models.ProductTemplate
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

// ListBatchesByTemplates loads all batches belonging to the given templates,
// keyed by template id.
func (r *Repository) ListBatchesByTemplates(ctx context.Context, templateIDs []uuid.UUID) (map[uuid.UUID][]models.ProductBatch, error) {
	grouped := make(map[uuid.UUID][]models.ProductBatch, len(templateIDs))
	if len(templateIDs) == 0 {
		return grouped, nil
	}

	var rows []models.ProductBatch
	err := r.db.WithContext(ctx).
		Where("template_id IN ?", templateIDs).
		Order("created_at DESC").
		Find(&rows).
		Error
	if err != nil {
		return nil, err
	}
	for i := range rows {
		grouped[rows[i].TemplateID] = append(grouped[rows[i].TemplateID], rows[i])
	}
	return grouped, nil
}

// CreateBatch inserts a new batch row.
func (r *Repository) CreateBatch(ctx context.Context, batch *models.ProductBatch) (*models.ProductBatch, error) {
	if err := r.db.WithContext(ctx).Create(batch).Error; err != nil {
		return nil, err
	}
	return batch, nil
}

// UpdateBatch saves the full batch row.
func (r *Repository) UpdateBatch(ctx context.Context, batch *models.ProductBatch) (*models.ProductBatch, error) {
	if err := r.db.WithContext(ctx).Save(batch).Error; err != nil {
		return nil, err
	}
	return batch, nil
}

// DeleteBatch removes a batch by ID.
func (r *Repository) DeleteBatch(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.ProductBatch{}).Error
}

// FindBatchByID loads a single batch.
func (r *Repository) FindBatchByID(ctx context.Context, id uuid.UUID) (*models.ProductBatch, error) {
	var batch models.ProductBatch
	if err := r.db.WithContext(ctx).First(&batch, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &batch, nil
}

// FindBatchesByIDs loads the requested batches keyed by id.
func (r *Repository) FindBatchesByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.ProductBatch, error) {
	out := make(map[uuid.UUID]models.ProductBatch, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []models.ProductBatch
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for i := range rows {
		out[rows[i].ID] = rows[i]
	}
	return out, nil
}

// ListAllTemplates loads every template, for snapshot consumers.
func (r *Repository) ListAllTemplates(ctx context.Context) ([]models.ProductTemplate, error) {
	var rows []models.ProductTemplate
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ListAllBatches loads every batch, for snapshot consumers.
func (r *Repository) ListAllBatches(ctx context.Context) ([]models.ProductBatch, error) {
	var rows []models.ProductBatch
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// FindTemplatesByIDs loads the requested templates keyed by id.
func (r *Repository) FindTemplatesByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.ProductTemplate, error) {
	out := make(map[uuid.UUID]models.ProductTemplate, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []models.ProductTemplate
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for i := range rows {
		out[rows[i].ID] = rows[i]
	}
	return out, nil
}

// DecrementStock atomically subtracts qty from the batch, guarding against
// oversell: the UPDATE only matches while enough stock remains, so two
// concurrent orders cannot both take the last units. Returns false when the
// guard rejected the decrement.
func (r *Repository) DecrementStock(ctx context.Context, batchID uuid.UUID, qty int) (bool, error) {
	if qty <= 0 {
		return false, nil
	}
	result := r.db.WithContext(ctx).
		Model(&models.ProductBatch{}).
		Where("id = ? AND current_stock_qty >= ?", batchID, qty).
		UpdateColumn("current_stock_qty", gorm.Expr("current_stock_qty - ?", qty))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// CountBatchesForTemplate reports how many batches reference the template.
func (r *Repository) CountBatchesForTemplate(ctx context.Context, templateID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.ProductBatch{}).
		Where("template_id = ?", templateID).
		Count(&count).
		Error
	return count, err
}
