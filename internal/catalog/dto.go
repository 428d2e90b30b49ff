package catalog

import (
	"time"

	"github.com/google/uuid"

	"github.com/verdantlabs/canopy-backend/pkg/db/models"
	"github.com/verdantlabs/canopy-backend/pkg/enums"
	"github.com/verdantlabs/canopy-backend/pkg/pagination"
)

// CreateTemplateRequest describes a new product concept.
type CreateTemplateRequest struct {
	Name        string                `json:"name" validate:"required,max=200"`
	StrainType  enums.StrainType      `json:"strain_type" validate:"required"`
	Category    enums.ProductCategory `json:"category" validate:"required"`
	Unit        enums.UnitOfMeasure   `json:"unit" validate:"required"`
	Supplier    string                `json:"supplier" validate:"required,max=200"`
	Description *string               `json:"description,omitempty"`
	ImageURL    *string               `json:"image_url,omitempty"`
}

// UpdateTemplateRequest mutates template fields. The unit of measure is
// immutable once batches reference the template.
type UpdateTemplateRequest struct {
	Name        *string                `json:"name,omitempty" validate:"omitempty,max=200"`
	StrainType  *enums.StrainType      `json:"strain_type,omitempty"`
	Category    *enums.ProductCategory `json:"category,omitempty"`
	Supplier    *string                `json:"supplier,omitempty" validate:"omitempty,max=200"`
	Description *string                `json:"description,omitempty"`
	ImageURL    *string                `json:"image_url,omitempty"`
	IsActive    *bool                  `json:"is_active,omitempty"`
}

// CreateBatchRequest describes a new traceable lot under a template.
type CreateBatchRequest struct {
	TemplateID      uuid.UUID  `json:"template_id" validate:"required"`
	MetrcPackageID  string     `json:"metrc_package_id" validate:"required,max=100"`
	THCPercent      float64    `json:"thc_percent" validate:"gte=0,lte=100"`
	CBDPercent      float64    `json:"cbd_percent" validate:"gte=0,lte=100"`
	PriceCents      int        `json:"price_cents" validate:"gte=0"`
	CurrentStockQty int        `json:"current_stock_qty" validate:"gte=0"`
	ProductionDate  *time.Time `json:"production_date,omitempty"`
	ExpirationDate  *time.Time `json:"expiration_date,omitempty"`
}

// UpdateBatchRequest mutates batch fields. Template linkage and the METRC
// package id are immutable.
type UpdateBatchRequest struct {
	THCPercent      *float64   `json:"thc_percent,omitempty" validate:"omitempty,gte=0,lte=100"`
	CBDPercent      *float64   `json:"cbd_percent,omitempty" validate:"omitempty,gte=0,lte=100"`
	PriceCents      *int       `json:"price_cents,omitempty" validate:"omitempty,gte=0"`
	CurrentStockQty *int       `json:"current_stock_qty,omitempty" validate:"omitempty,gte=0"`
	IsActive        *bool      `json:"is_active,omitempty"`
	ProductionDate  *time.Time `json:"production_date,omitempty"`
	ExpirationDate  *time.Time `json:"expiration_date,omitempty"`
}

// TemplateDTO is the API projection of a product template.
type TemplateDTO struct {
	ID          uuid.UUID             `json:"id"`
	Name        string                `json:"name"`
	StrainType  enums.StrainType      `json:"strain_type"`
	Category    enums.ProductCategory `json:"category"`
	Unit        enums.UnitOfMeasure   `json:"unit"`
	Supplier    string                `json:"supplier"`
	Description *string               `json:"description,omitempty"`
	ImageURL    *string               `json:"image_url,omitempty"`
	IsActive    bool                  `json:"is_active"`
	CreatedAt   time.Time             `json:"created_at"`
	UpdatedAt   time.Time             `json:"updated_at"`
}

// BatchDTO is the API projection of a product batch.
type BatchDTO struct {
	ID              uuid.UUID  `json:"id"`
	TemplateID      uuid.UUID  `json:"template_id"`
	MetrcPackageID  string     `json:"metrc_package_id"`
	THCPercent      float64    `json:"thc_percent"`
	CBDPercent      float64    `json:"cbd_percent"`
	PriceCents      int        `json:"price_cents"`
	CurrentStockQty int        `json:"current_stock_qty"`
	IsActive        bool       `json:"is_active"`
	ProductionDate  *time.Time `json:"production_date,omitempty"`
	ExpirationDate  *time.Time `json:"expiration_date,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// TemplateWithRollup pairs a template with the aggregate derived from its batches.
type TemplateWithRollup struct {
	TemplateDTO
	Rollup  Rollup     `json:"rollup"`
	Batches []BatchDTO `json:"batches,omitempty"`
}

// TemplateListFilters narrow the catalog listing.
type TemplateListFilters struct {
	Category   *enums.ProductCategory
	StrainType *enums.StrainType
	Query      string
	ActiveOnly bool
}

// TemplateListQuery bundles pagination and filters for the list endpoint.
type TemplateListQuery struct {
	Pagination pagination.Params
	Filters    TemplateListFilters
}

// TemplateListResult is one page of templates plus their rollups.
type TemplateListResult struct {
	Templates  []TemplateWithRollup `json:"templates"`
	NextCursor string               `json:"next_cursor,omitempty"`
}

func templateFromModel(t *models.ProductTemplate) TemplateDTO {
	return TemplateDTO{
		ID:          t.ID,
		Name:        t.Name,
		StrainType:  t.StrainType,
		Category:    t.Category,
		Unit:        t.Unit,
		Supplier:    t.Supplier,
		Description: t.Description,
		ImageURL:    t.ImageURL,
		IsActive:    t.IsActive,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func batchFromModel(b *models.ProductBatch) BatchDTO {
	return BatchDTO{
		ID:              b.ID,
		TemplateID:      b.TemplateID,
		MetrcPackageID:  b.MetrcPackageID,
		THCPercent:      b.THCPercent,
		CBDPercent:      b.CBDPercent,
		PriceCents:      b.PriceCents,
		CurrentStockQty: b.CurrentStockQty,
		IsActive:        b.IsActive,
		ProductionDate:  b.ProductionDate,
		ExpirationDate:  b.ExpirationDate,
		CreatedAt:       b.CreatedAt,
		UpdatedAt:       b.UpdatedAt,
	}
}
