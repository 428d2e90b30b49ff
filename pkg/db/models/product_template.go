package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/verdantlabs/canopy-backend/pkg/enums"
)

// ProductTemplate represents a sellable product concept, independent of any lot.
// Its id and unit of measure are immutable once batches reference it.
type ProductTemplate struct {
	ID          uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name        string                `gorm:"column:name;not null"`
	StrainType  enums.StrainType      `gorm:"column:strain_type;type:strain_type;not null"`
	Category    enums.ProductCategory `gorm:"column:category;type:product_category;not null"`
	Unit        enums.UnitOfMeasure   `gorm:"column:unit;type:unit_of_measure;not null"`
	Supplier    string                `gorm:"column:supplier;not null"`
	Description *string               `gorm:"column:description"`
	ImageURL    *string               `gorm:"column:image_url"`
	IsActive    bool                  `gorm:"column:is_active;not null;default:true"`
	Batches     []ProductBatch        `gorm:"foreignKey:TemplateID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}
