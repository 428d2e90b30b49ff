package models

import (
	"time"

	"github.com/google/uuid"
)

// ProductBatch is a traceable lot of a template, tagged with a METRC package id.
// A batch is available for sale only when active and in stock.
type ProductBatch struct {
	ID              uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	TemplateID      uuid.UUID  `gorm:"column:template_id;type:uuid;not null;index"`
	MetrcPackageID  string     `gorm:"column:metrc_package_id;not null;uniqueIndex"`
	THCPercent      float64    `gorm:"column:thc_percent;type:numeric(5,2);not null"`
	CBDPercent      float64    `gorm:"column:cbd_percent;type:numeric(5,2);not null"`
	PriceCents      int        `gorm:"column:price_cents;not null"`
	CurrentStockQty int        `gorm:"column:current_stock_qty;not null;default:0"`
	IsActive        bool       `gorm:"column:is_active;not null;default:true"`
	ProductionDate  *time.Time `gorm:"column:production_date"`
	ExpirationDate  *time.Time `gorm:"column:expiration_date"`
	CreatedAt       time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

// Available reports whether the batch can currently be sold from.
func (b ProductBatch) Available() bool {
	return b.IsActive && b.CurrentStockQty > 0
}
