package models

import (
	"github.com/google/uuid"
)

// OrderLineItem snapshots product and batch details at sale time so the
// order record survives later batch edits or deletions.
type OrderLineItem struct {
	ID               uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID          uuid.UUID `gorm:"column:order_id;type:uuid;not null;index"`
	TemplateID       uuid.UUID `gorm:"column:template_id;type:uuid;not null;index"`
	BatchID          uuid.UUID `gorm:"column:batch_id;type:uuid;not null"`
	ProductName      string    `gorm:"column:product_name;not null"`
	BatchMetrcID     string    `gorm:"column:batch_metrc_id;not null"`
	Qty              int       `gorm:"column:qty;not null"`
	UnitPriceCents   int       `gorm:"column:unit_price_cents;not null"`
	SubtotalCents    int       `gorm:"column:subtotal_cents;not null"`
	THCPercentAtSale float64   `gorm:"column:thc_percent_at_sale;type:numeric(5,2);not null"`
	CBDPercentAtSale float64   `gorm:"column:cbd_percent_at_sale;type:numeric(5,2);not null"`
}
