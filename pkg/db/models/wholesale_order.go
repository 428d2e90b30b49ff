package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/verdantlabs/canopy-backend/pkg/enums"
)

// WholesaleOrder is an immutable sale record; only payment status may change
// after creation.
type WholesaleOrder struct {
	ID                 uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderedAt          time.Time           `gorm:"column:ordered_at;not null;index"`
	DispensaryID       uuid.UUID           `gorm:"column:dispensary_id;type:uuid;not null;index"`
	DispensaryName     string              `gorm:"column:dispensary_name;not null"`
	LineItems          []OrderLineItem     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	TotalCents         int                 `gorm:"column:total_cents;not null"`
	PaymentMethod      enums.PaymentMethod `gorm:"column:payment_method;type:payment_method;not null"`
	PaymentTerms       enums.PaymentTerms  `gorm:"column:payment_terms;type:payment_terms;not null"`
	PaymentStatus      enums.PaymentStatus `gorm:"column:payment_status;type:payment_status;not null;default:'pending'"`
	SalesAssociateID   uuid.UUID           `gorm:"column:sales_associate_id;type:uuid;not null"`
	SalesAssociateName string              `gorm:"column:sales_associate_name;not null"`
	Notes              *string             `gorm:"column:notes"`
	ShipmentDate       *time.Time          `gorm:"column:shipment_date"`
	TrackingNumber     *string             `gorm:"column:tracking_number"`
	MetrcManifestID    *string             `gorm:"column:metrc_manifest_id"`
	CreatedAt          time.Time           `gorm:"column:created_at;autoCreateTime"`
}
