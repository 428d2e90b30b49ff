package orders

import (
	"time"

	"github.com/google/uuid"

	"github.com/verdantlabs/canopy-backend/pkg/db/models"
	"github.com/verdantlabs/canopy-backend/pkg/enums"
	"github.com/verdantlabs/canopy-backend/pkg/pagination"
)

// OrderLineRequest is one product/batch/quantity tuple submitted by a sales rep.
type OrderLineRequest struct {
	TemplateID uuid.UUID `json:"template_id" validate:"required"`
	BatchID    uuid.UUID `json:"batch_id" validate:"required"`
	Qty        int       `json:"qty" validate:"required"`
}

// CreateOrderRequest captures a new wholesale order submission.
type CreateOrderRequest struct {
	DispensaryID  uuid.UUID           `json:"dispensary_id" validate:"required"`
	OrderedAt     *time.Time          `json:"ordered_at,omitempty"`
	PaymentMethod enums.PaymentMethod `json:"payment_method" validate:"required"`
	PaymentTerms  enums.PaymentTerms  `json:"payment_terms" validate:"required"`
	Notes         *string             `json:"notes,omitempty"`
	Lines         []OrderLineRequest  `json:"lines" validate:"required"`
}

// UpdatePaymentStatusRequest moves an order along the payment lifecycle.
type UpdatePaymentStatusRequest struct {
	Status enums.PaymentStatus `json:"status" validate:"required"`
}

// UpdateFulfillmentRequest records shipping details after the sale.
type UpdateFulfillmentRequest struct {
	ShipmentDate    *time.Time `json:"shipment_date,omitempty"`
	TrackingNumber  *string    `json:"tracking_number,omitempty"`
	MetrcManifestID *string    `json:"metrc_manifest_id,omitempty"`
}

// LineItemDTO is the API projection of an order line.
type LineItemDTO struct {
	ID               uuid.UUID `json:"id"`
	TemplateID       uuid.UUID `json:"template_id"`
	BatchID          uuid.UUID `json:"batch_id"`
	ProductName      string    `json:"product_name"`
	BatchMetrcID     string    `json:"batch_metrc_id"`
	Qty              int       `json:"qty"`
	UnitPriceCents   int       `json:"unit_price_cents"`
	SubtotalCents    int       `json:"subtotal_cents"`
	THCPercentAtSale float64   `json:"thc_percent_at_sale"`
	CBDPercentAtSale float64   `json:"cbd_percent_at_sale"`
}

// OrderDTO is the API projection of a wholesale order.
type OrderDTO struct {
	ID                 uuid.UUID           `json:"id"`
	OrderedAt          time.Time           `json:"ordered_at"`
	DispensaryID       uuid.UUID           `json:"dispensary_id"`
	DispensaryName     string              `json:"dispensary_name"`
	LineItems          []LineItemDTO       `json:"line_items"`
	TotalCents         int                 `json:"total_cents"`
	PaymentMethod      enums.PaymentMethod `json:"payment_method"`
	PaymentTerms       enums.PaymentTerms  `json:"payment_terms"`
	PaymentStatus      enums.PaymentStatus `json:"payment_status"`
	SalesAssociateID   uuid.UUID           `json:"sales_associate_id"`
	SalesAssociateName string              `json:"sales_associate_name"`
	Notes              *string             `json:"notes,omitempty"`
	ShipmentDate       *time.Time          `json:"shipment_date,omitempty"`
	TrackingNumber     *string             `json:"tracking_number,omitempty"`
	MetrcManifestID    *string             `json:"metrc_manifest_id,omitempty"`
	CreatedAt          time.Time           `json:"created_at"`
}

// OrderListFilters narrow the order listing.
type OrderListFilters struct {
	DispensaryID  *uuid.UUID
	PaymentStatus *enums.PaymentStatus
	From          *time.Time
	To            *time.Time
}

// OrderListQuery bundles pagination and filters for the list endpoint.
type OrderListQuery struct {
	Pagination pagination.Params
	Filters    OrderListFilters
}

// RangeQuery selects orders by order date for aggregation consumers.
type RangeQuery struct {
	From             time.Time
	To               time.Time
	ExcludeCancelled bool
}

// OrderListResult is one page of orders.
type OrderListResult struct {
	Orders     []OrderDTO `json:"orders"`
	NextCursor string     `json:"next_cursor,omitempty"`
}

func orderFromModel(o *models.WholesaleOrder) OrderDTO {
	dto := OrderDTO{
		ID:                 o.ID,
		OrderedAt:          o.OrderedAt,
		DispensaryID:       o.DispensaryID,
		DispensaryName:     o.DispensaryName,
		LineItems:          make([]LineItemDTO, 0, len(o.LineItems)),
		TotalCents:         o.TotalCents,
		PaymentMethod:      o.PaymentMethod,
		PaymentTerms:       o.PaymentTerms,
		PaymentStatus:      o.PaymentStatus,
		SalesAssociateID:   o.SalesAssociateID,
		SalesAssociateName: o.SalesAssociateName,
		Notes:              o.Notes,
		ShipmentDate:       o.ShipmentDate,
		TrackingNumber:     o.TrackingNumber,
		MetrcManifestID:    o.MetrcManifestID,
		CreatedAt:          o.CreatedAt,
	}
	for i := range o.LineItems {
		li := &o.LineItems[i]
		dto.LineItems = append(dto.LineItems, LineItemDTO{
			ID:               li.ID,
			TemplateID:       li.TemplateID,
			BatchID:          li.BatchID,
			ProductName:      li.ProductName,
			BatchMetrcID:     li.BatchMetrcID,
			Qty:              li.Qty,
			UnitPriceCents:   li.UnitPriceCents,
			SubtotalCents:    li.SubtotalCents,
			THCPercentAtSale: li.THCPercentAtSale,
			CBDPercentAtSale: li.CBDPercentAtSale,
		})
	}
	return dto
}
