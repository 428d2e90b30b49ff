package insights

import (
	"time"

	"github.com/google/uuid"

	"github.com/verdantlabs/canopy-backend/pkg/enums"
)

// SalesQuestionRequest is a filtered natural-language question about sales.
type SalesQuestionRequest struct {
	Question        string                 `json:"question" validate:"required"`
	From            *time.Time             `json:"from,omitempty"`
	To              *time.Time             `json:"to,omitempty"`
	ProductCategory *enums.ProductCategory `json:"product_category,omitempty"`
}

// ProductSales is per-template quantity sold within the filtered window.
type ProductSales struct {
	ProductTemplateID uuid.UUID        `json:"product_template_id"`
	ProductName       string           `json:"product_name"`
	StrainType        enums.StrainType `json:"strain_type"`
	TotalQuantitySold int              `json:"total_quantity_sold"`
}

// ChartPoint is one bar in the top-products chart.
type ChartPoint struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

// SalesAnswerResponse is the filtered Q&A result. When no sales match the
// filters, Summary carries a fixed no-data message and both slices are empty.
type SalesAnswerResponse struct {
	Summary              string         `json:"summary"`
	TopProductsChartData []ChartPoint   `json:"top_products_chart_data"`
	DetailedProductList  []ProductSales `json:"detailed_product_list"`
}

// BusinessAnalysisRequest asks for an open-ended review of the whole operation.
type BusinessAnalysisRequest struct {
	Focus *string `json:"focus,omitempty"`
}

// BusinessAnalysisResponse is the open-ended review result.
type BusinessAnalysisResponse struct {
	Insights         string   `json:"insights"`
	SuggestedActions []string `json:"suggested_actions"`
	Warnings         []string `json:"warnings"`
}

// BusinessSnapshot is the full operational picture handed to the gateway for
// open-ended analysis.
type BusinessSnapshot struct {
	Templates    []SnapshotTemplate   `json:"templates"`
	Batches      []SnapshotBatch      `json:"batches"`
	Dispensaries []SnapshotDispensary `json:"dispensaries"`
	Orders       []SnapshotOrder      `json:"orders"`
}

// SnapshotTemplate is the gateway-facing projection of a product template.
type SnapshotTemplate struct {
	ID         uuid.UUID             `json:"id"`
	Name       string                `json:"name"`
	StrainType enums.StrainType      `json:"strain_type"`
	Category   enums.ProductCategory `json:"category"`
	IsActive   bool                  `json:"is_active"`
}

// SnapshotBatch is the gateway-facing projection of a batch.
type SnapshotBatch struct {
	ID              uuid.UUID `json:"id"`
	TemplateID      uuid.UUID `json:"template_id"`
	THCPercent      float64   `json:"thc_percent"`
	CBDPercent      float64   `json:"cbd_percent"`
	PriceCents      int       `json:"price_cents"`
	CurrentStockQty int       `json:"current_stock_qty"`
	IsActive        bool      `json:"is_active"`
}

// SnapshotDispensary is the gateway-facing projection of a dispensary.
type SnapshotDispensary struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// SnapshotOrder is the gateway-facing projection of an order.
type SnapshotOrder struct {
	ID             uuid.UUID           `json:"id"`
	OrderedAt      time.Time           `json:"ordered_at"`
	DispensaryName string              `json:"dispensary_name"`
	TotalCents     int                 `json:"total_cents"`
	PaymentStatus  enums.PaymentStatus `json:"payment_status"`
	Lines          []SnapshotOrderLine `json:"lines"`
}

// SnapshotOrderLine is one line of a snapshot order.
type SnapshotOrderLine struct {
	TemplateID  uuid.UUID `json:"template_id"`
	ProductName string    `json:"product_name"`
	Qty         int       `json:"qty"`
}
