package orders

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/verdantlabs/canopy-backend/pkg/db/models"
	pkgerrors "github.com/verdantlabs/canopy-backend/pkg/errors"
)

// Failure reasons attached to validation errors via details, so API clients
// can branch without parsing messages.
const (
	ReasonEmptyOrder            = "empty_order"
	ReasonUnknownTemplate       = "unknown_template"
	ReasonUnknownBatch          = "unknown_batch"
	ReasonBatchTemplateMismatch = "batch_template_mismatch"
	ReasonInsufficientStock     = "insufficient_stock"
	ReasonInvalidQuantity       = "invalid_quantity"
)

// CatalogSnapshot is the slice of catalog state an order is validated against.
type CatalogSnapshot struct {
	Templates map[uuid.UUID]models.ProductTemplate
	Batches   map[uuid.UUID]models.ProductBatch
}

// ComputedLine is one validated, priced order line. Price and potency are
// copied from the batch at computation time.
type ComputedLine struct {
	TemplateID       uuid.UUID
	BatchID          uuid.UUID
	ProductName      string
	BatchMetrcID     string
	Qty              int
	UnitPriceCents   int
	SubtotalCents    int
	THCPercentAtSale float64
	CBDPercentAtSale float64
}

// ComputedOrder is the result of a successful validation pass: priced lines,
// the cent-exact total, and the per-batch decrement set still to be applied.
type ComputedOrder struct {
	Lines      []ComputedLine
	TotalCents int
	Decrements map[uuid.UUID]int
}

// Compute validates and prices the submitted lines against the snapshot.
// Validation short-circuits on the first failure and never mutates anything;
// applying the decrement set is the caller's separate, transactional step.
//
// Checks run in a fixed order: empty submission, then per-line catalog
// resolution (template, batch, linkage), then stock sufficiency, then
// quantity positivity.
func Compute(lines []OrderLineRequest, snapshot CatalogSnapshot) (*ComputedOrder, error) {
	if len(lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order has no line items").
			WithDetails(map[string]any{"reason": ReasonEmptyOrder})
	}

	for _, line := range lines {
		if _, ok := snapshot.Templates[line.TemplateID]; !ok {
			return nil, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("unknown product template %s", line.TemplateID)).
				WithDetails(map[string]any{
					"reason":      ReasonUnknownTemplate,
					"template_id": line.TemplateID.String(),
				})
		}
		batch, ok := snapshot.Batches[line.BatchID]
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("unknown batch %s", line.BatchID)).
				WithDetails(map[string]any{
					"reason":   ReasonUnknownBatch,
					"batch_id": line.BatchID.String(),
				})
		}
		if batch.TemplateID != line.TemplateID {
			return nil, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("batch %s does not belong to template %s", line.BatchID, line.TemplateID)).
				WithDetails(map[string]any{
					"reason":      ReasonBatchTemplateMismatch,
					"batch_id":    line.BatchID.String(),
					"template_id": line.TemplateID.String(),
				})
		}
	}

	// Stock is checked against the running per-batch total, so duplicate
	// lines on one batch cannot jointly oversubscribe it.
	requested := make(map[uuid.UUID]int, len(lines))
	for _, line := range lines {
		batch := snapshot.Batches[line.BatchID]
		if line.Qty > 0 {
			requested[line.BatchID] += line.Qty
		}
		if requested[line.BatchID] > batch.CurrentStockQty {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("batch %s has %d units, %d requested", line.BatchID, batch.CurrentStockQty, requested[line.BatchID])).
				WithDetails(map[string]any{
					"reason":    ReasonInsufficientStock,
					"batch_id":  line.BatchID.String(),
					"requested": requested[line.BatchID],
					"available": batch.CurrentStockQty,
				})
		}
	}

	for _, line := range lines {
		if line.Qty <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("quantity must be positive, got %d", line.Qty)).
				WithDetails(map[string]any{
					"reason":   ReasonInvalidQuantity,
					"batch_id": line.BatchID.String(),
				})
		}
	}

	out := &ComputedOrder{
		Lines:      make([]ComputedLine, 0, len(lines)),
		Decrements: make(map[uuid.UUID]int, len(lines)),
	}
	for _, line := range lines {
		template := snapshot.Templates[line.TemplateID]
		batch := snapshot.Batches[line.BatchID]
		subtotal := line.Qty * batch.PriceCents
		out.Lines = append(out.Lines, ComputedLine{
			TemplateID:       line.TemplateID,
			BatchID:          line.BatchID,
			ProductName:      template.Name,
			BatchMetrcID:     batch.MetrcPackageID,
			Qty:              line.Qty,
			UnitPriceCents:   batch.PriceCents,
			SubtotalCents:    subtotal,
			THCPercentAtSale: batch.THCPercent,
			CBDPercentAtSale: batch.CBDPercent,
		})
		out.TotalCents += subtotal
		out.Decrements[line.BatchID] += line.Qty
	}
	return out, nil
}
