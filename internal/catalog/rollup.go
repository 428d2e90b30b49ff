package catalog

import "github.com/verdantlabs/canopy-backend/pkg/db/models"

// Rollup aggregates a template's batches for catalog display. Stock and
// potency only consider batches that are sellable (active with stock on
// hand); AvgTHC/AvgCBD are nil when no batch qualifies so clients render
// "N/A" instead of a misleading zero. ActiveBatchCount counts every active
// batch, sold out or not.
type Rollup struct {
	TotalStock       int      `json:"total_stock"`
	AvgTHC           *float64 `json:"avg_thc"`
	AvgCBD           *float64 `json:"avg_cbd"`
	ActiveBatchCount int      `json:"active_batch_count"`
}

// RollupForBatches computes the aggregate over the given batches. The potency
// averages are unweighted means across qualifying batches; stock quantities do
// not skew them.
func RollupForBatches(batches []models.ProductBatch) Rollup {
	var out Rollup
	var thcSum, cbdSum float64
	qualifying := 0

	for i := range batches {
		b := &batches[i]
		if b.IsActive {
			out.ActiveBatchCount++
		}
		if !b.Available() {
			continue
		}
		out.TotalStock += b.CurrentStockQty
		thcSum += b.THCPercent
		cbdSum += b.CBDPercent
		qualifying++
	}

	if qualifying > 0 {
		avgTHC := thcSum / float64(qualifying)
		avgCBD := cbdSum / float64(qualifying)
		out.AvgTHC = &avgTHC
		out.AvgCBD = &avgCBD
	}
	return out
}
