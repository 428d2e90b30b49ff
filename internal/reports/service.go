package reports

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/verdantlabs/canopy-backend/internal/orders"
	"github.com/verdantlabs/canopy-backend/pkg/db/models"
	pkgerrors "github.com/verdantlabs/canopy-backend/pkg/errors"
)

const (
	// DefaultRangeDays is how far back a report reaches when the caller
	// gives no explicit range.
	DefaultRangeDays = 30

	topListSize = 5
)

// SalesReportRequest selects the reporting window. Zero values fall back to
// the trailing default range ending now.
type SalesReportRequest struct {
	From *time.Time `json:"from,omitempty"`
	To   *time.Time `json:"to,omitempty"`
}

// DailySales is one day's aggregate in the report series.
type DailySales struct {
	Date         string `json:"date"`
	OrderCount   int    `json:"order_count"`
	RevenueCents int    `json:"revenue_cents"`
	UnitsSold    int    `json:"units_sold"`
}

// DispensaryRank is one entry in the top-dispensaries list.
type DispensaryRank struct {
	DispensaryID   uuid.UUID `json:"dispensary_id"`
	DispensaryName string    `json:"dispensary_name"`
	OrderCount     int       `json:"order_count"`
	RevenueCents   int       `json:"revenue_cents"`
}

// ProductRank is one entry in the top-products list.
type ProductRank struct {
	TemplateID   uuid.UUID `json:"template_id"`
	ProductName  string    `json:"product_name"`
	UnitsSold    int       `json:"units_sold"`
	RevenueCents int       `json:"revenue_cents"`
}

// SalesReport is the full aggregate for a window. Cancelled orders are
// excluded throughout.
type SalesReport struct {
	From              time.Time        `json:"from"`
	To                time.Time        `json:"to"`
	OrderCount        int              `json:"order_count"`
	TotalRevenueCents int              `json:"total_revenue_cents"`
	TotalUnitsSold    int              `json:"total_units_sold"`
	AvgOrderCents     int              `json:"avg_order_cents"`
	Daily             []DailySales     `json:"daily"`
	TopDispensaries   []DispensaryRank `json:"top_dispensaries"`
	TopProducts       []ProductRank    `json:"top_products"`
}

// Service builds sales reports from order history.
type Service interface {
	SalesReport(ctx context.Context, req SalesReportRequest) (*SalesReport, error)
	SalesReportCSV(ctx context.Context, req SalesReportRequest) ([]byte, error)
}

type orderSource interface {
	ListInRange(ctx context.Context, query orders.RangeQuery) ([]models.WholesaleOrder, error)
}

type service struct {
	source orderSource
	now    func() time.Time
}

// NewService builds the reporting service.
func NewService(source orderSource) (Service, error) {
	if source == nil {
		return nil, fmt.Errorf("order source is required")
	}
	return &service{source: source, now: time.Now}, nil
}

func (s *service) SalesReport(ctx context.Context, req SalesReportRequest) (*SalesReport, error) {
	from, to, err := s.resolveRange(req)
	if err != nil {
		return nil, err
	}

	rows, err := s.source.ListInRange(ctx, orders.RangeQuery{
		From:             from,
		To:               to,
		ExcludeCancelled: true,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load orders for report")
	}

	report := &SalesReport{From: from, To: to}

	daily := map[string]*DailySales{}
	byDispensary := map[uuid.UUID]*DispensaryRank{}
	byProduct := map[uuid.UUID]*ProductRank{}

	for i := range rows {
		order := &rows[i]
		report.OrderCount++
		report.TotalRevenueCents += order.TotalCents

		day := order.OrderedAt.UTC().Format("2006-01-02")
		bucket, ok := daily[day]
		if !ok {
			bucket = &DailySales{Date: day}
			daily[day] = bucket
		}
		bucket.OrderCount++
		bucket.RevenueCents += order.TotalCents

		rank, ok := byDispensary[order.DispensaryID]
		if !ok {
			rank = &DispensaryRank{DispensaryID: order.DispensaryID, DispensaryName: order.DispensaryName}
			byDispensary[order.DispensaryID] = rank
		}
		rank.OrderCount++
		rank.RevenueCents += order.TotalCents

		for j := range order.LineItems {
			line := &order.LineItems[j]
			report.TotalUnitsSold += line.Qty
			bucket.UnitsSold += line.Qty

			product, ok := byProduct[line.TemplateID]
			if !ok {
				product = &ProductRank{TemplateID: line.TemplateID, ProductName: line.ProductName}
				byProduct[line.TemplateID] = product
			}
			product.UnitsSold += line.Qty
			product.RevenueCents += line.SubtotalCents
		}
	}

	if report.OrderCount > 0 {
		report.AvgOrderCents = report.TotalRevenueCents / report.OrderCount
	}

	report.Daily = make([]DailySales, 0, len(daily))
	for _, bucket := range daily {
		report.Daily = append(report.Daily, *bucket)
	}
	sort.Slice(report.Daily, func(i, j int) bool {
		return report.Daily[i].Date < report.Daily[j].Date
	})

	report.TopDispensaries = topDispensaries(byDispensary)
	report.TopProducts = topProducts(byProduct)
	return report, nil
}

func (s *service) resolveRange(req SalesReportRequest) (time.Time, time.Time, error) {
	to := s.now().UTC()
	if req.To != nil {
		to = req.To.UTC()
	}
	from := to.AddDate(0, 0, -DefaultRangeDays)
	if req.From != nil {
		from = req.From.UTC()
	}
	if from.After(to) {
		return time.Time{}, time.Time{}, pkgerrors.New(pkgerrors.CodeValidation, "report range start is after its end")
	}
	return from, to, nil
}

func topDispensaries(ranks map[uuid.UUID]*DispensaryRank) []DispensaryRank {
	out := make([]DispensaryRank, 0, len(ranks))
	for _, rank := range ranks {
		out = append(out, *rank)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].RevenueCents != out[j].RevenueCents {
			return out[i].RevenueCents > out[j].RevenueCents
		}
		return out[i].DispensaryName < out[j].DispensaryName
	})
	if len(out) > topListSize {
		out = out[:topListSize]
	}
	return out
}

func topProducts(ranks map[uuid.UUID]*ProductRank) []ProductRank {
	out := make([]ProductRank, 0, len(ranks))
	for _, rank := range ranks {
		out = append(out, *rank)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].UnitsSold != out[j].UnitsSold {
			return out[i].UnitsSold > out[j].UnitsSold
		}
		return out[i].ProductName < out[j].ProductName
	})
	if len(out) > topListSize {
		out = out[:topListSize]
	}
	return out
}
