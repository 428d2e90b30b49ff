package insights

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/verdantlabs/canopy-backend/internal/orders"
	"github.com/verdantlabs/canopy-backend/pkg/db/models"
	pkgerrors "github.com/verdantlabs/canopy-backend/pkg/errors"
)

const (
	// DefaultWindowDays is how far back a sales question reaches when the
	// caller gives no date range.
	DefaultWindowDays = 60

	chartSize = 5

	// NoDataSummary is returned without calling the gateway when the
	// filters match no sales.
	NoDataSummary = "No relevant sales data was found for the selected filters. " +
		"Try widening the date range or removing the category filter."
)

// Service answers natural-language questions about the operation.
type Service interface {
	AnswerSalesQuestion(ctx context.Context, req SalesQuestionRequest) (*SalesAnswerResponse, error)
	AnalyzeBusiness(ctx context.Context, req BusinessAnalysisRequest) (*BusinessAnalysisResponse, error)
}

type orderSource interface {
	ListInRange(ctx context.Context, query orders.RangeQuery) ([]models.WholesaleOrder, error)
}

type catalogSource interface {
	ListAllTemplates(ctx context.Context) ([]models.ProductTemplate, error)
	ListAllBatches(ctx context.Context) ([]models.ProductBatch, error)
}

type dispensarySource interface {
	ListAll(ctx context.Context) ([]models.Dispensary, error)
}

// ServiceParams collects the service's dependencies.
type ServiceParams struct {
	Gateway      Gateway
	Orders       orderSource
	Catalog      catalogSource
	Dispensaries dispensarySource
}

type service struct {
	gateway      Gateway
	orders       orderSource
	catalog      catalogSource
	dispensaries dispensarySource
	now          func() time.Time
}

// NewService builds the insights service.
func NewService(params ServiceParams) (Service, error) {
	if params.Gateway == nil {
		return nil, fmt.Errorf("insights gateway is required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("order source is required")
	}
	if params.Catalog == nil {
		return nil, fmt.Errorf("catalog source is required")
	}
	if params.Dispensaries == nil {
		return nil, fmt.Errorf("dispensary source is required")
	}
	return &service{
		gateway:      params.Gateway,
		orders:       params.Orders,
		catalog:      params.Catalog,
		dispensaries: params.Dispensaries,
		now:          time.Now,
	}, nil
}

// AnswerSalesQuestion pre-filters order history by date range and category,
// aggregates quantities per template, and sends only that aggregate across
// the gateway. An empty aggregate short-circuits: the gateway is never called
// and a fixed no-data response comes back instead. The payload therefore
// scales with distinct template count, never with order count.
func (s *service) AnswerSalesQuestion(ctx context.Context, req SalesQuestionRequest) (*SalesAnswerResponse, error) {
	question := strings.TrimSpace(req.Question)
	if question == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "question is required")
	}
	if req.ProductCategory != nil && !req.ProductCategory.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid product category")
	}

	to := s.now().UTC()
	if req.To != nil {
		to = req.To.UTC()
	}
	from := to.AddDate(0, 0, -DefaultWindowDays)
	if req.From != nil {
		from = req.From.UTC()
	}
	if from.After(to) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "date range start is after its end")
	}

	templates, err := s.catalog.ListAllTemplates(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load templates")
	}
	matching := map[uuid.UUID]models.ProductTemplate{}
	for _, template := range templates {
		if req.ProductCategory != nil && template.Category != *req.ProductCategory {
			continue
		}
		matching[template.ID] = template
	}

	rows, err := s.orders.ListInRange(ctx, orders.RangeQuery{
		From:             from,
		To:               to,
		ExcludeCancelled: true,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load orders")
	}

	aggregate := aggregateSales(rows, matching)
	if len(aggregate) == 0 {
		return &SalesAnswerResponse{
			Summary:              NoDataSummary,
			TopProductsChartData: []ChartPoint{},
			DetailedProductList:  []ProductSales{},
		}, nil
	}

	summary, err := s.gateway.AnswerSalesQuestion(ctx, question, aggregate)
	if err != nil {
		return nil, wrapGatewayError(err, "sales question failed")
	}

	return &SalesAnswerResponse{
		Summary:              summary,
		TopProductsChartData: chartData(aggregate),
		DetailedProductList:  aggregate,
	}, nil
}

// AnalyzeBusiness hands the gateway the whole picture: catalog, dispensaries,
// and complete order history.
func (s *service) AnalyzeBusiness(ctx context.Context, req BusinessAnalysisRequest) (*BusinessAnalysisResponse, error) {
	snapshot, err := s.buildSnapshot(ctx)
	if err != nil {
		return nil, err
	}

	focus := ""
	if req.Focus != nil {
		focus = strings.TrimSpace(*req.Focus)
	}

	analysis, err := s.gateway.AnalyzeBusiness(ctx, *snapshot, focus)
	if err != nil {
		return nil, wrapGatewayError(err, "business analysis failed")
	}
	return analysis, nil
}

func (s *service) buildSnapshot(ctx context.Context) (*BusinessSnapshot, error) {
	templates, err := s.catalog.ListAllTemplates(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load templates")
	}
	batches, err := s.catalog.ListAllBatches(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load batches")
	}
	dispensaries, err := s.dispensaries.ListAll(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load dispensaries")
	}
	rows, err := s.orders.ListInRange(ctx, orders.RangeQuery{})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load orders")
	}

	snapshot := &BusinessSnapshot{
		Templates:    make([]SnapshotTemplate, 0, len(templates)),
		Batches:      make([]SnapshotBatch, 0, len(batches)),
		Dispensaries: make([]SnapshotDispensary, 0, len(dispensaries)),
		Orders:       make([]SnapshotOrder, 0, len(rows)),
	}
	for _, t := range templates {
		snapshot.Templates = append(snapshot.Templates, SnapshotTemplate{
			ID:         t.ID,
			Name:       t.Name,
			StrainType: t.StrainType,
			Category:   t.Category,
			IsActive:   t.IsActive,
		})
	}
	for _, b := range batches {
		snapshot.Batches = append(snapshot.Batches, SnapshotBatch{
			ID:              b.ID,
			TemplateID:      b.TemplateID,
			THCPercent:      b.THCPercent,
			CBDPercent:      b.CBDPercent,
			PriceCents:      b.PriceCents,
			CurrentStockQty: b.CurrentStockQty,
			IsActive:        b.IsActive,
		})
	}
	for _, d := range dispensaries {
		snapshot.Dispensaries = append(snapshot.Dispensaries, SnapshotDispensary{ID: d.ID, Name: d.Name})
	}
	for i := range rows {
		order := &rows[i]
		snap := SnapshotOrder{
			ID:             order.ID,
			OrderedAt:      order.OrderedAt,
			DispensaryName: order.DispensaryName,
			TotalCents:     order.TotalCents,
			PaymentStatus:  order.PaymentStatus,
			Lines:          make([]SnapshotOrderLine, 0, len(order.LineItems)),
		}
		for _, line := range order.LineItems {
			snap.Lines = append(snap.Lines, SnapshotOrderLine{
				TemplateID:  line.TemplateID,
				ProductName: line.ProductName,
				Qty:         line.Qty,
			})
		}
		snapshot.Orders = append(snapshot.Orders, snap)
	}
	return snapshot, nil
}

// aggregateSales sums ordered quantities per template, keeping only lines
// whose template survived the category filter.
func aggregateSales(rows []models.WholesaleOrder, templates map[uuid.UUID]models.ProductTemplate) []ProductSales {
	totals := map[uuid.UUID]*ProductSales{}
	for i := range rows {
		for _, line := range rows[i].LineItems {
			template, ok := templates[line.TemplateID]
			if !ok {
				continue
			}
			entry, ok := totals[line.TemplateID]
			if !ok {
				entry = &ProductSales{
					ProductTemplateID: line.TemplateID,
					ProductName:       template.Name,
					StrainType:        template.StrainType,
				}
				totals[line.TemplateID] = entry
			}
			entry.TotalQuantitySold += line.Qty
		}
	}

	out := make([]ProductSales, 0, len(totals))
	for _, entry := range totals {
		out = append(out, *entry)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalQuantitySold != out[j].TotalQuantitySold {
			return out[i].TotalQuantitySold > out[j].TotalQuantitySold
		}
		return out[i].ProductName < out[j].ProductName
	})
	return out
}

// chartData keeps the top slice of the (already sorted) aggregate.
func chartData(aggregate []ProductSales) []ChartPoint {
	size := len(aggregate)
	if size > chartSize {
		size = chartSize
	}
	out := make([]ChartPoint, 0, size)
	for _, entry := range aggregate[:size] {
		out = append(out, ChartPoint{Name: entry.ProductName, Value: entry.TotalQuantitySold})
	}
	return out
}

func wrapGatewayError(err error, message string) error {
	var empty *EmptyResponseError
	if errors.As(err, &empty) {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insights service returned an empty response")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, message)
}
