package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/verdantlabs/canopy-backend/pkg/db/models"
	"github.com/verdantlabs/canopy-backend/pkg/enums"
	pkgerrors "github.com/verdantlabs/canopy-backend/pkg/errors"
)

// Associate identifies the logged-in sales rep recording the order.
type Associate struct {
	ID   uuid.UUID
	Name string
}

// Service exposes wholesale order operations.
type Service interface {
	CreateOrder(ctx context.Context, associate Associate, req CreateOrderRequest) (*OrderDTO, error)
	GetOrder(ctx context.Context, id uuid.UUID) (*OrderDTO, error)
	ListOrders(ctx context.Context, query OrderListQuery) (*OrderListResult, error)
	UpdatePaymentStatus(ctx context.Context, id uuid.UUID, req UpdatePaymentStatusRequest) (*OrderDTO, error)
	UpdateFulfillment(ctx context.Context, id uuid.UUID, req UpdateFulfillmentRequest) (*OrderDTO, error)
}

type orderRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.WholesaleOrder, error)
	List(ctx context.Context, query OrderListQuery) ([]models.WholesaleOrder, string, error)
	UpdatePaymentStatus(ctx context.Context, id uuid.UUID, status string) error
	UpdateFulfillment(ctx context.Context, id uuid.UUID, fields map[string]any) error
}

type orderApplier interface {
	Apply(ctx context.Context, order *models.WholesaleOrder, decrements map[uuid.UUID]int) (*models.WholesaleOrder, error)
}

type catalogReader interface {
	FindTemplatesByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.ProductTemplate, error)
	FindBatchesByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.ProductBatch, error)
}

type dispensaryReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Dispensary, error)
}

// ServiceParams collects the service's dependencies.
type ServiceParams struct {
	Repo         orderRepository
	Applier      orderApplier
	Catalog      catalogReader
	Dispensaries dispensaryReader
}

type service struct {
	repo         orderRepository
	applier      orderApplier
	catalog      catalogReader
	dispensaries dispensaryReader
}

// NewService builds the order service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("order repository is required")
	}
	if params.Applier == nil {
		return nil, fmt.Errorf("order applier is required")
	}
	if params.Catalog == nil {
		return nil, fmt.Errorf("catalog reader is required")
	}
	if params.Dispensaries == nil {
		return nil, fmt.Errorf("dispensary reader is required")
	}
	return &service{
		repo:         params.Repo,
		applier:      params.Applier,
		catalog:      params.Catalog,
		dispensaries: params.Dispensaries,
	}, nil
}

// CreateOrder validates and prices the submission against current catalog
// state, then applies it atomically. The snapshot check and the transactional
// stock guard together make oversell impossible: the snapshot rejects what is
// already short, and the guard rejects whatever a concurrent order took first.
func (s *service) CreateOrder(ctx context.Context, associate Associate, req CreateOrderRequest) (*OrderDTO, error) {
	if !req.PaymentMethod.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method")
	}
	if !req.PaymentTerms.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment terms")
	}

	dispensary, err := s.dispensaries.FindByID(ctx, req.DispensaryID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "dispensary not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load dispensary")
	}

	snapshot, err := s.loadSnapshot(ctx, req.Lines)
	if err != nil {
		return nil, err
	}

	computed, err := Compute(req.Lines, snapshot)
	if err != nil {
		return nil, err
	}

	orderedAt := time.Now().UTC()
	if req.OrderedAt != nil {
		orderedAt = req.OrderedAt.UTC()
	}

	order := &models.WholesaleOrder{
		OrderedAt:          orderedAt,
		DispensaryID:       dispensary.ID,
		DispensaryName:     dispensary.Name,
		TotalCents:         computed.TotalCents,
		PaymentMethod:      req.PaymentMethod,
		PaymentTerms:       req.PaymentTerms,
		PaymentStatus:      enums.PaymentStatusPending,
		SalesAssociateID:   associate.ID,
		SalesAssociateName: associate.Name,
		Notes:              req.Notes,
	}
	for _, line := range computed.Lines {
		order.LineItems = append(order.LineItems, models.OrderLineItem{
			TemplateID:       line.TemplateID,
			BatchID:          line.BatchID,
			ProductName:      line.ProductName,
			BatchMetrcID:     line.BatchMetrcID,
			Qty:              line.Qty,
			UnitPriceCents:   line.UnitPriceCents,
			SubtotalCents:    line.SubtotalCents,
			THCPercentAtSale: line.THCPercentAtSale,
			CBDPercentAtSale: line.CBDPercentAtSale,
		})
	}

	created, err := s.applier.Apply(ctx, order, computed.Decrements)
	if err != nil {
		var conflict *StockConflictError
		if errors.As(err, &conflict) {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("batch %s no longer has %d units", conflict.BatchID, conflict.Requested)).
				WithDetails(map[string]any{
					"reason":    ReasonInsufficientStock,
					"batch_id":  conflict.BatchID.String(),
					"requested": conflict.Requested,
				})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to apply order")
	}

	dto := orderFromModel(created)
	return &dto, nil
}

func (s *service) loadSnapshot(ctx context.Context, lines []OrderLineRequest) (CatalogSnapshot, error) {
	templateIDs := make([]uuid.UUID, 0, len(lines))
	batchIDs := make([]uuid.UUID, 0, len(lines))
	seenTemplates := map[uuid.UUID]struct{}{}
	seenBatches := map[uuid.UUID]struct{}{}
	for _, line := range lines {
		if _, ok := seenTemplates[line.TemplateID]; !ok {
			seenTemplates[line.TemplateID] = struct{}{}
			templateIDs = append(templateIDs, line.TemplateID)
		}
		if _, ok := seenBatches[line.BatchID]; !ok {
			seenBatches[line.BatchID] = struct{}{}
			batchIDs = append(batchIDs, line.BatchID)
		}
	}

	templates, err := s.catalog.FindTemplatesByIDs(ctx, templateIDs)
	if err != nil {
		return CatalogSnapshot{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load templates")
	}
	batches, err := s.catalog.FindBatchesByIDs(ctx, batchIDs)
	if err != nil {
		return CatalogSnapshot{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load batches")
	}
	return CatalogSnapshot{Templates: templates, Batches: batches}, nil
}

func (s *service) GetOrder(ctx context.Context, id uuid.UUID) (*OrderDTO, error) {
	order, err := s.findOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := orderFromModel(order)
	return &dto, nil
}

func (s *service) ListOrders(ctx context.Context, query OrderListQuery) (*OrderListResult, error) {
	rows, nextCursor, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to list orders")
	}
	result := &OrderListResult{
		Orders:     make([]OrderDTO, 0, len(rows)),
		NextCursor: nextCursor,
	}
	for i := range rows {
		result.Orders = append(result.Orders, orderFromModel(&rows[i]))
	}
	return result, nil
}

func (s *service) UpdatePaymentStatus(ctx context.Context, id uuid.UUID, req UpdatePaymentStatusRequest) (*OrderDTO, error) {
	if !req.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment status")
	}

	order, err := s.findOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if !order.PaymentStatus.CanTransitionTo(req.Status) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("payment status cannot move from %s to %s", order.PaymentStatus, req.Status)).
			WithDetails(map[string]any{
				"current":   order.PaymentStatus.String(),
				"requested": req.Status.String(),
			})
	}

	if err := s.repo.UpdatePaymentStatus(ctx, id, req.Status.String()); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to update payment status")
	}
	order.PaymentStatus = req.Status
	dto := orderFromModel(order)
	return &dto, nil
}

func (s *service) UpdateFulfillment(ctx context.Context, id uuid.UUID, req UpdateFulfillmentRequest) (*OrderDTO, error) {
	order, err := s.findOrder(ctx, id)
	if err != nil {
		return nil, err
	}

	fields := map[string]any{}
	if req.ShipmentDate != nil {
		fields["shipment_date"] = req.ShipmentDate
		order.ShipmentDate = req.ShipmentDate
	}
	if req.TrackingNumber != nil {
		fields["tracking_number"] = req.TrackingNumber
		order.TrackingNumber = req.TrackingNumber
	}
	if req.MetrcManifestID != nil {
		fields["metrc_manifest_id"] = req.MetrcManifestID
		order.MetrcManifestID = req.MetrcManifestID
	}
	if len(fields) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no fulfillment fields provided")
	}

	if err := s.repo.UpdateFulfillment(ctx, id, fields); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to update fulfillment")
	}
	dto := orderFromModel(order)
	return &dto, nil
}

func (s *service) findOrder(ctx context.Context, id uuid.UUID) (*models.WholesaleOrder, error) {
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load order")
	}
	return order, nil
}
