package controllers

import (
	"net/http"

	"github.com/verdantlabs/canopy-backend/api/middleware"
	"github.com/verdantlabs/canopy-backend/api/responses"
	"github.com/verdantlabs/canopy-backend/api/validators"
	"github.com/verdantlabs/canopy-backend/internal/orders"
	"github.com/verdantlabs/canopy-backend/pkg/enums"
	pkgerrors "github.com/verdantlabs/canopy-backend/pkg/errors"
	"github.com/verdantlabs/canopy-backend/pkg/logger"
	"github.com/verdantlabs/canopy-backend/pkg/pagination"

	"github.com/google/uuid"
)

// CreateOrder handles POST /api/v1/orders. The submitting associate is taken
// from the authenticated request context.
func CreateOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		associate, err := requestAssociate(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var req orders.CreateOrderRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		dto, err := svc.CreateOrder(ctx, associate, req)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, dto)
	}
}

// GetOrder handles GET /api/v1/orders/{id}.
func GetOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		id, err := pathUUID(r, "id")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		dto, err := svc.GetOrder(ctx, id)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, dto)
	}
}

// ListOrders handles GET /api/v1/orders with dispensary, payment-status and
// order-date range filters.
func ListOrders(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		dispensaryID, err := validators.ParseQueryUUID(r, "dispensary_id")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		from, err := validators.ParseQueryTime(r, "from")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		to, err := validators.ParseQueryTime(r, "to")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		query := orders.OrderListQuery{
			Pagination: pagination.Params{
				Limit:  limit,
				Cursor: r.URL.Query().Get("cursor"),
			},
			Filters: orders.OrderListFilters{
				DispensaryID: dispensaryID,
				From:         from,
				To:           to,
			},
		}

		if raw := r.URL.Query().Get("status"); raw != "" {
			status := enums.PaymentStatus(raw)
			if !status.IsValid() {
				responses.WriteError(ctx, logg, w,
					pkgerrors.New(pkgerrors.CodeValidation, "invalid payment status").
						WithDetails(map[string]any{"status": raw}))
				return
			}
			query.Filters.PaymentStatus = &status
		}

		result, err := svc.ListOrders(ctx, query)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// UpdateOrderPaymentStatus handles PATCH /api/v1/orders/{id}/payment-status.
func UpdateOrderPaymentStatus(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		id, err := pathUUID(r, "id")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var req orders.UpdatePaymentStatusRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		dto, err := svc.UpdatePaymentStatus(ctx, id, req)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, dto)
	}
}

// UpdateOrderFulfillment handles PATCH /api/v1/orders/{id}/fulfillment.
func UpdateOrderFulfillment(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		id, err := pathUUID(r, "id")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var req orders.UpdateFulfillmentRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		dto, err := svc.UpdateFulfillment(ctx, id, req)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, dto)
	}
}

func requestAssociate(r *http.Request) (orders.Associate, error) {
	userID := middleware.UserIDFromContext(r.Context())
	if userID == "" {
		return orders.Associate{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}

	id, err := uuid.Parse(userID)
	if err != nil {
		return orders.Associate{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid user identity")
	}

	return orders.Associate{ID: id, Name: middleware.UsernameFromContext(r.Context())}, nil
}
