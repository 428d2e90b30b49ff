package controllers

import (
	"net/http"
	"time"

	"github.com/verdantlabs/canopy-backend/api/responses"
	"github.com/verdantlabs/canopy-backend/api/validators"
	"github.com/verdantlabs/canopy-backend/internal/reports"
	pkgerrors "github.com/verdantlabs/canopy-backend/pkg/errors"
	"github.com/verdantlabs/canopy-backend/pkg/logger"
)

// SalesReport handles GET /api/v1/reports/sales.
func SalesReport(svc reports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "report service unavailable"))
			return
		}

		req, err := salesReportRequest(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		report, err := svc.SalesReport(ctx, req)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, report)
	}
}

// SalesReportCSV handles GET /api/v1/reports/sales/csv and streams the daily
// series as a file download.
func SalesReportCSV(svc reports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "report service unavailable"))
			return
		}

		req, err := salesReportRequest(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		payload, err := svc.SalesReportCSV(ctx, req)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		filename := "sales-report-" + time.Now().UTC().Format("2006-01-02") + ".csv"
		responses.WriteCSV(w, filename, payload)
	}
}

func salesReportRequest(r *http.Request) (reports.SalesReportRequest, error) {
	from, err := validators.ParseQueryTime(r, "from")
	if err != nil {
		return reports.SalesReportRequest{}, err
	}

	to, err := validators.ParseQueryTime(r, "to")
	if err != nil {
		return reports.SalesReportRequest{}, err
	}

	return reports.SalesReportRequest{From: from, To: to}, nil
}
