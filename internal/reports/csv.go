package reports

import (
	"bytes"
	"context"
	"encoding/csv"
	"strconv"

	"github.com/shopspring/decimal"

	pkgerrors "github.com/verdantlabs/canopy-backend/pkg/errors"
)

var csvHeader = []string{"date", "order_count", "revenue", "units_sold"}

// SalesReportCSV renders the daily series as CSV, one row per day plus a
// trailing totals row. Monetary values are formatted as dollars.
func (s *service) SalesReportCSV(ctx context.Context, req SalesReportRequest) ([]byte, error) {
	report, err := s.SalesReport(ctx, req)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(csvHeader); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to write csv header")
	}

	for _, day := range report.Daily {
		row := []string{
			day.Date,
			strconv.Itoa(day.OrderCount),
			dollars(day.RevenueCents),
			strconv.Itoa(day.UnitsSold),
		}
		if err := w.Write(row); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to write csv row")
		}
	}

	totals := []string{
		"total",
		strconv.Itoa(report.OrderCount),
		dollars(report.TotalRevenueCents),
		strconv.Itoa(report.TotalUnitsSold),
	}
	if err := w.Write(totals); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to write csv totals")
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to flush csv")
	}
	return buf.Bytes(), nil
}

func dollars(cents int) string {
	return decimal.New(int64(cents), -2).StringFixed(2)
}
