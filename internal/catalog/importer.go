package catalog

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/multierr"

	"github.com/verdantlabs/canopy-backend/pkg/db/models"
	"github.com/verdantlabs/canopy-backend/pkg/enums"
	pkgerrors "github.com/verdantlabs/canopy-backend/pkg/errors"
)

// importColumns is the required CSV header, in order.
var importColumns = []string{
	"name", "strain_type", "category", "unit", "supplier",
	"metrc_package_id", "thc_percent", "cbd_percent", "price", "stock_qty",
}

// ImportResult summarizes a bulk catalog import.
type ImportResult struct {
	TemplatesCreated int      `json:"templates_created"`
	BatchesCreated   int      `json:"batches_created"`
	RowsSkipped      int      `json:"rows_skipped"`
	RowErrors        []string `json:"row_errors,omitempty"`
}

type importRow struct {
	line     int
	template models.ProductTemplate
	batch    models.ProductBatch
}

// Importer ingests supplier CSV sheets into templates and batches. Rows
// sharing name+supplier collapse into one template; each row always yields a
// batch. Bad rows are skipped and reported, good rows still land.
type Importer struct {
	repo repository
}

// NewImporter builds a CSV importer over the catalog repository.
func NewImporter(repo repository) (*Importer, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository is required")
	}
	return &Importer{repo: repo}, nil
}

// Import parses and persists the CSV stream.
func (im *Importer) Import(ctx context.Context, r io.Reader) (*ImportResult, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "empty or unreadable CSV")
	}
	if err := validateHeader(header); err != nil {
		return nil, err
	}

	result := &ImportResult{}
	var rowErrs error
	templateKeys := map[string]*models.ProductTemplate{}

	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			result.RowsSkipped++
			rowErrs = multierr.Append(rowErrs, fmt.Errorf("line %d: %w", line, err))
			continue
		}

		row, err := parseImportRow(line, record)
		if err != nil {
			result.RowsSkipped++
			rowErrs = multierr.Append(rowErrs, err)
			continue
		}

		key := templateKey(row.template)
		template, seen := templateKeys[key]
		if !seen {
			created, err := im.repo.CreateTemplate(ctx, &row.template)
			if err != nil {
				result.RowsSkipped++
				rowErrs = multierr.Append(rowErrs, fmt.Errorf("line %d: create template: %w", line, err))
				continue
			}
			template = created
			templateKeys[key] = template
			result.TemplatesCreated++
		}

		row.batch.TemplateID = template.ID
		if _, err := im.repo.CreateBatch(ctx, &row.batch); err != nil {
			result.RowsSkipped++
			rowErrs = multierr.Append(rowErrs, fmt.Errorf("line %d: create batch: %w", line, err))
			continue
		}
		result.BatchesCreated++
	}

	for _, err := range multierr.Errors(rowErrs) {
		result.RowErrors = append(result.RowErrors, err.Error())
	}
	return result, nil
}

func validateHeader(header []string) error {
	if len(header) != len(importColumns) {
		return pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("expected %d columns, got %d", len(importColumns), len(header)))
	}
	for i, want := range importColumns {
		if strings.TrimSpace(strings.ToLower(header[i])) != want {
			return pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("column %d must be %q", i+1, want))
		}
	}
	return nil
}

func parseImportRow(line int, record []string) (*importRow, error) {
	if len(record) != len(importColumns) {
		return nil, fmt.Errorf("line %d: expected %d fields, got %d", line, len(importColumns), len(record))
	}
	for i := range record {
		record[i] = strings.TrimSpace(record[i])
	}

	name, supplier := record[0], record[4]
	if name == "" || supplier == "" {
		return nil, fmt.Errorf("line %d: name and supplier are required", line)
	}

	strain, err := enums.ParseStrainType(record[1])
	if err != nil {
		return nil, fmt.Errorf("line %d: %w", line, err)
	}
	category, err := enums.ParseProductCategory(record[2])
	if err != nil {
		return nil, fmt.Errorf("line %d: %w", line, err)
	}
	unit, err := enums.ParseUnitOfMeasure(record[3])
	if err != nil {
		return nil, fmt.Errorf("line %d: %w", line, err)
	}

	metrcID := record[5]
	if metrcID == "" {
		return nil, fmt.Errorf("line %d: metrc_package_id is required", line)
	}

	thc, err := parsePercent(record[6])
	if err != nil {
		return nil, fmt.Errorf("line %d: thc_percent: %w", line, err)
	}
	cbd, err := parsePercent(record[7])
	if err != nil {
		return nil, fmt.Errorf("line %d: cbd_percent: %w", line, err)
	}

	priceCents, err := parsePriceCents(record[8])
	if err != nil {
		return nil, fmt.Errorf("line %d: price: %w", line, err)
	}

	stock, err := strconv.Atoi(record[9])
	if err != nil || stock < 0 {
		return nil, fmt.Errorf("line %d: stock_qty must be a non-negative integer", line)
	}

	return &importRow{
		line: line,
		template: models.ProductTemplate{
			Name:       name,
			StrainType: strain,
			Category:   category,
			Unit:       unit,
			Supplier:   supplier,
			IsActive:   true,
		},
		batch: models.ProductBatch{
			MetrcPackageID:  metrcID,
			THCPercent:      thc,
			CBDPercent:      cbd,
			PriceCents:      priceCents,
			CurrentStockQty: stock,
			IsActive:        true,
		},
	}, nil
}

func parsePercent(value string) (float64, error) {
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", value)
	}
	if v < 0 || v > 100 {
		return 0, fmt.Errorf("value %q outside 0-100", value)
	}
	return v, nil
}

// parsePriceCents converts a dollar amount like "8.50" to exact integer
// cents. Decimal parsing avoids float drift on amounts like 0.1.
func parsePriceCents(value string) (int, error) {
	d, err := decimal.NewFromString(strings.TrimPrefix(value, "$"))
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q", value)
	}
	if d.IsNegative() {
		return 0, fmt.Errorf("amount %q must be non-negative", value)
	}
	cents := d.Shift(2)
	if !cents.IsInteger() {
		return 0, fmt.Errorf("amount %q has sub-cent precision", value)
	}
	return int(cents.IntPart()), nil
}

func templateKey(t models.ProductTemplate) string {
	return strings.ToLower(t.Name) + "|" + strings.ToLower(t.Supplier)
}
