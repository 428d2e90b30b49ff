package catalog

import (
	"context"
	"strings"
	"testing"

	pkgerrors "github.com/verdantlabs/canopy-backend/pkg/errors"
)

const importHeader = "name,strain_type,category,unit,supplier,metrc_package_id,thc_percent,cbd_percent,price,stock_qty\n"

func mustImporter(t *testing.T, repo repository) *Importer {
	t.Helper()
	im, err := NewImporter(repo)
	if err != nil {
		t.Fatalf("new importer: %v", err)
	}
	return im
}

func TestImporterCollapsesTemplatesAndConvertsPrice(t *testing.T) {
	repo := newFakeRepo()
	im := mustImporter(t, repo)

	csv := importHeader +
		"Blue Dream,sativa,flower,grams,Verdant Farms,1A4AA,22.5,0.3,8.50,100\n" +
		"Blue Dream,sativa,flower,grams,Verdant Farms,1A4AB,21.0,0.2,8.50,50\n" +
		"Gelato Cart,hybrid,vapes,each,Verdant Labs,1A4AC,85.0,0.1,25.00,12\n"

	result, err := im.Import(context.Background(), strings.NewReader(csv))
	if err != nil {
		t.Fatalf("import: %v", err)
	}

	if result.TemplatesCreated != 2 {
		t.Fatalf("expected 2 templates, got %d", result.TemplatesCreated)
	}
	if result.BatchesCreated != 3 {
		t.Fatalf("expected 3 batches, got %d", result.BatchesCreated)
	}
	if result.RowsSkipped != 0 {
		t.Fatalf("expected no skipped rows, got %d (%v)", result.RowsSkipped, result.RowErrors)
	}

	for _, b := range repo.batches {
		if b.MetrcPackageID == "1A4AA" && b.PriceCents != 850 {
			t.Fatalf("expected 850 cents for $8.50, got %d", b.PriceCents)
		}
		if b.MetrcPackageID == "1A4AC" && b.PriceCents != 2500 {
			t.Fatalf("expected 2500 cents for $25.00, got %d", b.PriceCents)
		}
	}
}

func TestImporterSkipsBadRowsButKeepsGoodOnes(t *testing.T) {
	repo := newFakeRepo()
	im := mustImporter(t, repo)

	csv := importHeader +
		"Blue Dream,sativa,flower,grams,Verdant Farms,1A4BA,22.5,0.3,8.50,100\n" +
		"Bad Row,notastrain,flower,grams,Verdant Farms,1A4BB,22.5,0.3,8.50,100\n" +
		"Worse Row,sativa,flower,grams,Verdant Farms,1A4BC,22.5,0.3,8.505,100\n" +
		"OG Kush,hybrid,flower,grams,Verdant Farms,1A4BD,19.0,0.5,7.00,40\n"

	result, err := im.Import(context.Background(), strings.NewReader(csv))
	if err != nil {
		t.Fatalf("import: %v", err)
	}

	if result.BatchesCreated != 2 {
		t.Fatalf("expected 2 batches, got %d", result.BatchesCreated)
	}
	if result.RowsSkipped != 2 {
		t.Fatalf("expected 2 skipped rows, got %d", result.RowsSkipped)
	}
	if len(result.RowErrors) != 2 {
		t.Fatalf("expected 2 row errors, got %v", result.RowErrors)
	}
	for _, msg := range result.RowErrors {
		if !strings.Contains(msg, "line ") {
			t.Fatalf("row error should name the line: %q", msg)
		}
	}
}

func TestImporterRejectsBadHeader(t *testing.T) {
	repo := newFakeRepo()
	im := mustImporter(t, repo)

	_, err := im.Import(context.Background(), strings.NewReader("name,supplier\nfoo,bar\n"))
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for bad header, got %v", err)
	}
}
