package catalog

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/verdantlabs/canopy-backend/pkg/db/models"
	"github.com/verdantlabs/canopy-backend/pkg/enums"
)

func mustCreateTestTemplate(t *testing.T, tx *gorm.DB) *models.ProductTemplate {
	t.Helper()
	template := &models.ProductTemplate{
		ID:         uuid.New(),
		Name:       "Test Flower",
		StrainType: enums.StrainTypeHybrid,
		Category:   enums.ProductCategoryFlower,
		Unit:       enums.UnitGrams,
		Supplier:   "Test Farms",
		IsActive:   true,
	}
	if err := tx.Create(template).Error; err != nil {
		t.Fatalf("create template: %v", err)
	}
	return template
}

func mustCreateTestBatch(t *testing.T, tx *gorm.DB, templateID uuid.UUID, stock int) *models.ProductBatch {
	t.Helper()
	batch := &models.ProductBatch{
		ID:              uuid.New(),
		TemplateID:      templateID,
		MetrcPackageID:  fmt.Sprintf("1A4%s", uuid.NewString()),
		THCPercent:      21.5,
		CBDPercent:      0.4,
		PriceCents:      800,
		CurrentStockQty: stock,
		IsActive:        true,
	}
	if err := tx.Create(batch).Error; err != nil {
		t.Fatalf("create batch: %v", err)
	}
	return batch
}
