package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/verdantlabs/canopy-backend/pkg/db"
	"github.com/verdantlabs/canopy-backend/pkg/db/models"
	pkgerrors "github.com/verdantlabs/canopy-backend/pkg/errors"
)

// Service exposes catalog management plus the rollup read paths.
type Service interface {
	CreateTemplate(ctx context.Context, req CreateTemplateRequest) (*TemplateDTO, error)
	UpdateTemplate(ctx context.Context, id uuid.UUID, req UpdateTemplateRequest) (*TemplateDTO, error)
	DeleteTemplate(ctx context.Context, id uuid.UUID) error
	GetTemplate(ctx context.Context, id uuid.UUID) (*TemplateWithRollup, error)
	ListTemplates(ctx context.Context, query TemplateListQuery) (*TemplateListResult, error)

	CreateBatch(ctx context.Context, req CreateBatchRequest) (*BatchDTO, error)
	UpdateBatch(ctx context.Context, id uuid.UUID, req UpdateBatchRequest) (*BatchDTO, error)
	DeleteBatch(ctx context.Context, id uuid.UUID) error
	GetBatch(ctx context.Context, id uuid.UUID) (*BatchDTO, error)
}

type repository interface {
	CreateTemplate(ctx context.Context, template *models.ProductTemplate) (*models.ProductTemplate, error)
	UpdateTemplate(ctx context.Context, template *models.ProductTemplate) (*models.ProductTemplate, error)
	DeleteTemplate(ctx context.Context, id uuid.UUID) error
	FindTemplateByID(ctx context.Context, id uuid.UUID) (*models.ProductTemplate, error)
	FindTemplateDetail(ctx context.Context, id uuid.UUID) (*models.ProductTemplate, error)
	ListTemplates(ctx context.Context, query TemplateListQuery) ([]models.ProductTemplate, string, error)
	ListBatchesByTemplates(ctx context.Context, templateIDs []uuid.UUID) (map[uuid.UUID][]models.ProductBatch, error)

	CreateBatch(ctx context.Context, batch *models.ProductBatch) (*models.ProductBatch, error)
	UpdateBatch(ctx context.Context, batch *models.ProductBatch) (*models.ProductBatch, error)
	DeleteBatch(ctx context.Context, id uuid.UUID) error
	FindBatchByID(ctx context.Context, id uuid.UUID) (*models.ProductBatch, error)
}

type service struct {
	repo repository
}

// NewService builds the catalog service.
func NewService(repo repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository is required")
	}
	return &service{repo: repo}, nil
}

func (s *service) CreateTemplate(ctx context.Context, req CreateTemplateRequest) (*TemplateDTO, error) {
	if !req.StrainType.IsValid() || !req.Category.IsValid() || !req.Unit.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid strain type, category, or unit")
	}

	template := &models.ProductTemplate{
		Name:        req.Name,
		StrainType:  req.StrainType,
		Category:    req.Category,
		Unit:        req.Unit,
		Supplier:    req.Supplier,
		Description: req.Description,
		ImageURL:    req.ImageURL,
		IsActive:    true,
	}
	created, err := s.repo.CreateTemplate(ctx, template)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create template")
	}
	dto := templateFromModel(created)
	return &dto, nil
}

func (s *service) UpdateTemplate(ctx context.Context, id uuid.UUID, req UpdateTemplateRequest) (*TemplateDTO, error) {
	template, err := s.findTemplate(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		template.Name = *req.Name
	}
	if req.StrainType != nil {
		if !req.StrainType.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid strain type")
		}
		template.StrainType = *req.StrainType
	}
	if req.Category != nil {
		if !req.Category.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid category")
		}
		template.Category = *req.Category
	}
	if req.Supplier != nil {
		template.Supplier = *req.Supplier
	}
	if req.Description != nil {
		template.Description = req.Description
	}
	if req.ImageURL != nil {
		template.ImageURL = req.ImageURL
	}
	if req.IsActive != nil {
		template.IsActive = *req.IsActive
	}

	updated, err := s.repo.UpdateTemplate(ctx, template)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update template")
	}
	dto := templateFromModel(updated)
	return &dto, nil
}

func (s *service) DeleteTemplate(ctx context.Context, id uuid.UUID) error {
	if _, err := s.findTemplate(ctx, id); err != nil {
		return err
	}
	if err := s.repo.DeleteTemplate(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete template")
	}
	return nil
}

func (s *service) GetTemplate(ctx context.Context, id uuid.UUID) (*TemplateWithRollup, error) {
	template, err := s.repo.FindTemplateDetail(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "template not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load template")
	}

	out := TemplateWithRollup{
		TemplateDTO: templateFromModel(template),
		Rollup:      RollupForBatches(template.Batches),
		Batches:     make([]BatchDTO, 0, len(template.Batches)),
	}
	for i := range template.Batches {
		out.Batches = append(out.Batches, batchFromModel(&template.Batches[i]))
	}
	return &out, nil
}

func (s *service) ListTemplates(ctx context.Context, query TemplateListQuery) (*TemplateListResult, error) {
	templates, nextCursor, err := s.repo.ListTemplates(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list templates")
	}

	ids := make([]uuid.UUID, 0, len(templates))
	for i := range templates {
		ids = append(ids, templates[i].ID)
	}
	grouped, err := s.repo.ListBatchesByTemplates(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load batches")
	}

	out := make([]TemplateWithRollup, 0, len(templates))
	for i := range templates {
		t := &templates[i]
		out = append(out, TemplateWithRollup{
			TemplateDTO: templateFromModel(t),
			Rollup:      RollupForBatches(grouped[t.ID]),
		})
	}
	return &TemplateListResult{Templates: out, NextCursor: nextCursor}, nil
}

func (s *service) CreateBatch(ctx context.Context, req CreateBatchRequest) (*BatchDTO, error) {
	if _, err := s.findTemplate(ctx, req.TemplateID); err != nil {
		return nil, err
	}
	if req.PriceCents < 0 || req.CurrentStockQty < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price and stock must be non-negative")
	}

	batch := &models.ProductBatch{
		TemplateID:      req.TemplateID,
		MetrcPackageID:  req.MetrcPackageID,
		THCPercent:      req.THCPercent,
		CBDPercent:      req.CBDPercent,
		PriceCents:      req.PriceCents,
		CurrentStockQty: req.CurrentStockQty,
		IsActive:        true,
		ProductionDate:  req.ProductionDate,
		ExpirationDate:  req.ExpirationDate,
	}
	created, err := s.repo.CreateBatch(ctx, batch)
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "METRC package id already registered")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create batch")
	}
	dto := batchFromModel(created)
	return &dto, nil
}

func (s *service) UpdateBatch(ctx context.Context, id uuid.UUID, req UpdateBatchRequest) (*BatchDTO, error) {
	batch, err := s.findBatch(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.THCPercent != nil {
		batch.THCPercent = *req.THCPercent
	}
	if req.CBDPercent != nil {
		batch.CBDPercent = *req.CBDPercent
	}
	if req.PriceCents != nil {
		if *req.PriceCents < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must be non-negative")
		}
		batch.PriceCents = *req.PriceCents
	}
	if req.CurrentStockQty != nil {
		if *req.CurrentStockQty < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock must be non-negative")
		}
		batch.CurrentStockQty = *req.CurrentStockQty
	}
	if req.IsActive != nil {
		batch.IsActive = *req.IsActive
	}
	if req.ProductionDate != nil {
		batch.ProductionDate = req.ProductionDate
	}
	if req.ExpirationDate != nil {
		batch.ExpirationDate = req.ExpirationDate
	}

	updated, err := s.repo.UpdateBatch(ctx, batch)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update batch")
	}
	dto := batchFromModel(updated)
	return &dto, nil
}

func (s *service) DeleteBatch(ctx context.Context, id uuid.UUID) error {
	if _, err := s.findBatch(ctx, id); err != nil {
		return err
	}
	if err := s.repo.DeleteBatch(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete batch")
	}
	return nil
}

func (s *service) GetBatch(ctx context.Context, id uuid.UUID) (*BatchDTO, error) {
	batch, err := s.findBatch(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := batchFromModel(batch)
	return &dto, nil
}

func (s *service) findTemplate(ctx context.Context, id uuid.UUID) (*models.ProductTemplate, error) {
	template, err := s.repo.FindTemplateByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "template not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup template")
	}
	return template, nil
}

func (s *service) findBatch(ctx context.Context, id uuid.UUID) (*models.ProductBatch, error) {
	batch, err := s.repo.FindBatchByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "batch not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup batch")
	}
	return batch, nil
}
