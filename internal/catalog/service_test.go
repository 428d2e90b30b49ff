package catalog

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/verdantlabs/canopy-backend/pkg/db/models"
	"github.com/verdantlabs/canopy-backend/pkg/enums"
	pkgerrors "github.com/verdantlabs/canopy-backend/pkg/errors"
	"github.com/verdantlabs/canopy-backend/pkg/pagination"
)

// fakeRepo is an in-memory catalog store shared by catalog unit tests.
type fakeRepo struct {
	mu        sync.Mutex
	templates map[uuid.UUID]*models.ProductTemplate
	batches   map[uuid.UUID]*models.ProductBatch
	metrcIDs  map[string]bool
	clock     time.Time
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		templates: map[uuid.UUID]*models.ProductTemplate{},
		batches:   map[uuid.UUID]*models.ProductBatch{},
		metrcIDs:  map[string]bool{},
		clock:     time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (f *fakeRepo) tick() time.Time {
	f.clock = f.clock.Add(time.Second)
	return f.clock
}

func (f *fakeRepo) CreateTemplate(ctx context.Context, template *models.ProductTemplate) (*models.ProductTemplate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if template.ID == uuid.Nil {
		template.ID = uuid.New()
	}
	template.CreatedAt = f.tick()
	template.UpdatedAt = template.CreatedAt
	copied := *template
	f.templates[template.ID] = &copied
	return template, nil
}

func (f *fakeRepo) UpdateTemplate(ctx context.Context, template *models.ProductTemplate) (*models.ProductTemplate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.templates[template.ID]; !ok {
		return nil, gorm.ErrRecordNotFound
	}
	template.UpdatedAt = f.tick()
	copied := *template
	f.templates[template.ID] = &copied
	return template, nil
}

func (f *fakeRepo) DeleteTemplate(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.templates, id)
	for batchID, b := range f.batches {
		if b.TemplateID == id {
			delete(f.batches, batchID)
		}
	}
	return nil
}

func (f *fakeRepo) FindTemplateByID(ctx context.Context, id uuid.UUID) (*models.ProductTemplate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.templates[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *t
	return &copied, nil
}

func (f *fakeRepo) FindTemplateDetail(ctx context.Context, id uuid.UUID) (*models.ProductTemplate, error) {
	template, err := f.FindTemplateByID(ctx, id)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, b := range f.batches {
		if b.TemplateID == id {
			template.Batches = append(template.Batches, *b)
		}
	}
	return template, nil
}

func (f *fakeRepo) ListTemplates(ctx context.Context, query TemplateListQuery) ([]models.ProductTemplate, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.ProductTemplate
	for _, t := range f.templates {
		if query.Filters.Category != nil && t.Category != *query.Filters.Category {
			continue
		}
		if query.Filters.ActiveOnly && !t.IsActive {
			continue
		}
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	limit := pagination.NormalizeLimit(query.Pagination.Limit)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, "", nil
}

func (f *fakeRepo) ListBatchesByTemplates(ctx context.Context, templateIDs []uuid.UUID) (map[uuid.UUID][]models.ProductBatch, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	grouped := map[uuid.UUID][]models.ProductBatch{}
	wanted := map[uuid.UUID]bool{}
	for _, id := range templateIDs {
		wanted[id] = true
	}
	for _, b := range f.batches {
		if wanted[b.TemplateID] {
			grouped[b.TemplateID] = append(grouped[b.TemplateID], *b)
		}
	}
	return grouped, nil
}

func (f *fakeRepo) CreateBatch(ctx context.Context, batch *models.ProductBatch) (*models.ProductBatch, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.metrcIDs[batch.MetrcPackageID] {
		return nil, errors.New(`duplicate key value violates unique constraint "idx_product_batches_metrc_package_id"`)
	}
	if batch.ID == uuid.Nil {
		batch.ID = uuid.New()
	}
	batch.CreatedAt = f.tick()
	batch.UpdatedAt = batch.CreatedAt
	copied := *batch
	f.batches[batch.ID] = &copied
	f.metrcIDs[batch.MetrcPackageID] = true
	return batch, nil
}

func (f *fakeRepo) UpdateBatch(ctx context.Context, batch *models.ProductBatch) (*models.ProductBatch, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.batches[batch.ID]; !ok {
		return nil, gorm.ErrRecordNotFound
	}
	batch.UpdatedAt = f.tick()
	copied := *batch
	f.batches[batch.ID] = &copied
	return batch, nil
}

func (f *fakeRepo) DeleteBatch(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if b, ok := f.batches[id]; ok {
		delete(f.metrcIDs, b.MetrcPackageID)
	}
	delete(f.batches, id)
	return nil
}

func (f *fakeRepo) FindBatchByID(ctx context.Context, id uuid.UUID) (*models.ProductBatch, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.batches[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *b
	return &copied, nil
}

func mustService(t *testing.T, repo repository) Service {
	t.Helper()
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestServiceTemplateLifecycle(t *testing.T) {
	repo := newFakeRepo()
	svc := mustService(t, repo)
	ctx := context.Background()

	created, err := svc.CreateTemplate(ctx, CreateTemplateRequest{
		Name:       "Sunset Sherbet",
		StrainType: enums.StrainTypeIndica,
		Category:   enums.ProductCategoryFlower,
		Unit:       enums.UnitGrams,
		Supplier:   "Verdant Farms",
	})
	if err != nil {
		t.Fatalf("create template: %v", err)
	}
	if !created.IsActive {
		t.Fatal("new templates should default to active")
	}

	newName := "Sunset Sherbet #2"
	updated, err := svc.UpdateTemplate(ctx, created.ID, UpdateTemplateRequest{Name: &newName})
	if err != nil {
		t.Fatalf("update template: %v", err)
	}
	if updated.Name != newName {
		t.Fatalf("expected renamed template, got %q", updated.Name)
	}
	if updated.Unit != enums.UnitGrams {
		t.Fatal("unit must not change on update")
	}

	if err := svc.DeleteTemplate(ctx, created.ID); err != nil {
		t.Fatalf("delete template: %v", err)
	}
	if _, err := svc.GetTemplate(ctx, created.ID); pkgerrors.As(err) == nil || pkgerrors.As(err).Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}

func TestServiceCreateBatchDuplicateMetrcID(t *testing.T) {
	repo := newFakeRepo()
	svc := mustService(t, repo)
	ctx := context.Background()

	template, err := svc.CreateTemplate(ctx, CreateTemplateRequest{
		Name:       "Blue Dream",
		StrainType: enums.StrainTypeSativa,
		Category:   enums.ProductCategoryFlower,
		Unit:       enums.UnitGrams,
		Supplier:   "Verdant Farms",
	})
	if err != nil {
		t.Fatalf("create template: %v", err)
	}

	req := CreateBatchRequest{
		TemplateID:      template.ID,
		MetrcPackageID:  "1A40000000001",
		THCPercent:      22,
		PriceCents:      800,
		CurrentStockQty: 10,
	}
	if _, err := svc.CreateBatch(ctx, req); err != nil {
		t.Fatalf("create batch: %v", err)
	}

	_, err = svc.CreateBatch(ctx, req)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict for duplicate METRC id, got %v", err)
	}
}

func TestServiceCreateBatchUnknownTemplate(t *testing.T) {
	repo := newFakeRepo()
	svc := mustService(t, repo)

	_, err := svc.CreateBatch(context.Background(), CreateBatchRequest{
		TemplateID:     uuid.New(),
		MetrcPackageID: "1A40000000002",
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found for unknown template, got %v", err)
	}
}

func TestServiceGetTemplateIncludesRollup(t *testing.T) {
	repo := newFakeRepo()
	svc := mustService(t, repo)
	ctx := context.Background()

	template, err := svc.CreateTemplate(ctx, CreateTemplateRequest{
		Name:       "OG Kush",
		StrainType: enums.StrainTypeHybrid,
		Category:   enums.ProductCategoryFlower,
		Unit:       enums.UnitGrams,
		Supplier:   "Verdant Farms",
	})
	if err != nil {
		t.Fatalf("create template: %v", err)
	}

	mustCreateBatch := func(metrc string, stock int, thc float64) {
		t.Helper()
		if _, err := svc.CreateBatch(ctx, CreateBatchRequest{
			TemplateID:      template.ID,
			MetrcPackageID:  metrc,
			THCPercent:      thc,
			PriceCents:      800,
			CurrentStockQty: stock,
		}); err != nil {
			t.Fatalf("create batch: %v", err)
		}
	}
	mustCreateBatch("1A4A", 10, 20.0)
	mustCreateBatch("1A4B", 40, 24.0)

	detail, err := svc.GetTemplate(ctx, template.ID)
	if err != nil {
		t.Fatalf("get template: %v", err)
	}
	if detail.Rollup.TotalStock != 50 {
		t.Fatalf("expected total stock 50, got %d", detail.Rollup.TotalStock)
	}
	if detail.Rollup.AvgTHC == nil || *detail.Rollup.AvgTHC != 22.0 {
		t.Fatalf("expected avg thc 22.0, got %v", detail.Rollup.AvgTHC)
	}
	if len(detail.Batches) != 2 {
		t.Fatalf("expected 2 batches, got %d", len(detail.Batches))
	}
}

func TestServiceListTemplatesAttachesRollups(t *testing.T) {
	repo := newFakeRepo()
	svc := mustService(t, repo)
	ctx := context.Background()

	template, err := svc.CreateTemplate(ctx, CreateTemplateRequest{
		Name:       "Gelato Cart",
		StrainType: enums.StrainTypeHybrid,
		Category:   enums.ProductCategoryVape,
		Unit:       enums.UnitEach,
		Supplier:   "Verdant Labs",
	})
	if err != nil {
		t.Fatalf("create template: %v", err)
	}
	if _, err := svc.CreateBatch(ctx, CreateBatchRequest{
		TemplateID:      template.ID,
		MetrcPackageID:  "1A4C",
		THCPercent:      85,
		PriceCents:      2500,
		CurrentStockQty: 12,
	}); err != nil {
		t.Fatalf("create batch: %v", err)
	}

	list, err := svc.ListTemplates(ctx, TemplateListQuery{})
	if err != nil {
		t.Fatalf("list templates: %v", err)
	}
	if len(list.Templates) != 1 {
		t.Fatalf("expected 1 template, got %d", len(list.Templates))
	}
	if list.Templates[0].Rollup.TotalStock != 12 {
		t.Fatalf("expected rollup stock 12, got %d", list.Templates[0].Rollup.TotalStock)
	}
	if len(list.Templates[0].Batches) != 0 {
		t.Fatal("list view should omit raw batches")
	}
}
