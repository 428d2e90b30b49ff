package catalog

import (
	"context"
	"sync"
	"testing"

	"github.com/verdantlabs/canopy-backend/pkg/db/models"
)

func TestRepositoryDecrementStockGuard(t *testing.T) {
	conn := openTestDB(t)
	tx := conn.Begin()
	if tx.Error != nil {
		t.Fatalf("begin tx: %v", tx.Error)
	}
	t.Cleanup(func() {
		_ = tx.Rollback()
	})

	repo := NewRepository(tx)
	ctx := context.Background()

	template := mustCreateTestTemplate(t, tx)
	batch := mustCreateTestBatch(t, tx, template.ID, 10)

	ok, err := repo.DecrementStock(ctx, batch.ID, 4)
	if err != nil {
		t.Fatalf("decrement: %v", err)
	}
	if !ok {
		t.Fatal("expected decrement to succeed")
	}

	ok, err = repo.DecrementStock(ctx, batch.ID, 7)
	if err != nil {
		t.Fatalf("decrement: %v", err)
	}
	if ok {
		t.Fatal("expected decrement past remaining stock to be rejected")
	}

	fetched, err := repo.FindBatchByID(ctx, batch.ID)
	if err != nil {
		t.Fatalf("find batch: %v", err)
	}
	if fetched.CurrentStockQty != 6 {
		t.Fatalf("expected stock 6 after guard, got %d", fetched.CurrentStockQty)
	}
}

func TestRepositoryDecrementStockConcurrent(t *testing.T) {
	conn := openTestDB(t)

	template := mustCreateTestTemplate(t, conn)
	batch := mustCreateTestBatch(t, conn, template.ID, 10)
	t.Cleanup(func() {
		conn.Where("template_id = ?", template.ID).Delete(&models.ProductBatch{})
		conn.Where("id = ?", template.ID).Delete(&models.ProductTemplate{})
	})

	repo := NewRepository(conn)
	ctx := context.Background()

	// two buyers race for 7 of 10 units each; only one can win
	var wg sync.WaitGroup
	results := make([]bool, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ok, err := repo.DecrementStock(ctx, batch.ID, 7)
			if err != nil {
				t.Errorf("decrement %d: %v", i, err)
				return
			}
			results[i] = ok
		}(i)
	}
	wg.Wait()

	if results[0] == results[1] {
		t.Fatalf("expected exactly one winner, got %v", results)
	}

	fetched, err := repo.FindBatchByID(ctx, batch.ID)
	if err != nil {
		t.Fatalf("find batch: %v", err)
	}
	if fetched.CurrentStockQty != 3 {
		t.Fatalf("expected stock 3 after race, got %d", fetched.CurrentStockQty)
	}
}

func TestRepositoryDecrementStockConcurrentInMemory(t *testing.T) {
	conn := openSQLiteTestDB(t)

	template := mustCreateTestTemplate(t, conn)
	batch := mustCreateTestBatch(t, conn, template.ID, 10)

	repo := NewRepository(conn)
	ctx := context.Background()

	// two buyers race for 7 of 10 units each; only one can win
	var wg sync.WaitGroup
	results := make([]bool, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ok, err := repo.DecrementStock(ctx, batch.ID, 7)
			if err != nil {
				t.Errorf("decrement %d: %v", i, err)
				return
			}
			results[i] = ok
		}(i)
	}
	wg.Wait()

	if results[0] == results[1] {
		t.Fatalf("expected exactly one winner, got %v", results)
	}

	fetched, err := repo.FindBatchByID(ctx, batch.ID)
	if err != nil {
		t.Fatalf("find batch: %v", err)
	}
	if fetched.CurrentStockQty != 3 {
		t.Fatalf("expected stock 3 after race, got %d", fetched.CurrentStockQty)
	}
}

func TestRepositoryListTemplatesPagination(t *testing.T) {
	conn := openTestDB(t)
	tx := conn.Begin()
	if tx.Error != nil {
		t.Fatalf("begin tx: %v", tx.Error)
	}
	t.Cleanup(func() {
		_ = tx.Rollback()
	})

	repo := NewRepository(tx)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		mustCreateTestTemplate(t, tx)
	}

	page, cursor, err := repo.ListTemplates(ctx, TemplateListQuery{})
	if err != nil {
		t.Fatalf("list templates: %v", err)
	}
	if len(page) < 3 {
		t.Fatalf("expected at least 3 templates, got %d", len(page))
	}
	_ = cursor
}
