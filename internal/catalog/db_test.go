package catalog

import (
	"fmt"
	"os"
	"testing"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := os.Getenv("CANOPY_DB_DSN")
	if dsn == "" {
		t.Skip("CANOPY_DB_DSN is not set")
	}

	conn, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	return conn
}

// openSQLiteTestDB opens a throwaway in-memory database so guard behavior
// can be exercised without a postgres instance. The pool is pinned to a
// single connection, which serializes writers instead of tripping sqlite's
// write lock.
func openSQLiteTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("failed to access pool: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	for _, stmt := range []string{createProductTemplatesSQL, createProductBatchesSQL} {
		if err := conn.Exec(stmt).Error; err != nil {
			t.Fatalf("failed to create schema: %v", err)
		}
	}
	return conn
}

const createProductTemplatesSQL = `
CREATE TABLE IF NOT EXISTS product_templates (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  strain_type TEXT NOT NULL,
  category TEXT NOT NULL,
  unit TEXT NOT NULL,
  supplier TEXT NOT NULL,
  description TEXT,
  image_url TEXT,
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`

const createProductBatchesSQL = `
CREATE TABLE IF NOT EXISTS product_batches (
  id TEXT PRIMARY KEY,
  template_id TEXT NOT NULL,
  metrc_package_id TEXT NOT NULL UNIQUE,
  thc_percent REAL NOT NULL,
  cbd_percent REAL NOT NULL,
  price_cents INTEGER NOT NULL,
  current_stock_qty INTEGER NOT NULL DEFAULT 0,
  is_active INTEGER NOT NULL DEFAULT 1,
  production_date DATETIME,
  expiration_date DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`
