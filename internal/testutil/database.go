// Package testutil provides test fixtures and fakes for the concierge pipelines.
// It offers an in-memory database with seeded entities and scriptable stand-ins
// for the language model, web search and invite collaborators.
package testutil

import (
	"context"
	"testing"

	"github.com/Veraticus/concierge/internal/model"
	"github.com/Veraticus/concierge/internal/service"
	"github.com/Veraticus/concierge/internal/storage"
)

// TestDB represents a test database with associated test utilities.
type TestDB struct {
	Storage service.Storage
	t       *testing.T
}

// TestDBOptions provides configuration options for test database setup.
type TestDBOptions struct {
	CustomSetup    func(context.Context, service.Storage) error
	Entities       []model.Entity
	Documents      []model.DocumentExtraction
	SkipMigrations bool
}

// SetupTestDB creates a new in-memory test database seeded with entities.
// It automatically handles migrations and cleanup.
//
// Example:
//
//	db := testutil.SetupTestDB(t, testutil.PartnerInHighRiskCountry, testutil.CleanClient)
func SetupTestDB(t *testing.T, entities ...model.Entity) *TestDB {
	t.Helper()
	return SetupTestDBWithOptions(t, TestDBOptions{Entities: entities})
}

// SetupTestDBWithOptions creates a test database with custom options.
func SetupTestDBWithOptions(t *testing.T, opts TestDBOptions) *TestDB {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	ctx := context.Background()

	if !opts.SkipMigrations {
		if err := store.Migrate(ctx); err != nil {
			t.Fatalf("failed to run migrations: %v", err)
		}
	}

	t.Cleanup(func() {
		_ = store.Close()
	})

	db := &TestDB{Storage: store, t: t}
	for _, e := range opts.Entities {
		db.MustSaveEntity(e)
	}
	for _, d := range opts.Documents {
		db.MustSaveDocument(d)
	}

	if opts.CustomSetup != nil {
		if err := opts.CustomSetup(ctx, store); err != nil {
			t.Fatalf("custom setup failed: %v", err)
		}
	}

	return db
}

// MustSaveEntity stores e or fails the test.
func (db *TestDB) MustSaveEntity(e model.Entity) {
	db.t.Helper()
	if err := db.Storage.SaveEntity(context.Background(), &e); err != nil {
		db.t.Fatalf("failed to seed %s %q: %v", e.Type, e.ID, err)
	}
}

// MustSaveDocument stores d or fails the test.
func (db *TestDB) MustSaveDocument(d model.DocumentExtraction) {
	db.t.Helper()
	if err := db.Storage.SaveDocumentExtraction(context.Background(), &d); err != nil {
		db.t.Fatalf("failed to seed document %q: %v", d.DocumentID, err)
	}
}

// CountRows returns the number of rows in table or fails the test.
func (db *TestDB) CountRows(table string) int {
	db.t.Helper()
	counter, ok := db.Storage.(interface {
		CountRows(ctx context.Context, table string) (int, error)
	})
	if !ok {
		db.t.Fatalf("storage %T cannot count rows", db.Storage)
	}
	n, err := counter.CountRows(context.Background(), table)
	if err != nil {
		db.t.Fatalf("failed to count %s: %v", table, err)
	}
	return n
}
