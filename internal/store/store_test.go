package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const ordersV1 = `{"$Version": "4.0", "$EntityContainer": "ns.Container", "ns.Order": {"$kind": "EntityType", "$Key": ["ID"], "ID": {"$kind": "Property", "$Type": "Edm.Int32"}}}`

const ordersV2 = `{"$Version": "4.0", "$EntityContainer": "ns.Container", "ns.Order": {"$kind": "EntityType", "$Key": ["ID"], "ID": {"$kind": "Property", "$Type": "Edm.Int64"}}}`

func setupStore(t *testing.T) *Store {
	t.Helper()
	sqlDB, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open sqlite: %v", err)
	}
	// Every connection to :memory: is a new database.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(sqlite.New(sqlite.Config{Conn: sqlDB}), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to open gorm: %v", err)
	}
	s, err := New(db, nil)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return s
}

func TestSaveVersionsDocuments(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	first, created, err := s.Save(ctx, "orders", []byte(ordersV1))
	if err != nil || !created {
		t.Fatalf("Save() = %v, %v; want a new record", created, err)
	}
	if first.Identity() != "orders@v1" {
		t.Errorf("Identity() = %q, want orders@v1", first.Identity())
	}

	again, created, err := s.Save(ctx, "orders", []byte(ordersV1))
	if err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	if created || again.Version != 1 {
		t.Errorf("expected unchanged content to keep version 1, got v%d created=%v", again.Version, created)
	}

	second, created, err := s.Save(ctx, "orders", []byte(ordersV2))
	if err != nil || !created {
		t.Fatalf("Save() = %v, %v; want a new record", created, err)
	}
	if second.Identity() != "orders@v2" {
		t.Errorf("Identity() = %q, want orders@v2", second.Identity())
	}

	versions, err := s.Versions(ctx, "orders")
	if err != nil {
		t.Fatalf("Versions() error: %v", err)
	}
	if len(versions) != 2 || versions[0].Version != 1 || versions[1].Version != 2 {
		t.Errorf("unexpected versions %+v", versions)
	}
}

func TestLatestReturnsParsableSource(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	if _, _, err := s.Save(ctx, "orders", []byte(ordersV1)); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	if _, _, err := s.Save(ctx, "orders", []byte(ordersV2)); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	latest, err := s.Latest(ctx, "orders")
	if err != nil {
		t.Fatalf("Latest() error: %v", err)
	}
	if latest.Identity() != "orders@v2" {
		t.Errorf("Identity() = %q, want orders@v2", latest.Identity())
	}
	doc, err := latest.Document(ctx)
	if err != nil {
		t.Fatalf("Document() error: %v", err)
	}
	if doc.EntityContainerName() != "ns.Container" {
		t.Errorf("unexpected container %q", doc.EntityContainerName())
	}

	v1, err := s.Version(ctx, "orders", 1)
	if err != nil {
		t.Fatalf("Version() error: %v", err)
	}
	if v1.Fingerprint != Fingerprint([]byte(ordersV1)) {
		t.Error("expected version 1 to carry the fingerprint of its content")
	}
}

func TestLatestNotFound(t *testing.T) {
	s := setupStore(t)

	if _, err := s.Latest(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := s.Version(context.Background(), "missing", 3); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSaveRejectsInvalidDocuments(t *testing.T) {
	s := setupStore(t)

	if _, _, err := s.Save(context.Background(), "orders", []byte("not json")); err == nil {
		t.Error("expected an error for invalid JSON")
	}
	if _, _, err := s.Save(context.Background(), "", []byte(ordersV1)); err == nil {
		t.Error("expected an error for an empty name")
	}
}

func TestOpenRejectsUnknownDialect(t *testing.T) {
	if _, err := Open("oracle", "dsn"); err == nil {
		t.Error("expected an error for an unsupported dialect")
	}
}
