package cli

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/BJPickles/AGSCogs-sub000/internal/db"
	"github.com/BJPickles/AGSCogs-sub000/internal/listing"
)

func seededDB(t *testing.T) (string, *listing.Repository) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	database, err := db.Open(path)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() {
		if err := database.Close(); err != nil {
			t.Errorf("close db: %v", err)
		}
	})
	return path, listing.NewRepository(database)
}

func TestPropertiesSweepDeletesExpired(t *testing.T) {
	path, repo := seededDB(t)

	expired, err := repo.Insert("bristol", "chan-1", listing.Listing{
		ExternalID: "140000001",
		Price:      350000,
		Address:    "12 Harbour Road, Bristol",
		URL:        "https://example.org/properties/140000001",
	})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if _, err := repo.MarkVanished(expired.ID, time.Now().AddDate(0, 0, -30)); err != nil {
		t.Fatalf("mark vanished: %v", err)
	}

	kept, err := repo.Insert("bristol", "chan-1", listing.Listing{
		ExternalID: "140000002",
		Price:      275000,
		Address:    "3 Orchard Lane, Bristol",
		URL:        "https://example.org/properties/140000002",
	})
	if err != nil {
		t.Fatalf("insert kept: %v", err)
	}

	if _, err := executeCommand("properties", "sweep",
		"--db", path, "--target", "bristol", "--days", "14"); err != nil {
		t.Fatalf("sweep: %v", err)
	}

	if _, err := repo.GetByID(expired.ID); err == nil {
		t.Error("expired property should have been deleted")
	}
	if _, err := repo.GetByID(kept.ID); err != nil {
		t.Errorf("active property should survive the sweep: %v", err)
	}
}

func TestPropertiesSweepRequiresTarget(t *testing.T) {
	path, _ := seededDB(t)

	if _, err := executeCommand("properties", "sweep", "--db", path); err == nil {
		t.Error("expected error when --target is missing")
	}
}
