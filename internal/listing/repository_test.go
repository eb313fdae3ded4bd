package listing

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/BJPickles/AGSCogs-sub000/internal/db"
)

func testRepo(t *testing.T) *Repository {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	d, err := db.Open(path)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() {
		if err := d.Close(); err != nil {
			t.Errorf("close db: %v", err)
		}
	})
	return NewRepository(d)
}

func sampleListing(id string, price int64) Listing {
	return Listing{
		ExternalID:   id,
		Price:        price,
		Address:      "12 Harbour Road, Bristol",
		PropertyType: "Terraced",
		URL:          "https://example.org/properties/" + id,
		ImageURL:     "https://example.org/img/" + id + ".jpg",
		Agent:        "Hunters",
		AgentURL:     "https://example.org/agents/hunters",
		ListedAt:     1756000000,
	}
}

func TestInsertAndGetByID(t *testing.T) {
	repo := testRepo(t)

	saved, err := repo.Insert("rightmove", "chan-1", sampleListing("140000001", 350000))
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if saved.ID == 0 {
		t.Error("expected non-zero ID")
	}
	if !saved.Active {
		t.Error("new tracked property should start active")
	}
	if saved.MessageID != "" {
		t.Errorf("message_id = %q, want empty", saved.MessageID)
	}

	got, err := repo.GetByID(saved.ID)
	if err != nil {
		t.Fatalf("get by id: %v", err)
	}
	if got.ExternalID != "140000001" {
		t.Errorf("external_id = %q, want %q", got.ExternalID, "140000001")
	}
	if got.Price != 350000 {
		t.Errorf("price = %d, want 350000", got.Price)
	}
	if got.Agent != "Hunters" {
		t.Errorf("agent = %q, want Hunters", got.Agent)
	}
}

func TestGetByIDNotFound(t *testing.T) {
	repo := testRepo(t)

	_, err := repo.GetByID(9999)
	if err == nil {
		t.Fatal("expected error for missing tracked property")
	}
}

func TestInsertDuplicateExternalID(t *testing.T) {
	repo := testRepo(t)

	if _, err := repo.Insert("rightmove", "chan-1", sampleListing("1", 100)); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	if _, err := repo.Insert("rightmove", "chan-1", sampleListing("1", 100)); err == nil {
		t.Error("expected error inserting duplicate external id for target")
	}
	// Same external id under a different target is fine.
	if _, err := repo.Insert("portal", "chan-1", sampleListing("1", 100)); err != nil {
		t.Errorf("insert under other target: %v", err)
	}
}

func TestByTarget(t *testing.T) {
	repo := testRepo(t)

	for i, id := range []string{"10", "20", "30"} {
		if _, err := repo.Insert("rightmove", "chan-1", sampleListing(id, int64(100000*(i+1)))); err != nil {
			t.Fatalf("insert %s: %v", id, err)
		}
	}
	if _, err := repo.Insert("portal", "chan-2", sampleListing("40", 400000)); err != nil {
		t.Fatalf("insert portal: %v", err)
	}

	got, err := repo.ByTarget("rightmove")
	if err != nil {
		t.Fatalf("by target: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d properties, want 3", len(got))
	}
	if _, ok := got["20"]; !ok {
		t.Error("expected external id 20 in map")
	}
	if _, ok := got["40"]; ok {
		t.Error("portal property leaked into rightmove target")
	}
}

func TestApplyListingRefreshesAndRevives(t *testing.T) {
	repo := testRepo(t)

	saved, err := repo.Insert("rightmove", "chan-1", sampleListing("1", 350000))
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	if _, err := repo.MarkVanished(saved.ID, time.Now()); err != nil {
		t.Fatalf("mark vanished: %v", err)
	}

	l := sampleListing("1", 340000)
	l.UnderOffer = true
	if err := repo.ApplyListing(saved.ID, l); err != nil {
		t.Fatalf("apply listing: %v", err)
	}

	got, err := repo.GetByID(saved.ID)
	if err != nil {
		t.Fatalf("get by id: %v", err)
	}
	if got.Price != 340000 {
		t.Errorf("price = %d, want 340000", got.Price)
	}
	if !got.UnderOffer {
		t.Error("under_offer flag not applied")
	}
	if !got.Active {
		t.Error("apply should reactivate a vanished property")
	}
	if got.VanishedAt != nil {
		t.Errorf("vanished_at = %v, want nil", got.VanishedAt)
	}
}

func TestSetMessageID(t *testing.T) {
	repo := testRepo(t)

	saved, err := repo.Insert("rightmove", "chan-1", sampleListing("1", 350000))
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	if err := repo.SetMessageID(saved.ID, "msg-123"); err != nil {
		t.Fatalf("set message id: %v", err)
	}

	got, err := repo.GetByID(saved.ID)
	if err != nil {
		t.Fatalf("get by id: %v", err)
	}
	if got.MessageID != "msg-123" {
		t.Errorf("message_id = %q, want msg-123", got.MessageID)
	}
}

func TestMarkVanishedOnlyOnce(t *testing.T) {
	repo := testRepo(t)

	saved, err := repo.Insert("rightmove", "chan-1", sampleListing("1", 350000))
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	first, err := repo.MarkVanished(saved.ID, time.Now())
	if err != nil {
		t.Fatalf("first mark: %v", err)
	}
	if !first {
		t.Error("first MarkVanished should transition")
	}

	second, err := repo.MarkVanished(saved.ID, time.Now())
	if err != nil {
		t.Fatalf("second mark: %v", err)
	}
	if second {
		t.Error("second MarkVanished must not transition again")
	}

	got, err := repo.GetByID(saved.ID)
	if err != nil {
		t.Fatalf("get by id: %v", err)
	}
	if got.Active {
		t.Error("property should be inactive")
	}
	if got.VanishedAt == nil {
		t.Error("vanished_at should be set")
	}
}

func TestExpiredBeforeAndDelete(t *testing.T) {
	repo := testRepo(t)

	old, err := repo.Insert("rightmove", "chan-1", sampleListing("1", 100000))
	if err != nil {
		t.Fatalf("insert old: %v", err)
	}
	fresh, err := repo.Insert("rightmove", "chan-1", sampleListing("2", 200000))
	if err != nil {
		t.Fatalf("insert fresh: %v", err)
	}

	if _, err := repo.MarkVanished(old.ID, time.Now().Add(-30*24*time.Hour)); err != nil {
		t.Fatalf("mark old: %v", err)
	}
	if _, err := repo.MarkVanished(fresh.ID, time.Now().Add(-time.Hour)); err != nil {
		t.Fatalf("mark fresh: %v", err)
	}

	cutoff := time.Now().Add(-14 * 24 * time.Hour)
	expired, err := repo.ExpiredBefore("rightmove", cutoff)
	if err != nil {
		t.Fatalf("expired before: %v", err)
	}
	if len(expired) != 1 || expired[0].ExternalID != "1" {
		t.Fatalf("expired = %v, want only property 1", expired)
	}

	if err := repo.Delete(expired[0].ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.GetByID(expired[0].ID); err == nil {
		t.Error("expected deleted property to be gone")
	}
}

func TestListFilters(t *testing.T) {
	repo := testRepo(t)

	a, err := repo.Insert("rightmove", "chan-1", sampleListing("1", 100000))
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if _, err := repo.Insert("rightmove", "chan-1", sampleListing("2", 200000)); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if _, err := repo.Insert("portal", "chan-2", sampleListing("3", 300000)); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if _, err := repo.MarkVanished(a.ID, time.Now()); err != nil {
		t.Fatalf("mark vanished: %v", err)
	}

	all, err := repo.List(ListOptions{})
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("all = %d, want 3", len(all))
	}

	active, err := repo.List(ListOptions{Target: "rightmove", ActiveOnly: true})
	if err != nil {
		t.Fatalf("list active: %v", err)
	}
	if len(active) != 1 || active[0].ExternalID != "2" {
		t.Errorf("active rightmove = %v, want only property 2", active)
	}
}
