package activity

import (
	"context"
	"fmt"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/mahabub-bd/purepac-admin/internal/domain"
	"github.com/mahabub-bd/purepac-admin/internal/listing"
)

// setupTestDB creates an in-memory SQLite database with the activity table.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := db.AutoMigrate(&domain.ActivityEntry{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seed(t *testing.T, repo domain.ActivityRepository, entries ...domain.ActivityEntry) {
	t.Helper()
	for i := range entries {
		if err := repo.Create(context.Background(), &entries[i]); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
}

func TestCreateAndGetByID(t *testing.T) {
	repo := NewActivityRepository(setupTestDB(t))
	ctx := context.Background()

	entry := &domain.ActivityEntry{Resource: "brands", Action: domain.ActionCreate, RecordID: "7", Summary: "Created brand Lux"}
	if err := repo.Create(ctx, entry); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if entry.ID == 0 {
		t.Fatal("expected non-zero ID after Create")
	}

	got, err := repo.GetByID(ctx, entry.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Resource != "brands" || got.Summary != "Created brand Lux" || got.CreatedAt.IsZero() {
		t.Errorf("got %+v", got)
	}
}

func TestGetByID_NotFound(t *testing.T) {
	repo := NewActivityRepository(setupTestDB(t))

	_, err := repo.GetByID(context.Background(), 999)
	if !domain.IsNotFound(err) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestList_NewestFirstWithTotals(t *testing.T) {
	repo := NewActivityRepository(setupTestDB(t))
	for i := 1; i <= 23; i++ {
		seed(t, repo, domain.ActivityEntry{Resource: "products", Action: domain.ActionUpdate, RecordID: fmt.Sprint(i)})
	}

	page, err := repo.List(context.Background(), listing.NewQuery(3, 10, "", nil))
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if page.TotalItems != 23 || page.TotalPages != 3 {
		t.Errorf("totals = %d/%d, want 23/3", page.TotalItems, page.TotalPages)
	}
	if len(page.Items) != 3 {
		t.Fatalf("items on last page = %d, want 3", len(page.Items))
	}
	if page.Items[0].RecordID != "3" || page.Items[2].RecordID != "1" {
		t.Errorf("expected newest first, got %q..%q", page.Items[0].RecordID, page.Items[2].RecordID)
	}
}

func TestList_PastTheEndClampsToLastPage(t *testing.T) {
	repo := NewActivityRepository(setupTestDB(t))
	for i := 1; i <= 23; i++ {
		seed(t, repo, domain.ActivityEntry{Resource: "brands", Action: domain.ActionDelete, RecordID: fmt.Sprint(i)})
	}

	page, err := repo.List(context.Background(), listing.NewQuery(9, 10, "", nil))
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if page.TotalItems != 23 || page.TotalPages != 3 {
		t.Errorf("totals = %d/%d, want 23/3", page.TotalItems, page.TotalPages)
	}
	if len(page.Items) != 3 || page.Items[0].RecordID != "3" {
		t.Errorf("expected the last page (3..1), got %d items starting at %v", len(page.Items), page.Items)
	}
}

func TestList_CanceledContext(t *testing.T) {
	repo := NewActivityRepository(setupTestDB(t))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := repo.List(ctx, listing.NewQuery(1, 10, "", nil)); !domain.IsInternal(err) {
		t.Errorf("List(canceled) error = %v, want an internal error", err)
	}
}

func TestList_FiltersAndSearch(t *testing.T) {
	repo := NewActivityRepository(setupTestDB(t))
	seed(t, repo,
		domain.ActivityEntry{Resource: "brands", Action: domain.ActionCreate, Summary: "Created brand Lux"},
		domain.ActivityEntry{Resource: "brands", Action: domain.ActionDelete, Summary: "Deleted brand Dove"},
		domain.ActivityEntry{Resource: "products", Action: domain.ActionCreate, Summary: "Created product Lux Soap"},
		domain.ActivityEntry{Resource: "products", Action: domain.ActionCreate, RecordID: "lux-9", Summary: "Created product"},
	)

	tests := []struct {
		name    string
		search  string
		filters map[string]string
		want    int
	}{
		{"no constraints", "", nil, 4},
		{"resource filter", "", map[string]string{"resource": "brands"}, 2},
		{"resource and action", "", map[string]string{"resource": "brands", "action": "delete"}, 1},
		{"all sentinel ignored", "", map[string]string{"resource": listing.FilterAll}, 4},
		{"search summary and record id", "Lux", nil, 3},
		{"search with filter", "lux", map[string]string{"resource": "products"}, 2},
		{"unknown filter ignored", "", map[string]string{"summary": "x"}, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := repo.List(context.Background(), listing.NewQuery(1, 10, tt.search, tt.filters))
			if err != nil {
				t.Fatalf("List: %v", err)
			}
			if page.TotalItems != tt.want || len(page.Items) != tt.want {
				t.Errorf("got %d items (total %d), want %d", len(page.Items), page.TotalItems, tt.want)
			}
		})
	}
}

func TestList_Empty(t *testing.T) {
	repo := NewActivityRepository(setupTestDB(t))

	page, err := repo.List(context.Background(), listing.NewQuery(1, 10, "", nil))
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if page.Items == nil || len(page.Items) != 0 || page.TotalPages != 0 {
		t.Errorf("expected an empty page, got %+v", page)
	}
}

func TestDelete(t *testing.T) {
	repo := NewActivityRepository(setupTestDB(t))
	entry := domain.ActivityEntry{Resource: "tags", Action: domain.ActionCreate}
	seed(t, repo, entry)

	if err := repo.Delete(context.Background(), 1); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := repo.Delete(context.Background(), 1); !domain.IsNotFound(err) {
		t.Errorf("second delete: expected ErrNotFound, got %v", err)
	}
}

func TestTrim(t *testing.T) {
	repo := NewActivityRepository(setupTestDB(t))
	for i := 1; i <= 8; i++ {
		seed(t, repo, domain.ActivityEntry{Resource: "units", Action: domain.ActionCreate, RecordID: fmt.Sprint(i)})
	}
	ctx := context.Background()

	removed, err := repo.Trim(ctx, 5)
	if err != nil {
		t.Fatalf("Trim: %v", err)
	}
	if removed != 3 {
		t.Errorf("removed = %d, want 3", removed)
	}

	page, _ := repo.List(ctx, listing.NewQuery(1, 10, "", nil))
	if page.TotalItems != 5 || page.Items[4].RecordID != "4" {
		t.Errorf("expected the newest 5 entries to survive, got %d ending at %q", page.TotalItems, page.Items[len(page.Items)-1].RecordID)
	}

	if removed, err := repo.Trim(ctx, 5); err != nil || removed != 0 {
		t.Errorf("second trim = %d, %v; want 0, nil", removed, err)
	}
	if removed, err := repo.Trim(ctx, 0); err != nil || removed != 0 {
		t.Errorf("zero keep = %d, %v; want no-op", removed, err)
	}
}

func TestMapError(t *testing.T) {
	if mapError(nil) != nil {
		t.Error("nil should map to nil")
	}
	if !domain.IsNotFound(mapError(gorm.ErrRecordNotFound)) {
		t.Error("record not found should map to ErrNotFound")
	}
	if !domain.IsAlreadyExists(mapError(fmt.Errorf("UNIQUE constraint failed: activity_entries.id"))) {
		t.Error("unique violation should map to AlreadyExists")
	}
	if !domain.IsInternal(mapError(fmt.Errorf("disk full"))) {
		t.Error("other errors should map to Internal")
	}
}
