package documents_test

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"MessAPI/internal/databases"
	"MessAPI/internal/documents"
)

type complaint struct {
	ComplaintText string    `json:"complaintText"`
	Status        string    `json:"status"`
	Timestamp     time.Time `json:"timestamp"`
}

func newStore(t *testing.T) *documents.SQLiteStore {
	t.Helper()
	db, err := databases.OpenAndMigrate(databases.DriverCGO, filepath.Join(t.TempDir(), "mess.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return documents.NewSQLiteStore(db)
}

func TestQueryNewestFirstWithLimit(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	for i, ms := range []int64{100, 50, 200} {
		c := complaint{ComplaintText: "c", Status: "Pending", Timestamp: time.UnixMilli(ms).UTC()}
		if _, err := store.Add(ctx, documents.Complaints, c); err != nil {
			t.Fatalf("Add %d: %v", i, err)
		}
	}

	docs, err := store.Query(ctx, documents.Complaints, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 2 {
		t.Fatalf("Query returned %d docs, want 2", len(docs))
	}
	if docs[0].Timestamp.UnixMilli() != 200 || docs[1].Timestamp.UnixMilli() != 100 {
		t.Errorf("order = %d, %d, want 200, 100", docs[0].Timestamp.UnixMilli(), docs[1].Timestamp.UnixMilli())
	}

	var decoded complaint
	if err := docs[0].Decode(&decoded); err != nil {
		t.Fatal(err)
	}
	if decoded.Status != "Pending" {
		t.Errorf("decoded status = %q", decoded.Status)
	}

	others, _ := store.Query(ctx, documents.MealRatings, 10)
	if len(others) != 0 {
		t.Errorf("collections leak: %d ratings", len(others))
	}
}

func TestUpdateRequiresAdmin(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	id, err := store.Add(ctx, documents.Complaints, complaint{Status: "Pending", Timestamp: time.UnixMilli(100)})
	if err != nil {
		t.Fatal(err)
	}

	err = store.Update(ctx, "student@example.com", documents.Complaints, id, map[string]any{"status": "Resolved"})
	if !errors.Is(err, documents.ErrPermissionDenied) {
		t.Fatalf("Update by non-admin = %v, want ErrPermissionDenied", err)
	}

	if err := store.GrantAdmin(ctx, " Warden@Example.com "); err != nil {
		t.Fatal(err)
	}
	if err := store.Update(ctx, "warden@example.com", documents.Complaints, id, map[string]any{"status": "Resolved"}); err != nil {
		t.Fatalf("Update by admin: %v", err)
	}

	docs, _ := store.Query(ctx, documents.Complaints, 10)
	var decoded complaint
	_ = docs[0].Decode(&decoded)
	if decoded.Status != "Resolved" {
		t.Errorf("status = %q, want Resolved", decoded.Status)
	}
	if docs[0].Timestamp.UnixMilli() != 100 {
		t.Errorf("timestamp changed to %d", docs[0].Timestamp.UnixMilli())
	}

	err = store.Update(ctx, "warden@example.com", documents.Complaints, "missing", map[string]any{"status": "Resolved"})
	if !errors.Is(err, documents.ErrNotFound) {
		t.Errorf("Update missing = %v, want ErrNotFound", err)
	}
}

func TestSubscribe(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	var counts []int
	unsubscribe, err := store.Subscribe(ctx, documents.MealRatings, 10, func(docs []documents.Document) {
		counts = append(counts, len(docs))
	})
	if err != nil {
		t.Fatal(err)
	}

	_, _ = store.Add(ctx, documents.MealRatings, map[string]any{"averageRating": 4})
	_, _ = store.Add(ctx, documents.Complaints, map[string]any{"status": "Pending"})
	unsubscribe()
	_, _ = store.Add(ctx, documents.MealRatings, map[string]any{"averageRating": 5})

	if len(counts) != 2 || counts[0] != 0 || counts[1] != 1 {
		t.Errorf("deliveries = %v, want [0 1]", counts)
	}
}

func TestNewIDIsUnique(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id := documents.NewID()
		if id == "" || seen[id] {
			t.Fatalf("duplicate or empty id %q", id)
		}
		seen[id] = true
	}
}

func TestSubscribeDuringWrites(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	const writes = 20

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < writes; i++ {
			_, _ = store.Add(ctx, documents.Complaints, map[string]any{"status": "Pending"})
		}
	}()

	var mu sync.Mutex
	last := -1
	unsubscribe, err := store.Subscribe(ctx, documents.Complaints, 100, func(docs []documents.Document) {
		mu.Lock()
		last = len(docs)
		mu.Unlock()
	})
	if err != nil {
		t.Fatal(err)
	}
	defer unsubscribe()
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	if last != writes {
		t.Errorf("last delivery had %d complaints, want %d", last, writes)
	}
}
