package realtime_test

import (
	"context"
	"fmt"
	"path/filepath"
	"reflect"
	"sync"
	"testing"

	"MessAPI/internal/databases"
	"MessAPI/internal/realtime"
)

func newSQLiteStore(t *testing.T) *realtime.SQLiteStore {
	t.Helper()
	db, err := databases.OpenAndMigrate(databases.DriverCGO, filepath.Join(t.TempDir(), "mess.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return realtime.NewSQLiteStore(db)
}

func TestSQLiteSetAndGet(t *testing.T) {
	ctx := context.Background()
	store := newSQLiteStore(t)

	lunch := map[string]any{
		"u1": true,
		"u2": map[string]any{"attending": false},
		"u3": map[string]any{"present": true},
	}
	if err := store.Set(ctx, "attendance/2024-02-04/Lunch", lunch); err != nil {
		t.Fatalf("Set: %v", err)
	}

	got, err := store.Get(ctx, "/attendance/2024-02-04/Lunch/")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !reflect.DeepEqual(got, lunch) {
		t.Errorf("Get = %#v, want %#v", got, lunch)
	}

	leaf, err := store.Get(ctx, "attendance/2024-02-04/Lunch/u2/attending")
	if err != nil {
		t.Fatal(err)
	}
	if leaf != false {
		t.Errorf("leaf = %#v, want false", leaf)
	}

	missing, err := store.Get(ctx, "attendance/2024-02-05")
	if err != nil {
		t.Fatal(err)
	}
	if missing != nil {
		t.Errorf("missing path = %#v, want nil", missing)
	}
}

func TestSQLiteSetReplacesSubtree(t *testing.T) {
	ctx := context.Background()
	store := newSQLiteStore(t)

	if err := store.Set(ctx, "users/u1", map[string]any{"name": "Asha", "email": "asha@example.com"}); err != nil {
		t.Fatal(err)
	}
	if err := store.Set(ctx, "users/u1", map[string]any{"name": "Asha K"}); err != nil {
		t.Fatal(err)
	}
	got, _ := store.Get(ctx, "users/u1")
	want := map[string]any{"name": "Asha K"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Get = %#v, want %#v", got, want)
	}

	// Writing below a former leaf turns it into an object.
	if err := store.Set(ctx, "users/u1/name/first", "Asha"); err != nil {
		t.Fatal(err)
	}
	got, _ = store.Get(ctx, "users/u1")
	want = map[string]any{"name": map[string]any{"first": "Asha"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Get = %#v, want %#v", got, want)
	}

	if err := store.Set(ctx, "users/u1", nil); err != nil {
		t.Fatal(err)
	}
	if got, _ := store.Get(ctx, "users"); got != nil {
		t.Errorf("after delete = %#v, want nil", got)
	}
}

func TestSQLiteLastKeys(t *testing.T) {
	ctx := context.Background()
	store := newSQLiteStore(t)

	for _, date := range []string{"2024-02-03", "2024-01-31", "2024-02-04", "2024-02-01"} {
		if err := store.Set(ctx, "attendance/"+date+"/Lunch/u1", true); err != nil {
			t.Fatal(err)
		}
	}
	// A sibling whose name shares the prefix must not leak in.
	if err := store.Set(ctx, "attendance-archive/2030-01-01/Lunch/u1", true); err != nil {
		t.Fatal(err)
	}

	keys, err := store.LastKeys(ctx, "attendance", 2)
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{"2024-02-03", "2024-02-04"}; !reflect.DeepEqual(keys, want) {
		t.Errorf("LastKeys(2) = %v, want %v", keys, want)
	}

	keys, _ = store.LastKeys(ctx, "attendance", 10)
	if len(keys) != 4 {
		t.Errorf("LastKeys(10) = %v, want 4 keys", keys)
	}
}

func TestSQLiteSubscribe(t *testing.T) {
	ctx := context.Background()
	store := newSQLiteStore(t)

	var mu sync.Mutex
	var seen []any
	unsubscribe, err := store.Subscribe(ctx, "attendance/2024-02-04/Lunch", func(v any) {
		mu.Lock()
		seen = append(seen, v)
		mu.Unlock()
	})
	if err != nil {
		t.Fatal(err)
	}

	_ = store.Set(ctx, "attendance/2024-02-04/Lunch/u1", true)
	_ = store.Set(ctx, "attendance/2024-02-04/Dinner/u1", true) // unrelated
	_ = store.Set(ctx, "attendance/2024-02-04", map[string]any{"Lunch": map[string]any{"u2": true}})

	unsubscribe()
	unsubscribe()
	_ = store.Set(ctx, "attendance/2024-02-04/Lunch/u3", true)

	mu.Lock()
	defer mu.Unlock()
	want := []any{
		nil,
		map[string]any{"u1": true},
		map[string]any{"u2": true},
	}
	if !reflect.DeepEqual(seen, want) {
		t.Errorf("deliveries = %#v, want %#v", seen, want)
	}
}

// A subscriber joining while writes are in flight must end on the final value.
func TestSQLiteSubscribeDuringWrites(t *testing.T) {
	ctx := context.Background()
	store := newSQLiteStore(t)
	const writes = 30

	for round := 0; round < 10; round++ {
		path := fmt.Sprintf("attendance/2024-02-%02d/Lunch", round+1)
		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 1; i <= writes; i++ {
				_ = store.Set(ctx, path+"/count", float64(i))
			}
		}()

		var mu sync.Mutex
		var last any
		unsubscribe, err := store.Subscribe(ctx, path, func(v any) {
			mu.Lock()
			last = v
			mu.Unlock()
		})
		if err != nil {
			t.Fatal(err)
		}
		wg.Wait()

		mu.Lock()
		got := last
		mu.Unlock()
		unsubscribe()
		want := map[string]any{"count": float64(writes)}
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("round %d: last delivery = %#v, want %#v", round, got, want)
		}
	}
}
