package realtime_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"MessAPI/internal/realtime"
)

func TestRemoteGetAndSet(t *testing.T) {
	var putBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/users/u%201.json", r.Method == http.MethodGet && r.URL.Path == "/users/u 1.json":
			fmt.Fprint(w, `{"name":"Asha"}`)
		case r.Method == http.MethodPut && r.URL.Path == "/attendance/2024-02-04/Lunch/u1.json":
			data, _ := io.ReadAll(r.Body)
			_ = json.Unmarshal(data, &putBody)
			fmt.Fprint(w, string(data))
		default:
			http.Error(w, `{"error":"Permission denied"}`, http.StatusUnauthorized)
		}
	}))
	defer srv.Close()

	store := realtime.NewRemoteStore(srv.URL+"/", srv.Client())
	ctx := context.Background()

	got, err := store.Get(ctx, "users/u 1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !reflect.DeepEqual(got, map[string]any{"name": "Asha"}) {
		t.Errorf("Get = %#v", got)
	}

	if err := store.Set(ctx, "attendance/2024-02-04/Lunch/u1", map[string]any{"attending": true}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if putBody["attending"] != true {
		t.Errorf("PUT body = %#v", putBody)
	}

	if _, err := store.Get(ctx, "complaints"); err == nil {
		t.Error("expected error for denied path")
	}
}

func TestRemoteLastKeys(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("orderBy") != `"$key"` || r.URL.Query().Get("limitToLast") != "2" {
			http.Error(w, "bad query", http.StatusBadRequest)
			return
		}
		fmt.Fprint(w, `{"2024-02-04":{"Lunch":{}},"2024-02-03":{"Dinner":{}}}`)
	}))
	defer srv.Close()

	keys, err := realtime.NewRemoteStore(srv.URL, srv.Client()).LastKeys(context.Background(), "attendance", 2)
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{"2024-02-03", "2024-02-04"}; !reflect.DeepEqual(keys, want) {
		t.Errorf("LastKeys = %v, want %v", keys, want)
	}
}

func TestRemoteSubscribe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Accept") != "text/event-stream" {
			http.Error(w, "stream only", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		events := []string{
			"event: put\ndata: {\"path\":\"/\",\"data\":{\"u1\":true}}\n\n",
			"event: keep-alive\ndata: null\n\n",
			"event: put\ndata: {\"path\":\"/u2\",\"data\":{\"attending\":false}}\n\n",
			"event: patch\ndata: {\"path\":\"/\",\"data\":{\"u3\":true,\"u1\":null}}\n\n",
		}
		for _, e := range events {
			fmt.Fprint(w, e)
			flusher.Flush()
		}
		<-r.Context().Done()
	}))
	defer srv.Close()

	store := realtime.NewRemoteStore(srv.URL, srv.Client())
	values := make(chan any, 8)
	unsubscribe, err := store.Subscribe(context.Background(), "attendance/2024-02-04/Lunch", func(v any) {
		values <- v
	})
	if err != nil {
		t.Fatal(err)
	}
	defer unsubscribe()

	want := []any{
		map[string]any{"u1": true},
		map[string]any{"u1": true, "u2": map[string]any{"attending": false}},
		map[string]any{"u2": map[string]any{"attending": false}, "u3": true},
	}
	for i, w := range want {
		select {
		case got := <-values:
			if !reflect.DeepEqual(got, w) {
				t.Errorf("event %d = %#v, want %#v", i, got, w)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for event %d", i)
		}
	}
}

func TestSetAt(t *testing.T) {
	original := map[string]any{"a": map[string]any{"b": float64(1)}}
	updated := realtime.SetAt(original, []string{"a", "c"}, true)

	if !reflect.DeepEqual(original, map[string]any{"a": map[string]any{"b": float64(1)}}) {
		t.Errorf("SetAt mutated its input: %#v", original)
	}
	want := map[string]any{"a": map[string]any{"b": float64(1), "c": true}}
	if !reflect.DeepEqual(updated, want) {
		t.Errorf("SetAt = %#v, want %#v", updated, want)
	}
	if got := realtime.SetAt(updated, []string{"a"}, nil); got != nil {
		t.Errorf("removing the only child = %#v, want nil", got)
	}
	if got := realtime.ValueAt(want, []string{"a", "c"}); got != true {
		t.Errorf("ValueAt = %#v, want true", got)
	}
}
