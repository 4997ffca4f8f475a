package realtime

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
)

// SQLiteStore keeps every leaf of the tree as a JSON row in realtime_nodes
// and pushes changes to in-process subscribers once a write commits.
type SQLiteStore struct {
	db *sql.DB

	mu     sync.Mutex
	nextID int
	subs   map[int]*subscription
}

type subscription struct {
	path string
	fn   func(any)

	// mu serialises read-then-deliver so a subscriber never sees an older
	// value after a newer one.
	mu     sync.Mutex
	closed atomic.Bool
}

func (sub *subscription) refresh(ctx context.Context, s *SQLiteStore) error {
	sub.mu.Lock()
	defer sub.mu.Unlock()
	if sub.closed.Load() {
		return nil
	}
	value, err := s.Get(ctx, sub.path)
	if err != nil {
		return err
	}
	sub.fn(value)
	return nil
}

// NewSQLiteStore creates a store on a migrated mess database.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db, subs: map[int]*subscription{}}
}

func (s *SQLiteStore) Get(ctx context.Context, path string) (any, error) {
	path = Join(path)
	query := `SELECT path, value FROM realtime_nodes`
	args := []any{}
	if path != "" {
		query += ` WHERE path = ? OR (path >= ? AND path < ?)`
		args = append(args, path, path+"/", path+"0")
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %q: %w", path, err)
	}
	defer rows.Close()

	var tree any
	for rows.Next() {
		var leafPath, raw string
		if err := rows.Scan(&leafPath, &raw); err != nil {
			return nil, fmt.Errorf("failed to scan node: %w", err)
		}
		var value any
		if err := json.Unmarshal([]byte(raw), &value); err != nil {
			return nil, fmt.Errorf("corrupt value at %q: %w", leafPath, err)
		}
		rel := strings.TrimPrefix(strings.TrimPrefix(leafPath, path), "/")
		tree = SetAt(tree, Segments(rel), value)
	}
	return tree, rows.Err()
}

func (s *SQLiteStore) Set(ctx context.Context, path string, value any) error {
	path = Join(path)
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	// Drop the subtree being replaced.
	if path == "" {
		_, err = tx.ExecContext(ctx, `DELETE FROM realtime_nodes`)
	} else {
		_, err = tx.ExecContext(ctx, `DELETE FROM realtime_nodes WHERE path = ? OR (path >= ? AND path < ?)`,
			path, path+"/", path+"0")
	}
	if err != nil {
		return fmt.Errorf("failed to clear %q: %w", path, err)
	}

	// A leaf stored at an ancestor would shadow the new children.
	segs := Segments(path)
	for i := 1; i < len(segs); i++ {
		if _, err := tx.ExecContext(ctx, `DELETE FROM realtime_nodes WHERE path = ?`, strings.Join(segs[:i], "/")); err != nil {
			return fmt.Errorf("failed to clear ancestor: %w", err)
		}
	}

	leaves := map[string]any{}
	flatten(path, value, leaves)
	for leafPath, leaf := range leaves {
		raw, err := json.Marshal(leaf)
		if err != nil {
			return fmt.Errorf("failed to encode value at %q: %w", leafPath, err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO realtime_nodes (path, value) VALUES (?, ?)`, leafPath, string(raw)); err != nil {
			return fmt.Errorf("failed to write %q: %w", leafPath, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	s.notify(path)
	return nil
}

func flatten(path string, value any, out map[string]any) {
	switch v := value.(type) {
	case nil:
	case map[string]any:
		for k, child := range v {
			if k == "" {
				continue
			}
			flatten(Join(path, k), child, out)
		}
	default:
		out[path] = v
	}
}

func (s *SQLiteStore) LastKeys(ctx context.Context, path string, n int) ([]string, error) {
	if n <= 0 {
		return []string{}, nil
	}
	path = Join(path)
	query := `SELECT path FROM realtime_nodes`
	args := []any{}
	prefix := ""
	if path != "" {
		prefix = path + "/"
		// '0' sorts right after '/', so the range covers exactly the subtree.
		query += ` WHERE path >= ? AND path < ?`
		args = append(args, prefix, path+"0")
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list keys under %q: %w", path, err)
	}
	defer rows.Close()

	seen := map[string]bool{}
	keys := []string{}
	for rows.Next() {
		var leafPath string
		if err := rows.Scan(&leafPath); err != nil {
			return nil, err
		}
		key, _, _ := strings.Cut(strings.TrimPrefix(leafPath, prefix), "/")
		if key != "" && !seen[key] {
			seen[key] = true
			keys = append(keys, key)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.Strings(keys)
	if len(keys) > n {
		keys = keys[len(keys)-n:]
	}
	return keys, nil
}

// Subscribe registers fn before reading the current value, so a write that
// commits while subscribing is never missed.
func (s *SQLiteStore) Subscribe(ctx context.Context, path string, fn func(any)) (Unsubscribe, error) {
	sub := &subscription{path: Join(path), fn: fn}

	s.mu.Lock()
	s.nextID++
	id := s.nextID
	s.subs[id] = sub
	s.mu.Unlock()

	unsubscribe := func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
		sub.closed.Store(true)
	}
	if err := sub.refresh(ctx, s); err != nil {
		unsubscribe()
		return nil, err
	}

	var once sync.Once
	return func() { once.Do(unsubscribe) }, nil
}

func (s *SQLiteStore) notify(written string) {
	s.mu.Lock()
	var targets []*subscription
	for _, sub := range s.subs {
		if related(sub.path, written) {
			targets = append(targets, sub)
		}
	}
	s.mu.Unlock()

	for _, sub := range targets {
		if err := sub.refresh(context.Background(), s); err != nil {
			log.Printf("realtime: failed to refresh subscription %q: %v", sub.path, err)
		}
	}
}

//This project is the mess dashboard backend for the OpenSourceDUTH team. Attendance, meal ratings and complaint triage for the university dining hall.
//API Copyright (C) 2025 OpenSourceDUTH
//This program is free software: you can redistribute it and/or modify
//it under the terms of the GNU General Public License as published by
//the Free Software Foundation, either version 3 of the License, or
//(at your option) any later version.
//
//This program is distributed in the hope that it will be useful,
//but WITHOUT ANY WARRANTY; without even the implied warranty of
//MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
//GNU General Public License for more details.
//
//You should have received a copy of the GNU General Public License
//along with this program.  If not, see <https://www.gnu.org/licenses/>.
