package documents

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time

	mu     sync.Mutex
	nextID int
	subs   map[int]*subscription
}

type subscription struct {
	collection string
	limit      int
	fn         func([]Document)

	mu     sync.Mutex
	closed atomic.Bool
}

// refresh queries and delivers under the subscription's lock so deliveries
// never go backwards.
func (sub *subscription) refresh(ctx context.Context, s *SQLiteStore) error {
	sub.mu.Lock()
	defer sub.mu.Unlock()
	if sub.closed.Load() {
		return nil
	}
	docs, err := s.Query(ctx, sub.collection, sub.limit)
	if err != nil {
		return err
	}
	sub.fn(docs)
	return nil
}

func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db, now: time.Now, subs: map[int]*subscription{}}
}

func (s *SQLiteStore) Query(ctx context.Context, collection string, limit int) ([]Document, error) {
	if limit <= 0 {
		return []Document{}, nil
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, data, timestamp_ms FROM documents
		WHERE collection = ?
		ORDER BY timestamp_ms DESC, id
		LIMIT ?`, collection, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", collection, err)
	}
	defer rows.Close()

	docs := []Document{}
	for rows.Next() {
		var d Document
		var data string
		var ms int64
		if err := rows.Scan(&d.ID, &data, &ms); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		d.Data = json.RawMessage(data)
		d.Timestamp = time.UnixMilli(ms).UTC()
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

func (s *SQLiteStore) Add(ctx context.Context, collection string, doc any) (string, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("failed to encode document: %w", err)
	}
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return "", fmt.Errorf("document must be a JSON object")
	}
	delete(fields, "id")

	ts, ok := ParseTimestamp(fields["timestamp"])
	if !ok {
		ts = s.now().UTC()
		fields["timestamp"] = ts.Format(time.RFC3339Nano)
	}
	data, err := json.Marshal(fields)
	if err != nil {
		return "", err
	}

	id := NewID()
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO documents (collection, id, data, timestamp_ms) VALUES (?, ?, ?, ?)`,
		collection, id, string(data), ts.UnixMilli()); err != nil {
		return "", fmt.Errorf("failed to insert into %s: %w", collection, err)
	}
	s.notify(collection)
	return id, nil
}

func (s *SQLiteStore) Update(ctx context.Context, actor, collection, id string, fields map[string]any) error {
	admin, err := s.IsAdmin(ctx, actor)
	if err != nil {
		return err
	}
	if !admin {
		return fmt.Errorf("%w: %q may not update %s", ErrPermissionDenied, actor, collection)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	var data string
	err = tx.QueryRowContext(ctx, `SELECT data FROM documents WHERE collection = ? AND id = ?`, collection, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s/%s", ErrNotFound, collection, id)
	}
	if err != nil {
		return fmt.Errorf("failed to read %s/%s: %w", collection, id, err)
	}

	var current map[string]any
	if err := json.Unmarshal([]byte(data), &current); err != nil {
		return fmt.Errorf("corrupt document %s/%s: %w", collection, id, err)
	}
	if current == nil {
		current = map[string]any{}
	}
	for k, v := range fields {
		if k == "id" {
			continue
		}
		current[k] = v
	}
	// Round-trip through JSON so time.Time and friends are stored as strings.
	merged, err := json.Marshal(current)
	if err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}
	var normalized map[string]any
	_ = json.Unmarshal(merged, &normalized)

	ts, ok := ParseTimestamp(normalized["timestamp"])
	if !ok {
		ts = s.now().UTC()
	}
	if _, err := tx.ExecContext(ctx, `UPDATE documents SET data = ?, timestamp_ms = ? WHERE collection = ? AND id = ?`,
		string(merged), ts.UnixMilli(), collection, id); err != nil {
		return fmt.Errorf("failed to update %s/%s: %w", collection, id, err)
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	s.notify(collection)
	return nil
}

func (s *SQLiteStore) Subscribe(ctx context.Context, collection string, limit int, fn func([]Document)) (Unsubscribe, error) {
	sub := &subscription{collection: collection, limit: limit, fn: fn}

	// Register before the first query so a concurrent write is not lost.
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

func (s *SQLiteStore) notify(collection string) {
	s.mu.Lock()
	var targets []*subscription
	for _, sub := range s.subs {
		if sub.collection == collection {
			targets = append(targets, sub)
		}
	}
	s.mu.Unlock()

	for _, sub := range targets {
		if err := sub.refresh(context.Background(), s); err != nil {
			log.Printf("documents: failed to refresh %s subscription: %v", sub.collection, err)
		}
	}
}

// IsAdmin reports whether email is registered as a dashboard admin.
func (s *SQLiteStore) IsAdmin(ctx context.Context, email string) (bool, error) {
	email = normalizeEmail(email)
	if email == "" {
		return false, nil
	}
	var found string
	err := s.db.QueryRowContext(ctx, `SELECT email FROM admins WHERE email = ?`, email).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to look up admin: %w", err)
	}
	return true, nil
}

// GrantAdmin registers email as a dashboard admin.
func (s *SQLiteStore) GrantAdmin(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if email == "" {
		return fmt.Errorf("admin email is required")
	}
	_, err := s.db.ExecContext(ctx, `INSERT OR IGNORE INTO admins (email) VALUES (?)`, email)
	return err
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
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
