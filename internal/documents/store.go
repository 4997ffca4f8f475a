// Package documents is the collection store holding complaints and meal
// ratings. Documents are JSON objects ordered by their "timestamp" field.
package documents

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/mr-tron/base58"
)

const (
	Complaints  = "complaints"
	MealRatings = "mealRatings"
)

// Unsubscribe releases a subscription. It is safe to call more than once.
type Unsubscribe func()

type Document struct {
	ID        string          `json:"id"`
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
}

// Decode unmarshals the document body into v.
func (d Document) Decode(v any) error {
	return json.Unmarshal(d.Data, v)
}

type Store interface {
	// Query returns up to limit documents of a collection, newest first.
	Query(ctx context.Context, collection string, limit int) ([]Document, error)
	// Subscribe calls fn with the current Query result and again after every
	// change to the collection, until the returned Unsubscribe is called.
	// fn must not write to the store before returning.
	Subscribe(ctx context.Context, collection string, limit int, fn func([]Document)) (Unsubscribe, error)
	// Add stores a new document and returns its ID.
	Add(ctx context.Context, collection string, doc any) (string, error)
	// Update merges fields into an existing document. The actor must be an admin.
	Update(ctx context.Context, actor, collection, id string, fields map[string]any) error
}

// NewID returns a compact random document ID.
func NewID() string {
	id := uuid.New()
	return base58.Encode(id[:])
}

// ParseTimestamp accepts RFC 3339 strings and epoch milliseconds.
func ParseTimestamp(v any) (time.Time, bool) {
	switch t := v.(type) {
	case string:
		parsed, err := time.Parse(time.RFC3339Nano, t)
		if err != nil {
			if ms, err := strconv.ParseInt(t, 10, 64); err == nil {
				return time.UnixMilli(ms).UTC(), true
			}
			return time.Time{}, false
		}
		return parsed.UTC(), true
	case float64:
		return time.UnixMilli(int64(t)).UTC(), true
	default:
		return time.Time{}, false
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
