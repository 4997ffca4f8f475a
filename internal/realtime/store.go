// Package realtime is the key-path value store the dashboard reads attendance
// and user profiles from. Paths are slash-delimited, e.g.
// "attendance/2024-02-04/Lunch/u1". Values are decoded JSON: maps, slices,
// strings, float64 numbers, booleans or nil.
package realtime

import (
	"context"
	"strings"
)

// Unsubscribe releases a subscription. It is safe to call more than once.
type Unsubscribe func()

// Store is the read/subscribe/write surface the dashboard uses.
type Store interface {
	// Get returns the value at path, or nil if nothing is stored there.
	Get(ctx context.Context, path string) (any, error)
	// Set replaces the value at path. A nil value deletes it.
	Set(ctx context.Context, path string, value any) error
	// LastKeys returns up to n child keys of path, the lexicographically
	// greatest ones, in ascending order.
	LastKeys(ctx context.Context, path string, n int) ([]string, error)
	// Subscribe calls fn with the current value at path and again after every
	// change under it, until the returned Unsubscribe is called. fn must not
	// write to the store before returning.
	Subscribe(ctx context.Context, path string, fn func(value any)) (Unsubscribe, error)
}

// Segments splits a path into its non-empty segments.
func Segments(path string) []string {
	parts := strings.Split(path, "/")
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Join builds a clean path from segments.
func Join(segments ...string) string {
	return strings.Join(Segments(strings.Join(segments, "/")), "/")
}

// related reports whether a write at b can change the value at a.
func related(a, b string) bool {
	if a == "" || b == "" || a == b {
		return true
	}
	return strings.HasPrefix(a, b+"/") || strings.HasPrefix(b, a+"/")
}

// SetAt returns tree with value placed at path. Maps along the path are
// copied so values already handed to subscribers are never mutated. Empty
// maps collapse to nil.
func SetAt(tree any, path []string, value any) any {
	if len(path) == 0 {
		return value
	}
	old, _ := tree.(map[string]any)
	next := make(map[string]any, len(old)+1)
	for k, v := range old {
		next[k] = v
	}
	child := SetAt(next[path[0]], path[1:], value)
	if child == nil {
		delete(next, path[0])
	} else {
		next[path[0]] = child
	}
	if len(next) == 0 {
		return nil
	}
	return next
}

// ValueAt walks tree along path.
func ValueAt(tree any, path []string) any {
	for _, seg := range path {
		m, ok := tree.(map[string]any)
		if !ok {
			return nil
		}
		tree = m[seg]
	}
	return tree
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
