package attendance

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"MessAPI/internal/menu"
	"MessAPI/internal/realtime"
)

var (
	ErrInvalidDate = errors.New("invalid date, expected YYYY-MM-DD")
	ErrInvalidMeal = errors.New("invalid meal, expected Breakfast, Lunch or Dinner")
)

// UsersRoot is the store path holding users/{userId} profiles.
const UsersRoot = "users"

// Response is one user's answer for a (date, meal), decided with the strict normalizer.
type Response struct {
	UserID   string   `json:"userId"`
	Name     string   `json:"name"`
	Email    string   `json:"email"`
	Decision Decision `json:"decision"`
}

var decisionRank = map[Decision]int{Yes: 0, No: 1, NoResponse: 2}

// ListResponses lists every user recorded under attendance/{date}/{meal}
// together with their profile. Unlike the headcounts, an unflagged
// non-boolean value is listed as NoResponse.
func ListResponses(ctx context.Context, store realtime.Store, date, meal string) ([]Response, error) {
	if _, err := time.Parse(menu.DateLayout, date); err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}
	if _, ok := menu.ParseMealType(meal); !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidMeal, meal)
	}

	node, err := store.Get(ctx, realtime.Join(Root, date, meal))
	if err != nil {
		return nil, fmt.Errorf("failed to read attendance: %w", err)
	}
	users, _ := node.(map[string]any)

	responses := make([]Response, 0, len(users))
	for userID, raw := range users {
		r := Response{UserID: userID, Decision: Normalize(raw)}
		profile, err := store.Get(ctx, realtime.Join(UsersRoot, userID))
		if err != nil {
			log.Printf("attendance: failed to load profile %s: %v", userID, err)
		} else {
			r.Name, r.Email = profileFields(profile)
		}
		responses = append(responses, r)
	}

	sort.Slice(responses, func(i, j int) bool {
		a, b := responses[i], responses[j]
		if decisionRank[a.Decision] != decisionRank[b.Decision] {
			return decisionRank[a.Decision] < decisionRank[b.Decision]
		}
		return a.UserID < b.UserID
	})
	return responses, nil
}

func profileFields(profile any) (name, email string) {
	fields, ok := profile.(map[string]any)
	if !ok {
		return "", ""
	}
	for _, key := range []string{"name", "displayName", "fullName"} {
		if v, ok := fields[key].(string); ok && v != "" {
			name = v
			break
		}
	}
	email, _ = fields["email"].(string)
	return name, email
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
