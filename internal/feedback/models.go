// Package feedback summarizes meal ratings and triages complaints.
package feedback

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"MessAPI/internal/documents"
)

// Score is a 1-5 rating value as submitted by clients. Numeric strings are
// accepted; anything else decodes to an invalid score instead of an error.
type Score struct {
	Value float64
	Valid bool
}

func NewScore(v float64) Score {
	return Score{Value: v, Valid: true}
}

// Positive returns the value when it can take part in an average.
func (s Score) Positive() (float64, bool) {
	if !s.Valid || s.Value <= 0 {
		return 0, false
	}
	return s.Value, true
}

func (s *Score) UnmarshalJSON(data []byte) error {
	*s = Score{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	switch data[0] {
	case '"':
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return nil
		}
		if v, err := strconv.ParseFloat(strings.TrimSpace(str), 64); err == nil && !math.IsNaN(v) && !math.IsInf(v, 0) {
			*s = NewScore(v)
		}
	default:
		var v float64
		if err := json.Unmarshal(data, &v); err == nil {
			*s = NewScore(v)
		}
	}
	return nil
}

func (s Score) MarshalJSON() ([]byte, error) {
	if !s.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(s.Value)
}

type Rating struct {
	ID                  string           `json:"id"`
	UserName            string           `json:"userName"`
	UserEmail           string           `json:"userEmail"`
	MealName            string           `json:"mealName"`
	MealDate            string           `json:"mealDate"`
	ItemRatings         map[string]Score `json:"itemRatings"`
	StaffBehaviorRating Score            `json:"staffBehaviorRating"`
	HygieneRating       Score            `json:"hygieneRating"`
	AverageRating       Score            `json:"averageRating"`
	Timestamp           time.Time        `json:"timestamp"`
}

// Overall is the rating's averageRating, or the mean of its item scores
// when the client did not send one.
func (r Rating) Overall() (float64, bool) {
	if v, ok := r.AverageRating.Positive(); ok {
		return v, true
	}
	var sum float64
	var n int
	for _, s := range r.ItemRatings {
		if v, ok := s.Positive(); ok {
			sum += v
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

// UserKey identifies the submitting user: email, falling back to name.
func (r Rating) UserKey() string {
	if email := strings.TrimSpace(r.UserEmail); email != "" {
		return strings.ToLower(email)
	}
	return strings.TrimSpace(r.UserName)
}

type Status string

const (
	StatusPending    Status = "Pending"
	StatusInProgress Status = "In Progress"
	StatusResolved   Status = "Resolved"
)

var Statuses = []Status{StatusPending, StatusInProgress, StatusResolved}

var ErrInvalidStatus = errors.New("invalid complaint status")

// ParseStatus accepts the exact status labels only.
func ParseStatus(s string) (Status, error) {
	for _, status := range Statuses {
		if string(status) == s {
			return status, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
}

type Complaint struct {
	ID            string    `json:"id"`
	UserName      string    `json:"userName"`
	UserEmail     string    `json:"userEmail"`
	UserID        string    `json:"userId"`
	ComplaintText string    `json:"complaintText"`
	Category      string    `json:"category"`
	Status        Status    `json:"status"`
	Timestamp     time.Time `json:"timestamp"`
	UpdatedAt     time.Time `json:"updatedAt,omitempty"`
}

// RatingFromDocument decodes a mealRatings document. The timestamp comes
// from the store, which already accepts both string and numeric forms.
func RatingFromDocument(doc documents.Document) (Rating, error) {
	type alias Rating
	var r Rating
	aux := struct {
		*alias
		Timestamp any `json:"timestamp"`
	}{alias: (*alias)(&r)}
	if err := doc.Decode(&aux); err != nil {
		return Rating{}, fmt.Errorf("failed to decode rating %s: %w", doc.ID, err)
	}
	r.ID = doc.ID
	r.Timestamp = doc.Timestamp
	return r, nil
}

// ComplaintFromDocument decodes a complaints document.
func ComplaintFromDocument(doc documents.Document) (Complaint, error) {
	type alias Complaint
	var c Complaint
	aux := struct {
		*alias
		Timestamp any `json:"timestamp"`
		UpdatedAt any `json:"updatedAt"`
	}{alias: (*alias)(&c)}
	if err := doc.Decode(&aux); err != nil {
		return Complaint{}, fmt.Errorf("failed to decode complaint %s: %w", doc.ID, err)
	}
	c.ID = doc.ID
	c.Timestamp = doc.Timestamp
	if t, ok := documents.ParseTimestamp(aux.UpdatedAt); ok {
		c.UpdatedAt = t
	}
	return c, nil
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
