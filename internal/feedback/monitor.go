package feedback

import (
	"context"
	"errors"
	"log"
	"sync"

	"MessAPI/internal/documents"
)

const (
	DefaultComplaintsLimit = 200
	DefaultRatingsLimit    = 500
)

var ErrAlreadyStarted = errors.New("feedback monitor already started")

type Summary struct {
	RatingCount int         `json:"ratingCount"`
	Averages    Averages    `json:"averages"`
	Leaderboard []ItemScore `json:"leaderboard"`
	Anomalies   []UserStats `json:"anomalies"`
	Loaded      bool        `json:"loaded"`
}

type MonitorOptions struct {
	ComplaintsLimit int
	RatingsLimit    int
}

// Monitor keeps the latest complaints and ratings from live subscriptions.
type Monitor struct {
	store documents.Store
	opts  MonitorOptions

	mu               sync.RWMutex
	ratings          []Rating
	complaints       []Complaint
	ratingsLoaded    bool
	complaintsLoaded bool
	subs             []documents.Unsubscribe
	started          bool
}

func NewMonitor(store documents.Store, opts MonitorOptions) *Monitor {
	if opts.ComplaintsLimit <= 0 {
		opts.ComplaintsLimit = DefaultComplaintsLimit
	}
	if opts.RatingsLimit <= 0 {
		opts.RatingsLimit = DefaultRatingsLimit
	}
	return &Monitor{store: store, opts: opts}
}

// Start subscribes to both collections. A failed subscription is logged and
// leaves that side empty but loaded.
func (m *Monitor) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.started {
		m.mu.Unlock()
		return ErrAlreadyStarted
	}
	m.started = true
	m.mu.Unlock()

	ratingsUnsub, err := m.store.Subscribe(ctx, documents.MealRatings, m.opts.RatingsLimit, m.onRatings)
	if err != nil {
		log.Printf("feedback: failed to subscribe to %s: %v", documents.MealRatings, err)
		m.mu.Lock()
		m.ratingsLoaded = true
		m.mu.Unlock()
	} else {
		m.keep(ratingsUnsub)
	}

	complaintsUnsub, err := m.store.Subscribe(ctx, documents.Complaints, m.opts.ComplaintsLimit, m.onComplaints)
	if err != nil {
		log.Printf("feedback: failed to subscribe to %s: %v", documents.Complaints, err)
		m.mu.Lock()
		m.complaintsLoaded = true
		m.mu.Unlock()
	} else {
		m.keep(complaintsUnsub)
	}
	return nil
}

func (m *Monitor) keep(unsubscribe documents.Unsubscribe) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.started {
		unsubscribe()
		return
	}
	m.subs = append(m.subs, unsubscribe)
}

func (m *Monitor) Stop() {
	m.mu.Lock()
	subs := m.subs
	m.subs = nil
	m.started = false
	m.mu.Unlock()

	for _, unsubscribe := range subs {
		unsubscribe()
	}
}

func (m *Monitor) onRatings(docs []documents.Document) {
	ratings := make([]Rating, 0, len(docs))
	for _, doc := range docs {
		r, err := RatingFromDocument(doc)
		if err != nil {
			log.Printf("feedback: skipping rating: %v", err)
			continue
		}
		ratings = append(ratings, r)
	}
	m.mu.Lock()
	m.ratings = ratings
	m.ratingsLoaded = true
	m.mu.Unlock()
}

func (m *Monitor) onComplaints(docs []documents.Document) {
	complaints := make([]Complaint, 0, len(docs))
	for _, doc := range docs {
		c, err := ComplaintFromDocument(doc)
		if err != nil {
			log.Printf("feedback: skipping complaint: %v", err)
			continue
		}
		complaints = append(complaints, c)
	}
	m.mu.Lock()
	m.complaints = complaints
	m.complaintsLoaded = true
	m.mu.Unlock()
}

// Summary rolls up the current ratings.
func (m *Monitor) Summary() Summary {
	m.mu.RLock()
	ratings := m.ratings
	loaded := m.ratingsLoaded
	m.mu.RUnlock()

	return Summary{
		RatingCount: len(ratings),
		Averages:    ComputeAverages(ratings),
		Leaderboard: ItemLeaderboard(ratings),
		Anomalies:   DetectAnomalies(ratings),
		Loaded:      loaded,
	}
}

// Complaints groups the current complaints by status. loaded is false until
// the first delivery or failure.
func (m *Monitor) Complaints() (groups ComplaintGroups, loaded bool) {
	m.mu.RLock()
	complaints := m.complaints
	loaded = m.complaintsLoaded
	m.mu.RUnlock()
	return GroupComplaints(complaints), loaded
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
