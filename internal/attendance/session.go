package attendance

import (
	"context"
	"errors"
	"log"
	"slices"
	"sort"
	"sync"
	"time"

	"MessAPI/internal/mealwindow"
	"MessAPI/internal/menu"
	"MessAPI/internal/realtime"
)

// Root is the store path holding attendance/{date}/{meal}/{userId}.
const Root = "attendance"

const (
	// SourceStore means the active meal came from the latest attendance records.
	SourceStore = "store"
	// SourceSchedule means the active meal came from the weekly menu alone.
	SourceSchedule = "schedule"
)

const (
	DefaultQueryTimeout    = 5 * time.Second
	DefaultHistoryDays     = 7
	DefaultRefreshInterval = time.Minute
)

var ErrAlreadyStarted = errors.New("attendance session already started")

type DailySummary struct {
	Date      string `json:"date"`
	Breakfast int    `json:"Breakfast"`
	Lunch     int    `json:"Lunch"`
	Dinner    int    `json:"Dinner"`
	Total     int    `json:"total"`
}

// Snapshot is the aggregated attendance state handed to readers. Readers get
// their own copy.
type Snapshot struct {
	ActiveMeal       mealwindow.ActiveMealInfo `json:"activeMealInfo"`
	ActiveSource     string                    `json:"activeSource"`
	AttendanceCount  int                       `json:"attendanceCount"`
	AttendanceByMeal map[menu.MealType]int     `json:"attendanceByMeal"`
	DailyStats       []DailySummary            `json:"dailyStats"`
	Loaded           bool                      `json:"loaded"`
}

func (s Snapshot) clone() Snapshot {
	byMeal := make(map[menu.MealType]int, len(s.AttendanceByMeal))
	for k, v := range s.AttendanceByMeal {
		byMeal[k] = v
	}
	s.AttendanceByMeal = byMeal
	s.DailyStats = append([]DailySummary{}, s.DailyStats...)
	return s
}

func emptySnapshot() Snapshot {
	return Snapshot{
		AttendanceByMeal: map[menu.MealType]int{menu.Breakfast: 0, menu.Lunch: 0, menu.Dinner: 0},
		DailyStats:       []DailySummary{},
	}
}

type Options struct {
	// Clock defaults to time.Now.
	Clock func() time.Time
	// Location is the dining hall's time zone; defaults to time.Local.
	Location *time.Location
	// QueryTimeout bounds the one-shot queries run by Start and Refresh.
	QueryTimeout time.Duration
	// HistoryDays is how many distinct dates feed DailyStats.
	HistoryDays int
	// RefreshInterval is how often the active meal is re-resolved against
	// the clock. Negative disables the periodic refresh.
	RefreshInterval time.Duration
}

// target is the (date, meal) and history dates the session is subscribed to.
type target struct {
	active  mealwindow.ActiveMealInfo
	source  string
	history []string
}

func (t target) sameSubscriptions(o target) bool {
	return t.active.Date == o.active.Date && slices.Equal(t.history, o.history)
}

// Session owns the live attendance subscriptions for one dashboard and the
// state aggregated from them. Start opens the subscriptions, Stop releases them.
// The active meal follows the store: a new date key or a newly filled meal
// moves it, and Refresh re-checks it against the clock.
type Session struct {
	store    realtime.Store
	schedule menu.WeeklySchedule
	opts     Options

	// applyMu serialises re-subscription.
	applyMu sync.Mutex

	mu           sync.RWMutex
	ctx          context.Context
	snap         Snapshot
	target       target
	hasTarget    bool
	gen          int
	subs         []realtime.Unsubscribe
	dates        realtime.Unsubscribe
	quit         chan struct{}
	started      bool
	listeners    map[int]func(Snapshot)
	nextListener int
}

func NewSession(store realtime.Store, schedule menu.WeeklySchedule, opts Options) *Session {
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.QueryTimeout <= 0 {
		opts.QueryTimeout = DefaultQueryTimeout
	}
	if opts.HistoryDays <= 0 {
		opts.HistoryDays = DefaultHistoryDays
	}
	if opts.RefreshInterval == 0 {
		opts.RefreshInterval = DefaultRefreshInterval
	}
	return &Session{
		store:     store,
		schedule:  schedule,
		opts:      opts,
		snap:      emptySnapshot(),
		listeners: map[int]func(Snapshot){},
	}
}

func (s *Session) now() time.Time {
	return s.opts.Clock().In(s.opts.Location)
}

// Start resolves the active meal and subscribes to the counts. Store
// failures never fail Start: they are logged and the session falls back to
// the schedule with empty, loaded counts until a later Refresh succeeds.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return ErrAlreadyStarted
	}
	s.started = true
	s.ctx = context.WithoutCancel(ctx)
	s.snap = emptySnapshot()
	s.hasTarget = false
	s.quit = make(chan struct{})
	quit := s.quit
	s.mu.Unlock()

	now := s.now()
	qctx, cancel := context.WithTimeout(ctx, s.opts.QueryTimeout)
	t, err := s.resolve(qctx, now)
	cancel()
	if err != nil {
		log.Printf("attendance: failed to read latest attendance, using the menu schedule: %v", err)
		s.update(func(snap *Snapshot) {
			snap.ActiveMeal = mealwindow.ActiveMeal(now, s.schedule)
			snap.ActiveSource = SourceSchedule
		})
	} else {
		s.apply(t)
	}
	s.watchDates()
	s.update(func(snap *Snapshot) { snap.Loaded = true })

	if s.opts.RefreshInterval > 0 {
		go s.refreshLoop(quit)
	}
	return nil
}

// Stop releases every subscription. The last snapshot stays readable.
func (s *Session) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	subs := s.subs
	if s.dates != nil {
		subs = append(subs, s.dates)
	}
	s.subs = nil
	s.dates = nil
	s.started = false
	s.gen++
	close(s.quit)
	s.mu.Unlock()

	for _, unsubscribe := range subs {
		unsubscribe()
	}
}

// Refresh re-resolves the active meal and history from the store and the
// clock, re-subscribing when they moved.
func (s *Session) Refresh(ctx context.Context) error {
	s.mu.RLock()
	started := s.started
	s.mu.RUnlock()
	if !started {
		return nil
	}

	qctx, cancel := context.WithTimeout(ctx, s.opts.QueryTimeout)
	defer cancel()
	t, err := s.resolve(qctx, s.now())
	if err != nil {
		return err
	}
	s.apply(t)
	return nil
}

func (s *Session) refreshLoop(quit <-chan struct{}) {
	ticker := time.NewTicker(s.opts.RefreshInterval)
	defer ticker.Stop()
	for {
		select {
		case <-quit:
			return
		case <-ticker.C:
			if err := s.Refresh(context.Background()); err != nil {
				log.Printf("attendance: refresh failed: %v", err)
			}
		}
	}
}

// Snapshot returns a copy of the current aggregated state, with the live
// flags taken against the clock at the time of the call.
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	snap := s.snap.clone()
	s.mu.RUnlock()
	return s.present(snap)
}

// present re-derives IsLive and IsTomorrow for the current day.
func (s *Session) present(snap Snapshot) Snapshot {
	info := &snap.ActiveMeal
	if info.Date == "" {
		return snap
	}
	today := menu.DateKey(s.now())
	if snap.ActiveSource == SourceStore {
		info.IsLive = info.Date == today
	} else {
		// The schedule's window check is only valid for the day it ran on.
		info.IsLive = info.IsLive && info.Date == today
	}
	info.IsTomorrow = info.Date > today
	return snap
}

// Watch calls fn with a fresh snapshot after every change until cancelled.
// fn runs on the store's delivery goroutine and must not block.
func (s *Session) Watch(fn func(Snapshot)) (cancel func()) {
	s.mu.Lock()
	s.nextListener++
	id := s.nextListener
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// resolve runs the one-shot queries behind a target.
func (s *Session) resolve(ctx context.Context, now time.Time) (target, error) {
	active, source, err := s.resolveActive(ctx, now)
	if err != nil {
		return target{}, err
	}
	history, err := s.store.LastKeys(ctx, Root, s.opts.HistoryDays)
	if err != nil {
		log.Printf("attendance: failed to list attendance history: %v", err)
		history = nil
	}
	return target{active: active, source: source, history: history}, nil
}

func (s *Session) resolveActive(ctx context.Context, now time.Time) (mealwindow.ActiveMealInfo, string, error) {
	keys, err := s.store.LastKeys(ctx, Root, 1)
	if err != nil {
		return mealwindow.ActiveMealInfo{}, "", err
	}
	if len(keys) == 0 {
		return mealwindow.ActiveMeal(now, s.schedule), SourceSchedule, nil
	}

	date := keys[len(keys)-1]
	node, err := s.store.Get(ctx, realtime.Join(Root, date))
	if err != nil {
		return mealwindow.ActiveMealInfo{}, "", err
	}
	active, source := s.activeFor(now, date, node)
	return active, source, nil
}

// activeFor applies the latest-date heuristic to the node of the latest date.
func (s *Session) activeFor(now time.Time, date string, node any) (mealwindow.ActiveMealInfo, string) {
	meal, ok := lastRecordedMeal(node)
	if !ok {
		return mealwindow.ActiveMeal(now, s.schedule), SourceSchedule
	}
	today := menu.DateKey(now)
	return mealwindow.ActiveMealInfo{
		Meal:       meal,
		IsLive:     date == today,
		Date:       date,
		IsTomorrow: date > today,
	}, SourceStore
}

// targetFromTree resolves a target from the whole attendance node, as
// delivered to the date watcher.
func (s *Session) targetFromTree(now time.Time, tree any) target {
	dates, _ := tree.(map[string]any)
	keys := make([]string, 0, len(dates))
	for k, v := range dates {
		if hasData(v) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	if len(keys) == 0 {
		return target{active: mealwindow.ActiveMeal(now, s.schedule), source: SourceSchedule}
	}

	latest := keys[len(keys)-1]
	active, source := s.activeFor(now, latest, dates[latest])
	history := keys
	if len(history) > s.opts.HistoryDays {
		history = history[len(history)-s.opts.HistoryDays:]
	}
	return target{active: active, source: source, history: history}
}

// watchDates follows the attendance root so new dates and newly filled
// meals move the session.
func (s *Session) watchDates() {
	s.mu.RLock()
	ctx := s.ctx
	quit := s.quit
	s.mu.RUnlock()

	unsubscribe, err := s.store.Subscribe(ctx, Root, func(tree any) {
		s.mu.RLock()
		current := s.started && s.quit == quit
		s.mu.RUnlock()
		if current {
			s.apply(s.targetFromTree(s.now(), tree))
		}
	})
	if err != nil {
		log.Printf("attendance: failed to watch %s: %v", Root, err)
		return
	}

	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		unsubscribe()
		return
	}
	s.dates = unsubscribe
	s.mu.Unlock()
}

// apply moves the session to t. Subscriptions are replaced only when the
// active date or the history dates changed.
func (s *Session) apply(t target) {
	s.applyMu.Lock()
	defer s.applyMu.Unlock()

	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	if s.hasTarget && s.target.sameSubscriptions(t) {
		s.target = t
		s.mu.Unlock()
		s.update(func(snap *Snapshot) {
			snap.ActiveMeal = t.active
			snap.ActiveSource = t.source
			snap.AttendanceCount = snap.AttendanceByMeal[t.active.Meal]
		})
		return
	}
	s.gen++
	gen := s.gen
	old := s.subs
	s.subs = nil
	s.target = t
	s.hasTarget = true
	ctx := s.ctx
	s.mu.Unlock()

	for _, unsubscribe := range old {
		unsubscribe()
	}
	s.update(func(snap *Snapshot) {
		snap.ActiveMeal = t.active
		snap.ActiveSource = t.source
		snap.AttendanceByMeal = emptySnapshot().AttendanceByMeal
		snap.AttendanceCount = 0
		kept := make([]DailySummary, 0, len(snap.DailyStats))
		for _, d := range snap.DailyStats {
			if slices.Contains(t.history, d.Date) {
				kept = append(kept, d)
			}
		}
		snap.DailyStats = kept
	})

	for _, meal := range menu.MealTypes {
		s.subscribe(ctx, gen, realtime.Join(Root, t.active.Date, string(meal)), s.onMeal(gen, meal))
	}
	for _, date := range t.history {
		s.subscribe(ctx, gen, realtime.Join(Root, date), s.onDay(gen, date))
	}
}

// lastRecordedMeal picks the last meal, in canonical order, that has any data
// under the date node. It is not schedule-aware: a date holding only Dinner
// RSVPs reports Dinner even if breakfast is being served right now.
func lastRecordedMeal(node any) (menu.MealType, bool) {
	meals, ok := node.(map[string]any)
	if !ok {
		return "", false
	}
	var last menu.MealType
	found := false
	for _, meal := range menu.MealTypes {
		if hasData(meals[string(meal)]) {
			last = meal
			found = true
		}
	}
	return last, found
}

func hasData(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case map[string]any:
		return len(t) > 0
	default:
		return true
	}
}

func (s *Session) subscribe(ctx context.Context, gen int, path string, fn func(any)) {
	unsubscribe, err := s.store.Subscribe(ctx, path, fn)
	if err != nil {
		log.Printf("attendance: failed to subscribe to %s: %v", path, err)
		return
	}

	s.mu.Lock()
	if !s.started || s.gen != gen {
		// Stop or a newer target ran while we were subscribing.
		s.mu.Unlock()
		unsubscribe()
		return
	}
	s.subs = append(s.subs, unsubscribe)
	s.mu.Unlock()
}

func (s *Session) onMeal(gen int, meal menu.MealType) func(any) {
	return func(value any) {
		count := CountYes(value)
		s.updateGen(gen, func(snap *Snapshot) { snap.setMealCount(meal, count) })
	}
}

func (s *Session) onDay(gen int, date string) func(any) {
	return func(value any) {
		summary, ok := summarizeDay(date, value)
		s.updateGen(gen, func(snap *Snapshot) { snap.setDay(date, summary, ok) })
	}
}

func (snap *Snapshot) setMealCount(meal menu.MealType, count int) {
	snap.AttendanceByMeal[meal] = count
	snap.AttendanceCount = snap.AttendanceByMeal[snap.ActiveMeal.Meal]
}

// setDay replaces the date's row, dropping it when the date is empty.
func (snap *Snapshot) setDay(date string, summary DailySummary, ok bool) {
	stats := make([]DailySummary, 0, len(snap.DailyStats)+1)
	for _, d := range snap.DailyStats {
		if d.Date != date {
			stats = append(stats, d)
		}
	}
	if ok {
		stats = append(stats, summary)
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].Date < stats[j].Date })
	snap.DailyStats = stats
}

// summarizeDay counts every meal under one attendance/{date} node. ok is
// false when the date holds nothing.
func summarizeDay(date string, node any) (DailySummary, bool) {
	meals, ok := node.(map[string]any)
	if !ok || len(meals) == 0 {
		return DailySummary{}, false
	}
	d := DailySummary{
		Date:      date,
		Breakfast: CountYes(meals[string(menu.Breakfast)]),
		Lunch:     CountYes(meals[string(menu.Lunch)]),
		Dinner:    CountYes(meals[string(menu.Dinner)]),
	}
	d.Total = d.Breakfast + d.Lunch + d.Dinner
	return d, true
}

func (s *Session) update(fn func(*Snapshot)) {
	s.updateGen(-1, fn)
}

// updateGen applies fn unless it comes from a subscription older than the
// current target. A negative gen always applies.
func (s *Session) updateGen(gen int, fn func(*Snapshot)) {
	s.mu.Lock()
	if gen >= 0 && gen != s.gen {
		s.mu.Unlock()
		return
	}
	fn(&s.snap)
	snap := s.snap.clone()
	listeners := make([]func(Snapshot), 0, len(s.listeners))
	for _, l := range s.listeners {
		listeners = append(listeners, l)
	}
	s.mu.Unlock()

	snap = s.present(snap)
	for _, l := range listeners {
		l(snap.clone())
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
