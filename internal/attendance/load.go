package attendance

import (
	"context"
	"log"

	"MessAPI/internal/mealwindow"
	"MessAPI/internal/menu"
	"MessAPI/internal/realtime"
)

// Load builds the same snapshot a Session would, from one-shot reads and
// without subscribing. It shares the Session's failure handling.
func Load(ctx context.Context, store realtime.Store, schedule menu.WeeklySchedule, opts Options) Snapshot {
	s := NewSession(store, schedule, opts)
	now := s.now()
	qctx, cancel := context.WithTimeout(ctx, s.opts.QueryTimeout)
	defer cancel()

	snap := emptySnapshot()
	snap.Loaded = true

	active, source, err := s.resolveActive(qctx, now)
	if err != nil {
		log.Printf("attendance: failed to read latest attendance, using the menu schedule: %v", err)
		snap.ActiveMeal = mealwindow.ActiveMeal(now, schedule)
		snap.ActiveSource = SourceSchedule
		return snap
	}
	snap.ActiveMeal = active
	snap.ActiveSource = source

	for _, meal := range menu.MealTypes {
		value, err := store.Get(qctx, realtime.Join(Root, active.Date, string(meal)))
		if err != nil {
			log.Printf("attendance: failed to read %s %s: %v", active.Date, meal, err)
			continue
		}
		snap.setMealCount(meal, CountYes(value))
	}

	history, err := store.LastKeys(qctx, Root, s.opts.HistoryDays)
	if err != nil {
		log.Printf("attendance: failed to list attendance history: %v", err)
		return snap
	}
	for _, date := range history {
		value, err := store.Get(qctx, realtime.Join(Root, date))
		if err != nil {
			log.Printf("attendance: failed to read %s: %v", date, err)
			continue
		}
		summary, ok := summarizeDay(date, value)
		snap.setDay(date, summary, ok)
	}
	return s.present(snap)
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
