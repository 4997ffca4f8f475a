package menu

import (
	"strconv"
	"strings"
	"time"
)

// DateLayout is the layout of every date key in the attendance store.
const DateLayout = "2006-01-02"

type MealType string

const (
	Breakfast MealType = "Breakfast"
	Lunch     MealType = "Lunch"
	Dinner    MealType = "Dinner"
)

// MealTypes lists the meal types in canonical order.
var MealTypes = []MealType{Breakfast, Lunch, Dinner}

// Index returns the canonical position of the meal type, or -1 if unknown.
func (m MealType) Index() int {
	for i, mt := range MealTypes {
		if mt == m {
			return i
		}
	}
	return -1
}

// ParseMealType matches the store keys exactly (case-sensitive).
func ParseMealType(s string) (MealType, bool) {
	m := MealType(s)
	return m, m.Index() >= 0
}

type MealSlot struct {
	Start string   `json:"start"`
	End   string   `json:"end"`
	Items []string `json:"items"`
}

// Window returns the slot bounds in minutes since midnight. ok is false when
// either bound is not a valid HH:MM clock time.
func (s MealSlot) Window() (start, end int, ok bool) {
	start, okStart := ParseClock(s.Start)
	end, okEnd := ParseClock(s.End)
	return start, end, okStart && okEnd
}

type DayMenu struct {
	Day       string    `json:"day"`
	Breakfast *MealSlot `json:"Breakfast,omitempty"`
	Lunch     *MealSlot `json:"Lunch,omitempty"`
	Dinner    *MealSlot `json:"Dinner,omitempty"`
}

// Slot returns the slot for the given meal type.
func (d DayMenu) Slot(meal MealType) (MealSlot, bool) {
	var slot *MealSlot
	switch meal {
	case Breakfast:
		slot = d.Breakfast
	case Lunch:
		slot = d.Lunch
	case Dinner:
		slot = d.Dinner
	}
	if slot == nil {
		return MealSlot{}, false
	}
	return *slot, true
}

func (d *DayMenu) setSlot(meal MealType, slot MealSlot) {
	switch meal {
	case Breakfast:
		d.Breakfast = &slot
	case Lunch:
		d.Lunch = &slot
	case Dinner:
		d.Dinner = &slot
	}
}

// WeeklySchedule holds one DayMenu per weekday name. It is read-only once loaded.
type WeeklySchedule []DayMenu

// Day looks up the menu for a weekday by its English name.
func (w WeeklySchedule) Day(day time.Weekday) (DayMenu, bool) {
	name := day.String()
	for _, d := range w {
		if strings.EqualFold(strings.TrimSpace(d.Day), name) {
			return d, true
		}
	}
	return DayMenu{}, false
}

// ParseClock parses a 24h "HH:MM" clock time into minutes since midnight.
func ParseClock(s string) (int, bool) {
	hh, mm, found := strings.Cut(strings.TrimSpace(s), ":")
	if !found {
		return 0, false
	}
	h, err := strconv.Atoi(hh)
	if err != nil || h < 0 || h > 23 {
		return 0, false
	}
	m, err := strconv.Atoi(mm)
	if err != nil || m < 0 || m > 59 {
		return 0, false
	}
	return h*60 + m, true
}

// MinutesOfDay returns the minutes elapsed since local midnight of t.
func MinutesOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

// DateKey formats t as a YYYY-MM-DD store key in t's location.
func DateKey(t time.Time) string {
	return t.Format(DateLayout)
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
