// Package mealwindow decides which meal is being served at a given moment,
// or which one comes next, from the weekly menu.
//
// None of the functions return errors: a missing day or an unusable slot
// degrades to tomorrow's breakfast.
package mealwindow

import (
	"sort"
	"time"

	"MessAPI/internal/menu"
)

const minutesPerDay = 24 * 60

// noon separates morning starts from afternoon/evening starts when deciding
// whether an early-morning minute belongs to a window that opened the evening before.
const noon = 12 * 60

type ActiveMealInfo struct {
	Meal       menu.MealType `json:"meal"`
	IsLive     bool          `json:"isLive"`
	Date       string        `json:"date"`
	IsTomorrow bool          `json:"isTomorrow"`
}

type NextMealInfo struct {
	Meal    menu.MealType `json:"meal"`
	IsToday bool          `json:"isToday"`
}

// CurrentMeal returns the first meal, in canonical order, whose serving
// window on now's weekday contains now.
func CurrentMeal(now time.Time, schedule menu.WeeklySchedule) (menu.MealType, bool) {
	day, ok := schedule.Day(now.Weekday())
	if !ok {
		return "", false
	}
	minute := menu.MinutesOfDay(now)
	for _, meal := range menu.MealTypes {
		slot, ok := day.Slot(meal)
		if !ok {
			continue
		}
		if inWindow(slot, minute) {
			return meal, true
		}
	}
	return "", false
}

func inWindow(slot menu.MealSlot, minute int) bool {
	start, end, ok := slot.Window()
	if !ok {
		return false
	}
	if end < start {
		end += minutesPerDay
	}
	if minute < start && start > noon {
		minute += minutesPerDay
	}
	return minute >= start && minute <= end
}

// NextMeal returns the next meal to start today, or tomorrow's breakfast
// when every slot today has already started.
func NextMeal(now time.Time, schedule menu.WeeklySchedule) NextMealInfo {
	tomorrow := NextMealInfo{Meal: menu.Breakfast, IsToday: false}

	day, ok := schedule.Day(now.Weekday())
	if !ok {
		return tomorrow
	}

	type start struct {
		meal   menu.MealType
		minute int
	}
	var starts []start
	for _, meal := range menu.MealTypes {
		slot, ok := day.Slot(meal)
		if !ok {
			continue
		}
		if m, _, ok := slot.Window(); ok {
			starts = append(starts, start{meal: meal, minute: m})
		}
	}
	sort.SliceStable(starts, func(i, j int) bool {
		return starts[i].minute < starts[j].minute
	})

	minute := menu.MinutesOfDay(now)
	for _, s := range starts {
		if s.minute > minute {
			return NextMealInfo{Meal: s.meal, IsToday: true}
		}
	}
	return tomorrow
}

// ActiveMeal combines CurrentMeal and NextMeal into the time-based active meal.
// NextMeal is only consulted when nothing is being served.
func ActiveMeal(now time.Time, schedule menu.WeeklySchedule) ActiveMealInfo {
	today := menu.DateKey(now)
	if meal, ok := CurrentMeal(now, schedule); ok {
		return ActiveMealInfo{Meal: meal, IsLive: true, Date: today}
	}
	next := NextMeal(now, schedule)
	if next.IsToday {
		return ActiveMealInfo{Meal: next.Meal, Date: today}
	}
	return ActiveMealInfo{
		Meal:       next.Meal,
		Date:       menu.DateKey(now.AddDate(0, 0, 1)),
		IsTomorrow: true,
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
