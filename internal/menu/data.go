package menu

import (
	"database/sql"
	"fmt"
	"time"
)

type Repository struct {
	db *sql.DB
}

// NewRepository creates a new weekly menu repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// LoadWeeklySchedule reads the whole weekly menu, ordered Sunday to Saturday.
// Weekdays without any slot are left out.
func (r *Repository) LoadWeeklySchedule() (WeeklySchedule, error) {
	rows, err := r.db.Query(`SELECT day_name, meal_type, start_time, end_time FROM weekly_menu`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	days := map[string]*DayMenu{}
	for rows.Next() {
		var dayName, mealType string
		var slot MealSlot
		if err := rows.Scan(&dayName, &mealType, &slot.Start, &slot.End); err != nil {
			return nil, err
		}
		meal, ok := ParseMealType(mealType)
		if !ok {
			continue
		}
		slot.Items = []string{}
		d, ok := days[dayName]
		if !ok {
			d = &DayMenu{Day: dayName}
			days[dayName] = d
		}
		d.setSlot(meal, slot)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	items, err := r.db.Query(`SELECT day_name, meal_type, name FROM weekly_menu_items ORDER BY day_name, meal_type, position`)
	if err != nil {
		return nil, err
	}
	defer items.Close()

	for items.Next() {
		var dayName, mealType, name string
		if err := items.Scan(&dayName, &mealType, &name); err != nil {
			return nil, err
		}
		d, ok := days[dayName]
		if !ok {
			continue
		}
		meal, _ := ParseMealType(mealType)
		if slot, ok := d.Slot(meal); ok {
			slot.Items = append(slot.Items, name)
			d.setSlot(meal, slot)
		}
	}
	if err := items.Err(); err != nil {
		return nil, err
	}

	schedule := WeeklySchedule{}
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		if d, ok := days[wd.String()]; ok {
			schedule = append(schedule, *d)
		}
	}
	return schedule, nil
}

// ReplaceWeeklySchedule swaps the stored menu for the given one in a single transaction.
func (r *Repository) ReplaceWeeklySchedule(schedule WeeklySchedule) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	// Defer a rollback in case anything fails.
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.Exec("DELETE FROM weekly_menu_items"); err != nil {
		return err
	}
	if _, err := tx.Exec("DELETE FROM weekly_menu"); err != nil {
		return err
	}

	slotStmt, err := tx.Prepare("INSERT INTO weekly_menu (day_name, meal_type, start_time, end_time) VALUES (?, ?, ?, ?)")
	if err != nil {
		return err
	}
	defer slotStmt.Close()

	itemStmt, err := tx.Prepare("INSERT INTO weekly_menu_items (day_name, meal_type, position, name) VALUES (?, ?, ?, ?)")
	if err != nil {
		return err
	}
	defer itemStmt.Close()

	for _, d := range schedule {
		dayName, ok := canonicalDayName(d.Day)
		if !ok {
			return fmt.Errorf("unknown weekday %q", d.Day)
		}
		for _, meal := range MealTypes {
			slot, ok := d.Slot(meal)
			if !ok {
				continue
			}
			if _, err := slotStmt.Exec(dayName, string(meal), slot.Start, slot.End); err != nil {
				return fmt.Errorf("failed to insert %s %s: %w", dayName, meal, err)
			}
			for i, item := range slot.Items {
				if _, err := itemStmt.Exec(dayName, string(meal), i, item); err != nil {
					return fmt.Errorf("failed to insert item %q: %w", item, err)
				}
			}
		}
	}

	return tx.Commit()
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
