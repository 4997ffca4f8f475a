package menu

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"
)

// ParseWeeklySchedule decodes the static menu configuration: a JSON array of
// day objects keyed by English weekday name.
//
//	[{"day": "Monday", "Breakfast": {"start": "07:00", "end": "09:00", "items": ["Poha"]}, ...}]
//
// Clock values are not validated here; unusable slots are skipped at resolve time.
func ParseWeeklySchedule(r io.Reader) (WeeklySchedule, error) {
	var days []DayMenu
	if err := json.NewDecoder(r).Decode(&days); err != nil {
		return nil, fmt.Errorf("decoding weekly menu: %w", err)
	}

	seen := map[string]bool{}
	schedule := make(WeeklySchedule, 0, len(days))
	for _, d := range days {
		name, ok := canonicalDayName(d.Day)
		if !ok {
			return nil, fmt.Errorf("unknown weekday %q", d.Day)
		}
		if seen[name] {
			return nil, fmt.Errorf("duplicate entry for %s", name)
		}
		seen[name] = true
		d.Day = name
		schedule = append(schedule, d)
	}
	return schedule, nil
}

func canonicalDayName(s string) (string, bool) {
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		if strings.EqualFold(strings.TrimSpace(s), wd.String()) {
			return wd.String(), true
		}
	}
	return "", false
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
