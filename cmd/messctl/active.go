package main

import (
	"fmt"
	"time"

	"MessAPI/internal/env"
	"MessAPI/internal/mealwindow"

	"github.com/spf13/cobra"
)

func newActiveCmd(opts *globalOptions) *cobra.Command {
	var at string
	cmd := &cobra.Command{
		Use:   "active",
		Short: "Show the current and next meal from the weekly menu",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			now := time.Now()
			if at != "" {
				parsed, err := time.Parse(time.RFC3339, at)
				if err != nil {
					return fmt.Errorf("invalid --at, expected RFC 3339: %w", err)
				}
				now = parsed
			}
			now = now.In(env.GetLocation(env.EnvTimezone))

			schedule, err := loadSchedule(opts)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if meal, ok := mealwindow.CurrentMeal(now, schedule); ok {
				fmt.Fprintf(out, "Serving: %s\n", meal)
			} else {
				fmt.Fprintln(out, "Serving: nothing")
			}
			next := mealwindow.NextMeal(now, schedule)
			when := "tomorrow"
			if next.IsToday {
				when = "today"
			}
			fmt.Fprintf(out, "Next: %s (%s)\n", next.Meal, when)
			active := mealwindow.ActiveMeal(now, schedule)
			fmt.Fprintf(out, "Dashboard meal: %s on %s\n", active.Meal, active.Date)
			return nil
		},
	}
	cmd.Flags().StringVar(&at, "at", "", "resolve at this RFC 3339 time instead of now")
	return cmd
}

/*
This project is the mess dashboard backend for the OpenSourceDUTH team. Attendance, meal ratings and complaint triage for the university dining hall.
API Copyright (C) 2025 OpenSourceDUTH
    This program is free software: you can redistribute it and/or modify
    it under the terms of the GNU General Public License as published by
    the Free Software Foundation, either version 3 of the License, or
    (at your option) any later version.

    This program is distributed in the hope that it will be useful,
    but WITHOUT ANY WARRANTY; without even the implied warranty of
    MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
    GNU General Public License for more details.

    You should have received a copy of the GNU General Public License
    along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/
