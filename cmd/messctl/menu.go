package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"MessAPI/internal/menu"

	"github.com/spf13/cobra"
)

func newMenuCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "menu",
		Short: "Manage the weekly menu",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "import <file>",
		Short: "Replace the weekly menu with a JSON file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			schedule, err := menu.ParseWeeklySchedule(f)
			if err != nil {
				return err
			}
			db, err := opts.open()
			if err != nil {
				return err
			}
			defer db.Close()
			if err := menu.NewRepository(db).ReplaceWeeklySchedule(schedule); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d days\n", len(schedule))
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the weekly menu",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			schedule, err := loadSchedule(opts)
			if err != nil {
				return err
			}
			if len(schedule) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No menu imported.")
				return nil
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "DAY\tMEAL\tWINDOW\tITEMS")
			for _, day := range schedule {
				for _, meal := range menu.MealTypes {
					slot, ok := day.Slot(meal)
					if !ok {
						continue
					}
					fmt.Fprintf(w, "%s\t%s\t%s-%s\t%s\n", day.Day, meal, slot.Start, slot.End, strings.Join(slot.Items, ", "))
				}
			}
			return w.Flush()
		},
	})
	return cmd
}

func loadSchedule(opts *globalOptions) (menu.WeeklySchedule, error) {
	db, err := opts.open()
	if err != nil {
		return nil, err
	}
	defer db.Close()
	return menu.NewRepository(db).LoadWeeklySchedule()
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
