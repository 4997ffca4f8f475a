package main

import (
	"fmt"
	"text/tabwriter"

	"MessAPI/internal/attendance"
	"MessAPI/internal/env"
	"MessAPI/internal/menu"
	"MessAPI/internal/realtime"

	"github.com/spf13/cobra"
)

func newStatsCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print the active meal headcount and recent daily attendance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := opts.open()
			if err != nil {
				return err
			}
			defer db.Close()

			schedule, err := menu.NewRepository(db).LoadWeeklySchedule()
			if err != nil {
				return err
			}
			store, err := realtime.Open(cmd.Context(), realtime.OpenOptions{
				Backend:         env.GetEnv(env.EnvStoreBackend, realtime.BackendSQLite),
				DB:              db,
				RemoteURL:       env.GetEnv(env.EnvRemoteURL, ""),
				CredentialsFile: env.GetEnv(env.EnvRemoteCredentials, ""),
			})
			if err != nil {
				return err
			}

			snap := attendance.Load(cmd.Context(), store, schedule, attendance.Options{
				Location:     env.GetLocation(env.EnvTimezone),
				QueryTimeout: env.GetDuration(env.EnvQueryTimeout, attendance.DefaultQueryTimeout),
				HistoryDays:  env.GetInt(env.EnvHistoryDays, attendance.DefaultHistoryDays),
			})

			out := cmd.OutOrStdout()
			status := "not live"
			switch {
			case snap.ActiveMeal.IsLive:
				status = "live"
			case snap.ActiveMeal.IsTomorrow:
				status = "tomorrow"
			}
			fmt.Fprintf(out, "%s %s (%s, from %s): %d attending\n",
				snap.ActiveMeal.Date, snap.ActiveMeal.Meal, status, snap.ActiveSource, snap.AttendanceCount)

			if len(snap.DailyStats) == 0 {
				fmt.Fprintln(out, "No attendance recorded.")
				return nil
			}
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "DATE\tBREAKFAST\tLUNCH\tDINNER\tTOTAL")
			for _, d := range snap.DailyStats {
				fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\n", d.Date, d.Breakfast, d.Lunch, d.Dinner, d.Total)
			}
			return w.Flush()
		},
	}
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
