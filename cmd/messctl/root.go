package main

import (
	"database/sql"

	"MessAPI/internal/databases"
	"MessAPI/internal/env"

	"github.com/spf13/cobra"
)

type globalOptions struct {
	driver string
	dbPath string
}

func (o *globalOptions) open() (*sql.DB, error) {
	return databases.OpenAndMigrate(o.driver, o.dbPath)
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}
	root := &cobra.Command{
		Use:           "messctl",
		Short:         "messctl – operate the mess dashboard backend",
		Long:          `messctl migrates the mess database, imports the weekly menu and feedback, manages admins and inspects meals and attendance.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.driver, "driver", env.GetEnv(env.EnvDBDriver, databases.DriverCGO), "SQL driver: sqlite3 or sqlite")
	root.PersistentFlags().StringVar(&opts.dbPath, "db", env.GetEnv(env.EnvDBPath, env.DefaultDBPath), "path to the mess database")

	root.AddCommand(newMigrateCmd(opts))
	root.AddCommand(newMenuCmd(opts))
	root.AddCommand(newActiveCmd(opts))
	root.AddCommand(newStatsCmd(opts))
	root.AddCommand(newFeedbackCmd(opts))
	root.AddCommand(newAdminCmd(opts))
	return root
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
