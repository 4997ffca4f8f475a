package main

import (
	"fmt"

	"MessAPI/internal/documents"

	"github.com/spf13/cobra"
)

func newAdminCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Manage who may update complaints",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "grant <email>",
		Short: "Register an email as a dashboard admin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := opts.open()
			if err != nil {
				return err
			}
			defer db.Close()
			if err := documents.NewSQLiteStore(db).GrantAdmin(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("failed to grant admin: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Granted admin to %s\n", args[0])
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "check <email>",
		Short: "Report whether an email is a dashboard admin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := opts.open()
			if err != nil {
				return err
			}
			defer db.Close()
			admin, err := documents.NewSQLiteStore(db).IsAdmin(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if admin {
				fmt.Fprintf(cmd.OutOrStdout(), "%s is an admin\n", args[0])
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "%s is not an admin\n", args[0])
			}
			return nil
		},
	})
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
