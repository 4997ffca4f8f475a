package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"MessAPI/internal/documents"
	"MessAPI/internal/feedback"

	"github.com/spf13/cobra"
)

func newFeedbackCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "feedback",
		Short: "Import and summarise complaints and meal ratings",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "import <complaints|mealRatings> <file>",
		Short: "Add every object of a JSON array to a collection",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			collection := args[0]
			if collection != documents.Complaints && collection != documents.MealRatings {
				return fmt.Errorf("unknown collection %q, want %s or %s", collection, documents.Complaints, documents.MealRatings)
			}
			records, err := readRecords(args[1], collection)
			if err != nil {
				return err
			}

			db, err := opts.open()
			if err != nil {
				return err
			}
			defer db.Close()
			store := documents.NewSQLiteStore(db)
			for i, record := range records {
				if _, err := store.Add(cmd.Context(), collection, record); err != nil {
					return fmt.Errorf("failed to import record %d: %w", i, err)
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d %s\n", len(records), collection)
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "summary",
		Short: "Print rating averages and complaint counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := opts.open()
			if err != nil {
				return err
			}
			defer db.Close()
			store := documents.NewSQLiteStore(db)

			ratingDocs, err := store.Query(cmd.Context(), documents.MealRatings, feedback.DefaultRatingsLimit)
			if err != nil {
				return err
			}
			ratings := make([]feedback.Rating, 0, len(ratingDocs))
			for _, doc := range ratingDocs {
				r, err := feedback.RatingFromDocument(doc)
				if err != nil {
					return err
				}
				ratings = append(ratings, r)
			}
			complaintDocs, err := store.Query(cmd.Context(), documents.Complaints, feedback.DefaultComplaintsLimit)
			if err != nil {
				return err
			}
			complaints := make([]feedback.Complaint, 0, len(complaintDocs))
			for _, doc := range complaintDocs {
				c, err := feedback.ComplaintFromDocument(doc)
				if err != nil {
					return err
				}
				complaints = append(complaints, c)
			}

			avg := feedback.ComputeAverages(ratings)
			groups := feedback.GroupComplaints(complaints)
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "RATING\tMEAN\tCOUNT")
			fmt.Fprintf(w, "overall\t%.2f\t%d\n", avg.Overall.Mean, avg.Overall.Count)
			fmt.Fprintf(w, "staffBehavior\t%.2f\t%d\n", avg.StaffBehavior.Mean, avg.StaffBehavior.Count)
			fmt.Fprintf(w, "hygiene\t%.2f\t%d\n", avg.Hygiene.Mean, avg.Hygiene.Count)
			if err := w.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Complaints: %d pending, %d in progress, %d resolved\n",
				len(groups.Pending), len(groups.InProgress), len(groups.Resolved))
			return nil
		},
	})
	return cmd
}

// readRecords decodes a JSON array of objects, checking complaint statuses
// before anything is written.
func readRecords(path, collection string) ([]map[string]any, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var records []map[string]any
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("failed to parse %s: expected a JSON array of objects: %w", path, err)
	}
	for i, record := range records {
		if record == nil {
			return nil, fmt.Errorf("record %d is not an object", i)
		}
		if collection != documents.Complaints {
			continue
		}
		if status, ok := record["status"]; ok {
			s, _ := status.(string)
			if _, err := feedback.ParseStatus(s); err != nil {
				return nil, fmt.Errorf("record %d: %w", i, err)
			}
		}
	}
	return records, nil
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
