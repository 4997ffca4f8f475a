package feedback

import (
	"context"
	"time"

	"MessAPI/internal/documents"
)

// UpdateComplaintStatus moves a complaint to a new status on behalf of actor.
// Permission failures come back wrapping documents.ErrPermissionDenied so
// callers can tell the admin apart from a generic failure.
func UpdateComplaintStatus(ctx context.Context, store documents.Store, actor, id, status string, now time.Time) error {
	s, err := ParseStatus(status)
	if err != nil {
		return err
	}
	return store.Update(ctx, actor, documents.Complaints, id, map[string]any{
		"status":    string(s),
		"updatedAt": now.UTC().Format(time.RFC3339Nano),
	})
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
