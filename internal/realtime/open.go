package realtime

import (
	"context"
	"database/sql"
	"fmt"
	"os"
)

const (
	BackendSQLite = "sqlite"
	BackendRemote = "remote"
)

type OpenOptions struct {
	Backend string
	// DB backs the sqlite backend.
	DB *sql.DB
	// RemoteURL and CredentialsFile configure the remote backend. Without a
	// credentials file requests are sent unauthenticated.
	RemoteURL       string
	CredentialsFile string
}

// Open returns the store selected by opts.Backend.
func Open(ctx context.Context, opts OpenOptions) (Store, error) {
	switch opts.Backend {
	case "", BackendSQLite:
		if opts.DB == nil {
			return nil, fmt.Errorf("sqlite backend needs a database")
		}
		return NewSQLiteStore(opts.DB), nil
	case BackendRemote:
		if opts.RemoteURL == "" {
			return nil, fmt.Errorf("remote backend needs a database URL")
		}
		if opts.CredentialsFile == "" {
			return NewRemoteStore(opts.RemoteURL, nil), nil
		}
		creds, err := os.ReadFile(opts.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read credentials: %w", err)
		}
		client, err := NewGoogleHTTPClient(ctx, creds)
		if err != nil {
			return nil, err
		}
		return NewRemoteStore(opts.RemoteURL, client), nil
	default:
		return nil, fmt.Errorf("unknown realtime backend %q", opts.Backend)
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
