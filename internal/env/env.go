package env

import (
	"log"
	"os"
	"strconv"
	"time"
)

func GetEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func GetInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func GetBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func GetDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// GetLocation loads an IANA time zone, falling back to time.Local when the
// key is unset or unknown.
func GetLocation(key string) *time.Location {
	name, exists := os.LookupEnv(key)
	if !exists || name == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		log.Printf("Unknown time zone %q in %s, using local time: %v", name, key, err)
		return time.Local
	}
	return loc
}

// Storage
const (
	EnvDBDriver     = "MESS_DB_DRIVER"
	EnvDBPath       = "MESS_DB_PATH"
	EnvStoreBackend = "MESS_STORE_BACKEND"

	// Remote realtime database
	EnvRemoteURL         = "MESS_REMOTE_URL"
	EnvRemoteCredentials = "MESS_REMOTE_CREDENTIALS"
)

// Server and dashboard
const (
	EnvHTTPAddr        = "MESS_HTTP_ADDR"
	EnvReleaseMode     = "MESS_RELEASE_MODE"
	EnvTimezone        = "MESS_TIMEZONE"
	EnvQueryTimeout    = "MESS_QUERY_TIMEOUT"
	EnvHistoryDays     = "MESS_HISTORY_DAYS"
	EnvRefreshInterval = "MESS_REFRESH_INTERVAL"
	EnvComplaintsLimit = "MESS_COMPLAINTS_LIMIT"
	EnvRatingsLimit    = "MESS_RATINGS_LIMIT"
)

// Defaults shared by the server and messctl.
const (
	DefaultDBPath   = "./internal/databases/mess.db"
	DefaultHTTPAddr = ":9237"
)

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
