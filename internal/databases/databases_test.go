package databases_test

import (
	"path/filepath"
	"testing"

	"MessAPI/internal/databases"
)

func TestOpenAndMigrate(t *testing.T) {
	for _, driver := range []string{databases.DriverCGO, databases.DriverPure} {
		t.Run(driver, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "mess.db")
			db, err := databases.OpenAndMigrate(driver, path)
			if err != nil {
				t.Fatalf("OpenAndMigrate: %v", err)
			}
			defer db.Close()

			for _, table := range []string{"weekly_menu", "weekly_menu_items", "realtime_nodes", "documents", "admins"} {
				var name string
				err := db.QueryRow("SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?", table).Scan(&name)
				if err != nil {
					t.Errorf("table %s missing: %v", table, err)
				}
			}

			// Running the migrations a second time is a no-op.
			if err := databases.Migrate(db, driver); err != nil {
				t.Errorf("second Migrate: %v", err)
			}
		})
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	if _, err := databases.Open("postgres", "x"); err == nil {
		t.Fatal("expected error for unsupported driver")
	}
}
