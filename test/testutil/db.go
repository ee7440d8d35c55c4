package testutil

import (
	"database/sql"
	"os"
	"testing"

	"github.com/xxxsen/askdocs/internal/config"
	"github.com/xxxsen/askdocs/internal/db"
)

// OpenTestDB connects to the postgres named by TEST_DB_HOST and applies
// migrations. Tests are skipped when the env is unset; the connection
// closes with the test.
func OpenTestDB(t *testing.T) *sql.DB {
	t.Helper()
	host := os.Getenv("TEST_DB_HOST")
	if host == "" {
		t.Skip("TEST_DB_HOST not set, skipping postgres test")
	}
	conn, err := db.Open(config.DatabaseConfig{
		Host:     host,
		Port:     5432,
		User:     "askdocs",
		Password: "askdocs_pass",
		DBName:   "askdocs_test",
		SSLMode:  "disable",
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.ApplyMigrations(conn); err != nil {
		t.Fatalf("migrations: %v", err)
	}
	t.Cleanup(func() {
		_ = conn.Close()
	})
	return conn
}
