package testdb

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"gorm.io/gorm"
)

// EnvPostgresURL names the variable holding the integration database URL.
const EnvPostgresURL = "KEYSTONE_TEST_POSTGRES_URL"

// errRollback aborts the transaction opened by WithTx.
var errRollback = errors.New("testdb: rollback")

// PostgresURL returns the integration database URL, or "" when none is configured.
func PostgresURL() string {
	return os.Getenv(EnvPostgresURL)
}

// IsIntegrationTestEnvironment reports whether a PostgreSQL database is available.
func IsIntegrationTestEnvironment() bool {
	return PostgresURL() != ""
}

// ShouldSkipDatabaseTest returns true if PostgreSQL integration tests should be skipped.
func ShouldSkipDatabaseTest() bool {
	return !IsIntegrationTestEnvironment()
}

// PostgresOrSkip returns the integration database URL or skips t.
func PostgresOrSkip(t *testing.T) string {
	t.Helper()
	if ShouldSkipDatabaseTest() {
		t.Skip(EnvPostgresURL + " not set - skipping PostgreSQL integration test")
	}
	return PostgresURL()
}

// SQLiteConnectionString returns a connection string for a fresh SQLite file
// named name inside t's temp directory.
func SQLiteConnectionString(t *testing.T, name string) string {
	t.Helper()
	return "Data Source=" + filepath.Join(t.TempDir(), name)
}

// WithTx runs fn inside a transaction on db and rolls it back afterwards,
// whatever fn does.
func WithTx(t *testing.T, db *gorm.DB, fn func(t *testing.T, tx *gorm.DB)) {
	t.Helper()
	err := db.Transaction(func(tx *gorm.DB) error {
		fn(t, tx)
		return errRollback
	})
	if err != nil && !errors.Is(err, errRollback) {
		t.Fatalf("testdb: transaction failed: %v", err)
	}
}
