// Package testdb provides utilities for tests that touch a database.
//
// SQLite tests run everywhere against a file in the test's temp directory.
// PostgreSQL tests run only when KEYSTONE_TEST_POSTGRES_URL is set and are
// isolated with a transaction that is always rolled back:
//
//	func TestSomething(t *testing.T) {
//	    connStr := testdb.PostgresOrSkip(t)
//	    ...
//	    testdb.WithTx(t, db, func(t *testing.T, tx *gorm.DB) {
//	        // changes made through tx are discarded
//	    })
//	}
package testdb
