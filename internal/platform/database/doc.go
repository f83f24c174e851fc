// Package database opens the ORM connections behind the persistence contexts,
// ensures their schemas exist, and maps engine errors onto the store package's
// error taxonomy.
//
// A connection string selects the engine: "Data Source=<path>", "file:<path>"
// or a bare path opens SQLite, while "postgres://" and "postgresql://" URLs or
// key/value DSNs containing "host=" open PostgreSQL.
package database
