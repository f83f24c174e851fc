// Package store defines interfaces for data persistence operations.
// These interfaces abstract the two persistence contexts (security data and
// application data) from the identity and API layers, allowing them to remain
// independent of the ORM and SQL engine behind each context.
package store
