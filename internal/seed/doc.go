// Package seed puts both persistence contexts into a usable initial state:
// sample application data, the built-in roles, and an optional bootstrap
// administrator. Every step is idempotent.
package seed
