// Package testdb prepares a migrated postgres database for integration
// tests. Tests are skipped when no database is configured and fail when one
// is expected under CI.
package testdb
