// Package postgres provides a store.KV backed by PostgreSQL, for deployments
// where the daemon's state should live in a shared database. It also owns the
// embedded goose migrations that create the kv_entries table.
package postgres
