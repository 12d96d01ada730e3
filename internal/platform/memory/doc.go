// Package memory provides process-local implementations of the store
// backends, used for tests and for running the daemon without persistence.
package memory
