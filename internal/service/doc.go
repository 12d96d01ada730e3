// Package service implements the actions UI surfaces send to the daemon:
// saving, importing, starring and deleting bookmarks, asking questions about
// a saved page, and managing provider settings.
//
// Services mutate the store first and then publish events. Enrichment runs
// on the task queue and remote sync on the reconciler, so neither blocks an
// action.
package service
