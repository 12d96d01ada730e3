// Package store defines the persistence contract of the daemon and the typed
// repository built on it.
//
// Backends implement KV, a flat map from logical key to JSON document with
// last-writer-wins semantics. Store layers the bookmark collection, the AI
// configuration, the smart category registry, preferences and the auth token
// on top of a KV, serializes every read-modify-write through a single writer
// lock, and announces each write as a store change event. SessionStore is the
// separate, TTL-bounded map from browser tab to bookmark.
package store
