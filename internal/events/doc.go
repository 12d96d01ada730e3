// Package events carries notifications between the parts of the daemon that
// must not import each other.
//
// Services emit an enrichment request when a bookmark needs AI processing and
// a bookmark change when a synced field was mutated locally. The store emits a
// store change after every write; UI surfaces subscribe to those to refresh.
//
// The primary components are:
// - Event: an envelope with a type and a JSON payload
// - EventHandler: Interface for components that can handle events
// - EventEmitter: Interface for components that can emit events
package events
