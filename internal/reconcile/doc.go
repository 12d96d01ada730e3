// Package reconcile propagates local bookmark mutations to the remote
// account service.
//
// Sync is best-effort and eventually consistent. A change is sent once; a
// failure is logged and dropped, and the next mutation of the same item
// carries its state again. Items are addressed by their server-assigned ID
// when they have one, otherwise by URL so the server can match them.
package reconcile
