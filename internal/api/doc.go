// Package api exposes the bookmark services over HTTP.
//
// The extension sends every command to POST /api/messages as a JSON object
// whose "action" names the operation, mirroring browser runtime messaging.
// GET /api/changes streams change events so open pages can refresh, and
// GET /health reports liveness. Errors are mapped to status codes with safe
// messages; raw error text only reaches the logs, redacted.
package api
