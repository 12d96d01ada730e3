// Package mocks provides hand-written test doubles for the AI and content
// extraction boundaries. Each mock records its calls and delegates to an
// optional function field so tests can script responses.
package mocks
