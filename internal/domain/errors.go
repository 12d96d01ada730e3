package domain

import "errors"

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// This is often wrapped with a more specific error message.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidID is returned when an ID is empty or malformed.
	ErrInvalidID = errors.New("invalid ID")

	// ErrInvalidItemType is returned when an item is neither a bookmark nor a folder.
	ErrInvalidItemType = errors.New("invalid item type")

	// ErrEmptyURL is returned when a bookmark has no URL.
	ErrEmptyURL = errors.New("bookmark URL cannot be empty")

	// ErrFolderURL is returned when a folder carries a URL.
	ErrFolderURL = errors.New("folder cannot have a URL")

	// ErrInvalidAIStatus is returned when an AI status is not one of the known values.
	ErrInvalidAIStatus = errors.New("invalid AI status")

	// ErrCycle is returned when a parent assignment would make an item its own ancestor.
	ErrCycle = errors.New("parent assignment would create a cycle")

	// ErrInvalidProvider is returned when an AI provider is not supported.
	ErrInvalidProvider = errors.New("unsupported AI provider")

	// ErrInvalidDepth is returned when an analysis depth is not supported.
	ErrInvalidDepth = errors.New("invalid analysis depth")
)
