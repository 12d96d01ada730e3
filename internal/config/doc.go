// Package config handles configuration loading, parsing, and validation
// from environment variables prefixed SMARTMARK_ and an optional YAML file.
// It provides type-safe access to daemon settings while keeping
// configuration details separate from business logic.
package config
