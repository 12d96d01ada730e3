// Package ciutil detects the execution environment and reads the environment
// variables that point tests at external services.
//
// Integration tests skip when their service is not configured. Under CI a
// missing service is a configuration mistake, so the helpers here let tests
// fail loudly instead of passing silently.
package ciutil
