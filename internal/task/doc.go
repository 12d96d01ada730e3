// Package task runs AI enrichment in the background.
//
// Queue admits each bookmark at most once and drains admitted jobs in
// batches of at most ConcurrentLimit, pausing for a cooldown between
// batches. Each drain chain is tagged with a generation so a Reset stops
// scheduled continuations without an explicit cancellation. Pipeline is the
// job body: it extracts content, prompts the configured provider, validates
// the response and persists the result or a localized failure message.
package task
