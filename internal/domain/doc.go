// Package domain contains the core entities of the bookmark manager: saved
// pages and folders, their AI enrichment state, the smart category registry
// and the user's AI and analysis preferences. It is independent of any
// storage or delivery mechanism.
package domain
