// Package sqlite provides the SQLite-backed sheet storage implementation.
//
// Character documents are stored as JSON text next to a few indexed summary
// columns. Compendium content is stored one encoded row per entry.
package sqlite
