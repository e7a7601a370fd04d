// Package compendium holds the read-only rules content consumed by the
// derivation engine.
//
// Content is grouped into tables by Kind. A Store fetches each table once
// from a Source, retrying transient failures with backoff, and publishes
// immutable Snapshots. A table that has not loaded yet behaves exactly like
// an empty table: every lookup reports not found.
package compendium
