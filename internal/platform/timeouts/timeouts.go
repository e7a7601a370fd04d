// Package timeouts defines shared timeout constants used across services.
package timeouts

import "time"

// ReadHeader limits how long an HTTP server waits for request headers.
const ReadHeader = 5 * time.Second

// Shutdown limits how long an HTTP server waits for in-flight requests
// during graceful shutdown.
const Shutdown = 5 * time.Second

// CompendiumFetch caps a single compendium table fetch.
const CompendiumFetch = 10 * time.Second

// StoreWrite caps one autosave persistence call.
const StoreWrite = 5 * time.Second

// LiveDial caps a single live-update connection attempt.
const LiveDial = 5 * time.Second
