// Package character defines the persisted Daggerheart character document and
// the modifier vocabulary attached to compendium features.
//
// The document is the canonical source for every derived statistic: the
// derive package recomputes the sheet from it and repairs it in place when it
// drifts into an invalid state. Everything here is plain data with JSON tags
// so the same shapes travel through storage, the live-update channel, and the
// HTTP API without translation layers.
//
// Id-shaped fields use the empty string as "unset".
package character
