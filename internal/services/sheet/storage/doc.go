// Package storage defines persistence contracts for character documents and
// imported compendium content.
//
// Backends live in subpackages: sqlite serves both contracts and postgres
// serves characters only.
package storage
