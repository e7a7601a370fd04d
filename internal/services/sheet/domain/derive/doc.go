// Package derive computes the Daggerheart character sheet from a persisted
// character document and a compendium snapshot, and repairs documents that
// drift into invalid states.
//
// Derivation runs in explicit phases:
//
//  1. reference resolution (ids to compendium entries, vault and loadout)
//  2. modifier aggregation, gated by conditions over the previous cycle
//  3. stat derivation (traits, proficiency, then every other stat)
//  4. equipment derivation (needs traits and proficiency)
//  5. damage thresholds (need the active armor)
//  6. self-healing rules over the document
//
// Engine repeats the phases until neither the document nor the sheet
// changes. Nothing in this package returns an error from derivation: an
// unresolved id is absent, an unknown condition passes, and an unknown
// modifier type contributes nothing.
package derive
