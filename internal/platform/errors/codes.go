// Package errors provides structured error handling with i18n support.
package errors

import "net/http"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Storage errors
	CodeNotFound Code = "NOT_FOUND"

	// Character errors
	CodeCharacterInvalidPatch Code = "CHARACTER_INVALID_PATCH"
	CodeCharacterEmptyName    Code = "CHARACTER_EMPTY_NAME"

	// Equipment errors
	CodeEquipLevelTooLow  Code = "EQUIP_LEVEL_TOO_LOW"
	CodeEquipItemNotFound Code = "EQUIP_ITEM_NOT_FOUND"
	CodeEquipInvalidSlot  Code = "EQUIP_INVALID_SLOT"
	CodeEquipOverBurdened Code = "EQUIP_OVER_BURDENED"

	// Compendium errors
	CodeCompendiumUnavailable Code = "COMPENDIUM_UNAVAILABLE"

	// Live-update errors
	CodeLiveDisconnected Code = "LIVE_DISCONNECTED"
)

// HTTPStatus maps domain codes to HTTP status codes.
func (c Code) HTTPStatus() int {
	switch c {
	// Validation failures, bad input
	case CodeCharacterInvalidPatch,
		CodeCharacterEmptyName,
		CodeEquipInvalidSlot:
		return http.StatusBadRequest

	// State doesn't allow the operation
	case CodeEquipLevelTooLow,
		CodeEquipOverBurdened:
		return http.StatusUnprocessableEntity

	// Resource doesn't exist
	case CodeNotFound,
		CodeEquipItemNotFound:
		return http.StatusNotFound

	// Dependency not ready
	case CodeCompendiumUnavailable,
		CodeLiveDisconnected:
		return http.StatusServiceUnavailable

	default:
		return http.StatusInternalServerError
	}
}
