package i18n

// Codes mirror internal/platform/errors/codes.go as strings so that package
// can import this one.
const (
	CodeUnknown               = "UNKNOWN"
	CodeNotFound              = "NOT_FOUND"
	CodeCharacterInvalidPatch = "CHARACTER_INVALID_PATCH"
	CodeCharacterEmptyName    = "CHARACTER_EMPTY_NAME"
	CodeEquipLevelTooLow      = "EQUIP_LEVEL_TOO_LOW"
	CodeEquipItemNotFound     = "EQUIP_ITEM_NOT_FOUND"
	CodeEquipInvalidSlot      = "EQUIP_INVALID_SLOT"
	CodeEquipOverBurdened     = "EQUIP_OVER_BURDENED"
	CodeCompendiumUnavailable = "COMPENDIUM_UNAVAILABLE"
	CodeLiveDisconnected      = "LIVE_DISCONNECTED"
)

// KnownCodes lists every code each locale must carry a template for.
var KnownCodes = []Code{
	CodeUnknown,
	CodeNotFound,
	CodeCharacterInvalidPatch,
	CodeCharacterEmptyName,
	CodeEquipLevelTooLow,
	CodeEquipItemNotFound,
	CodeEquipInvalidSlot,
	CodeEquipOverBurdened,
	CodeCompendiumUnavailable,
	CodeLiveDisconnected,
}
