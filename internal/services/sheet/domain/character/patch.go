package character

import (
	"encoding/json"
	"fmt"

	apperrors "github.com/louisbranch/duality-sheet/internal/platform/errors"
	"github.com/louisbranch/duality-sheet/internal/platform/merge"
)

// ErrInvalidPatch indicates a partial document could not be applied.
var ErrInvalidPatch = apperrors.New(apperrors.CodeCharacterInvalidPatch, "character patch is invalid")

// ToMap encodes the document into its JSON object form.
func (c Character) ToMap() (map[string]any, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("marshal character: %w", err)
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("unmarshal character map: %w", err)
	}
	return out, nil
}

// FromMap decodes a JSON object form into a document.
func FromMap(doc map[string]any) (Character, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return Character{}, fmt.Errorf("marshal character map: %w", err)
	}
	var out Character
	if err := json.Unmarshal(data, &out); err != nil {
		return Character{}, apperrors.Wrap(apperrors.CodeCharacterInvalidPatch, "decode character", err)
	}
	return out, nil
}

// ApplyPatch deep-merges a partial document into c and returns the result.
//
// Nested objects merge field by field while arrays and scalars replace. The
// document id cannot be changed through a patch.
func ApplyPatch(c Character, patch map[string]any) (Character, error) {
	if len(patch) == 0 {
		return c.Clone(), nil
	}
	doc, err := c.ToMap()
	if err != nil {
		return Character{}, err
	}
	merged, err := FromMap(merge.Deep(doc, patch))
	if err != nil {
		return Character{}, err
	}
	merged.ID = c.ID
	return merged, nil
}
