package live

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/louisbranch/duality-sheet/internal/platform/merge"
)

// FearMax is the top of the fear track.
const FearMax = 12

// Countdown is a named progress clock shown to the table.
type Countdown struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Value int    `json:"value"`
	Max   int    `json:"max"`
}

// Member is one campaign participant.
type Member struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role,omitempty"`
}

// State is the local copy of campaign live state. Characters hold raw
// character objects keyed by id so partial payloads can be merged field by
// field.
type State struct {
	CampaignID string                    `json:"campaign_id"`
	Version    int64                     `json:"version"`
	Fear       int                       `json:"fear"`
	Countdowns []Countdown               `json:"countdowns,omitempty"`
	Notes      string                    `json:"notes,omitempty"`
	Members    []Member                  `json:"members,omitempty"`
	Characters map[string]map[string]any `json:"characters,omitempty"`
}

// Clone returns a deep copy of s.
func (s State) Clone() State {
	out := s
	out.Countdowns = append([]Countdown(nil), s.Countdowns...)
	out.Members = append([]Member(nil), s.Members...)
	if s.Characters != nil {
		out.Characters = make(map[string]map[string]any, len(s.Characters))
		for id, doc := range s.Characters {
			out.Characters[id] = merge.Copy(doc)
		}
	}
	return out
}

func (s *State) normalize() {
	s.Fear = min(max(s.Fear, 0), FearMax)
	for i := range s.Countdowns {
		c := &s.Countdowns[i]
		c.Max = max(c.Max, 0)
		c.Value = min(max(c.Value, 0), c.Max)
	}
}

// Change reports what an applied message changed.
type Change struct {
	// Replaced is set when the message replaced the whole state.
	Replaced bool
	// Characters maps character id to the partial object merged into it.
	Characters map[string]map[string]any
	Removed    []string
	// Refresh asks the owner to discard state and refetch it.
	Refresh bool
	Error   string
}

// CharacterIDs returns the changed character ids in order.
func (c Change) CharacterIDs() []string {
	ids := make([]string, 0, len(c.Characters))
	for id := range c.Characters {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (c *Change) touch(id string, patch map[string]any) {
	if c.Characters == nil {
		c.Characters = map[string]map[string]any{}
	}
	c.Characters[id] = merge.Deep(c.Characters[id], patch)
}

// Apply folds msg into s and returns the new state. s is not modified.
// Unknown message types leave the state unchanged.
func Apply(s State, msg Message) (State, Change, error) {
	next := s.Clone()
	var change Change

	switch msg.Type {
	case TypeConnected, TypeStateSync:
		var incoming State
		if err := decode(msg, &incoming); err != nil {
			return s, Change{}, err
		}
		if incoming.CampaignID == "" {
			incoming.CampaignID = s.CampaignID
		}
		next = incoming
		change = replaced(s, next)

	case TypeStateUpdate:
		var patch map[string]any
		if err := decode(msg, &patch); err != nil {
			return s, Change{}, err
		}
		merged, err := mergeState(next, patch)
		if err != nil {
			return s, Change{}, err
		}
		next = merged
		if characters, ok := patch["characters"].(map[string]any); ok {
			for id, value := range characters {
				if doc, ok := value.(map[string]any); ok {
					change.touch(id, doc)
				}
			}
		}

	case TypeCharactersUpdate:
		var patches map[string]map[string]any
		if err := decode(msg, &patches); err != nil {
			return s, Change{}, err
		}
		for id, patch := range patches {
			next.mergeCharacter(id, patch)
			change.touch(id, patch)
		}

	case TypeCharacterUpdate, TypeCharacterDiffUpdate:
		var payload CharacterPayload
		if err := decode(msg, &payload); err != nil {
			return s, Change{}, err
		}
		if payload.ID == "" {
			return s, Change{}, fmt.Errorf("%s: character id is required", msg.Type)
		}
		next.mergeCharacter(payload.ID, payload.Data)
		change.touch(payload.ID, payload.Data)

	case TypeCharacterAdded:
		var payload CharacterPayload
		if err := decode(msg, &payload); err != nil {
			return s, Change{}, err
		}
		if payload.ID == "" {
			return s, Change{}, fmt.Errorf("%s: character id is required", msg.Type)
		}
		if next.Characters == nil {
			next.Characters = map[string]map[string]any{}
		}
		next.Characters[payload.ID] = merge.Copy(payload.Data)
		change.touch(payload.ID, payload.Data)

	case TypeCharacterRemoved:
		var payload CharacterPayload
		if err := decode(msg, &payload); err != nil {
			return s, Change{}, err
		}
		if _, ok := next.Characters[payload.ID]; ok {
			delete(next.Characters, payload.ID)
			change.Removed = append(change.Removed, payload.ID)
		}

	case TypeMemberUpdated:
		var payload MemberPayload
		if err := decode(msg, &payload); err != nil {
			return s, Change{}, err
		}
		for i := range next.Members {
			if next.Members[i].UserID == payload.UserID {
				next.Members[i].DisplayName = payload.DisplayName
			}
		}
		for id, doc := range next.Characters {
			if owner, _ := doc["user_id"].(string); owner == payload.UserID {
				patch := map[string]any{"owner_name": payload.DisplayName}
				next.mergeCharacter(id, patch)
				change.touch(id, patch)
			}
		}

	case TypeRefreshRequired:
		change.Refresh = true

	case TypeError:
		var payload ErrorPayload
		if err := decode(msg, &payload); err != nil {
			return s, Change{}, err
		}
		change.Error = payload.Message
	}

	if msg.Version > next.Version {
		next.Version = msg.Version
	}
	next.normalize()
	return next, change, nil
}

// replaced describes swapping prev for next wholesale.
func replaced(prev, next State) Change {
	change := Change{Replaced: true}
	for id, doc := range next.Characters {
		change.touch(id, doc)
	}
	for id := range prev.Characters {
		if _, ok := next.Characters[id]; !ok {
			change.Removed = append(change.Removed, id)
		}
	}
	sort.Strings(change.Removed)
	return change
}

func (s *State) mergeCharacter(id string, patch map[string]any) {
	if s.Characters == nil {
		s.Characters = map[string]map[string]any{}
	}
	s.Characters[id] = merge.Deep(s.Characters[id], patch)
}

func mergeState(s State, patch map[string]any) (State, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return State{}, fmt.Errorf("encode state: %w", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return State{}, fmt.Errorf("encode state: %w", err)
	}
	merged, err := json.Marshal(merge.Deep(doc, patch))
	if err != nil {
		return State{}, fmt.Errorf("merge state: %w", err)
	}
	var out State
	if err := json.Unmarshal(merged, &out); err != nil {
		return State{}, fmt.Errorf("decode merged state: %w", err)
	}
	out.CampaignID = s.CampaignID
	return out, nil
}

func decode(msg Message, v any) error {
	if len(msg.Data) == 0 {
		return fmt.Errorf("%s: missing data", msg.Type)
	}
	if err := json.Unmarshal(msg.Data, v); err != nil {
		return fmt.Errorf("%s: decode data: %w", msg.Type, err)
	}
	return nil
}
