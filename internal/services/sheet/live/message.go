// Package live keeps a local copy of campaign state in sync with the
// campaign live-update channel.
//
// Inbound messages are folded into a State by Apply, a pure function. Client
// owns the websocket connection, reconnects on unexpected drops with a fixed
// delay schedule and reports character changes to a Handler so sheet
// sessions can apply them through their own mutation path.
package live

import "encoding/json"

// MessageType names a live channel message.
type MessageType string

// Inbound message types.
const (
	TypeConnected           MessageType = "connected"
	TypeStateSync           MessageType = "state_sync"
	TypeStateUpdate         MessageType = "state_update"
	TypeCharactersUpdate    MessageType = "characters_update"
	TypeCharacterUpdate     MessageType = "character_update"
	TypeCharacterAdded      MessageType = "character_added"
	TypeCharacterRemoved    MessageType = "character_removed"
	TypeCharacterDiffUpdate MessageType = "character_diff_update"
	TypeMemberUpdated       MessageType = "member_updated"
	TypeRefreshRequired     MessageType = "refresh_required"
	TypeError               MessageType = "error"
)

// Outbound message types.
const (
	TypeRejoin      MessageType = "rejoin"
	TypeUpdateState MessageType = "update_state"
)

// Message is the envelope for every frame on the channel.
type Message struct {
	Type    MessageType     `json:"type"`
	Version int64           `json:"version,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// CharacterPayload carries one character object or partial object.
type CharacterPayload struct {
	ID   string         `json:"id"`
	Data map[string]any `json:"data,omitempty"`
}

// MemberPayload announces a member display-name change.
type MemberPayload struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
}

// ErrorPayload is sent by the server with TypeError.
type ErrorPayload struct {
	Message string `json:"message"`
}

// RejoinPayload asks the server to resync from Version.
type RejoinPayload struct {
	CampaignID string `json:"campaign_id"`
	Version    int64  `json:"version"`
}

// NewMessage encodes data into a Message of type t.
func NewMessage(t MessageType, data any) (Message, error) {
	msg := Message{Type: t}
	if data == nil {
		return msg, nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return Message{}, err
	}
	msg.Data = raw
	return msg, nil
}
