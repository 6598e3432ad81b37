// Package protocol defines the wire format spoken over each quiz websocket:
// tagged JSON envelopes of the form {"type": "...", "payload": {...}}.
// The codec is stateless; decoding never touches session state.
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrMalformed   = errors.New("malformed frame")
	ErrUnknownType = errors.New("unknown message type")
)

// Inbound message types (client -> server).
const (
	TypeHostJoin          = "HOST_JOIN"
	TypePlayerIdentify    = "PLAYER_IDENTIFY"
	TypeStartGame         = "START_GAME"
	TypeAdminUpdateShared = "ADMIN_UPDATE_SHARED_STATE"
	TypeNextQuestion      = "NEXT_QUESTION"
	TypeSubmitAnswer      = "SUBMIT_ANSWER"
)

// Outbound message types (server -> client).
const (
	TypePlayerListUpdate  = "PLAYER_LIST_UPDATE"
	TypeSharedStateUpdate = "SHARED_STATE_UPDATE"
	TypeGameStarted       = "GAME_STARTED"
	TypeShowQuestion      = "SHOW_QUESTION"
	TypeGameEnded         = "GAME_ENDED"
	TypeIdentifySuccess   = "IDENTIFY_SUCCESS"
	TypeAnswerReceived    = "ANSWER_RECEIVED"
	TypeError             = "ERROR"
)

// Envelope is the outer frame shared by every message on the wire.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// HostJoin claims host control of a session.
type HostJoin struct {
	SessionID   string `json:"sessionId"`
	SessionCode string `json:"sessionCode"`
}

// PlayerIdentify registers (or re-attaches) a participant.
type PlayerIdentify struct {
	SessionID     string `json:"sessionId"`
	ParticipantID string `json:"participantId"`
	DisplayName   string `json:"displayName"`
}

// AdminUpdateSharedState carries the host-pushed scalar. NewState is a
// pointer so a missing or non-integer value is distinguishable from zero.
type AdminUpdateSharedState struct {
	NewState *int `json:"newState"`
}

// SubmitAnswer carries a participant's answer for the current question.
type SubmitAnswer struct {
	AnswerIndex int `json:"answerIndex"`
}

// PlayerInfo is the roster entry shape broadcast to clients.
type PlayerInfo struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Score       int    `json:"score"`
	Connected   bool   `json:"connected"`
}

// PlayerListUpdate is broadcast whenever session membership or online
// status visibly changes.
type PlayerListUpdate struct {
	Players []PlayerInfo `json:"players"`
}

// SharedStateUpdate announces the current host-controlled scalar.
type SharedStateUpdate struct {
	NewState int `json:"newState"`
}

// ShowQuestion carries one question to every connection in the session.
type ShowQuestion struct {
	Index   int      `json:"index"`
	Text    string   `json:"text"`
	Options []string `json:"options"`
}

// GameEnded tells clients why the session is over.
type GameEnded struct {
	Reason string `json:"reason"`
}

// ErrorMessage reports a rejected operation back to the offending sender.
type ErrorMessage struct {
	Message string `json:"message"`
}

// inboundTypes lists every type the server accepts from clients.
var inboundTypes = map[string]bool{
	TypeHostJoin:          true,
	TypePlayerIdentify:    true,
	TypeStartGame:         true,
	TypeAdminUpdateShared: true,
	TypeNextQuestion:      true,
	TypeSubmitAnswer:      true,
}

// Decode parses a raw inbound frame into an envelope. Non-JSON input, a
// missing type tag, and types the server does not accept all fail here so
// callers never dispatch on garbage.
func Decode(data []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if env.Type == "" {
		return nil, fmt.Errorf("%w: missing type", ErrMalformed)
	}
	if !inboundTypes[env.Type] {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, env.Type)
	}
	return &env, nil
}

// DecodePayload unmarshals an envelope payload into the typed struct for
// its message type. An absent payload decodes as the zero value.
func DecodePayload(env *Envelope, v any) error {
	if len(env.Payload) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Payload, v); err != nil {
		return fmt.Errorf("%w: bad %s payload: %v", ErrMalformed, env.Type, err)
	}
	return nil
}

// Encode serializes one outbound message. Broadcast callers encode once and
// reuse the bytes for every recipient.
func Encode(msgType string, payload any) ([]byte, error) {
	var raw json.RawMessage
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal %s payload: %w", msgType, err)
		}
		raw = data
	} else {
		raw = json.RawMessage(`{}`)
	}

	data, err := json.Marshal(Envelope{Type: msgType, Payload: raw})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s envelope: %w", msgType, err)
	}
	return data, nil
}
