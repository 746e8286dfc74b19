package wire

import (
	"encoding/json"
	"fmt"

	"github.com/sketchrelay/sketchrelay/internal/board"
)

// Message kinds carried on the synchronization channel.
const (
	TypeJoinSession  = "join_session"
	TypeLeaveSession = "leave_session"
	TypeDrawingData  = "drawing_data"
	TypeUserJoined   = "user_joined"
	TypeUserLeft     = "user_left"
	TypeCurrentUsers = "current_users"
	TypeOffer        = "offer"
	TypeAnswer       = "answer"
	TypeICECandidate = "ice_candidate"
)

// Message is the sum type of everything that travels over the channel.
// Decode produces exactly one of the concrete types below; Dispatch switches
// over them exhaustively so adding a kind is a compile-checked change.
type Message interface {
	messageType() string
}

// JoinSession is the control message a client sends after the channel opens.
type JoinSession struct {
	Type         string `json:"type"`
	WhiteboardID string `json:"whiteboard_id"`
}

// LeaveSession detaches the sender from its current whiteboard session.
type LeaveSession struct {
	Type string `json:"type"`
}

// UserInfo is the display metadata attached to presence notices.
type UserInfo struct {
	Username string `json:"username,omitempty"`
}

// DrawingData is the envelope for one drawing event. UserID and Timestamp are
// attached by the relay on fan-out and absent on the sending side.
type DrawingData struct {
	Type      string      `json:"type"`
	UserID    string      `json:"user_id,omitempty"`
	Data      board.Event `json:"data"`
	Timestamp string      `json:"timestamp,omitempty"`
}

// UserJoined announces a collaborator entering the session.
type UserJoined struct {
	Type     string   `json:"type"`
	UserID   string   `json:"user_id"`
	UserInfo UserInfo `json:"user_info,omitempty"`
}

// UserLeft announces a collaborator leaving the session.
type UserLeft struct {
	Type     string   `json:"type"`
	UserID   string   `json:"user_id"`
	UserInfo UserInfo `json:"user_info,omitempty"`
}

// UserEntry is one element of the initial roster.
type UserEntry struct {
	UserID   string   `json:"user_id"`
	UserInfo UserInfo `json:"user_info,omitempty"`
}

// CurrentUsers is the roster sent to a client right after it joins.
type CurrentUsers struct {
	Type  string      `json:"type"`
	Users []UserEntry `json:"users"`
}

// Signal is an opaque WebRTC signaling message (offer, answer, ice_candidate).
// The core never interprets the payload; Raw preserves the full message so an
// external signaling collaborator can forward it untouched.
type Signal struct {
	Type         string          `json:"type"`
	TargetUserID string          `json:"target_user_id,omitempty"`
	SourceUserID string          `json:"source_user_id,omitempty"`
	Raw          json.RawMessage `json:"-"`
}

// Unknown is any message whose type the protocol does not recognize. It is
// ignored rather than treated as an error, so peers can evolve independently.
type Unknown struct {
	Type string
}

func (m JoinSession) messageType() string  { return TypeJoinSession }
func (m LeaveSession) messageType() string { return TypeLeaveSession }
func (m DrawingData) messageType() string  { return TypeDrawingData }
func (m UserJoined) messageType() string   { return TypeUserJoined }
func (m UserLeft) messageType() string     { return TypeUserLeft }
func (m CurrentUsers) messageType() string { return TypeCurrentUsers }
func (m Signal) messageType() string       { return m.Type }
func (m Unknown) messageType() string      { return m.Type }

// NewJoinSession builds the join control message for a whiteboard.
func NewJoinSession(whiteboardID string) JoinSession {
	return JoinSession{Type: TypeJoinSession, WhiteboardID: whiteboardID}
}

// NewDrawingData wraps a drawing event for outbound transmission.
func NewDrawingData(ev board.Event) DrawingData {
	return DrawingData{Type: TypeDrawingData, Data: ev}
}

// Decode parses one wire message. Unrecognized type values decode into
// Unknown; a missing or non-string type is a decode error.
func Decode(data []byte) (Message, error) {
	var probe struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("failed to decode envelope: %w", err)
	}
	if probe.Type == "" {
		return nil, fmt.Errorf("envelope has no type field")
	}

	switch probe.Type {
	case TypeJoinSession:
		var m JoinSession
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", probe.Type, err)
		}
		return m, nil
	case TypeLeaveSession:
		return LeaveSession{Type: TypeLeaveSession}, nil
	case TypeDrawingData:
		var m DrawingData
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", probe.Type, err)
		}
		return m, nil
	case TypeUserJoined:
		var m UserJoined
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", probe.Type, err)
		}
		return m, nil
	case TypeUserLeft:
		var m UserLeft
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", probe.Type, err)
		}
		return m, nil
	case TypeCurrentUsers:
		var m CurrentUsers
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", probe.Type, err)
		}
		return m, nil
	case TypeOffer, TypeAnswer, TypeICECandidate:
		var m Signal
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", probe.Type, err)
		}
		m.Raw = append(json.RawMessage(nil), data...)
		return m, nil
	default:
		return Unknown{Type: probe.Type}, nil
	}
}

// Handler receives inbound messages relevant to a client. Join/leave control
// messages and Unknown are not part of the interface: the former only travel
// client-to-relay and the latter are dropped by Dispatch.
type Handler interface {
	HandleDrawing(DrawingData)
	HandleUserJoined(UserJoined)
	HandleUserLeft(UserLeft)
	HandleCurrentUsers(CurrentUsers)
	HandleSignal(Signal)
}

// Dispatch routes a decoded message to the handler. Unknown and
// relay-directed control messages are ignored.
func Dispatch(msg Message, h Handler) {
	switch m := msg.(type) {
	case DrawingData:
		h.HandleDrawing(m)
	case UserJoined:
		h.HandleUserJoined(m)
	case UserLeft:
		h.HandleUserLeft(m)
	case CurrentUsers:
		h.HandleCurrentUsers(m)
	case Signal:
		h.HandleSignal(m)
	case JoinSession, LeaveSession, Unknown:
		// Not addressed to clients, or not recognized. Dropped.
	}
}
