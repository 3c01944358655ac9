package ws

import (
	"github.com/nav-telemetry/backend/internal/session"
	"github.com/nav-telemetry/backend/internal/telemetry"
)

type MessageType string

const (
	MsgSnapshot MessageType = "snapshot"
	MsgEvents   MessageType = "events"
	MsgError    MessageType = "error"
)

type WSMessage struct {
	Type    MessageType `json:"type"`
	Seq     uint64      `json:"seq"`
	Payload interface{} `json:"payload"`
}

// EventPayload wraps one telemetry event with its wire name so clients can
// dispatch without inspecting the body.
type EventPayload struct {
	Name  string      `json:"name"`
	Event interface{} `json:"event"`
}

type EventsPayload struct {
	Events []EventPayload `json:"events"`
}

type SnapshotPayload struct {
	Session session.Session  `json:"session"`
	Stats   *telemetry.Stats `json:"stats,omitempty"`
	Recent  []EventPayload   `json:"recent"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}
