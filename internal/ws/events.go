package ws

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventFrameAnalyzed     EventType = "frame.analyzed"
	EventEmergencyDetected EventType = "emergency.detected"
	EventSessionStarted    EventType = "session.started"
	EventSessionCompleted  EventType = "session.completed"
)

type Event struct {
	CameraID  uuid.UUID   `json:"-"`
	Type      EventType   `json:"type"`
	Data      interface{} `json:"data"`
	Timestamp time.Time   `json:"timestamp"`
}
