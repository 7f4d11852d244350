// Package alert delivers emergency notifications to registered webhook
// endpoints. Deliveries that fail are queued in postgres and retried by a
// background worker with exponential backoff.
package alert

import (
	"time"

	"github.com/google/uuid"
)

// Event types published to webhooks.
const (
	EventEmergencyDetected = "emergency.detected"
	EventSessionCompleted  = "session.completed"
)

// Webhook is one registered delivery endpoint. CameraID nil means the
// endpoint receives events from every camera.
type Webhook struct {
	ID              uuid.UUID  `json:"id"`
	CameraID        *uuid.UUID `json:"camera_id,omitempty"`
	Name            string     `json:"name"`
	URL             string     `json:"url"`
	Secret          string     `json:"-"`
	Events          []string   `json:"events"`
	Enabled         bool       `json:"enabled"`
	LastTriggeredAt *time.Time `json:"last_triggered_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// Job is one queued delivery attempt.
type Job struct {
	ID          uuid.UUID  `json:"id"`
	WebhookID   uuid.UUID  `json:"webhook_id"`
	EventType   string     `json:"event_type"`
	Payload     []byte     `json:"payload"`
	Attempts    int        `json:"attempts"`
	MaxAttempts int        `json:"max_attempts"`
	NextRetryAt *time.Time `json:"next_retry_at,omitempty"`
	Status      string     `json:"status"`
	LastError   string     `json:"last_error,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// EventPayload is the envelope posted to webhook endpoints.
type EventPayload struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data"`
	CameraID  uuid.UUID   `json:"camera_id"`
	SessionID uuid.UUID   `json:"session_id"`
	Timestamp time.Time   `json:"timestamp"`
}
