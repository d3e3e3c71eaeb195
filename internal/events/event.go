package events

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventInfo    EventType = "info"
	EventWarn    EventType = "warn"
	EventSuccess EventType = "success"
	EventError   EventType = "error"
)

// Event names the frontend listens on.
const (
	ThemeChanged      = "events:settings:theme"
	GeneralChanged    = "events:settings:general"
	ServersChanged    = "events:settings:servers"
	OperationUpdated  = "events:ollama:operation"
	// OperationsCleared carries the ids of operations that were removed.
	OperationsCleared = "events:ollama:operations-cleared"
)

// SettingsEvent carries a panel state change to every mounted frontend.
type SettingsEvent struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	Key       string    `json:"key"`
	Message   string    `json:"message,omitempty"`
	Payload   any       `json:"payload,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func New(eventType EventType, key string, payload any) SettingsEvent {
	return SettingsEvent{
		ID:        uuid.NewString(),
		Type:      eventType,
		Key:       key,
		Payload:   payload,
		Timestamp: time.Now(),
	}
}

// NewError creates an error event whose message is shown inline.
func NewError(key, message string) SettingsEvent {
	evt := New(EventError, key, nil)
	evt.Message = message
	return evt
}
