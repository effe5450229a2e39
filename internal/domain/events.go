package domain

import (
	"time"

	"github.com/google/uuid"
)

// EventKind clasifica las líneas del run log.
type EventKind string

const (
	EventScan       EventKind = "scan"
	EventTrade      EventKind = "trade"
	EventExit       EventKind = "exit"
	EventExitFailed EventKind = "exit_failed"
	EventRejection  EventKind = "rejection"
	EventMomentum   EventKind = "momentum"
	EventTiers      EventKind = "tiers"
)

// LogEvent es una línea del run log append-only.
type LogEvent struct {
	ID      string    `json:"id"`
	Time    time.Time `json:"ts"`
	Kind    EventKind `json:"kind"`
	Payload any       `json:"payload"`
}

// NewLogEvent crea un evento con ID único.
func NewLogEvent(kind EventKind, payload any, now time.Time) LogEvent {
	return LogEvent{
		ID:      uuid.NewString(),
		Time:    now.UTC(),
		Kind:    kind,
		Payload: payload,
	}
}
