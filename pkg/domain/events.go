package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventTurnStart    EventType = "turn_start"
	EventTurnComplete EventType = "turn_complete"
	EventTurnFailed   EventType = "turn_failed"
	EventClear        EventType = "clear"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id"`
}

// TurnEvent describes one step of a turn. It never carries the credential.
type TurnEvent struct {
	EventBase
	Model string `json:"model"`
	// Messages is the transcript length after the event was applied.
	Messages int `json:"messages"`
	// Source names the credential source that won resolution (e.g. "secrets").
	Source   string        `json:"source,omitempty"`
	Usage    *Usage        `json:"usage,omitempty"`
	Duration time.Duration `json:"duration,omitempty"`
	Err      error         `json:"-"`
}

// LifecycleHooks defines callbacks for observability.
type LifecycleHooks struct {
	OnTurnStart    func(context.Context, *TurnEvent)
	OnTurnComplete func(context.Context, *TurnEvent)
	OnTurnFailed   func(context.Context, *TurnEvent)
	OnClear        func(context.Context, *TurnEvent)
}

// Merge returns hooks that call h first and then other.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnTurnStart:    chain(h.OnTurnStart, other.OnTurnStart),
		OnTurnComplete: chain(h.OnTurnComplete, other.OnTurnComplete),
		OnTurnFailed:   chain(h.OnTurnFailed, other.OnTurnFailed),
		OnClear:        chain(h.OnClear, other.OnClear),
	}
}

func chain(a, b func(context.Context, *TurnEvent)) func(context.Context, *TurnEvent) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e *TurnEvent) {
		a(ctx, e)
		b(ctx, e)
	}
}
