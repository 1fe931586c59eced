// Package observability carries structured events out of the conversation
// core: context sweeps, pending-reply transitions, routing decisions and
// utterance handling. Level values align with OpenTelemetry SeverityNumbers
// so events can be forwarded to an OTel collector without translation.
package observability

import (
	"context"
	"log/slog"
	"time"
)

// Level represents event severity aligned with OTel SeverityNumber ranges.
type Level int

const (
	LevelVerbose Level = 5  // OTel DEBUG (5-8)
	LevelInfo    Level = 9  // OTel INFO (9-12)
	LevelWarning Level = 13 // OTel WARN (13-16)
	LevelError   Level = 17 // OTel ERROR (17-20)
)

// String returns the OTel severity text for the level.
func (l Level) String() string {
	switch {
	case l <= 4:
		return "TRACE"
	case l <= 8:
		return "DEBUG"
	case l <= 12:
		return "INFO"
	case l <= 16:
		return "WARN"
	case l <= 20:
		return "ERROR"
	default:
		return "FATAL"
	}
}

// SlogLevel maps this level to the corresponding slog.Level.
func (l Level) SlogLevel() slog.Level {
	switch {
	case l <= 8:
		return slog.LevelDebug
	case l <= 12:
		return slog.LevelInfo
	case l <= 16:
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}

// EventType identifies the kind of event. Each package defines its own
// constants, e.g. "dialogue.reply.accepted" or "router.fallback".
type EventType string

// Event is a single observation. Fields map to OTel LogRecord fields:
// Type to EventName, Level to SeverityNumber, Source to
// InstrumentationScope, Data to Attributes.
type Event struct {
	Type      EventType
	Level     Level
	Timestamp time.Time
	Source    string
	Data      map[string]any
}

// Observer receives events. Implementations must be safe for concurrent
// use; the reply coordinator and router emit from request goroutines.
type Observer interface {
	OnEvent(ctx context.Context, event Event)
}

// Emit stamps a zero Timestamp with the current time and delivers the event.
// A nil observer drops it.
func Emit(ctx context.Context, o Observer, event Event) {
	if o == nil {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	o.OnEvent(ctx, event)
}
