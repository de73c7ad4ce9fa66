// Package observability provides the event model used by state containers,
// transactions and registries to report what happened to them. Level values
// follow OpenTelemetry SeverityNumbers so events can be forwarded to OTel
// collectors without translation.
package observability

import (
	"context"
	"log/slog"
	"time"
)

// Level represents event severity aligned with OTel SeverityNumber ranges.
type Level int

const (
	LevelVerbose Level = 5  // OTel DEBUG (5-8), maps to slog.LevelDebug
	LevelInfo    Level = 9  // OTel INFO (9-12), maps to slog.LevelInfo
	LevelWarning Level = 13 // OTel WARN (13-16), maps to slog.LevelWarn
	LevelError   Level = 17 // OTel ERROR (17-20), maps to slog.LevelError
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

// SlogLevel maps the level onto the closest slog.Level.
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

// EventType names an event. Packages declare their own constants of this
// type, e.g. "state.set" or "registry.register".
type EventType string

// Event is a single observation. Type becomes the OTel EventName, Level the
// SeverityNumber, Source the InstrumentationScope and Data the Attributes.
//
// Data carries identifiers and counters only. State values are never placed
// in events so that observers cannot leak them.
type Event struct {
	Type      EventType
	Level     Level
	Timestamp time.Time
	Source    string
	Data      map[string]any
}

// Observer receives events for logging, tracing or metrics.
//
// OnEvent is called synchronously from the goroutine that caused the event,
// after any container lock has been released. Implementations must be safe
// for concurrent use.
type Observer interface {
	OnEvent(ctx context.Context, event Event)
}
