package journal

import (
	"context"
	"time"
)

// Severity classifies an activity log entry.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Entry is a single record in the append-only activity log.
type Entry struct {
	Seq      int64     `json:"seq"`
	Time     time.Time `json:"time"`
	Severity Severity  `json:"severity"`
	Message  string    `json:"message"`
}

// Sink receives every appended entry for durable or external consumption.
// Sinks are best-effort: a failing sink never blocks the engine, it is
// logged and skipped.
type Sink interface {
	Append(ctx context.Context, e Entry) error
	Close() error
}
