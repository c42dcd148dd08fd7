package journal

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// DefaultCapacity bounds the in-memory log when no capacity is given.
const DefaultCapacity = 100

// Log is the in-memory activity log. It keeps the most recent entries up
// to a fixed capacity and fans every append out to the configured sinks.
// Reads return copies; the log itself is never handed out.
type Log struct {
	mu      sync.Mutex
	cap     int
	seq     int64
	entries []Entry
	sinks   []Sink
}

// NewLog creates an activity log bounded to the given capacity.
func NewLog(capacity int) *Log {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Log{
		cap:     capacity,
		entries: make([]Entry, 0, capacity),
	}
}

// AddSink registers a sink that receives every subsequent entry.
func (l *Log) AddSink(s Sink) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sinks = append(l.sinks, s)
}

// Append records an entry and returns it. Oldest entries are dropped once
// capacity is exceeded; sink failures are logged and ignored.
func (l *Log) Append(severity Severity, message string) Entry {
	l.mu.Lock()
	l.seq++
	e := Entry{
		Seq:      l.seq,
		Time:     time.Now(),
		Severity: severity,
		Message:  message,
	}
	l.entries = append(l.entries, e)
	if len(l.entries) > l.cap {
		l.entries = l.entries[len(l.entries)-l.cap:]
	}
	sinks := make([]Sink, len(l.sinks))
	copy(sinks, l.sinks)
	l.mu.Unlock()

	for _, s := range sinks {
		if err := s.Append(context.Background(), e); err != nil {
			slog.Warn("journal sink append failed", "error", err)
		}
	}
	return e
}

// Recent returns up to n entries in append order, oldest first. n <= 0
// returns everything retained.
func (l *Log) Recent(n int) []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	if n <= 0 || n > len(l.entries) {
		n = len(l.entries)
	}
	out := make([]Entry, n)
	copy(out, l.entries[len(l.entries)-n:])
	return out
}

// Len returns the number of retained entries.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Reset clears the in-memory log. Sinks are not cleared: durable history
// is an audit trail owned by its backend, not by the engine.
func (l *Log) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = l.entries[:0]
	l.seq = 0
}

// Close closes all registered sinks.
func (l *Log) Close() error {
	l.mu.Lock()
	sinks := make([]Sink, len(l.sinks))
	copy(sinks, l.sinks)
	l.mu.Unlock()

	var firstErr error
	for _, s := range sinks {
		if err := s.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
