// File: internal/pipeline/runlog.go
package pipeline

import (
	"fmt"
	"sync"
	"time"
)

// Entry is one timestamped line of the run log.
type Entry struct {
	Time    time.Time
	Message string
}

// RunLog is the append-only ordered log of a run. It is the record the
// presentation layer renders live; Clear only ever happens on reset.
type RunLog struct {
	mu      sync.Mutex
	entries []Entry
	now     func() time.Time
}

// NewRunLog creates an empty run log.
func NewRunLog() *RunLog {
	return &RunLog{now: time.Now}
}

// Append adds a timestamped message to the log.
func (l *RunLog) Append(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, Entry{Time: l.now(), Message: msg})
}

// Appendf adds a formatted timestamped message to the log.
func (l *RunLog) Appendf(format string, args ...any) {
	l.Append(fmt.Sprintf(format, args...))
}

// Snapshot returns a copy of the log entries in order.
func (l *RunLog) Snapshot() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len returns the number of entries.
func (l *RunLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Clear drops all entries.
func (l *RunLog) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = nil
}
