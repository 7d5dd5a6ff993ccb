// Package security implements the edge security core: the bounded security
// event log, the fixed-window rate limiter, the auth/CSRF token manager and
// the in-memory session store. All state is process-local and guarded for
// concurrent request handlers.
package security

import (
	"sync"
	"time"
)

// Severity classifies a security event for audit triage.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Event kinds emitted by the middleware and the auth boundary.
const (
	EventCORSViolation     = "cors_violation"
	EventRateLimitExceeded = "rate_limit_exceeded"
	EventUnauthorized      = "unauthorized_access"
	EventRequestSuccess    = "request_success"
	EventMiddlewareError   = "middleware_error"
	EventLoginSuccess      = "login_success"
	EventLoginFailed       = "login_failed"
	EventLogout            = "logout"
	EventCSRFNoSession     = "csrf_no_session"
	EventCSRFInvalidToken  = "csrf_invalid_token"
	EventCSRFMismatch      = "csrf_session_mismatch"
	EventCSRFRejected      = "csrf_rejected"
)

// Event is one audited occurrence. Events are immutable once recorded.
type Event struct {
	Time     time.Time      `json:"time"`
	Kind     string         `json:"kind"`
	Severity Severity       `json:"severity"`
	Detail   map[string]any `json:"detail,omitempty"`
}

// EventLog is an append-only, bounded in-memory log. When capacity is
// exceeded the oldest entries are evicted first; Record never fails.
type EventLog struct {
	mu     sync.Mutex
	events []Event
	cap    int
}

// DefaultEventLogCapacity bounds the in-memory audit trail.
const DefaultEventLogCapacity = 1000

// NewEventLog returns an EventLog holding at most capacity entries.
// A non-positive capacity falls back to the default.
func NewEventLog(capacity int) *EventLog {
	if capacity <= 0 {
		capacity = DefaultEventLogCapacity
	}
	return &EventLog{cap: capacity}
}

// Record appends an event, evicting the oldest entry when full.
func (l *EventLog) Record(kind string, severity Severity, detail map[string]any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.events) >= l.cap {
		overflow := len(l.events) - l.cap + 1
		l.events = l.events[overflow:]
	}
	l.events = append(l.events, Event{
		Time:     time.Now(),
		Kind:     kind,
		Severity: severity,
		Detail:   detail,
	})
}

// Events returns a snapshot of the log, oldest first.
func (l *EventLog) Events() []Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Event, len(l.events))
	copy(out, l.events)
	return out
}

// Len reports the current number of retained events.
func (l *EventLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.events)
}
