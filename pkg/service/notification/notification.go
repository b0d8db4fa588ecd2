// Package notification keeps the transient message shown to each user after
// an operation, and mirrors selected messages to external sinks.
package notification

import "time"

// DefaultDuration is how long a notification stays visible
const DefaultDuration = 5 * time.Second

type Type string

const (
	TypeSuccess Type = "success"
	TypeError   Type = "error"
	TypeWarning Type = "warning"
	TypeInfo    Type = "info"
)

// Notification is a message with a visibility window
type Notification struct {
	Type     Type          `json:"type"`
	Message  string        `json:"message"`
	ShownAt  time.Time     `json:"shown_at"`
	Duration time.Duration `json:"duration"`
}

// Progress returns the remaining visibility in percent, from 100 when shown
// down to 0 when expired.
func (x Notification) Progress(now time.Time) float64 {
	if x.Duration <= 0 {
		return 0
	}
	elapsed := now.Sub(x.ShownAt)
	switch {
	case elapsed <= 0:
		return 100
	case elapsed >= x.Duration:
		return 0
	}
	return 100 * float64(x.Duration-elapsed) / float64(x.Duration)
}

// ExpiresAt returns the time the notification is dismissed automatically
func (x Notification) ExpiresAt() time.Time {
	return x.ShownAt.Add(x.Duration)
}
