package notification

import (
	"sync"
	"time"
)

// Timer is the handle of a scheduled dismissal
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f after d, like time.AfterFunc
type AfterFunc func(d time.Duration, f func()) Timer

func stdAfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Center holds at most one active notification. Showing a new one cancels
// the pending dismissal of the previous one.
type Center struct {
	mu        sync.Mutex
	current   *Notification
	timer     Timer
	seq       uint64
	duration  time.Duration
	afterFunc AfterFunc
	now       func() time.Time
}

type Option func(*Center)

// WithDuration sets the visibility window of notifications
func WithDuration(d time.Duration) Option {
	return func(c *Center) {
		c.duration = d
	}
}

// WithAfterFunc replaces the timer factory
func WithAfterFunc(f AfterFunc) Option {
	return func(c *Center) {
		c.afterFunc = f
	}
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(c *Center) {
		c.now = now
	}
}

func NewCenter(opts ...Option) *Center {
	c := &Center{
		duration:  DefaultDuration,
		afterFunc: stdAfterFunc,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Show replaces the active notification and schedules its dismissal
func (c *Center) Show(typ Type, message string) Notification {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.timer != nil {
		c.timer.Stop()
	}

	c.seq++
	seq := c.seq
	n := Notification{
		Type:     typ,
		Message:  message,
		ShownAt:  c.now(),
		Duration: c.duration,
	}
	c.current = &n
	c.timer = c.afterFunc(c.duration, func() { c.expire(seq) })
	return n
}

// expire dismisses the notification identified by seq. A timer that fires
// after being replaced finds a newer seq and does nothing.
func (c *Center) expire(seq uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.seq != seq {
		return
	}
	c.current = nil
	c.timer = nil
}

// Current returns the active notification
func (c *Center) Current() (Notification, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current == nil {
		return Notification{}, false
	}
	return *c.current, true
}

// Dismiss removes the active notification and cancels its timer
func (c *Center) Dismiss() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.timer != nil {
		c.timer.Stop()
	}
	c.seq++
	c.current = nil
	c.timer = nil
}
