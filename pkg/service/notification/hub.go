package notification

import (
	"context"
	"sync"

	"github.com/secmon-lab/casedesk/pkg/domain/types"
	"github.com/secmon-lab/casedesk/pkg/utils/async"
	"github.com/secmon-lab/casedesk/pkg/utils/logging"
)

// Sink receives a copy of published notifications
type Sink interface {
	Send(ctx context.Context, userID types.UserID, n Notification) error
}

// Hub owns one Center per user
type Hub struct {
	mu         sync.Mutex
	centers    map[types.UserID]*Center
	opts       []Option
	sinks      []Sink
	dispatcher async.Dispatcher
}

type HubOption func(*Hub)

// WithCenterOptions applies opts to every Center created by the hub
func WithCenterOptions(opts ...Option) HubOption {
	return func(h *Hub) {
		h.opts = append(h.opts, opts...)
	}
}

// WithSink adds a sink receiving every published notification
func WithSink(sink Sink) HubOption {
	return func(h *Hub) {
		h.sinks = append(h.sinks, sink)
	}
}

func NewHub(opts ...HubOption) *Hub {
	h := &Hub{
		centers: make(map[types.UserID]*Center),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// For returns the center of userID, creating it on first use
func (h *Hub) For(userID types.UserID) *Center {
	h.mu.Lock()
	defer h.mu.Unlock()

	c, ok := h.centers[userID]
	if !ok {
		c = NewCenter(h.opts...)
		h.centers[userID] = c
	}
	return c
}

// Remove dismisses the notification of userID and drops its center
func (h *Hub) Remove(userID types.UserID) {
	h.mu.Lock()
	c, ok := h.centers[userID]
	delete(h.centers, userID)
	h.mu.Unlock()

	if ok {
		c.Dismiss()
	}
}

// Publish shows the message to userID and hands it to the sinks
// asynchronously.
func (h *Hub) Publish(ctx context.Context, userID types.UserID, typ Type, message string) Notification {
	n := h.For(userID).Show(typ, message)

	logging.From(ctx).Debug("notification published",
		"user_id", userID,
		"type", typ,
		"message", message)

	for _, sink := range h.sinks {
		h.dispatcher.Dispatch(ctx, "notification_sink", func(ctx context.Context) error {
			return sink.Send(ctx, userID, n)
		})
	}
	return n
}

// Wait blocks until all sink deliveries finished
func (h *Hub) Wait() {
	h.dispatcher.Wait()
}
