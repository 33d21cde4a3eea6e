/*
Package hub relays raw inbound frames from the transport to any number of in-process consumers.

The transport publishes every text frame it reads. Each subscriber receives the frame synchronously,
in registration order, before the next publish begins. There is no queue between publisher and
subscribers, so arrival order is preserved end to end.
*/
package hub

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"livechat/internal/pkg/logx"
	"livechat/internal/pkg/metrics"
	"livechat/internal/pkg/randx"
)

// Handler consumes one raw frame.
type Handler func(text string)

// Hub is the publish/subscribe relay. Build one per application and inject it.
type Hub struct {
	// subs holds live subscriptions in registration order.
	subs []*Subscription

	// mu protects subs.
	mu sync.RWMutex

	// publishMu serializes Publish calls so one frame is fully delivered before the next.
	publishMu sync.Mutex

	metrics *metrics.Metrics

	logger zerolog.Logger
}

// Option configures a Hub.
type Option func(*Hub)

// WithMetrics records the subscriber gauge on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(h *Hub) { h.metrics = m }
}

// WithLogger replaces the component logger.
func WithLogger(l zerolog.Logger) Option {
	return func(h *Hub) { h.logger = l }
}

// New constructs an empty Hub.
func New(opts ...Option) *Hub {
	h := &Hub{logger: logx.Component("Hub")}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Subscription is the capability returned by Subscribe. Releasing it deregisters the handler.
type Subscription struct {
	// ID identifies the subscription in logs.
	ID string

	hub      *Hub
	handler  Handler
	released atomic.Bool
}

// Release deregisters the handler. It is safe to call more than once and from inside a handler.
func (s *Subscription) Release() {
	if s == nil || !s.released.CompareAndSwap(false, true) {
		return
	}
	s.hub.remove(s)
}

// Released reports whether Release has been called.
func (s *Subscription) Released() bool {
	return s.released.Load()
}

// Subscribe registers handler and returns its subscription.
func (h *Hub) Subscribe(handler Handler) *Subscription {
	s := &Subscription{
		ID:      randx.SubscriptionID(),
		hub:     h,
		handler: handler,
	}

	h.mu.Lock()
	h.subs = append(h.subs, s)
	count := len(h.subs)
	h.mu.Unlock()

	h.metrics.SubscriberAdded()
	h.logger.Debug().Str("subscription_id", s.ID).Int("subscribers", count).Msg("Subscriber registered.")

	return s
}

func (h *Hub) remove(s *Subscription) {
	h.mu.Lock()
	for i, cur := range h.subs {
		if cur == s {
			h.subs = append(h.subs[:i:i], h.subs[i+1:]...)
			break
		}
	}
	count := len(h.subs)
	h.mu.Unlock()

	h.metrics.SubscriberRemoved()
	h.logger.Debug().Str("subscription_id", s.ID).Int("subscribers", count).Msg("Subscriber released.")
}

// Publish delivers text to every current subscriber in registration order and returns once all
// of them have run. Handlers must not call Publish themselves.
func (h *Hub) Publish(text string) {
	h.publishMu.Lock()
	defer h.publishMu.Unlock()

	h.mu.RLock()
	subs := make([]*Subscription, len(h.subs))
	copy(subs, h.subs)
	h.mu.RUnlock()

	for _, s := range subs {
		if s.released.Load() {
			continue
		}
		h.deliver(s, text)
	}
}

// deliver runs one handler. A panicking handler is logged and does not stop the others.
func (h *Hub) deliver(s *Subscription, text string) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error().
				Err(fmt.Errorf("%v", r)).
				Str("subscription_id", s.ID).
				Msg("Subscriber panicked while handling frame.")
		}
	}()

	s.handler(text)
}

// Len returns the number of live subscriptions.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
