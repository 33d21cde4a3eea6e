/*
Package metrics defines the Prometheus instruments of the chat client.

All instruments are registered through promauto on the registerer passed to New, so tests can use a
private prometheus.NewRegistry(). A nil *Metrics is valid and records nothing.
*/
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "livechat"

// Discard reasons.
const (
	ReasonMalformed     = "malformed"
	ReasonUnknownKind   = "unknown_kind"
	ReasonNestedInvalid = "nested_payload_invalid"
	ReasonMissingField  = "missing_field"
)

// Send results.
const (
	ResultOK          = "ok"
	ResultFailed      = "failed"
	ResultRateLimited = "rate_limited"
)

// Metrics holds the chat client instruments.
type Metrics struct {
	framesReceived  prometheus.Counter
	framesApplied   *prometheus.CounterVec
	framesDiscarded *prometheus.CounterVec
	subscribers     prometheus.Gauge
	sends           *prometheus.CounterVec
}

// New registers the instruments on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		framesReceived: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_received_total",
			Help:      "Total number of inbound frames handed to the state store",
		}),

		framesApplied: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_applied_total",
			Help:      "Inbound frames that changed local state, by envelope kind",
		}, []string{"kind"}),

		framesDiscarded: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_discarded_total",
			Help:      "Inbound frames dropped without touching local state, by reason",
		}, []string{"reason"}),

		subscribers: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "hub_subscribers",
			Help:      "Number of live hub subscriptions",
		}),

		sends: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sends_total",
			Help:      "Outbound frames by result",
		}, []string{"result"}),
	}
}

// FrameReceived counts an inbound frame.
func (m *Metrics) FrameReceived() {
	if m == nil {
		return
	}
	m.framesReceived.Inc()
}

// FrameApplied counts a state change caused by a frame of the given kind.
func (m *Metrics) FrameApplied(kind string) {
	if m == nil {
		return
	}
	m.framesApplied.WithLabelValues(kind).Inc()
}

// FrameDiscarded counts a dropped frame.
func (m *Metrics) FrameDiscarded(reason string) {
	if m == nil {
		return
	}
	m.framesDiscarded.WithLabelValues(reason).Inc()
}

// SubscriberAdded increments the live subscription gauge.
func (m *Metrics) SubscriberAdded() {
	if m == nil {
		return
	}
	m.subscribers.Inc()
}

// SubscriberRemoved decrements the live subscription gauge.
func (m *Metrics) SubscriberRemoved() {
	if m == nil {
		return
	}
	m.subscribers.Dec()
}

// Send counts an outbound frame with its result.
func (m *Metrics) Send(result string) {
	if m == nil {
		return
	}
	m.sends.WithLabelValues(result).Inc()
}
