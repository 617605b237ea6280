// Package metrics implements Prometheus metrics for frame inspection.
package metrics

import (
	"errors"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"firestige.xyz/vlantag/internal/core"
)

const namespace = "vlantag"

// Tag positions used as the "position" label.
const (
	PositionSingle = "single"
	PositionOuter  = "outer"
	PositionInner  = "inner"
)

// InspectMetrics counts decoded frames by tagging and vlan.
type InspectMetrics struct {
	// FramesTotal counts decoded frames by tagging
	FramesTotal *prometheus.CounterVec

	// VLANFramesTotal counts tagged frames by vlan id and tag position
	VLANFramesTotal *prometheus.CounterVec

	// PriorityFramesTotal counts tags by priority code point
	PriorityFramesTotal *prometheus.CounterVec

	// DecodeErrorsTotal counts frames that failed to decode
	DecodeErrorsTotal *prometheus.CounterVec

	// BytesTotal sums the captured length of decoded frames
	BytesTotal prometheus.Counter
}

// NewInspectMetrics registers inspect metrics with reg.
func NewInspectMetrics(reg prometheus.Registerer) *InspectMetrics {
	factory := promauto.With(reg)
	return &InspectMetrics{
		FramesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "frames_total",
				Help:      "Total number of decoded frames",
			},
			[]string{"tagging"},
		),
		VLANFramesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "vlan_frames_total",
				Help:      "Total number of tagged frames per vlan",
			},
			[]string{"vid", "position"},
		),
		PriorityFramesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "priority_frames_total",
				Help:      "Total number of vlan tags per priority code point",
			},
			[]string{"pcp"},
		),
		DecodeErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "decode_errors_total",
				Help:      "Total number of frames that failed to decode",
			},
			[]string{"reason"},
		),
		BytesTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "bytes_total",
				Help:      "Total captured bytes of decoded frames",
			},
		),
	}
}

// Observe records a decoded frame.
func (m *InspectMetrics) Observe(p core.DecodedPacket) {
	m.FramesTotal.WithLabelValues(p.Ethernet.Tagging().String()).Inc()
	m.BytesTotal.Add(float64(p.CaptureLen))

	switch v := p.Ethernet.VLAN.(type) {
	case core.SingleVLANHeader:
		m.observeTag(v, PositionSingle)
	case core.DoubleVLANHeader:
		m.observeTag(v.Outer, PositionOuter)
		m.observeTag(v.Inner, PositionInner)
	}
}

func (m *InspectMetrics) observeTag(h core.SingleVLANHeader, position string) {
	m.VLANFramesTotal.WithLabelValues(strconv.Itoa(int(h.VLANIdentifier)), position).Inc()
	m.PriorityFramesTotal.WithLabelValues(strconv.Itoa(int(h.PriorityCodePoint))).Inc()
}

// ObserveError records a decode failure.
func (m *InspectMetrics) ObserveError(err error) {
	m.DecodeErrorsTotal.WithLabelValues(errorReason(err)).Inc()
}

func errorReason(err error) string {
	if errors.Is(err, core.ErrPacketTooShort) {
		return "too_short"
	}
	return "other"
}

// WriteTextfile writes the gathered metrics in text exposition format, as
// read by the node exporter textfile collector.
func WriteTextfile(g prometheus.Gatherer, path string) error {
	return prometheus.WriteToTextfile(path, g)
}
