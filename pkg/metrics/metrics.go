// Package metrics exposes routing results of a device to Prometheus.
package metrics

import (
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/robotalks/chain.go/pkg/l0/exchanger"
	"github.com/robotalks/chain.go/pkg/l0/frame"
	"github.com/robotalks/chain.go/pkg/l0/line"
)

// NewRegistry creates a registry with Go runtime and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Handler serves the registry over HTTP.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}

// Metrics implements exchanger.Observer by counting frames.
type Metrics struct {
	Frames *prometheus.CounterVec // labels: line, action
	Errors *prometheus.CounterVec // labels: line, reason
}

// New creates and registers the metrics.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Frames: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chain_frames_total",
			Help: "Frames routed by line and action.",
		}, []string{"line", "action"}),
		Errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chain_frame_errors_total",
			Help: "Frames dropped or not fully transmitted, by line and reason.",
		}, []string{"line", "reason"}),
	}
	reg.MustRegister(m.Frames, m.Errors)
	return m
}

// FrameRouted implements exchanger.Observer.
func (m *Metrics) FrameRouted(side exchanger.Side, _ *frame.Frame, action exchanger.Action) {
	m.Frames.WithLabelValues(side.String(), action.String()).Inc()
}

// FrameError implements exchanger.Observer.
func (m *Metrics) FrameError(side exchanger.Side, err error) {
	m.Errors.WithLabelValues(side.String(), Reason(err)).Inc()
}

// Reason classifies an error reported by the exchanger.
func Reason(err error) string {
	var lenErr *frame.LengthError
	var kindErr *frame.KindError
	switch {
	case errors.Is(err, frame.ErrTruncated):
		return "truncated"
	case errors.Is(err, frame.ErrChecksum):
		return "checksum"
	case errors.As(err, &kindErr):
		return "kind"
	case errors.As(err, &lenErr):
		return "length"
	case errors.Is(err, exchanger.ErrHeaderMutated):
		return "handler"
	case errors.Is(err, line.ErrOverflow):
		return "overflow"
	case errors.Is(err, line.ErrClosed):
		return "closed"
	}
	return "io"
}
