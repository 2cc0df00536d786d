package observability

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles the Prometheus collectors for import and model runs. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	EntitiesBuilt      *prometheus.CounterVec
	RemoteCalls        *prometheus.CounterVec
	RemoteCallDuration *prometheus.HistogramVec
	Runs               *prometheus.CounterVec
}

// NewMetrics registers the collectors on reg, or on a fresh registry when
// reg is nil.
func NewMetrics(reg *prometheus.Registry) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	entities, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "hydraimport_entities_built_total",
		Help: "Entities built from the source model, labeled by kind (node, link, group, member).",
	}, []string{"kind"}))
	if err != nil {
		return nil, err
	}
	calls, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "hydraimport_remote_calls_total",
		Help: "Persistence service calls, labeled by method and outcome.",
	}, []string{"method", "outcome"}))
	if err != nil {
		return nil, err
	}
	durations, err := registerHistogramVec(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "hydraimport_remote_call_duration_seconds",
		Help:    "Persistence service call latency in seconds.",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
	}, []string{"method"}))
	if err != nil {
		return nil, err
	}
	runs, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "hydraimport_runs_total",
		Help: "Completed runs, labeled by command and outcome.",
	}, []string{"command", "outcome"}))
	if err != nil {
		return nil, err
	}

	m := &Metrics{
		registry:           reg,
		EntitiesBuilt:      entities,
		RemoteCalls:        calls,
		RemoteCallDuration: durations,
		Runs:               runs,
	}
	return m, nil
}

// Registry returns the registry the collectors live on
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// EntityBuilt counts one built entity of the given kind
func (m *Metrics) EntityBuilt(kind string) {
	if m == nil {
		return
	}
	m.EntitiesBuilt.WithLabelValues(kind).Inc()
}

// ObserveCall records the outcome and latency of one remote call
func (m *Metrics) ObserveCall(method string, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	m.RemoteCalls.WithLabelValues(method, outcome(err)).Inc()
	m.RemoteCallDuration.WithLabelValues(method).Observe(elapsed.Seconds())
}

// RunFinished counts a finished command
func (m *Metrics) RunFinished(command string, err error) {
	if m == nil {
		return
	}
	m.Runs.WithLabelValues(command, outcome(err)).Inc()
}

// WriteTextfile writes all metrics in the text exposition format, for the
// node exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func registerCounterVec(reg prometheus.Registerer, c *prometheus.CounterVec) (*prometheus.CounterVec, error) {
	if err := reg.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
		}
		return nil, fmt.Errorf("register counter: %w", err)
	}
	return c, nil
}

func registerHistogramVec(reg prometheus.Registerer, h *prometheus.HistogramVec) (*prometheus.HistogramVec, error) {
	if err := reg.Register(h); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(*prometheus.HistogramVec); ok {
				return existing, nil
			}
		}
		return nil, fmt.Errorf("register histogram: %w", err)
	}
	return h, nil
}
