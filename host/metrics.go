package host

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/wippyai/smartmodule"
	"github.com/wippyai/smartmodule/errors"
)

const metricsNamespace = "smartmodule"

// Invocation results used as the "result" label.
const (
	ResultOK            = "ok"
	ResultRuntimeError  = "runtime_error"
	ResultProtocolError = "protocol_error"
	ResultTrap          = "trap"
	ResultHostError     = "host_error"
)

// Metrics holds the host's prometheus collectors.
type Metrics struct {
	Invocations    *prometheus.CounterVec
	RecordsIn      *prometheus.CounterVec
	RecordsOut     *prometheus.CounterVec
	ProtocolErrors *prometheus.CounterVec
	Duration       *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them with reg. A nil reg
// leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		Invocations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "invocations_total",
				Help:      "Guest invocations by kind and result.",
			},
			[]string{"kind", "result"},
		),
		RecordsIn: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "records_in_total",
				Help:      "Records passed to guests.",
			},
			[]string{"kind"},
		),
		RecordsOut: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "records_out_total",
				Help:      "Records returned by guests.",
			},
			[]string{"kind"},
		),
		ProtocolErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "protocol_errors_total",
				Help:      "Protocol sentinels returned by guests.",
			},
			[]string{"kind", "sentinel"},
		),
		Duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Name:      "invocation_duration_seconds",
				Help:      "Guest invocation latency.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"kind"},
		),
	}

	if reg == nil {
		return m, nil
	}
	for _, c := range []prometheus.Collector{m.Invocations, m.RecordsIn, m.RecordsOut, m.ProtocolErrors, m.Duration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) observe(kind smartmodule.Kind, result string, in, out int, elapsed time.Duration) {
	if m == nil {
		return
	}
	k := kind.String()
	m.Invocations.WithLabelValues(k, result).Inc()
	m.RecordsIn.WithLabelValues(k).Add(float64(in))
	m.RecordsOut.WithLabelValues(k).Add(float64(out))
	m.Duration.WithLabelValues(k).Observe(elapsed.Seconds())
}

func (m *Metrics) sentinel(kind smartmodule.Kind, s errors.Internal) {
	if m == nil {
		return
	}
	m.ProtocolErrors.WithLabelValues(kind.String(), s.String()).Inc()
}
