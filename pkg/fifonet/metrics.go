package fifonet

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/haivivi/gfifo/pkg/fifo"
)

// Metrics holds the Prometheus collectors of a Server.
type Metrics struct {
	Operations   *prometheus.CounterVec
	BytesRead    prometheus.Counter
	BytesWritten prometheus.Counter
	Events       *prometheus.CounterVec
	Sessions     prometheus.Gauge
}

// NewMetrics creates the server collectors plus occupancy and capacity
// gauges that sample f on scrape, and registers them on reg.
func NewMetrics(reg prometheus.Registerer, f *fifo.FIFO) (*Metrics, error) {
	m := &Metrics{
		Operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "gfifo",
				Subsystem: "server",
				Name:      "operations_total",
				Help:      "Total number of requests handled, by operation and result code",
			},
			[]string{"op", "code"},
		),
		BytesRead: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "gfifo",
				Subsystem: "server",
				Name:      "read_bytes_total",
				Help:      "Total number of bytes read by remote sessions",
			},
		),
		BytesWritten: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "gfifo",
				Subsystem: "server",
				Name:      "written_bytes_total",
				Help:      "Total number of bytes written by remote sessions",
			},
		),
		Events: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "gfifo",
				Subsystem: "server",
				Name:      "events_delivered_total",
				Help:      "Total number of readiness events pushed to remote sessions",
			},
			[]string{"event"},
		),
		Sessions: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "gfifo",
				Subsystem: "server",
				Name:      "sessions",
				Help:      "Number of connected sessions",
			},
		),
	}

	occupancy := prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: "gfifo",
			Subsystem: "buffer",
			Name:      "occupied_bytes",
			Help:      "Number of bytes currently buffered",
		},
		func() float64 { return float64(f.Len()) },
	)
	capacity := prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: "gfifo",
			Subsystem: "buffer",
			Name:      "capacity_bytes",
			Help:      "Fixed buffer capacity",
		},
		func() float64 { return float64(f.Cap()) },
	)

	for _, c := range []prometheus.Collector{
		m.Operations, m.BytesRead, m.BytesWritten, m.Events, m.Sessions, occupancy, capacity,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) observe(op Op, code Code) {
	if m == nil {
		return
	}
	m.Operations.WithLabelValues(string(op), string(code)).Inc()
}

func (m *Metrics) read(n int) {
	if m == nil {
		return
	}
	m.BytesRead.Add(float64(n))
}

func (m *Metrics) written(n int) {
	if m == nil {
		return
	}
	m.BytesWritten.Add(float64(n))
}

func (m *Metrics) event(ev fifo.Event) {
	if m == nil {
		return
	}
	m.Events.WithLabelValues(ev.String()).Inc()
}

func (m *Metrics) sessionOpened() {
	if m == nil {
		return
	}
	m.Sessions.Inc()
}

func (m *Metrics) sessionClosed() {
	if m == nil {
		return
	}
	m.Sessions.Dec()
}
