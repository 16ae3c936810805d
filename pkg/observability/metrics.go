package observability

import (
	"net/http"
	"time"

	"github.com/aretw0/vfxbridge/pkg/batch"
	"github.com/aretw0/vfxbridge/pkg/domain"
	"github.com/aretw0/vfxbridge/pkg/resolve"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "vfxbridge"

// Metrics records action, batch and resolution cache activity.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	reg      *prometheus.Registry
	actions  *prometheus.CounterVec
	duration *prometheus.HistogramVec
	batchOps *prometheus.CounterVec
}

// NewMetrics creates the collectors on a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		actions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "actions_total",
				Help:      "Actions executed, by action and result code.",
			},
			[]string{"action", "code"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "action_duration_seconds",
				Help:      "Duration of action executions.",
				Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 8),
			},
			[]string{"action"},
		),
		batchOps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "batch_operations_total",
				Help:      "Batch operations applied, by outcome.",
			},
			[]string{"outcome"},
		),
	}
	m.reg.MustRegister(m.actions, m.duration, m.batchOps)
	return m
}

// Registry returns the registry holding the collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.reg
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}

// ObserveAction records one executed action.
func (m *Metrics) ObserveAction(action string, res domain.Result, d time.Duration) {
	if m == nil {
		return
	}
	code := "ok"
	if !res.Success {
		code = string(res.ErrorCode)
	}
	m.actions.WithLabelValues(action, code).Inc()
	m.duration.WithLabelValues(action).Observe(d.Seconds())
}

// ObserveBatch records the per-operation outcomes of a batch.
func (m *Metrics) ObserveBatch(rep batch.Report) {
	if m == nil {
		return
	}
	m.batchOps.WithLabelValues("succeeded").Add(float64(rep.Succeeded))
	m.batchOps.WithLabelValues("failed").Add(float64(rep.Failed))
}

// WatchCache exports the counters of a resolution cache. stats is read on
// every scrape.
func (m *Metrics) WatchCache(stats func() resolve.Stats) {
	if m == nil {
		return
	}
	counter := func(name, help string, read func(resolve.Stats) int) prometheus.Collector {
		return prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "resolve",
			Name:      name,
			Help:      help,
		}, func() float64 { return float64(read(stats())) })
	}
	m.reg.MustRegister(
		counter("type_scans_total", "Full module scans for a type.", func(s resolve.Stats) int { return s.TypeScans }),
		counter("type_hits_total", "Type lookups served from the cache.", func(s resolve.Stats) int { return s.TypeHits }),
		counter("method_lookups_total", "Method lookups.", func(s resolve.Stats) int { return s.MethodLookups }),
		counter("method_hits_total", "Method lookups served from the cache.", func(s resolve.Stats) int { return s.MethodHits }),
		counter("member_lookups_total", "Property and field lookups.", func(s resolve.Stats) int { return s.MemberLookups }),
		counter("member_hits_total", "Property and field lookups served from the cache.", func(s resolve.Stats) int { return s.MemberHits }),
		counter("clears_total", "Times the cache was cleared.", func(s resolve.Stats) int { return s.Clears }),
	)
}
