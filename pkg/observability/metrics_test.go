package observability_test

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aretw0/vfxbridge/pkg/batch"
	"github.com/aretw0/vfxbridge/pkg/domain"
	"github.com/aretw0/vfxbridge/pkg/observability"
	"github.com/aretw0/vfxbridge/pkg/resolve"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// value returns the value of the series of name whose labels include want.
func value(t *testing.T, m *observability.Metrics, name string, want map[string]string) float64 {
	t.Helper()
	families, err := m.Registry().Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() != name {
			continue
		}
		for _, metric := range f.GetMetric() {
			if matches(metric, want) {
				if c := metric.GetCounter(); c != nil {
					return c.GetValue()
				}
				return float64(metric.GetHistogram().GetSampleCount())
			}
		}
	}
	return 0
}

func matches(metric *dto.Metric, want map[string]string) bool {
	got := map[string]string{}
	for _, l := range metric.GetLabel() {
		got[l.GetName()] = l.GetValue()
	}
	for k, v := range want {
		if got[k] != v {
			return false
		}
	}
	return true
}

func TestMetrics_Actions(t *testing.T) {
	m := observability.NewMetrics()
	m.ObserveAction("add_node", domain.OK("ok", nil), time.Millisecond)
	m.ObserveAction("add_node", domain.OK("ok", nil), time.Millisecond)
	m.ObserveAction("add_node", domain.Fail(domain.CodeValidation, "bad", nil), time.Millisecond)

	assert.Equal(t, 2.0, value(t, m, "vfxbridge_actions_total", map[string]string{"action": "add_node", "code": "ok"}))
	assert.Equal(t, 1.0, value(t, m, "vfxbridge_actions_total", map[string]string{"code": string(domain.CodeValidation)}))
	assert.Equal(t, 3.0, value(t, m, "vfxbridge_action_duration_seconds", map[string]string{"action": "add_node"}))
}

func TestMetrics_Batch(t *testing.T) {
	m := observability.NewMetrics()
	m.ObserveBatch(batch.Report{TotalOperations: 5, Succeeded: 4, Failed: 1})

	assert.Equal(t, 4.0, value(t, m, "vfxbridge_batch_operations_total", map[string]string{"outcome": "succeeded"}))
	assert.Equal(t, 1.0, value(t, m, "vfxbridge_batch_operations_total", map[string]string{"outcome": "failed"}))
}

func TestMetrics_CacheAndHandler(t *testing.T) {
	m := observability.NewMetrics()
	stats := resolve.Stats{TypeScans: 3, Clears: 1}
	m.WatchCache(func() resolve.Stats { return stats })

	assert.Equal(t, 3.0, value(t, m, "vfxbridge_resolve_type_scans_total", nil))
	stats.TypeScans = 7
	assert.Equal(t, 7.0, value(t, m, "vfxbridge_resolve_type_scans_total", nil))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	assert.Contains(t, string(body), "vfxbridge_resolve_clears_total 1")
}

func TestMetrics_Nil(t *testing.T) {
	var m *observability.Metrics
	assert.NotPanics(t, func() {
		m.ObserveAction("x", domain.OK("", nil), 0)
		m.ObserveBatch(batch.Report{})
		m.WatchCache(nil)
	})
}
