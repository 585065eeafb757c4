package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"
)

func gatherOne(t *testing.T, reg *prometheus.Registry, name string) *dto.Metric {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() == name {
			require.Len(t, f.Metric, 1)
			return f.Metric[0]
		}
	}
	t.Fatalf("metric %s not found", name)
	return nil
}

func TestPrometheusProvider_CounterAccumulates(t *testing.T) {
	reg := prometheus.NewRegistry()
	p := NewPrometheusProvider(reg)

	c1 := p.Counter("tasks_total")
	c2 := p.Counter("tasks_total")
	c1.Add(2)
	c2.Add(3)

	m := gatherOne(t, reg, "tasks_total")
	require.Equal(t, 5.0, m.GetCounter().GetValue())
}

func TestPrometheusProvider_UpDownCounterMoves(t *testing.T) {
	reg := prometheus.NewRegistry()
	p := NewPrometheusProvider(reg)

	g := p.UpDownCounter("live_workers")
	g.Add(4)
	g.Add(-1)

	m := gatherOne(t, reg, "live_workers")
	require.Equal(t, 3.0, m.GetGauge().GetValue())
}

func TestPrometheusProvider_HistogramRecords(t *testing.T) {
	reg := prometheus.NewRegistry()
	p := NewPrometheusProvider(reg)

	h := p.Histogram("duration_seconds")
	h.Record(0.5)
	h.Record(1.5)

	m := gatherOne(t, reg, "duration_seconds")
	require.EqualValues(t, 2, m.GetHistogram().GetSampleCount())
	require.InDelta(t, 2.0, m.GetHistogram().GetSampleSum(), 0.0001)
}

func TestSanitizeName(t *testing.T) {
	require.Equal(t, "branch_queue_depth", sanitizeName("branch_queue_depth"))
	require.Equal(t, "branch_queue_depth_ms_", sanitizeName("branch.queue-depth(ms)"))
}
