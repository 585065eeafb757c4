package metrics

import (
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusProvider adapts Provider onto github.com/prometheus/client_golang,
// for embedding applications that already expose a Prometheus /metrics
// endpoint and want branch/supervisor instrumentation to show up there
// instead of (or alongside) the in-memory BasicProvider.
//
// Instruments are created once per name and registered with reg at creation
// time; a second call for the same name returns the already-registered
// instrument, matching BasicProvider's reuse-by-name behavior.
type PrometheusProvider struct {
	reg prometheus.Registerer

	mu         sync.Mutex
	counters   map[string]prometheus.Counter
	updowns    map[string]prometheus.Gauge
	histograms map[string]prometheus.Histogram
}

// NewPrometheusProvider constructs a Provider backed by reg. Pass
// prometheus.DefaultRegisterer to publish on the default /metrics handler,
// or a dedicated *prometheus.Registry for isolated test registration.
func NewPrometheusProvider(reg prometheus.Registerer) *PrometheusProvider {
	return &PrometheusProvider{
		reg:        reg,
		counters:   make(map[string]prometheus.Counter),
		updowns:    make(map[string]prometheus.Gauge),
		histograms: make(map[string]prometheus.Histogram),
	}
}

func sanitizeName(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		default:
			return '_'
		}
	}, name)
}

func helpText(cfg InstrumentConfig, name string) string {
	if cfg.Description != "" {
		return cfg.Description
	}
	return name
}

// Counter returns a monotonic Prometheus counter for name (created once).
func (p *PrometheusProvider) Counter(name string, opts ...InstrumentOption) Counter {
	p.mu.Lock()
	defer p.mu.Unlock()

	if c, ok := p.counters[name]; ok {
		return prometheusCounter{c}
	}
	cfg := applyOptions(opts)
	c := prometheus.NewCounter(prometheus.CounterOpts{
		Name: sanitizeName(name),
		Help: helpText(cfg, name),
	})
	p.reg.MustRegister(c)
	p.counters[name] = c
	return prometheusCounter{c}
}

// UpDownCounter returns a Prometheus gauge for name (created once).
func (p *PrometheusProvider) UpDownCounter(name string, opts ...InstrumentOption) UpDownCounter {
	p.mu.Lock()
	defer p.mu.Unlock()

	if g, ok := p.updowns[name]; ok {
		return prometheusUpDown{g}
	}
	cfg := applyOptions(opts)
	g := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: sanitizeName(name),
		Help: helpText(cfg, name),
	})
	p.reg.MustRegister(g)
	p.updowns[name] = g
	return prometheusUpDown{g}
}

// Histogram returns a Prometheus histogram for name (created once).
func (p *PrometheusProvider) Histogram(name string, opts ...InstrumentOption) Histogram {
	p.mu.Lock()
	defer p.mu.Unlock()

	if h, ok := p.histograms[name]; ok {
		return prometheusHistogram{h}
	}
	cfg := applyOptions(opts)
	h := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name: sanitizeName(name),
		Help: helpText(cfg, name),
	})
	p.reg.MustRegister(h)
	p.histograms[name] = h
	return prometheusHistogram{h}
}

// prometheusUpDown adapts prometheus.Gauge.Add(float64) to the UpDownCounter
// contract's Add(int64).
type prometheusUpDown struct {
	g prometheus.Gauge
}

func (u prometheusUpDown) Add(n int64) { u.g.Add(float64(n)) }

// prometheusCounter adapts prometheus.Counter.Add(float64) to the Counter
// contract's Add(int64).
type prometheusCounter struct {
	c prometheus.Counter
}

func (c prometheusCounter) Add(n int64) { c.c.Add(float64(n)) }

// prometheusHistogram adapts prometheus.Histogram.Observe to Record.
type prometheusHistogram struct {
	h prometheus.Histogram
}

func (h prometheusHistogram) Record(v float64) { h.h.Observe(v) }
