package metrics

// NoopProvider discards everything recorded through it. It is the default
// provider for a Branch built without WithMetricsProvider, so instrumenting
// code never has to nil-check its metrics.
type NoopProvider struct{}

// NewNoopProvider constructs a Provider that discards all metrics.
func NewNoopProvider() NoopProvider { return NoopProvider{} }

func (NoopProvider) Counter(_ string, _ ...InstrumentOption) Counter             { return discard{} }
func (NoopProvider) UpDownCounter(_ string, _ ...InstrumentOption) UpDownCounter { return discard{} }
func (NoopProvider) Histogram(_ string, _ ...InstrumentOption) Histogram         { return discard{} }

// discard implements Counter, UpDownCounter, and Histogram by dropping
// every measurement, so NoopProvider needs only one instrument type.
type discard struct{}

func (discard) Add(_ int64)    {}
func (discard) Record(_ float64) {}
