package branchkit

import (
	"fmt"

	"github.com/branchkit/branchkit/metrics"
	"go.uber.org/zap"
)

// Option configures a Branch at construction time.
//
// Adapted from the teacher's options.go functional-options builder: the
// pool-selection options (WithFixedPool/WithDynamicPool) don't survive the
// transform since a branch always grows/shrinks dynamically under
// supervisor control, but the builder shape and panic-on-invalid-argument
// convention carry over.
type Option func(*branchConfig)

type branchConfig struct {
	name          string
	initialSize   uint
	sink          ExceptionSink
	sinkAsyncBuf  int
	useAsyncSink  bool
	metrics       metrics.Provider
	logger        *zap.Logger
}

func defaultBranchConfig() branchConfig {
	logger, err := zap.NewProduction()
	if err != nil {
		logger = zap.NewNop()
	}
	return branchConfig{
		name:        "branch",
		initialSize: 1,
		metrics:     metrics.NewNoopProvider(),
		logger:      logger,
	}
}

// WithName sets the branch's descriptive name, used in sink tags, metric
// attributes, and logging.
func WithName(name string) Option {
	return func(c *branchConfig) {
		if name == "" {
			panic("branchkit: WithName requires a non-empty name")
		}
		c.name = name
	}
}

// WithInitialWorkers sets how many workers the branch starts with (must be > 0).
func WithInitialWorkers(n uint) Option {
	return func(c *branchConfig) {
		if n == 0 {
			panic("branchkit: WithInitialWorkers requires n > 0")
		}
		c.initialSize = n
	}
}

// WithSink overrides the branch's ExceptionSink. Default is a ZapSink backed
// by WithLogger's logger (or a zap production logger if none was given).
func WithSink(sink ExceptionSink) Option {
	return func(c *branchConfig) {
		if sink == nil {
			panic("branchkit: WithSink requires a non-nil sink")
		}
		c.sink = sink
	}
}

// WithAsyncSink wraps whatever sink is configured in an AsyncSink with the
// given buffer capacity, decoupling worker goroutines from a slow sink.
func WithAsyncSink(bufferSize int) Option {
	return func(c *branchConfig) {
		c.useAsyncSink = true
		c.sinkAsyncBuf = bufferSize
	}
}

// WithMetricsProvider attaches a metrics.Provider the branch uses to record
// live worker count, queue depth, and task throughput.
func WithMetricsProvider(p metrics.Provider) Option {
	return func(c *branchConfig) {
		if p == nil {
			panic("branchkit: WithMetricsProvider requires a non-nil provider")
		}
		c.metrics = p
	}
}

// WithLogger sets the *zap.Logger used by the branch's default sink and its
// own lifecycle logging (a debug line on close).
func WithLogger(logger *zap.Logger) Option {
	return func(c *branchConfig) {
		if logger == nil {
			panic("branchkit: WithLogger requires a non-nil logger")
		}
		c.logger = logger
	}
}

func buildBranchConfig(opts ...Option) (branchConfig, error) {
	c := defaultBranchConfig()
	for _, opt := range opts {
		if opt == nil {
			return branchConfig{}, fmt.Errorf("branchkit: nil branch option")
		}
		opt(&c)
	}
	if c.sink == nil {
		c.sink = NewZapSink(c.logger)
	}
	if c.useAsyncSink {
		c.sink = NewAsyncSink(c.sink, c.sinkAsyncBuf)
	}
	return c, nil
}
