package branchkit

import "go.uber.org/zap"

// ExceptionSink receives errors that a task could not deliver through a
// Result: panics and errors from value-less tasks, and batch failures. Each
// branch has its own sink, set with WithSink; there is no process-wide sink.
// This mirrors the teacher's pattern of an injectable outward errors channel
// in workers.Config.
type ExceptionSink interface {
	Report(source string, err error)
}

// ZapSink logs reported errors through a *zap.SugaredLogger at Error level.
// It is the default sink used when a branch is not given one explicitly.
type ZapSink struct {
	logger *zap.SugaredLogger
}

// NewZapSink wraps logger as an ExceptionSink. A nil logger falls back to
// zap.NewNop(). A zero-value ZapSink has no logger and must not be used.
func NewZapSink(logger *zap.Logger) *ZapSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ZapSink{logger: logger.Sugar()}
}

func (s *ZapSink) Report(source string, err error) {
	s.logger.Errorw("unhandled task error", "component", "branch", "branch", source, "error", err)
}

// defaultSink returns a ZapSink that discards every report. Branches built
// without WithSink do not use it; they get NewZapSink over their own logger.
func defaultSink() ExceptionSink {
	return NewZapSink(zap.NewNop())
}
