package aspects

import (
	"context"
	"time"

	"github.com/go-park/aspectchain/pkg/aspect"
	"github.com/sirupsen/logrus"
)

const (
	LogName  = "log"
	LogOrder = -1
)

var _ aspect.Aspect = (*Log)(nil)

type (
	// LogEntry describes one completed invocation.
	LogEntry struct {
		ID        string
		Method    string
		Params    []any
		Elapsed   time.Duration
		IsSuccess bool
		Err       error
	}

	Sink interface {
		Write(ctx context.Context, e LogEntry)
	}

	SinkFunc func(ctx context.Context, e LogEntry)

	// Log records every invocation it wraps. It never changes the outcome.
	Log struct {
		sink       Sink
		withParams bool
	}

	logrusSink struct {
		log logrus.FieldLogger
	}
)

func (f SinkFunc) Write(ctx context.Context, e LogEntry) { f(ctx, e) }

// LogrusSink writes entries at info level, failures at error level.
func LogrusSink(l logrus.FieldLogger) Sink {
	if l == nil {
		l = logrus.StandardLogger()
	}
	return &logrusSink{log: l}
}

func (s *logrusSink) Write(ctx context.Context, e LogEntry) {
	fields := logrus.Fields{
		"call":    e.ID,
		"method":  e.Method,
		"elapsed": e.Elapsed,
		"success": e.IsSuccess,
	}
	if e.Params != nil {
		fields["params"] = e.Params
	}
	entry := s.log.WithFields(fields)
	if ctx != nil {
		entry = entry.WithContext(ctx)
	}
	if e.Err != nil {
		entry.WithError(e.Err).Error("call failed")
		return
	}
	entry.Info("call finished")
}

func NewLog(opts ...aspect.Option[Log]) *Log {
	a := &Log{sink: LogrusSink(nil)}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func WithSink(s Sink) aspect.Option[Log] {
	return func(a *Log) {
		if s != nil {
			a.sink = s
		}
	}
}

// WithParams includes call arguments in entries.
func WithParams(on bool) aspect.Option[Log] {
	return func(a *Log) {
		a.withParams = on
	}
}

func (a *Log) Name() string { return LogName }
func (a *Log) Order() int   { return LogOrder }

func (a *Log) Around(pjp aspect.ProceedingJoinpoint) error {
	var params []any
	if a.withParams {
		params = append([]any(nil), pjp.Params()...)
	}
	start := time.Now()
	err := pjp.Proceed()
	a.sink.Write(pjp.Context(), LogEntry{
		ID:        pjp.ID(),
		Method:    pjp.Name(),
		Params:    params,
		Elapsed:   time.Since(start),
		IsSuccess: err == nil,
		Err:       err,
	})
	return err
}
