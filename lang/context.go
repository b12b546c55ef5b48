package lang

import (
	"context"

	"github.com/ardnew/ipml/log"
)

type loggerKey struct{}

// WithTraceLogger returns a context carrying logger for tracing execution.
// Without one, execution is silent.
func WithTraceLogger(ctx context.Context, logger log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

func loggerFrom(ctx context.Context) log.Logger {
	if l, ok := ctx.Value(loggerKey{}).(log.Logger); ok {
		return l
	}

	return log.Logger{}
}
