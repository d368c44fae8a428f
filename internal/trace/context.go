package trace

import (
	"context"

	"github.com/charmbracelet/log"
)

// ctxKey is the key type for storing the logger in context.
type ctxKey struct{}

// FromContext extracts the logger from context.
// If not found, returns a discarding logger.
func FromContext(ctx context.Context) *log.Logger {
	if ctx == nil {
		return Discard()
	}
	if l, ok := ctx.Value(ctxKey{}).(*log.Logger); ok && l != nil {
		return l
	}
	return Discard()
}

// WithLogger attaches a logger to context.
func WithLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, OrDiscard(l))
}
