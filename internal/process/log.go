package process

import (
	"context"
	"io"
	"log"
)

type prefixKey struct{}
type loggerKey struct{}

// withPrefixLogger creates a new logger using the given prefix, then attaches both the logger and prefix to context.
func withPrefixLogger(ctx context.Context, w io.Writer, prefix string) context.Context {
	logger := log.New(w, prefix, 0)
	return context.WithValue(context.WithValue(ctx, prefixKey{}, prefix), loggerKey{}, logger)
}

// mustPrefix returns the prefix string attached to the given context.
func mustPrefix(ctx context.Context) string {
	return ctx.Value(prefixKey{}).(string)
}

// mustLogger returns the logger attached to the given context.
func mustLogger(ctx context.Context) *log.Logger {
	return ctx.Value(loggerKey{}).(*log.Logger)
}
