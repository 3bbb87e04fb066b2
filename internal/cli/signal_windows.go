//go:build windows

package cli

import (
	"context"
	"os"
	"os/signal"
)

// only os.Interrupt is delivered on windows.
func notifyContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(ctx, os.Interrupt)
}
