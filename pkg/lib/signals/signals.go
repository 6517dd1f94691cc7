// Package signals turns process shutdown signals into context
// cancellation.
package signals

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
)

var shutdownSignals = []os.Signal{os.Interrupt, syscall.SIGTERM}

var (
	signalCtx context.Context
	once      sync.Once
)

// Context returns a Context registered to close on SIGTERM and SIGINT.
// If a second signal is caught, the program is terminated with exit code 1.
func Context() context.Context {
	once.Do(func() {
		c := make(chan os.Signal, 2)
		signal.Notify(c, shutdownSignals...)
		signalCtx = cancelOn(context.Background(), c, os.Exit)
	})
	return signalCtx
}

// cancelOn returns a child of parent cancelled by the first value received
// from c. A second value calls exit(1).
func cancelOn(parent context.Context, c <-chan os.Signal, exit func(int)) context.Context {
	ctx, cancel := context.WithCancel(parent)
	go func() {
		select {
		case <-c:
			cancel()
		case <-parent.Done():
			cancel()
			return
		}
		// second signal. Exit directly.
		<-c
		exit(1)
	}()
	return ctx
}
