package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// SetupSignalHandler returns a context canceled on SIGINT or SIGTERM, so a
// generate or stream invocation in flight against a provider can be aborted
// with Ctrl-C instead of running to completion (or to its retry/breaker
// deadline) regardless of how long the upstream call takes.
func SetupSignalHandler() context.Context {
	ctx, cancel := context.WithCancel(context.Background())

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-interrupt
		cancel()
	}()

	return ctx
}

// WaitForShutdown returns a channel that receives the terminating signal,
// for commands that need to react to shutdown themselves rather than via a
// canceled context (e.g. flushing a partially written output file).
func WaitForShutdown() <-chan os.Signal {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	return sigChan
}
