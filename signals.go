package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
)

var terminateSignals = []os.Signal{os.Interrupt, syscall.SIGTERM, syscall.SIGHUP}

// notifyTerminate returns a context cancelled by the first terminate signal.
// Handling is dropped after that signal, so a second one gets the default action.
func notifyTerminate(parent context.Context, logger *log.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, terminateSignals...)

	go func() {
		defer signal.Stop(sigs)
		select {
		case sig := <-sigs:
			logger.Warnf("Caught signal %v - terminating", sig)
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}
