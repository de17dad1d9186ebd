package utils

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
)

// ForceExit the application when a signal is sent
func ForceExit(exitSig chan os.Signal, maxDelay time.Duration) {
	go func() {
		time.Sleep(maxDelay)
		os.Exit(1)
	}()

	<-exitSig
	os.Exit(1)
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM. A second
// signal, or maxDelay after the first, terminates the process.
func SignalContext(parent context.Context, maxDelay time.Duration) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	exitSig := make(chan os.Signal, 1)
	signal.Notify(exitSig, syscall.SIGINT, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case s := <-exitSig:
			log.Warnf("Signal %s received, cancelling the operation", s)
			cancel()
			ForceExit(exitSig, maxDelay)
		case <-ctx.Done():
		}
	}()

	return ctx, func() {
		signal.Stop(exitSig)
		cancel()
	}
}
