// Package cli wires configuration, stores and scenes into the stagehand
// commands.
package cli

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// SignalContext is cancelled on SIGINT or SIGTERM and remembers which signal
// did it.
type SignalContext struct {
	context.Context
	Cancel func()

	sigCh  chan os.Signal
	once   sync.Once
	mu     sync.Mutex
	sigVal os.Signal
}

// NewSignalContext works like signal.NotifyContext but keeps the signal.
func NewSignalContext(parent context.Context) *SignalContext {
	ctx, cancel := context.WithCancel(parent)
	sc := &SignalContext{
		Context: ctx,
		Cancel:  cancel,
		sigCh:   make(chan os.Signal, 1),
	}
	signal.Notify(sc.sigCh, os.Interrupt, syscall.SIGTERM)
	go sc.watch()
	return sc
}

func (sc *SignalContext) watch() {
	select {
	case sig := <-sc.sigCh:
		sc.mu.Lock()
		sc.sigVal = sig
		sc.mu.Unlock()
		sc.Cancel()
	case <-sc.Done():
	}
	sc.Stop()
}

// Stop releases the signal handler. It is safe to call more than once.
func (sc *SignalContext) Stop() {
	sc.once.Do(func() {
		signal.Stop(sc.sigCh)
	})
}

// Signal returns the signal that cancelled the context, or nil.
func (sc *SignalContext) Signal() os.Signal {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.sigVal
}
