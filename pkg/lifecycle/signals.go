package lifecycle

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// SignalManager turns SIGINT and SIGTERM into context cancellation for Start.
// The cancellation cause names the signal, so the shutdown log says why.
type SignalManager struct {
	ctx    context.Context
	cancel context.CancelCauseFunc
	sigCh  chan os.Signal

	mu     sync.Mutex
	sigVal os.Signal
}

// NewSignalManager creates a new manager and immediately starts listening for signals.
func NewSignalManager(parent context.Context) *SignalManager {
	ctx, cancel := context.WithCancelCause(parent)
	sm := &SignalManager{
		ctx:    ctx,
		cancel: cancel,
		sigCh:  make(chan os.Signal, 1),
	}
	// We capture SIGINT (Ctrl+C) and SIGTERM (parent editor going away)
	signal.Notify(sm.sigCh, os.Interrupt, syscall.SIGTERM)
	go sm.watch()
	return sm
}

func (sm *SignalManager) watch() {
	select {
	case sig := <-sm.sigCh:
		sm.mu.Lock()
		sm.sigVal = sig
		sm.mu.Unlock()
		sm.cancel(fmt.Errorf("received signal %v", sig))
	case <-sm.ctx.Done():
		// Context cancelled elsewhere
	}
	signal.Stop(sm.sigCh)
}

// Context returns the signal context.
func (sm *SignalManager) Context() context.Context {
	return sm.ctx
}

// Signal returns the signal that cancelled the context, or nil.
func (sm *SignalManager) Signal() os.Signal {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return sm.sigVal
}

// Stop permanently stops the signal listener and cancels the context.
func (sm *SignalManager) Stop() {
	sm.cancel(nil)
}
