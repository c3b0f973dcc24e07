package lifecycle

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/aretw0/continuum/internal/logging"
)

// TerminationHook runs a cleanup routine at most once per process lifetime.
type TerminationHook struct {
	fn     func(ctx context.Context)
	fired  atomic.Bool
	done   chan struct{}
	logger *slog.Logger
}

// NewTerminationHook wraps fn. A nil logger discards hook diagnostics.
func NewTerminationHook(fn func(ctx context.Context), logger *slog.Logger) *TerminationHook {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &TerminationHook{
		fn:     fn,
		done:   make(chan struct{}),
		logger: logger,
	}
}

// runningKey marks the context handed to a hook body.
type runningKey struct{}

// Run executes the hook body if it has not run yet. Every caller blocks until
// the body has returned, so nobody can exit while the flush is in progress.
// A re-entrant call made with the body's context (or one derived from it)
// returns immediately instead of deadlocking.
//
// parent only contributes values: the body gets a fresh context that is not
// cancelled when parent is, and that is released as soon as the body returns.
// Panics in the body are logged and suppressed.
func (h *TerminationHook) Run(parent context.Context) {
	if parent == nil {
		parent = context.Background()
	}
	if !h.fired.CompareAndSwap(false, true) {
		if parent.Value(runningKey{}) == h {
			h.logger.Debug("Termination hook called from its own body, skipping")
			return
		}
		h.logger.Debug("Termination hook already fired, waiting for it to finish")
		<-h.done
		return
	}
	defer close(h.done)

	ctx, cancel := context.WithCancel(context.WithValue(context.WithoutCancel(parent), runningKey{}, h))
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("Termination hook panicked", "panic", r)
		}
	}()

	h.fn(ctx)
}

// Fired reports whether Run has been invoked.
func (h *TerminationHook) Fired() bool {
	return h.fired.Load()
}

// Done is closed once the hook body has returned.
func (h *TerminationHook) Done() <-chan struct{} {
	return h.done
}
