package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/continuum/internal/logging"
	"github.com/aretw0/continuum/pkg/domain"
	"github.com/aretw0/continuum/pkg/ports"
	"golang.org/x/sync/errgroup"
)

// DefaultFlushConcurrency is the number of sessions persisted in parallel.
const DefaultFlushConcurrency = 4

// FlushOptions tunes a Flush run. The zero value is usable.
type FlushOptions struct {
	Concurrency int
	Logger      *slog.Logger
	Metrics     *Metrics
}

// FlushReport summarizes one flush pass.
type FlushReport struct {
	Attempted int
	Persisted int
	Skipped   int // sessions removed between snapshot and persist
	Failures  []*domain.PersistenceError
	Duration  time.Duration
}

// Err joins the per-session failures, or returns nil if every attempt succeeded.
func (r FlushReport) Err() error {
	if len(r.Failures) == 0 {
		return nil
	}
	errs := make([]error, len(r.Failures))
	for i, f := range r.Failures {
		errs[i] = f
	}
	return errors.Join(errs...)
}

// Flush persists every session present in src at call time.
//
// The ID set is snapshotted once; sessions added afterwards are left for the next
// pass. Each ID is attempted exactly once, in no particular order. A failing (or
// panicking) persist is logged and recorded in the report; it never stops the
// remaining sessions and is never returned as an error. Flush returns only after
// every snapshotted ID has been attempted.
func Flush(ctx context.Context, src ports.Snapshotter, dst ports.Persister, opts FlushOptions) FlushReport {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	limit := opts.Concurrency
	if limit <= 0 {
		limit = DefaultFlushConcurrency
	}

	start := time.Now()
	ids := src.ListIDs()
	logger.Debug("Cleaning up sessions", "count", len(ids))

	var (
		mu     sync.Mutex
		report = FlushReport{Attempted: len(ids)}
	)

	var g errgroup.Group
	g.SetLimit(limit)
	for _, id := range ids {
		g.Go(func() error {
			err := persistOne(ctx, dst, id)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				report.Persisted++
				opts.Metrics.observeSession(resultPersisted)
			case errors.Is(err, domain.ErrSessionNotFound):
				report.Skipped++
				opts.Metrics.observeSession(resultSkipped)
				logger.Debug("Session gone before persist", "session_id", id)
			default:
				pErr := &domain.PersistenceError{SessionID: id, Err: err}
				report.Failures = append(report.Failures, pErr)
				opts.Metrics.observeSession(resultFailed)
				logger.Error("Session persist failed", "session_id", id, "err", err)
			}
			return nil
		})
	}
	_ = g.Wait()

	report.Duration = time.Since(start)
	opts.Metrics.observeFlush(report.Duration)
	return report
}

// persistOne shields the flush loop from a panicking persister.
func persistOne(ctx context.Context, dst ports.Persister, id string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic during persist: %v", r)
		}
	}()
	return dst.Persist(ctx, id)
}
