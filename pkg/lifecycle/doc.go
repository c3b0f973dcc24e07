/*
Package lifecycle boots the Continuum HTTP listener and guarantees that live sessions
are flushed to durable storage whenever the server stops.

# Exit paths

Every way out of Lifecycle.Start funnels through a single TerminationHook:

  - the parent context is cancelled (SIGINT/SIGTERM via SignalManager),
  - Stop is called or the configured shutdown channel is closed,
  - the listener fails to bind (Start returns a *domain.StartupError after the flush),
  - a panic unwinds the Start goroutine (re-panicked after the flush).

The hook runs at most once. It drives Flush with a fresh context detached from the
(already cancelled) serving context, so the flush is never dropped because shutdown
began. The flush has no deadline: a store that hangs will stall exit.

# Flush

Flush snapshots the live session IDs, persists each one through a ports.Persister
with bounded concurrency, and reports per-session failures without aborting the rest.
*/
package lifecycle
