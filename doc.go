/*
Package continuum is a local control plane for an editor integration.

It serves two HTTP channels on a loopback-only listener: the IDE channel, used by
the editor extension to open sessions and report editor events, and the GUI channel,
used by the side panel to read sessions and post chat messages. Sessions live in
memory while the server runs and are written to a durable store (files, Redis or
memory) on demand and, unconditionally, when the server stops.

# Guarantees

  - Every live session is persisted exactly once when the server exits, whether it
    stops on a signal, on an explicit shutdown, because the listener could not bind,
    or because the serving goroutine panicked.
  - One session failing to persist never prevents the others from being written.
  - The listener binds to 127.0.0.1 by default and answers GET /health independently
    of session state.

# Layout

  - pkg/domain: sessions, events and typed errors.
  - pkg/ports: store, persister, snapshotter and lock interfaces.
  - pkg/session: the live Registry and the Manager that writes sessions to a store.
  - pkg/lifecycle: the listener lifecycle, the termination hook and the flush.
  - pkg/persistence/middleware: store decorators for payload redaction and
    at-rest encryption.
  - cmd/continuum: the `continuum` CLI (serve, session, mcp, version).

# Usage

	continuum serve --port 65432 --store file --sessions-dir .continuum/sessions
*/
package continuum
