/*
Package domain contains the core domain models of the Continuum control plane.

It defines the session entity tracked by the service and the error taxonomy shared
by the lifecycle, the stores and the HTTP adapters. This package is kept pure and
free of external dependencies like I/O or persistence.

# Key Entities

  - Session: a unit of conversational/editing state, identified by an ID.
  - Event: a single interaction recorded on a session (from the IDE, the GUI or the system).
  - StartupError, PersistenceError, ConfigurationError: the failure classes of the server lifecycle.
*/
package domain
