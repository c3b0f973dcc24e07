/*
Package ports defines the driven ports (interfaces) of the Continuum control plane.

These interfaces decouple the server lifecycle from the concrete registry and storage
implementations, so the shutdown flush can be exercised against any backend.

# Key Interfaces

  - SessionStore: Responsible for durably saving and loading Session state.
  - Persister: Writes one live session to durable storage.
  - Snapshotter: Returns a point-in-time copy of the live session IDs.
  - DistributedLocker: Provides distributed locking for concurrent session access.
*/
package ports
