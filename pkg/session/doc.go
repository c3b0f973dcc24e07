/*
Package session implements the live session registry and persistence orchestration.

The Registry is the single owner of in-memory session state. It is shared by the
HTTP channels (which mutate it) and the server lifecycle (which snapshots it on exit).
The Manager writes live sessions through a ports.SessionStore, serializing writes
per session with local mutexes and an optional distributed lock.
*/
package session
