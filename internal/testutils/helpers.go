package testutils

import (
	"context"
	"fmt"
	"net"
	"testing"

	"github.com/aretw0/continuum/pkg/session"
	"github.com/stretchr/testify/require"
)

// FreePort asks the kernel for a loopback port that is free right now.
// It fails the test immediately on error.
func FreePort(t *testing.T) int {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err, "Failed to reserve a port")
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close(), "Failed to release the reserved port")

	return port
}

// SeedSessions opens n sessions titled s0..s(n-1) and returns their IDs in order.
func SeedSessions(t *testing.T, registry *session.Registry, n int) []string {
	t.Helper()

	ids := make([]string, 0, n)
	for i := 0; i < n; i++ {
		s := registry.Open(context.Background(), fmt.Sprintf("s%d", i), "")
		ids = append(ids, s.ID)
	}
	return ids
}
