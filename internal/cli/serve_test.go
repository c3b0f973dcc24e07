package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/continuum/internal/adapters/file"
	"github.com/aretw0/continuum/internal/config"
	"github.com/aretw0/continuum/internal/testutils"
	"github.com/aretw0/continuum/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Port = testutils.FreePort(t)
	cfg.Store.Dir = t.TempDir()
	cfg.LogLevel = "error"
	cfg.Banner = false
	return cfg
}

func TestServe_FlushesOpenSessionsOnShutdown(t *testing.T) {
	cfg := testConfig(t)
	shutdown := make(chan struct{})
	ready := make(chan string, 1)

	done := make(chan error, 1)
	go func() {
		done <- Serve(context.Background(), cfg, ServeOptions{
			Shutdown: shutdown,
			OnReady:  func(addr string) { ready <- addr },
		})
	}()

	var addr string
	select {
	case addr = <-ready:
	case err := <-done:
		t.Fatalf("server exited early: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not become ready")
	}

	resp, err := http.Post("http://"+addr+"/ide/sessions", "application/json", strings.NewReader(`{"title":"live"}`))
	require.NoError(t, err)
	var opened domain.Session
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&opened))
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	health, err := http.Get("http://" + addr + "/health")
	require.NoError(t, err)
	health.Body.Close()
	assert.Equal(t, http.StatusOK, health.StatusCode)

	close(shutdown)
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not stop")
	}

	persisted, err := file.New(cfg.Store.Dir).Load(context.Background(), opened.ID)
	require.NoError(t, err, "open sessions are flushed on exit")
	assert.Equal(t, "live", persisted.Title)
}

func TestServe_PortInUse(t *testing.T) {
	occupied, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer occupied.Close()

	cfg := testConfig(t)
	cfg.Port = occupied.Addr().(*net.TCPAddr).Port

	err = Serve(context.Background(), cfg, ServeOptions{})

	var startErr *domain.StartupError
	require.ErrorAs(t, err, &startErr)
	assert.Equal(t, fmt.Sprintf("127.0.0.1:%d", cfg.Port), startErr.Addr)
}

func TestServe_InvalidConfiguration(t *testing.T) {
	cfg := testConfig(t)
	cfg.Port = 0

	err := Serve(context.Background(), cfg, ServeOptions{})

	var cfgErr *domain.ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "port", cfgErr.Field)
}

func TestServe_StopsOnContextCancel(t *testing.T) {
	cfg := testConfig(t)
	cfg.CPUReport.Enabled = true
	cfg.CPUReport.Interval = 10 * time.Millisecond
	ctx, cancel := context.WithCancel(context.Background())
	ready := make(chan string, 1)

	done := make(chan error, 1)
	go func() {
		done <- Serve(ctx, cfg, ServeOptions{OnReady: func(addr string) { ready <- addr }})
	}()

	select {
	case <-ready:
	case <-time.After(5 * time.Second):
		t.Fatal("server did not become ready")
	}
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not stop")
	}
}
