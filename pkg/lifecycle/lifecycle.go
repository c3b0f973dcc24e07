package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aretw0/continuum/internal/logging"
	"github.com/aretw0/continuum/pkg/domain"
	"github.com/aretw0/continuum/pkg/ports"
)

const (
	// DefaultHost keeps the listener on the loopback interface.
	DefaultHost = "127.0.0.1"
	// DefaultShutdownGrace bounds HTTP connection draining (not the flush).
	DefaultShutdownGrace = 5 * time.Second
)

// ErrAlreadyStarted is returned when Start is called twice on the same Lifecycle.
var ErrAlreadyStarted = errors.New("lifecycle already started")

// Config holds the listener settings.
type Config struct {
	Host             string
	Port             int
	ShutdownGrace    time.Duration
	FlushConcurrency int
}

// Address returns host:port.
func (c Config) Address() string {
	host := c.Host
	if host == "" {
		host = DefaultHost
	}
	return net.JoinHostPort(host, strconv.Itoa(c.Port))
}

// Validate rejects settings that can never bind.
// Port 0 is refused: the editor extension must know the port in advance.
func (c Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return &domain.ConfigurationError{Field: "port", Value: c.Port, Reason: "must be between 1 and 65535"}
	}
	if c.ShutdownGrace < 0 {
		return &domain.ConfigurationError{Field: "shutdown_grace", Value: c.ShutdownGrace, Reason: "must not be negative"}
	}
	if c.FlushConcurrency < 0 {
		return &domain.ConfigurationError{Field: "flush_concurrency", Value: c.FlushConcurrency, Reason: "must not be negative"}
	}
	return nil
}

// Lifecycle owns the HTTP listener and the termination hook that flushes sessions.
type Lifecycle struct {
	cfg       Config
	handler   http.Handler
	sessions  ports.Snapshotter
	persister ports.Persister
	logger    *slog.Logger
	metrics   *Metrics

	hook     *TerminationHook
	started  atomic.Bool
	stop     chan struct{}
	stopOnce sync.Once
	shutdown <-chan struct{}
	ready    chan struct{}

	mu         sync.Mutex
	addr       net.Addr
	lastReport FlushReport
}

// Option configures the Lifecycle.
type Option func(*Lifecycle)

// WithLogger configures a logger for the Lifecycle and its hook.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Lifecycle) {
		l.logger = logger
	}
}

// WithMetrics records flush outcomes.
func WithMetrics(m *Metrics) Option {
	return func(l *Lifecycle) {
		l.metrics = m
	}
}

// WithShutdownChannel stops the server when ch is closed.
// This allows tests and embedders to trigger shutdown without OS signals.
func WithShutdownChannel(ch <-chan struct{}) Option {
	return func(l *Lifecycle) {
		l.shutdown = ch
	}
}

// New creates a Lifecycle for handler. Sessions listed by sessions are flushed
// through persister when the server stops.
func New(cfg Config, handler http.Handler, sessions ports.Snapshotter, persister ports.Persister, opts ...Option) *Lifecycle {
	l := &Lifecycle{
		cfg:       cfg,
		handler:   handler,
		sessions:  sessions,
		persister: persister,
		logger:    logging.NewNop(),
		stop:      make(chan struct{}),
		ready:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.cfg.Host == "" {
		l.cfg.Host = DefaultHost
	}
	if l.cfg.ShutdownGrace == 0 {
		l.cfg.ShutdownGrace = DefaultShutdownGrace
	}
	l.hook = NewTerminationHook(l.onExit, l.logger)
	return l
}

// Start binds the listener and serves until ctx is cancelled, Stop is called,
// the shutdown channel is closed or the listener fails. The termination hook
// runs before Start returns on every path, including a bind failure (reported as
// *domain.StartupError) and a panic (re-raised after the hook).
// Invalid settings are reported as *domain.ConfigurationError before any of that.
func (l *Lifecycle) Start(ctx context.Context) (err error) {
	if err := l.cfg.Validate(); err != nil {
		return err
	}
	if !l.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}

	defer func() {
		r := recover()
		if r != nil {
			l.logger.Error("Server panicked, flushing sessions before exit", "panic", r)
		}
		l.hook.Run(ctx)
		if r != nil {
			panic(r)
		}
	}()

	addr := l.cfg.Address()
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		l.logger.Error("Error starting server", "addr", addr, "err", err)
		return &domain.StartupError{Addr: addr, Err: err}
	}

	l.mu.Lock()
	l.addr = ln.Addr()
	l.mu.Unlock()

	srv := &http.Server{
		Handler:           l.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	// Runs before the hook; a no-op after a graceful drain.
	defer srv.Close()

	// Channel to listen for errors coming from the listener.
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- srv.Serve(ln)
	}()

	l.logger.Info("Server listening", "addr", ln.Addr().String())
	close(l.ready)

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listener stopped: %w", err)
	case <-ctx.Done():
		l.logger.Info("Shutdown requested", "reason", context.Cause(ctx))
	case <-l.stop:
		l.logger.Info("Shutdown requested", "reason", "stop")
	case <-l.shutdown:
		l.logger.Info("Shutdown requested", "reason", "shutdown channel")
	}

	l.drain(srv)
	return nil
}

// drain gives outstanding requests a deadline for completion.
func (l *Lifecycle) drain(srv *http.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), l.cfg.ShutdownGrace)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		l.logger.Warn("Graceful shutdown did not complete", "grace", l.cfg.ShutdownGrace, "err", err)
		if err := srv.Close(); err != nil {
			l.logger.Error("Error killing server", "err", err)
		}
	}
}

// onExit is the termination hook body.
func (l *Lifecycle) onExit(ctx context.Context) {
	l.logger.Info("Cleaning up sessions")
	report := Flush(ctx, l.sessions, l.persister, FlushOptions{
		Concurrency: l.cfg.FlushConcurrency,
		Logger:      l.logger,
		Metrics:     l.metrics,
	})

	l.mu.Lock()
	l.lastReport = report
	l.mu.Unlock()

	l.logger.Info("Session flush complete",
		"attempted", report.Attempted,
		"persisted", report.Persisted,
		"skipped", report.Skipped,
		"failed", len(report.Failures),
		"duration", report.Duration,
	)
}

// Stop asks a running Start to shut down. Safe to call multiple times.
func (l *Lifecycle) Stop() {
	l.stopOnce.Do(func() {
		close(l.stop)
	})
}

// Ready is closed once the listener is bound.
func (l *Lifecycle) Ready() <-chan struct{} {
	return l.ready
}

// Addr returns the bound address, or nil before Ready.
func (l *Lifecycle) Addr() net.Addr {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.addr
}

// Hook exposes the termination hook so embedders can fire it from their own exit path.
// Hook().Run returns only once the flush has finished, whoever started it.
func (l *Lifecycle) Hook() *TerminationHook {
	return l.hook
}

// LastFlush returns the report of the hook's flush (zero before it ran).
func (l *Lifecycle) LastFlush() FlushReport {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lastReport
}
