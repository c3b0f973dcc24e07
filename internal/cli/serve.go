package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/continuum"
	httpAdapter "github.com/aretw0/continuum/internal/adapters/http"
	"github.com/aretw0/continuum/internal/config"
	"github.com/aretw0/continuum/internal/diagnostics"
	"github.com/aretw0/continuum/internal/presentation/tui"
	"github.com/aretw0/continuum/pkg/lifecycle"
	"github.com/aretw0/continuum/pkg/session"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// ServeOptions contains the process-level knobs of the serve command that are
// not part of the configuration file.
type ServeOptions struct {
	// Banner is written here when it is a terminal. Nil disables the banner.
	BannerOut *os.File
	// Shutdown stops the server when closed, in addition to SIGINT and SIGTERM.
	Shutdown <-chan struct{}
	// OnReady is called with the bound address once the listener is up.
	OnReady func(addr string)
}

// Serve runs the control plane until a signal, a shutdown request or a fatal
// listener error. Every live session is flushed before it returns.
// Returned errors wrap *domain.ConfigurationError or *domain.StartupError when
// that is the cause, so the caller can choose the exit code.
func Serve(ctx context.Context, cfg config.Config, opts ServeOptions) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, logCloser, err := createLogger(cfg)
	if err != nil {
		return fmt.Errorf("failed to configure logging: %w", err)
	}
	defer logCloser.Close()

	// Setup signal handling
	signals := lifecycle.NewSignalManager(ctx)
	defer signals.Stop()

	backend, err := OpenStore(signals.Context(), cfg.Store, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := backend.Close(); err != nil {
			logger.Warn("Failed to close session store", "err", err)
		}
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	registry := session.NewRegistry()
	managerOpts := append([]session.Option{session.WithLogger(logger)}, backend.ManagerOptions...)
	manager := session.NewManager(registry, backend.Store, managerOpts...)

	handler := httpAdapter.NewHandler(registry, manager,
		httpAdapter.WithLogger(logger),
		httpAdapter.WithMetrics(reg),
	)

	lcOpts := []lifecycle.Option{
		lifecycle.WithLogger(logger),
		lifecycle.WithMetrics(lifecycle.NewMetrics(reg)),
	}
	if opts.Shutdown != nil {
		lcOpts = append(lcOpts, lifecycle.WithShutdownChannel(opts.Shutdown))
	}
	lc := lifecycle.New(cfg.Lifecycle(), handler, registry, manager, lcOpts...)

	if cfg.CPUReport.Enabled {
		reporter, err := diagnostics.NewCPUReporter(cfg.CPUReport.Interval,
			diagnostics.WithLogger(logger),
			diagnostics.WithRegisterer(reg),
		)
		if err != nil {
			logger.Warn("CPU report disabled", "err", err)
		} else {
			reportCtx, stopReport := context.WithCancel(signals.Context())
			defer stopReport()
			go reporter.Run(reportCtx)
		}
	}

	go announce(signals.Context(), lc, cfg, opts, logger)

	logger.Info("Starting continuum", "version", continuum.Version, "addr", cfg.Lifecycle().Address(), "store", cfg.Store.Driver)
	err = lc.Start(signals.Context())

	if report := lc.LastFlush(); len(report.Failures) > 0 {
		logger.Error("Some sessions were not persisted", "failed", len(report.Failures), "err", report.Err())
	}
	if sig := signals.Signal(); sig != nil {
		logger.Info("Continuum stopped", "signal", sig.String())
	} else {
		logger.Info("Continuum stopped")
	}
	return err
}

// announce prints the banner and runs OnReady once the listener is bound.
func announce(ctx context.Context, lc *lifecycle.Lifecycle, cfg config.Config, opts ServeOptions, logger *slog.Logger) {
	select {
	case <-ctx.Done():
		return
	case <-lc.Hook().Done():
		return
	case <-lc.Ready():
	}

	addr := lc.Addr().String()
	if cfg.Banner && opts.BannerOut != nil && tui.ShouldPrintBanner(opts.BannerOut) {
		tui.PrintBanner(opts.BannerOut, continuum.Version, addr)
	}
	if opts.OnReady != nil {
		opts.OnReady(addr)
	}
	logger.Debug("Ready", "addr", addr)
}
