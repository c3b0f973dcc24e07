// Package diagnostics holds optional runtime reporters that run beside the server.
package diagnostics

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/aretw0/continuum/internal/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shirou/gopsutil/v4/process"
)

// DefaultInterval is the time between two CPU samples.
const DefaultInterval = 2 * time.Second

// SampleFunc returns the CPU usage of the process, in percent, since the previous call.
type SampleFunc func(ctx context.Context) (float64, error)

// ProcessSampler measures the current process with gopsutil.
// The first measurement is taken immediately and discarded so the next call covers a full interval.
func ProcessSampler() (SampleFunc, error) {
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return nil, fmt.Errorf("failed to inspect process: %w", err)
	}
	if _, err := p.Percent(0); err != nil {
		return nil, fmt.Errorf("failed to start cpu measurement: %w", err)
	}
	return func(ctx context.Context) (float64, error) {
		return p.PercentWithContext(ctx, 0)
	}, nil
}

// CPUReporter periodically logs the CPU usage of the server process.
// It has no part in shutdown: cancelling its context just stops the loop.
type CPUReporter struct {
	interval time.Duration
	sample   SampleFunc
	logger   *slog.Logger
	gauge    prometheus.Gauge
}

// Option configures the CPUReporter.
type Option func(*CPUReporter)

// WithLogger configures the logger that receives the reports.
func WithLogger(logger *slog.Logger) Option {
	return func(r *CPUReporter) {
		r.logger = logger
	}
}

// WithSampler replaces the gopsutil sampler.
func WithSampler(fn SampleFunc) Option {
	return func(r *CPUReporter) {
		r.sample = fn
	}
}

// WithRegisterer exports the last sample as continuum_process_cpu_percent.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(r *CPUReporter) {
		r.gauge = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "continuum_process_cpu_percent",
			Help: "CPU usage of the server process over the last report interval",
		})
		reg.MustRegister(r.gauge)
	}
}

// NewCPUReporter creates a reporter sampling every interval (DefaultInterval if zero).
func NewCPUReporter(interval time.Duration, opts ...Option) (*CPUReporter, error) {
	if interval <= 0 {
		interval = DefaultInterval
	}
	r := &CPUReporter{
		interval: interval,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.sample == nil {
		sample, err := ProcessSampler()
		if err != nil {
			return nil, err
		}
		r.sample = sample
	}
	return r, nil
}

// Run reports until ctx is cancelled. Sampling errors are logged and the loop continues.
func (r *CPUReporter) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.report(ctx)
		}
	}
}

func (r *CPUReporter) report(ctx context.Context) {
	percent, err := r.sample(ctx)
	if err != nil {
		if ctx.Err() == nil {
			r.logger.Warn("Error getting CPU usage", "err", err)
		}
		return
	}
	if r.gauge != nil {
		r.gauge.Set(percent)
	}
	r.logger.Info("CPU usage", "percent", fmt.Sprintf("%.1f", percent))
}
