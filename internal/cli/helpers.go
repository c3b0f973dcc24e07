package cli

import (
	"io"
	"log/slog"

	"github.com/aretw0/continuum/internal/config"
	"github.com/aretw0/continuum/internal/logging"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// createLogger configures the application logger from cfg.
// With a log file, every record goes to Stderr and to the file; the returned
// closer releases the file and must run after the last log line.
func createLogger(cfg config.Config) (*slog.Logger, io.Closer, error) {
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, nil, err
	}
	if cfg.LogFile == "" {
		return logging.New(level), nopCloser{}, nil
	}
	logger, tee, err := logging.NewTee(level, cfg.LogFile)
	if err != nil {
		return nil, nil, err
	}
	return logger, tee, nil
}
