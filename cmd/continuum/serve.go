package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/aretw0/continuum/internal/cli"
	"github.com/aretw0/continuum/internal/config"
	"github.com/aretw0/continuum/pkg/domain"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the control plane HTTP server",
	Long: `Starts the IDE and GUI routers on a loopback HTTP listener.

Every open session is written to the configured store when the server stops,
including when it is interrupted (SIGINT/SIGTERM) or fails to bind its port.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(cmd)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
			os.Exit(1)
		}

		err = cli.Serve(cmd.Context(), cfg, cli.ServeOptions{BannerOut: os.Stdout})
		if err == nil {
			return
		}

		var cfgErr *domain.ConfigurationError
		var startErr *domain.StartupError
		switch {
		case errors.As(err, &cfgErr):
			fmt.Fprintf(os.Stderr, "Error: %v\n", cfgErr)
		case errors.As(err, &startErr):
			fmt.Fprintf(os.Stderr, "Error starting server: %v\n", startErr)
		default:
			fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		}
		os.Exit(1)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	defaults := config.Default()
	serveCmd.Flags().IntP("port", "p", config.DefaultPort, "Port to listen on")
	serveCmd.Flags().String("host", defaults.Host, "Interface to bind (loopback by default)")
	serveCmd.Flags().String("log-level", defaults.LogLevel, "Log level: debug, info, warn or error")
	serveCmd.Flags().String("log-file", "", "Also append logs to this file")
	serveCmd.Flags().Bool("cpu-report", false, "Periodically log the CPU usage of the server")
	serveCmd.Flags().Bool("no-banner", false, "Do not print the startup banner")
}
