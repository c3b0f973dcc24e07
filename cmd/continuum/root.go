package main

import (
	"fmt"
	"os"

	"github.com/aretw0/continuum/internal/config"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "continuum",
	Short: "Continuum is the local control plane for the editor integration",
	Long: `Continuum serves the IDE and GUI channels of the editor integration on a
loopback HTTP listener and keeps every session durable across restarts.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("config", "", "Path to a YAML config file (default .continuum/config.yaml if present)")
	rootCmd.PersistentFlags().String("store", config.StoreFile, "Session store: file, redis or memory")
	rootCmd.PersistentFlags().String("sessions-dir", config.Default().Store.Dir, "Directory of the file session store")
	rootCmd.PersistentFlags().String("redis-addr", config.Default().Store.Redis.Addr, "Address of the redis session store")
}

// loadConfig reads the config file and applies the flags the user set explicitly.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	flags := cmd.Flags()
	path, _ := flags.GetString("config")

	cfg, err := config.Load(config.Discover(path))
	if err != nil {
		return cfg, err
	}

	if flags.Changed("store") {
		cfg.Store.Driver, _ = flags.GetString("store")
	}
	if flags.Changed("sessions-dir") {
		cfg.Store.Dir, _ = flags.GetString("sessions-dir")
	}
	if flags.Changed("redis-addr") {
		cfg.Store.Redis.Addr, _ = flags.GetString("redis-addr")
	}
	if flags.Changed("port") {
		cfg.Port, _ = flags.GetInt("port")
	}
	if flags.Changed("host") {
		cfg.Host, _ = flags.GetString("host")
	}
	if flags.Changed("log-level") {
		cfg.LogLevel, _ = flags.GetString("log-level")
	}
	if flags.Changed("log-file") {
		cfg.LogFile, _ = flags.GetString("log-file")
	}
	if flags.Changed("cpu-report") {
		cfg.CPUReport.Enabled, _ = flags.GetBool("cpu-report")
	}
	if flags.Changed("no-banner") {
		noBanner, _ := flags.GetBool("no-banner")
		cfg.Banner = !noBanner
	}
	return cfg, nil
}
