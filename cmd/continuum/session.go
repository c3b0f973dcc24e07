package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/continuum/internal/cli"
	"github.com/aretw0/continuum/internal/logging"
	"github.com/spf13/cobra"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage persisted sessions",
	Long:  `List, inspect, and remove the sessions written to the configured store.`,
}

var sessionLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List all persisted sessions",
	Run: func(cmd *cobra.Command, args []string) {
		backend := openBackend(cmd)
		defer backend.Close()

		if err := cli.ListSessions(cmd.Context(), backend.Store, os.Stdout); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	},
}

var sessionInspectCmd = &cobra.Command{
	Use:   "inspect <session-id>",
	Short: "Inspect a persisted session",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		format, _ := cmd.Flags().GetString("format")
		backend := openBackend(cmd)
		defer backend.Close()

		if err := cli.InspectSession(cmd.Context(), backend.Store, args[0], format, os.Stdout); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	},
}

var sessionRmCmd = &cobra.Command{
	Use:   "rm <session-id>...",
	Short: "Remove one or more sessions",
	Args: func(cmd *cobra.Command, args []string) error {
		if all, _ := cmd.Flags().GetBool("all"); all {
			return cobra.NoArgs(cmd, args)
		}
		return cobra.MinimumNArgs(1)(cmd, args)
	},
	Run: func(cmd *cobra.Command, args []string) {
		all, _ := cmd.Flags().GetBool("all")
		backend := openBackend(cmd)
		defer backend.Close()

		var err error
		if all {
			err = cli.RemoveAllSessions(cmd.Context(), backend.Store, os.Stdout)
		} else {
			err = cli.RemoveSessions(cmd.Context(), backend.Store, args, os.Stdout)
		}
		if err != nil {
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(sessionCmd)
	sessionCmd.AddCommand(sessionLsCmd)
	sessionCmd.AddCommand(sessionInspectCmd)
	sessionCmd.AddCommand(sessionRmCmd)

	sessionInspectCmd.Flags().StringP("format", "f", cli.FormatJSON, "Output format: json, pretty or mermaid")
	sessionRmCmd.Flags().Bool("all", false, "Remove every persisted session")
}

// openBackend opens the configured store or exits.
func openBackend(cmd *cobra.Command) *cli.Backend {
	cfg, err := loadConfig(cmd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	backend, err := cli.OpenStore(ctx, cfg.Store, logging.New(slog.LevelError))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening session store: %v\n", err)
		os.Exit(1)
	}
	return backend
}
