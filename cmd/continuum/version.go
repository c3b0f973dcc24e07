package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/continuum"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of continuum",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("continuum version %s\n", strings.TrimSpace(continuum.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
