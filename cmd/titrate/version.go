package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/titrate"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of titrate",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "titrate version %s\n", strings.TrimSpace(titrate.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
