package main

import (
	"github.com/aretw0/titrate/internal/cli"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the stateless HTTP server",
	Long: `Starts the titrate engine as a JSON API over HTTP.
POST /evaluate takes doses and signals and returns one recommendation.
Prometheus metrics are exposed on /metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		port, _ := cmd.Flags().GetString("port")
		watch, _ := cmd.Flags().GetBool("watch")

		ctx := cli.NewSignalContext(cmd.Context())
		defer ctx.Cancel()

		return cli.Serve(ctx, cli.ServeOptions{
			Options: commonOptions(cmd),
			Addr:    ":" + port,
			Watch:   watch,
			Out:     cmd.OutOrStdout(),
		})
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("port", "p", envOr("TITRATE_PORT", "8080"), "Port to listen on [TITRATE_PORT]")
	serveCmd.Flags().BoolP("watch", "w", false, "Reload the policy when its document changes (requires --policy-dir)")
}
