package main

import (
	"github.com/aretw0/titrate/internal/cli"
	"github.com/spf13/cobra"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Export the evaluation state machine",
	Long: `Outputs a Mermaid diagram (graph TD) of the evaluation state machine.
With --input, the request is evaluated and the states it visited are highlighted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		input, _ := cmd.Flags().GetString("input")
		return cli.Graph(cmd.Context(), cli.EvaluateOptions{
			Options:   commonOptions(cmd),
			InputPath: input,
			Out:       cmd.OutOrStdout(),
			In:        cmd.InOrStdin(),
		})
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().StringP("input", "i", "", "JSON request file to overlay, or - for stdin")
}
