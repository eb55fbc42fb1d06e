package main

import (
	"github.com/aretw0/titrate/internal/cli"
	"github.com/spf13/cobra"
)

var policyCmd = &cobra.Command{
	Use:   "policy",
	Short: "Inspect, validate and publish the clinical policy",
}

var policyShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective policy after overrides",
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("format")
		format, err := cli.ParseFormat(name)
		if err != nil {
			return err
		}
		return cli.ShowPolicy(cmd.Context(), commonOptions(cmd), format, cmd.OutOrStdout())
	},
}

var policyValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check that the policy has every required threshold",
	RunE: func(cmd *cobra.Command, args []string) error {
		return cli.ValidatePolicy(cmd.Context(), commonOptions(cmd), cmd.OutOrStdout())
	},
}

var policyPublishCmd = &cobra.Command{
	Use:     "publish",
	Short:   "Validate a policy file and store it in Redis",
	Example: `  titrate policy publish --from policy.yaml --redis-addr localhost:6379`,
	RunE: func(cmd *cobra.Command, args []string) error {
		from, _ := cmd.Flags().GetString("from")
		return cli.PublishPolicy(cmd.Context(), cli.PublishOptions{
			Options: commonOptions(cmd),
			From:    from,
		}, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(policyCmd)
	policyCmd.AddCommand(policyShowCmd, policyValidateCmd, policyPublishCmd)

	policyShowCmd.Flags().StringP("format", "f", "yaml", "Output format: yaml or json")
	policyPublishCmd.Flags().String("from", "", "Policy file to publish")
}
