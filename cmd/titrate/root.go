package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/aretw0/titrate/internal/cli"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "titrate",
	Short: "titrate recommends the next GDMT titration step",
	Long: `titrate evaluates heart failure medication doses and clinical signals
and returns exactly one next step: a safety down-titration, an initiation,
an up-titration, or no action.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("policy", os.Getenv("TITRATE_POLICY"), "Policy file (YAML or JSON) [TITRATE_POLICY]")
	flags.String("policy-dir", os.Getenv("TITRATE_POLICY_DIR"), "Directory holding a policy document [TITRATE_POLICY_DIR]")
	flags.String("policy-doc", envOr("TITRATE_POLICY_DOC", "policy"), "Policy document ID inside --policy-dir [TITRATE_POLICY_DOC]")
	flags.String("redis-addr", os.Getenv("TITRATE_REDIS_ADDR"), "Redis address of the shared policy store [TITRATE_REDIS_ADDR]")
	flags.String("redis-password", os.Getenv("TITRATE_REDIS_PASSWORD"), "Redis password [TITRATE_REDIS_PASSWORD]")
	flags.Int("redis-db", envInt("TITRATE_REDIS_DB", 0), "Redis database [TITRATE_REDIS_DB]")
	flags.String("redis-key", envOr("TITRATE_REDIS_KEY", "policy"), "Policy key below the titrate: prefix [TITRATE_REDIS_KEY]")
	flags.StringArray("threshold", nil, "Threshold override name=value (repeatable)")
	flags.String("log-level", envOr("TITRATE_LOG_LEVEL", "warn"), "Log level: debug, info, warn, error [TITRATE_LOG_LEVEL]")
	flags.String("log-format", envOr("TITRATE_LOG_FORMAT", "text"), "Log format: text or json [TITRATE_LOG_FORMAT]")
}

// commonOptions reads the persistent flags.
func commonOptions(cmd *cobra.Command) cli.Options {
	flags := cmd.Flags()
	opts := cli.Options{}
	opts.PolicyFile, _ = flags.GetString("policy")
	opts.PolicyDir, _ = flags.GetString("policy-dir")
	opts.PolicyDocument, _ = flags.GetString("policy-doc")
	opts.RedisAddr, _ = flags.GetString("redis-addr")
	opts.RedisPassword, _ = flags.GetString("redis-password")
	opts.RedisDB, _ = flags.GetInt("redis-db")
	opts.RedisKey, _ = flags.GetString("redis-key")
	opts.Overrides, _ = flags.GetStringArray("threshold")
	opts.LogLevel, _ = flags.GetString("log-level")
	opts.LogFormat, _ = flags.GetString("log-format")
	return opts
}

func envOr(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ignoring %s=%q: %v\n", key, v, err)
		return def
	}
	return n
}
