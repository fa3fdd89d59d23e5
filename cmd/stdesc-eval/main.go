package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/jamesainslie/go-stdesc/internal/config"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	// A missing .env is normal.
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "stdesc-eval",
		Short: "Evaluate a loop-closure detector over a scan sequence",
		Long: `stdesc-eval feeds a scan sequence to a loop-closure detector, sweeps the
detector's confidence over a set of thresholds and reports precision, recall
and F1 against ground truth.

Results are written to <results_dir>/stdesc_results/<sequence>/<timestamp>/
with a "latest" alias pointing at the newest run.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringP("config", "c", "", "config file path")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("results-dir", "", "results root directory")

	rootCmd.AddCommand(
		runCmd(),
		reevalCmd(),
		historyCmd(),
		paramsCmd(),
		versionCmd(),
	)
	return rootCmd
}

// loadConfig loads the config file named by --config and applies the
// persistent flag overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	if cmd.Flags().Changed("log-level") {
		cfg.Log.Level, _ = cmd.Flags().GetString("log-level")
	}
	if cmd.Flags().Changed("results-dir") {
		cfg.ResultsDir, _ = cmd.Flags().GetString("results-dir")
	}
	return cfg, cfg.Validate()
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "stdesc-eval %s\n", version)
			fmt.Fprintf(out, "  commit: %s\n", commit)
			fmt.Fprintf(out, "  built:  %s\n", date)
		},
	}
}
