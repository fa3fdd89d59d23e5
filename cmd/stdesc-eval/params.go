package main

import (
	"github.com/spf13/cobra"

	"github.com/jamesainslie/go-stdesc/matcher"
)

func paramsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "params",
		Short: "Print the detector parameters a run would send, as YAML",
		Long: `Print the effective detector parameters: the built-in defaults merged with
the file named by --params (or matcher.params_file in the config).

The output is a valid parameter file and can be edited and passed back.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("params") {
				cfg.Matcher.ParamsFile, _ = cmd.Flags().GetString("params")
			}

			params, err := matcher.LoadParams(cfg.Matcher.ParamsFile)
			if err != nil {
				return err
			}
			return matcher.WriteParams(cmd.OutOrStdout(), params)
		},
	}

	cmd.Flags().String("params", "", "detector parameter file (YAML)")

	return cmd
}
