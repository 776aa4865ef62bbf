package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"cargopipe/internal/config"
)

func newValidateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <pipeline-file>",
		Short: "Check a pipeline file without running it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(args[0])
			if err != nil {
				return err
			}
			issues := config.ValidatePipeline(cfg)
			printIssues(cmd.OutOrStdout(), issues)
			if config.HasErrors(issues) {
				return fmt.Errorf("%s: %d issue(s)", args[0], len(issues))
			}
			a.log.Debug("pipeline valid", zap.String("path", args[0]), zap.Int("warnings", len(issues)))
			fmt.Fprintf(cmd.OutOrStdout(), "%s: ok\n", args[0])
			return nil
		},
	}
}
