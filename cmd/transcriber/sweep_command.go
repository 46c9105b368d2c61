package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"transcriber/internal/scratch"
)

func newSweepCommand(ctx *commandContext) *cobra.Command {
	var maxAge time.Duration

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Delete stale files from the scratch directory once",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := cliLogger(cfg)
			if err != nil {
				return err
			}
			age := maxAge
			if age <= 0 {
				age = time.Duration(cfg.Sweep.RetentionSeconds) * time.Second
			}
			result, err := scratch.Sweep(logger, cfg.Paths.ScratchDir, age, time.Now())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d, kept %d, failed %d\n", result.Removed, result.Kept, result.Failed)
			return nil
		},
	}
	cmd.Flags().DurationVar(&maxAge, "max-age", 0, "Override the configured retention")
	return cmd
}
