package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"transcriber/internal/daemonrun"
	"transcriber/internal/preflight"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var logLevel string
	var skipPreflight bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the transcription daemon in the foreground",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if !skipPreflight {
				failed := preflight.Failed(preflight.RunAll(cmd.Context(), cfg, false))
				if len(failed) > 0 {
					errOut := cmd.ErrOrStderr()
					for _, r := range failed {
						fmt.Fprintln(errOut, renderStatusLine(r.Name, statusError, r.Detail, shouldColorize(errOut)))
					}
					return fmt.Errorf("preflight failed: %d check(s) did not pass", len(failed))
				}
			}
			return daemonrun.Run(cmd.Context(), cfg, daemonrun.Options{LogLevel: logLevel})
		},
	}

	cmd.Flags().StringVar(&logLevel, "log-level", "", "Override the configured log level")
	cmd.Flags().BoolVar(&skipPreflight, "skip-preflight", false, "Start without running preflight checks")
	return cmd
}
