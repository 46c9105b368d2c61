package main

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"transcriber/internal/preflight"
	"transcriber/internal/queue"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var online bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Summarize daemon, environment, and queue state",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			printLines(out, renderSectionHeader("Daemon", colorize))
			running, err := daemonRunning(cfg.LockPath())
			switch {
			case err != nil:
				fmt.Fprintln(out, renderStatusLine("Transcriber", statusWarn, err.Error(), colorize))
			case running:
				fmt.Fprintln(out, renderStatusLine("Transcriber", statusOK, "Running", colorize))
			default:
				fmt.Fprintln(out, renderStatusLine("Transcriber", statusInfo, "Not running", colorize))
			}
			if cfg.Paths.APIBind != "" {
				fmt.Fprintln(out, renderStatusLine("API", statusInfo, cfg.Paths.APIBind, colorize))
			}
			fmt.Fprintln(out)

			printLines(out, renderSectionHeader("Environment", colorize))
			for _, result := range preflight.RunAll(cmd.Context(), cfg, online) {
				fmt.Fprintln(out, renderCheck(result, statusError, colorize))
			}
			fmt.Fprintln(out)

			printLines(out, renderSectionHeader("Queue", colorize))
			store, err := queue.Open(cfg)
			if err != nil {
				fmt.Fprintln(out, renderStatusLine("Database", statusError, err.Error(), colorize))
				return nil
			}
			defer store.Close()
			health, err := store.Health(cmd.Context())
			if err != nil {
				fmt.Fprintln(out, renderStatusLine("Database", statusError, err.Error(), colorize))
				return nil
			}
			fmt.Fprintln(out, renderStatusLine("Database", statusOK, filepath.Clean(store.Path()), colorize))
			fmt.Fprintln(out, renderStatusLine("Jobs", statusInfo, fmt.Sprintf(
				"%d total, %d queued, %d processing, %d completed, %d failed",
				health.Total, health.Queued, health.Processing, health.Completed, health.Failed), colorize))
			if health.Failed > 0 {
				fmt.Fprintln(out, renderStatusLine("Failures", statusWarn, "run 'transcriber queue list --status failed'", colorize))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&online, "online", false, "Include checks that reach external services")
	return cmd
}

// daemonRunning probes the daemon lock without holding it.
func daemonRunning(lockPath string) (bool, error) {
	lock := flock.New(lockPath)
	locked, err := lock.TryLock()
	if err != nil {
		return false, fmt.Errorf("probe daemon lock: %w", err)
	}
	if locked {
		_ = lock.Unlock()
		return false, nil
	}
	return true, nil
}

func printLines(out io.Writer, lines []string) {
	for _, line := range lines {
		fmt.Fprintln(out, line)
	}
}
