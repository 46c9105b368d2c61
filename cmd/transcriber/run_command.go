package main

import (
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"transcriber/internal/api"
	"transcriber/internal/daemonrun"
	"transcriber/internal/delivery"
	"transcriber/internal/storage"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var (
		task           string
		language       string
		noText         bool
		includeSRT     bool
		includeSegs    bool
		wordTimestamps bool
		cloud          bool
		jobID          string
	)

	cmd := &cobra.Command{
		Use:   "run MEDIA_URL",
		Short: "Transcribe one media URL in the foreground and print the result as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := cliLogger(cfg)
			if err != nil {
				return err
			}

			includeText := !noText
			body := api.TranscribeRequest{
				MediaURL:        args[0],
				Task:            task,
				IncludeText:     &includeText,
				IncludeSRT:      includeSRT,
				IncludeSegments: includeSegs,
				WordTimestamps:  wordTimestamps,
				Language:        language,
				ResponseType:    api.ResponseTypeDirect,
			}
			if cloud {
				body.ResponseType = api.ResponseTypeCloud
			}
			id := strings.TrimSpace(jobID)
			if id == "" {
				id = uuid.NewString()
			}
			req, err := body.Pipeline(id)
			if err != nil {
				return err
			}

			var provider *storage.Provider
			if req.Delivery == delivery.ModeUploaded {
				provider, err = daemonrun.SelectStorage(cmd.Context(), cfg, logger)
				if err != nil {
					return err
				}
				defer provider.Close()
			}

			orchestrator := daemonrun.Orchestrator(cfg, ctx.newEngine(cfg, logger), provider, logger)
			result, err := orchestrator.Run(cmd.Context(), req)
			if err != nil {
				return err
			}
			return writeJSON(cmd, result)
		},
	}

	cmd.Flags().StringVar(&task, "task", "transcribe", "transcribe or translate (to English)")
	cmd.Flags().StringVar(&language, "language", "", "Source language hint (detected when empty)")
	cmd.Flags().BoolVar(&noText, "no-text", false, "Omit the plain text transcript")
	cmd.Flags().BoolVar(&includeSRT, "srt", false, "Include SRT subtitles")
	cmd.Flags().BoolVar(&includeSegs, "segments", false, "Include the segment list")
	cmd.Flags().BoolVar(&wordTimestamps, "word-timestamps", false, "Request word-level timing")
	cmd.Flags().BoolVar(&cloud, "cloud", false, "Upload artifacts to the configured storage and print URLs")
	cmd.Flags().StringVar(&jobID, "job-id", "", "Job identifier used for scratch and artifact names")
	return cmd
}
