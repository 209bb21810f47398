package main

import (
	"github.com/spf13/cobra"

	"github.com/VitStudio/ctump-pdf/internal/job"
)

func newFetchCommand(ctx *commandContext) *cobra.Command {
	var (
		token       string
		startPage   int
		endPage     int
		output      string
		baseURL     string
		concurrency int
		segmentSize int
		publishURL  string
	)

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch one document's pages and assemble a PDF",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return exitWithCode(ExitInvalidArgs, err.Error())
			}
			if token == "" || startPage < 1 || endPage < startPage || output == "" {
				return exitWithCode(ExitInvalidArgs,
					"--token, --start, --end and --output are required (end >= start >= 1)")
			}

			if baseURL != "" {
				cfg.BaseURL = baseURL
			}
			if publishURL != "" {
				cfg.PublishURL = publishURL
			}
			if concurrency != 0 {
				cfg.Concurrency = concurrency
			}
			if segmentSize != 0 {
				cfg.SegmentSize = segmentSize
			}

			j := job.New(token, startPage, endPage, normalizeOutput(output))
			j.Concurrency = cfg.Concurrency
			j.SegmentSize = cfg.SegmentSize
			sanitizeTuning(&j)

			r := &runner{cfg: cfg, logger: ctx.logger}
			return r.run(cmd.Context(), []job.Job{j})
		},
	}

	cmd.Flags().StringVar(&token, "token", "", "Access token for the document (required)")
	cmd.Flags().IntVar(&startPage, "start", 0, "First page, inclusive (required)")
	cmd.Flags().IntVar(&endPage, "end", 0, "Last page, inclusive (required)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output PDF path (required)")
	cmd.Flags().StringVar(&baseURL, "base-url", "", "DocImage endpoint")
	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "Max concurrent page downloads")
	cmd.Flags().IntVar(&segmentSize, "segment-size", 0, "Pages per segment (RAM bound)")
	cmd.Flags().StringVar(&publishURL, "publish", "", "Bucket URL to copy the finished PDF to")

	return cmd
}
