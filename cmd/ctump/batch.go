package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/VitStudio/ctump-pdf/internal/job"
)

// manifestEntry is one document in a batch manifest:
//
//	[{"token": "...", "start_page": 1, "end_page": 450, "output_filename": "anatomy"}]
type manifestEntry struct {
	Token          string `json:"token"`
	StartPage      int    `json:"start_page"`
	EndPage        int    `json:"end_page"`
	OutputFilename string `json:"output_filename"`
}

func loadManifest(path string) ([]job.Job, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	var entries []manifestEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("manifest is empty")
	}

	jobs := make([]job.Job, 0, len(entries))
	for i, e := range entries {
		if e.Token == "" || e.StartPage < 1 || e.EndPage < e.StartPage || e.OutputFilename == "" {
			return nil, fmt.Errorf("manifest entry %d is invalid", i+1)
		}
		jobs = append(jobs, job.New(e.Token, e.StartPage, e.EndPage, normalizeOutput(e.OutputFilename)))
	}
	return jobs, nil
}

func newBatchCommand(ctx *commandContext) *cobra.Command {
	var (
		manifest    string
		concurrency int
		segmentSize int
	)

	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Run every document in a JSON manifest, sequentially",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return exitWithCode(ExitInvalidArgs, err.Error())
			}
			if manifest == "" {
				return exitWithCode(ExitInvalidArgs, "--manifest is required")
			}

			if concurrency != 0 {
				cfg.Concurrency = concurrency
			}
			if segmentSize != 0 {
				cfg.SegmentSize = segmentSize
			}

			jobs, err := loadManifest(manifest)
			if err != nil {
				return exitWithCode(ExitInvalidArgs, err.Error())
			}
			for i := range jobs {
				jobs[i].Concurrency = cfg.Concurrency
				jobs[i].SegmentSize = cfg.SegmentSize
				sanitizeTuning(&jobs[i])
			}

			r := &runner{cfg: cfg, logger: ctx.logger}
			return r.run(cmd.Context(), jobs)
		},
	}

	cmd.Flags().StringVar(&manifest, "manifest", "", "Path to JSON manifest (required)")
	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "Max concurrent page downloads")
	cmd.Flags().IntVar(&segmentSize, "segment-size", 0, "Pages per segment (RAM bound)")

	return cmd
}
