package commands

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/expense-tracker/internal/batch"
	"github.com/joseph-ayodele/expense-tracker/internal/repository"
)

func newScanDirCommand() *cobra.Command {
	var (
		save       bool
		workers    int
		exts       []string
		showHidden bool
		jobTimeout time.Duration
		watch      bool
		debounce   time.Duration
	)

	cmd := &cobra.Command{
		Use:   "scan-dir <dir>",
		Short: "Run every receipt under a directory through the extraction pipeline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(true)
			if err != nil {
				return err
			}
			logger, err := newLogger(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			ctx := cmd.Context()
			var store batch.ExpenseCreator
			if save {
				db, err := openStore(ctx, cfg, logger)
				if err != nil {
					return err
				}
				defer db.Close()
				store = repository.NewExpenseRepository(db, logger)
			}

			importer := batch.NewImporter(buildPipeline(cfg, logger), store, cfg.Extraction.MaxUploadBytes, logger,
				batch.WithWorkers(workers),
				batch.WithJobTimeout(jobTimeout),
			)
			sum, err := importer.ImportDir(ctx, args[0], exts, !showHidden)
			if err == nil && watch {
				// existing files first, then everything that lands until interrupted
				var watched *batch.Summary
				watched, err = importer.WatchDir(ctx, batch.WatchConfig{
					Root:       args[0],
					Extensions: exts,
					SkipHidden: !showHidden,
					Debounce:   debounce,
				})
				if watched != nil {
					sum = mergeSummaries(sum, watched)
				}
			}
			if sum != nil {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				if encErr := enc.Encode(sum); encErr != nil {
					return encErr
				}
			}
			if err != nil {
				return err
			}
			if sum.Failed > 0 {
				return fmt.Errorf("%d of %d files failed", sum.Failed, len(sum.Files))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&save, "save", false, "store each draft as an expense")
	cmd.Flags().IntVar(&workers, "workers", 4, "number of files processed concurrently")
	cmd.Flags().StringSliceVar(&exts, "ext", nil, "file extensions to include (default pdf,jpg,jpeg,png,webp)")
	cmd.Flags().BoolVar(&showHidden, "hidden", false, "include hidden files and directories")
	cmd.Flags().BoolVar(&watch, "watch", false, "keep running and import receipts as they are added")
	cmd.Flags().DurationVar(&debounce, "debounce", 500*time.Millisecond, "quiet period before a changed file is imported (with --watch)")
	cmd.Flags().DurationVar(&jobTimeout, "job-timeout", 2*time.Minute, "upper bound for a single file")
	return cmd
}

func mergeSummaries(a, b *batch.Summary) *batch.Summary {
	return &batch.Summary{
		Files:     append(a.Files, b.Files...),
		Matched:   a.Matched + b.Matched,
		Saved:     a.Saved + b.Saved,
		Degraded:  a.Degraded + b.Degraded,
		Failed:    a.Failed + b.Failed,
		WalkStats: a.WalkStats,
	}
}
