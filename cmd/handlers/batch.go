package handlers

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"trendpress/internal/catalog"
	"trendpress/internal/config"
	"trendpress/internal/logger"
	"trendpress/internal/pipeline"

	"github.com/spf13/cobra"
)

// NewBatchCmd creates the batch command
func NewBatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch [count] [category]",
		Short: "Write several posts, optionally from one category",
		Long: `Write up to count posts. Count defaults to posts_per_run from the topic
catalog. When a category is given, topics are picked from it only and the
prompt is enriched with what that category's communities are discussing.

Attempts are bounded (generation.max_attempts_factor x count), so a batch can
finish with fewer posts than requested; the summary always shows how many were
written. That is not an error.

Examples:
  trendpress batch
  trendpress batch 3
  trendpress batch 2 security`,
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(cmd.Context(), cmd.OutOrStdout(), args)
		},
	}

	return cmd
}

func runBatch(ctx context.Context, out io.Writer, args []string) error {
	cfg := config.Get()
	if err := cfg.RequireGemini(); err != nil {
		return err
	}

	builder := pipeline.NewBuilder(cfg)
	cat, err := builder.Catalog()
	if err != nil {
		return err
	}

	count, category, err := parseBatchArgs(args, cat)
	if err != nil {
		return err
	}

	orchestrator, err := builder.Build()
	if err != nil {
		return err
	}

	opts := builder.RunOptions()
	opts.Count = count
	opts.Category = category
	// a forced topic only applies to single runs
	opts.ForcedTopic = ""

	logger.Info("Starting batch", map[string]any{"count": count, "category": category})
	report, err := orchestrator.Run(ctx, opts)
	if report != nil {
		renderReport(out, report)
		if !report.Complete() {
			logger.Warn("Batch finished short of the requested count", map[string]any{
				"generated": len(report.Generated),
				"requested": report.Requested,
				"attempts":  report.Attempts,
			})
		}
	}
	return err
}

// parseBatchArgs reads [count] [category], defaulting count to the catalog's
// posts_per_run.
func parseBatchArgs(args []string, cat *catalog.Catalog) (int, string, error) {
	count := cat.PostsPerRun()
	category := ""

	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 1 {
			return 0, "", fmt.Errorf("count must be a positive integer, got %q", args[0])
		}
		count = n
	}
	if len(args) > 1 {
		category = args[1]
		if !cat.Has(category) {
			_, err := cat.Filter(category)
			return 0, "", err
		}
	}
	return count, category, nil
}
