package handlers

import (
	"context"
	"io"
	"strings"

	"trendpress/internal/config"
	"trendpress/internal/logger"
	"trendpress/internal/pipeline"

	"github.com/spf13/cobra"
)

// NewGenerateCmd creates the single-post command
func NewGenerateCmd() *cobra.Command {
	var topic string

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write one post about a trending topic",
		Long: `Write one post. The topic is picked from the catalog by matching it
against current trends, unless one is given with --topic or through the
TOPIC environment variable (the flag wins when both are set). A given topic
skips the same-day duplicate check; the generated title is still checked
against every existing post.

Requires GEMINI_API_KEY.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd.Context(), cmd.OutOrStdout(), topic)
		},
	}

	cmd.Flags().StringVar(&topic, "topic", "", "Write about this topic instead of picking one")

	return cmd
}

func runGenerate(ctx context.Context, out io.Writer, topic string) error {
	cfg := config.Get()
	if err := cfg.RequireGemini(); err != nil {
		return err
	}

	builder := pipeline.NewBuilder(cfg)
	orchestrator, err := builder.Build()
	if err != nil {
		return err
	}

	opts := builder.RunOptions()
	opts.Count = 1
	if t := strings.TrimSpace(topic); t != "" {
		opts.ForcedTopic = t
	}

	logger.Info("Generating post", map[string]any{"forced_topic": opts.ForcedTopic})
	report, err := orchestrator.Run(ctx, opts)
	if report != nil {
		renderReport(out, report)
	}
	return err
}
