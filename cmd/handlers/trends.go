package handlers

import (
	"context"
	"fmt"
	"io"

	"trendpress/internal/config"
	"trendpress/internal/core"
	"trendpress/internal/logger"
	"trendpress/internal/pipeline"
	"trendpress/internal/relevance"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

// NewTrendsCmd creates the trends inspection command
func NewTrendsCmd() *cobra.Command {
	var (
		showScores bool
		top        int
		category   string
	)

	cmd := &cobra.Command{
		Use:   "trends",
		Short: "Show current trends and how catalog topics score against them",
		Long: `Fetch every trend source and print what came back, grouped by source.
With --scores, also rank the catalog topics the way topic selection does.
With --category, show the keyword insights for that category's sources.

Needs no API key and writes nothing.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrends(cmd.Context(), cmd.OutOrStdout(), showScores, top, category)
		},
	}

	cmd.Flags().BoolVar(&showScores, "scores", false, "Rank catalog topics against the trends")
	cmd.Flags().IntVar(&top, "top", 10, "Number of scored topics to show")
	cmd.Flags().StringVar(&category, "category", "", "Show insights for one catalog category")

	return cmd
}

func runTrends(ctx context.Context, out io.Writer, showScores bool, top int, category string) error {
	builder := pipeline.NewBuilder(config.Get())
	cat, err := builder.Catalog()
	if err != nil {
		return err
	}
	if category != "" {
		if _, err := cat.Filter(category); err != nil {
			return err
		}
	}

	agg := builder.Aggregator().Aggregate(ctx)
	renderTrends(out, agg)

	if showScores {
		renderScores(out, relevance.NewScorer(cat).Rank(agg), top)
	}

	if category != "" {
		insights, err := pipeline.NewProfileInsights(cat, builder.Transport(), config.Get().Sources, logger.Get()).
			Insights(ctx, category)
		if err != nil {
			return err
		}
		renderInsights(out, insights)
	}
	return nil
}

func renderTrends(out io.Writer, agg core.AggregateResult) {
	fmt.Fprintln(out, headingStyle.Render(fmt.Sprintf("Trends (%d items, %s)", len(agg.Items), agg.FetchedAt.Format("2006-01-02 15:04"))))
	if len(agg.Items) == 0 {
		fmt.Fprintln(out, warnStyle.Render("  No source returned anything. Topic selection will fall back to random catalog picks."))
		return
	}

	bySource := agg.BySource()
	for _, src := range agg.Sources() {
		fmt.Fprintln(out, sourceStyle.Render(string(src)))
		for _, item := range bySource[src] {
			metric := ""
			if item.Metric != nil {
				metric = dimStyle.Render(fmt.Sprintf(" (%d)", *item.Metric))
			}
			fmt.Fprintf(out, "  • %s%s\n", item.Title, metric)
		}
	}
	fmt.Fprintln(out)
}

func renderScores(out io.Writer, scored []core.ScoredTopic, top int) {
	fmt.Fprintln(out, headingStyle.Render("Topic scores"))
	if top <= 0 || top > len(scored) {
		top = len(scored)
	}

	rows := make([]string, 0, top)
	for i, s := range scored[:top] {
		marker := " "
		if i < relevance.TopK && s.Score > 0 {
			marker = okStyle.Render("★")
		}
		rows = append(rows, fmt.Sprintf("%s %5.1f  %s %s", marker, s.Score, s.Topic, dimStyle.Render("["+s.Category+"]")))
	}
	fmt.Fprintln(out, lipgloss.JoinVertical(lipgloss.Left, rows...))
	fmt.Fprintln(out)
}

func renderInsights(out io.Writer, insights relevance.CategoryInsights) {
	fmt.Fprintln(out, headingStyle.Render("Insights for "+insights.Category))
	if insights.Empty() {
		fmt.Fprintln(out, dimStyle.Render("  Nothing category-specific is trending right now."))
		return
	}
	for _, kw := range insights.Keywords {
		fmt.Fprintf(out, "  %-20s %d\n", kw.Keyword, kw.Count)
	}
	for _, s := range insights.Suggestions {
		fmt.Fprintf(out, "  → %s\n", s)
	}
	fmt.Fprintln(out)
}
