package pipeline

import (
	"context"

	"trendpress/internal/core"
	"trendpress/internal/dedup"
	"trendpress/internal/relevance"
)

// TrendAggregator collects the trend snapshot a run writes against
type TrendAggregator interface {
	// Aggregate never fails; unavailable sources contribute nothing
	Aggregate(ctx context.Context) core.AggregateResult
}

// TopicPicker chooses what to write about
type TopicPicker interface {
	// Pick returns a catalog topic, limited to category when it is set, and
	// avoiding exclude where possible
	Pick(agg core.AggregateResult, category string, exclude map[core.TopicCandidate]bool) (core.ScoredTopic, bool)
}

// TopicCatalog answers questions about the configured topics
type TopicCatalog interface {
	Has(category string) bool
	Lookup(topic string) (core.TopicCandidate, bool)
	PostsPerRun() int
}

// DuplicateChecker compares text against the stored documents
type DuplicateChecker interface {
	IsDuplicate(text string, scope dedup.Scope) (bool, error)
}

// DocumentGenerator writes a document for a topic
type DocumentGenerator interface {
	Generate(ctx context.Context, agg core.AggregateResult, topic core.TopicCandidate, insights *relevance.CategoryInsights) (core.GeneratedDocument, error)
}

// DocumentWriter persists documents
type DocumentWriter interface {
	// Write returns the file name the document was stored under
	Write(doc core.GeneratedDocument) (string, error)
}

// InsightProvider summarizes category-scoped trends
type InsightProvider interface {
	Insights(ctx context.Context, category string) (relevance.CategoryInsights, error)
}
