package pipeline

import (
	"context"
	"fmt"

	"trendpress/internal/catalog"
	"trendpress/internal/config"
	"trendpress/internal/relevance"
	"trendpress/internal/sources"
	"trendpress/internal/trends"

	"github.com/rs/zerolog"
)

// ProfileInsights fetches category-scoped trends from the sources named in
// a category's profile and summarizes them.
type ProfileInsights struct {
	catalog   *catalog.Catalog
	transport *sources.Transport
	cfg       config.Sources
	log       zerolog.Logger
}

// NewProfileInsights creates an InsightProvider backed by live sources.
func NewProfileInsights(cat *catalog.Catalog, transport *sources.Transport, cfg config.Sources, log zerolog.Logger) *ProfileInsights {
	return &ProfileInsights{catalog: cat, transport: transport, cfg: cfg, log: log}
}

func (p *ProfileInsights) Insights(ctx context.Context, category string) (relevance.CategoryInsights, error) {
	profile, ok := p.catalog.Profile(category)
	if !ok {
		return relevance.CategoryInsights{}, fmt.Errorf("%w %q", catalog.ErrUnknownCategory, category)
	}

	clients := sources.ForProfile(p.transport, p.cfg, profile)
	agg := trends.NewAggregator(clients...).WithLogger(p.log).Aggregate(ctx)
	return relevance.Insights(profile, agg.Items), nil
}
