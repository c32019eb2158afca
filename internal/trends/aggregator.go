// Package trends collects items from every source client into one snapshot.
package trends

import (
	"context"
	"time"

	"trendpress/internal/core"
	"trendpress/internal/logger"
	"trendpress/internal/sources"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Aggregator fans out to the configured source clients.
type Aggregator struct {
	clients []sources.Client
	now     func() time.Time
	log     zerolog.Logger
}

// NewAggregator creates an aggregator over clients. Output order follows the
// order of clients.
func NewAggregator(clients ...sources.Client) *Aggregator {
	return &Aggregator{
		clients: clients,
		now:     time.Now,
		log:     logger.Get(),
	}
}

// WithClock replaces the clock used to stamp results.
func (a *Aggregator) WithClock(now func() time.Time) *Aggregator {
	a.now = now
	return a
}

// WithLogger replaces the aggregator's logger.
func (a *Aggregator) WithLogger(log zerolog.Logger) *Aggregator {
	a.log = log
	return a
}

// Aggregate runs every client concurrently and concatenates their items.
// Clients never fail, so neither does Aggregate.
func (a *Aggregator) Aggregate(ctx context.Context) core.AggregateResult {
	slots := make([][]core.TrendItem, len(a.clients))

	g, gctx := errgroup.WithContext(ctx)
	for i, client := range a.clients {
		g.Go(func() error {
			slots[i] = client.Fetch(gctx)
			return nil
		})
	}
	_ = g.Wait()

	result := core.AggregateResult{
		Items:     []core.TrendItem{},
		FetchedAt: a.now(),
	}
	for i, items := range slots {
		a.log.Info().
			Str("source", string(a.clients[i].Source())).
			Int("items", len(items)).
			Msg("Collected trend items")
		result.Items = append(result.Items, items...)
	}

	a.log.Info().
		Int("sources", len(a.clients)).
		Int("items", len(result.Items)).
		Msg("Trend aggregation complete")
	return result
}
