package sources

import (
	"context"
	"strings"

	"trendpress/internal/config"
	"trendpress/internal/core"

	"github.com/mmcdole/gofeed"
)

// Feed reads items from configured RSS/Atom feeds. A broken feed is skipped
// without affecting the others.
type Feed struct {
	t     *Transport
	urls  []string
	limit int
}

// NewFeed creates a client over the configured feed URLs.
func NewFeed(t *Transport, cfg config.FeedSource) *Feed {
	return &Feed{
		t:     t,
		urls:  cfg.URLs,
		limit: clampLimit(cfg.Limit, 1, 10),
	}
}

func (f *Feed) Source() core.Source { return core.SourceFeed }

func (f *Feed) Fetch(ctx context.Context) []core.TrendItem {
	return f.t.bestEffort(ctx, core.SourceFeed, f.fetch)
}

func (f *Feed) fetch(ctx context.Context) ([]core.TrendItem, error) {
	parser := gofeed.NewParser()
	parser.Client = f.t.client
	parser.UserAgent = f.t.userAgent

	var items []core.TrendItem
	for _, feedURL := range f.urls {
		parsed, err := parser.ParseURLWithContext(feedURL, ctx)
		if err != nil {
			f.t.log.Warn().Err(err).Str("feed", feedURL).Msg("Skipping feed")
			continue
		}

		count := 0
		for _, entry := range parsed.Items {
			if count >= f.limit {
				break
			}
			if entry == nil || strings.TrimSpace(entry.Title) == "" {
				continue
			}
			items = append(items, core.TrendItem{
				Source:      core.SourceFeed,
				Title:       strings.TrimSpace(entry.Title),
				Description: truncate(htmlText(entry.Description), 300),
				URL:         entry.Link,
				Tags:        entry.Categories,
			})
			count++
		}
	}
	return items, nil
}
