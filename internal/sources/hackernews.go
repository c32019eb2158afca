package sources

import (
	"context"
	"fmt"
	"strings"

	"trendpress/internal/config"
	"trendpress/internal/core"
)

// MaxHackerNewsFollowUps caps the per-story detail requests of one fetch.
const MaxHackerNewsFollowUps = 5

// HackerNews reads the top stories list, then fetches each story's details.
type HackerNews struct {
	t       *Transport
	baseURL string
	limit   int
}

// NewHackerNews creates a top stories client.
func NewHackerNews(t *Transport, cfg config.HackerNewsSource) *HackerNews {
	return &HackerNews{
		t:       t,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		limit:   clampLimit(cfg.Limit, 1, MaxHackerNewsFollowUps),
	}
}

type hnItem struct {
	ID      int64  `json:"id"`
	Type    string `json:"type"`
	Title   string `json:"title"`
	URL     string `json:"url"`
	Text    string `json:"text"`
	Score   int    `json:"score"`
	Dead    bool   `json:"dead"`
	Deleted bool   `json:"deleted"`
}

func (h *HackerNews) Source() core.Source { return core.SourceHackerNews }

func (h *HackerNews) Fetch(ctx context.Context) []core.TrendItem {
	return h.t.bestEffort(ctx, core.SourceHackerNews, h.fetch)
}

func (h *HackerNews) fetch(ctx context.Context) ([]core.TrendItem, error) {
	var ids []int64
	if err := h.t.getJSON(ctx, h.baseURL+"/v0/topstories.json", &ids); err != nil {
		return nil, err
	}
	if len(ids) > h.limit {
		ids = ids[:h.limit]
	}

	items := make([]core.TrendItem, 0, len(ids))
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return items, nil
		}

		var story hnItem
		if err := h.t.getJSON(ctx, fmt.Sprintf("%s/v0/item/%d.json", h.baseURL, id), &story); err != nil {
			h.t.log.Debug().Err(err).Int64("id", id).Msg("Skipping Hacker News story")
			continue
		}
		if story.Dead || story.Deleted || strings.TrimSpace(story.Title) == "" {
			continue
		}

		link := story.URL
		if link == "" {
			link = fmt.Sprintf("https://news.ycombinator.com/item?id=%d", story.ID)
		}

		items = append(items, core.TrendItem{
			Source:      core.SourceHackerNews,
			Title:       strings.TrimSpace(story.Title),
			Description: truncate(htmlText(story.Text), 300),
			URL:         link,
			Metric:      core.IntPtr(story.Score),
		})
	}
	return items, nil
}
