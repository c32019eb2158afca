package sources

import (
	"context"
	"fmt"
	"strings"

	"trendpress/internal/config"
	"trendpress/internal/core"
)

// Reddit reads hot posts from one community.
type Reddit struct {
	t         *Transport
	baseURL   string
	subreddit string
	limit     int
}

// NewReddit creates a hot posts client for subreddit.
func NewReddit(t *Transport, cfg config.RedditSource, subreddit string) *Reddit {
	sub := strings.TrimPrefix(strings.TrimSpace(subreddit), "r/")
	if sub == "" {
		sub = "programming"
	}
	return &Reddit{
		t:         t,
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		subreddit: sub,
		limit:     clampLimit(cfg.Limit, 1, 10),
	}
}

type redditListing struct {
	Data struct {
		Children []struct {
			Data struct {
				Title         string `json:"title"`
				Selftext      string `json:"selftext"`
				Permalink     string `json:"permalink"`
				URL           string `json:"url"`
				Score         int    `json:"score"`
				LinkFlairText string `json:"link_flair_text"`
				Stickied      bool   `json:"stickied"`
				Over18        bool   `json:"over_18"`
			} `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

func (r *Reddit) Source() core.Source { return core.SourceReddit }

func (r *Reddit) Fetch(ctx context.Context) []core.TrendItem {
	return r.t.bestEffort(ctx, core.SourceReddit, r.fetch)
}

func (r *Reddit) fetch(ctx context.Context) ([]core.TrendItem, error) {
	endpoint := fmt.Sprintf("%s/r/%s/hot.json?limit=%d&raw_json=1", r.baseURL, r.subreddit, r.limit)

	var listing redditListing
	if err := r.t.getJSON(ctx, endpoint, &listing); err != nil {
		return nil, err
	}

	items := make([]core.TrendItem, 0, len(listing.Data.Children))
	for _, child := range listing.Data.Children {
		post := child.Data
		if post.Stickied || post.Over18 || strings.TrimSpace(post.Title) == "" {
			continue
		}

		link := post.URL
		if post.Permalink != "" {
			link = r.baseURL + post.Permalink
		}

		tags := []string{"r/" + r.subreddit}
		if post.LinkFlairText != "" {
			tags = append(tags, post.LinkFlairText)
		}

		items = append(items, core.TrendItem{
			Source:      core.SourceReddit,
			Title:       strings.TrimSpace(post.Title),
			Description: truncate(strings.Join(strings.Fields(post.Selftext), " "), 300),
			URL:         link,
			Metric:      core.IntPtr(post.Score),
			Tags:        tags,
		})
	}
	return items, nil
}
