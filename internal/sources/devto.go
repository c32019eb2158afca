package sources

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"trendpress/internal/config"
	"trendpress/internal/core"
)

// DevTo lists top articles from the DEV community API.
type DevTo struct {
	t       *Transport
	baseURL string
	perPage int
	topDays int
	tag     string
}

// NewDevTo creates an article client, optionally filtered by tag.
func NewDevTo(t *Transport, cfg config.DevToSource, tag string) *DevTo {
	top := cfg.TopDays
	if top < 1 {
		top = 7
	}
	return &DevTo{
		t:       t,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		perPage: clampLimit(cfg.PerPage, 1, 10),
		topDays: top,
		tag:     strings.TrimSpace(tag),
	}
}

type devtoArticle struct {
	Title                string   `json:"title"`
	Description          string   `json:"description"`
	URL                  string   `json:"url"`
	PublicReactionsCount int      `json:"public_reactions_count"`
	TagList              []string `json:"tag_list"`
}

func (d *DevTo) Source() core.Source { return core.SourceDevTo }

func (d *DevTo) Fetch(ctx context.Context) []core.TrendItem {
	return d.t.bestEffort(ctx, core.SourceDevTo, d.fetch)
}

func (d *DevTo) fetch(ctx context.Context) ([]core.TrendItem, error) {
	params := url.Values{}
	params.Set("per_page", fmt.Sprint(d.perPage))
	params.Set("top", fmt.Sprint(d.topDays))
	if d.tag != "" {
		params.Set("tag", d.tag)
	}

	var articles []devtoArticle
	if err := d.t.getJSON(ctx, d.baseURL+"/api/articles?"+params.Encode(), &articles); err != nil {
		return nil, err
	}

	items := make([]core.TrendItem, 0, len(articles))
	for _, a := range articles {
		if strings.TrimSpace(a.Title) == "" {
			continue
		}
		items = append(items, core.TrendItem{
			Source:      core.SourceDevTo,
			Title:       strings.TrimSpace(a.Title),
			Description: truncate(a.Description, 300),
			URL:         a.URL,
			Metric:      core.IntPtr(a.PublicReactionsCount),
			Tags:        a.TagList,
		})
	}
	return items, nil
}
