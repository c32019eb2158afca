package sources

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"trendpress/internal/config"
	"trendpress/internal/core"
)

// GitHub lists recently created repositories ranked by stars.
type GitHub struct {
	t            *Transport
	baseURL      string
	perPage      int
	lookbackDays int
	topic        string
}

// NewGitHub creates a repository search client. A non-empty topic narrows
// the search to repositories tagged with it.
func NewGitHub(t *Transport, cfg config.GitHubSource, topic string) *GitHub {
	lookback := cfg.LookbackDays
	if lookback < 1 {
		lookback = 7
	}
	return &GitHub{
		t:            t,
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		perPage:      clampLimit(cfg.PerPage, 1, 10),
		lookbackDays: lookback,
		topic:        topic,
	}
}

type githubSearchResponse struct {
	Items []struct {
		FullName        string   `json:"full_name"`
		Description     string   `json:"description"`
		HTMLURL         string   `json:"html_url"`
		StargazersCount int      `json:"stargazers_count"`
		Language        string   `json:"language"`
		Topics          []string `json:"topics"`
	} `json:"items"`
}

func (g *GitHub) Source() core.Source { return core.SourceGitHub }

func (g *GitHub) Fetch(ctx context.Context) []core.TrendItem {
	return g.t.bestEffort(ctx, core.SourceGitHub, g.fetch)
}

func (g *GitHub) query() string {
	since := g.t.now().AddDate(0, 0, -g.lookbackDays).Format(core.DateLayout)
	q := "created:>" + since
	if g.topic != "" {
		q += " topic:" + g.topic
	}
	params := url.Values{}
	params.Set("q", q)
	params.Set("sort", "stars")
	params.Set("order", "desc")
	params.Set("per_page", fmt.Sprint(g.perPage))
	return g.baseURL + "/search/repositories?" + params.Encode()
}

func (g *GitHub) fetch(ctx context.Context) ([]core.TrendItem, error) {
	var resp githubSearchResponse
	if err := g.t.getJSON(ctx, g.query(), &resp); err != nil {
		return nil, err
	}

	items := make([]core.TrendItem, 0, len(resp.Items))
	for _, repo := range resp.Items {
		if repo.FullName == "" {
			continue
		}
		var tags []string
		if repo.Language != "" {
			tags = append(tags, repo.Language)
		}
		tags = append(tags, repo.Topics...)

		items = append(items, core.TrendItem{
			Source:      core.SourceGitHub,
			Title:       repo.FullName,
			Description: truncate(repo.Description, 300),
			URL:         repo.HTMLURL,
			Metric:      core.IntPtr(repo.StargazersCount),
			Tags:        tags,
		})
	}
	return items, nil
}
