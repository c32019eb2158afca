package relevance

import (
	"fmt"
	"sort"
	"strings"

	"trendpress/internal/catalog"
	"trendpress/internal/core"
)

const maxSuggestions = 3

// KeywordCount is a profile keyword and the number of items mentioning it.
type KeywordCount struct {
	Keyword string `json:"keyword"`
	Count   int    `json:"count"`
}

// CategoryInsights summarizes category-scoped trends for prompt guidance.
type CategoryInsights struct {
	Category    string         `json:"category"`
	Keywords    []KeywordCount `json:"keywords"`
	Suggestions []string       `json:"suggestions"`
}

// Empty reports whether there is nothing worth adding to a prompt.
func (ci CategoryInsights) Empty() bool {
	return len(ci.Keywords) == 0 && len(ci.Suggestions) == 0
}

// Insights ranks the profile keywords found in items by how many items
// mention them, ties kept in profile order, and derives up to three angle
// suggestions from the most common item tags.
func Insights(profile catalog.Profile, items []core.TrendItem) CategoryInsights {
	insights := CategoryInsights{
		Category:    profile.Category,
		Keywords:    []KeywordCount{},
		Suggestions: []string{},
	}

	for _, kw := range profile.Keywords {
		count := 0
		for _, item := range items {
			if item.Mentions(kw) {
				count++
			}
		}
		if count > 0 {
			insights.Keywords = append(insights.Keywords, KeywordCount{Keyword: kw, Count: count})
		}
	}
	sort.SliceStable(insights.Keywords, func(i, j int) bool {
		return insights.Keywords[i].Count > insights.Keywords[j].Count
	})

	for _, tag := range topTags(items, maxSuggestions) {
		insights.Suggestions = append(insights.Suggestions, fmt.Sprintf("What the %s discussions reveal for working developers", tag))
	}
	if len(insights.Suggestions) == 0 {
		for i := 0; i < len(insights.Keywords) && i < maxSuggestions; i++ {
			insights.Suggestions = append(insights.Suggestions, fmt.Sprintf("A practical look at %s right now", insights.Keywords[i].Keyword))
		}
	}
	return insights
}

// topTags returns the n most frequent lowercase tags, ties in first-seen order.
func topTags(items []core.TrendItem, n int) []string {
	counts := make(map[string]int)
	var order []string
	for _, item := range items {
		for _, tag := range item.Tags {
			tag = strings.ToLower(strings.TrimSpace(tag))
			if tag == "" {
				continue
			}
			if counts[tag] == 0 {
				order = append(order, tag)
			}
			counts[tag]++
		}
	}
	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	if len(order) > n {
		order = order[:n]
	}
	return order
}
