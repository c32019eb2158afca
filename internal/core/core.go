package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the calendar date format used in filenames and metadata headers.
const DateLayout = "2006-01-02"

// ErrInvalidDocument is returned when a document is missing required fields.
var ErrInvalidDocument = errors.New("invalid document")

// Source identifies the external data source a TrendItem came from.
type Source string

const (
	SourceGitHub     Source = "github"
	SourceHackerNews Source = "hackernews"
	SourceDevTo      Source = "devto"
	SourceReddit     Source = "reddit"
	SourceFeed       Source = "feed"
)

// TrendItem is one normalized signal from an external data source.
type TrendItem struct {
	Source      Source   `json:"source"`                // Where the item came from
	Title       string   `json:"title"`                 // Headline or repository name
	Description string   `json:"description,omitempty"` // Short plain-text description
	URL         string   `json:"url"`                   // Canonical link
	Metric      *int     `json:"metric,omitempty"`      // Source-specific popularity (stars, points, reactions)
	Tags        []string `json:"tags,omitempty"`        // Source metadata: topics, tags, flair, categories
}

// MetricValue returns the popularity metric, or zero when the source has none.
func (t TrendItem) MetricValue() int {
	if t.Metric == nil {
		return 0
	}
	return *t.Metric
}

// Mentions reports whether keyword appears, case-insensitively, in the
// item's title, description or tags.
func (t TrendItem) Mentions(keyword string) bool {
	kw := strings.ToLower(strings.TrimSpace(keyword))
	if kw == "" {
		return false
	}
	if strings.Contains(strings.ToLower(t.Title), kw) || strings.Contains(strings.ToLower(t.Description), kw) {
		return true
	}
	for _, tag := range t.Tags {
		if strings.Contains(strings.ToLower(tag), kw) {
			return true
		}
	}
	return false
}

// IntPtr is a small helper for building optional metrics.
func IntPtr(v int) *int {
	return &v
}

// AggregateResult is the merged output of one trend aggregation run.
type AggregateResult struct {
	Items     []TrendItem `json:"items"`
	FetchedAt time.Time   `json:"fetched_at"`
}

// BySource groups items by source, preserving item order within each group.
func (r AggregateResult) BySource() map[Source][]TrendItem {
	grouped := make(map[Source][]TrendItem)
	for _, item := range r.Items {
		grouped[item.Source] = append(grouped[item.Source], item)
	}
	return grouped
}

// Sources returns the distinct sources present, in first-seen order.
func (r AggregateResult) Sources() []Source {
	seen := make(map[Source]bool)
	var out []Source
	for _, item := range r.Items {
		if !seen[item.Source] {
			seen[item.Source] = true
			out = append(out, item.Source)
		}
	}
	return out
}

// TopicCandidate is a topic drawn verbatim from the topic catalog.
type TopicCandidate struct {
	Category string `json:"category"`
	Topic    string `json:"topic"`
}

func (c TopicCandidate) String() string {
	return c.Category + "/" + c.Topic
}

// ScoredTopic is a TopicCandidate ranked against the current trends.
type ScoredTopic struct {
	TopicCandidate
	Score float64 `json:"score"`
}

// ExistingDocumentRecord is a read-only view of a document already in the store.
type ExistingDocumentRecord struct {
	Date     string `json:"date"` // DateLayout
	Slug     string `json:"slug"`
	Title    string `json:"title"`
	FilePath string `json:"file_path"`
}

// GeneratedDocument is an article produced by the content generator.
type GeneratedDocument struct {
	Title    string   `json:"title"`
	Date     string   `json:"date"` // DateLayout
	Excerpt  string   `json:"excerpt"`
	Tags     []string `json:"tags"`
	Featured bool     `json:"featured"`
	Body     string   `json:"body"`
}

// Validate checks the fields that must be present before a document is persisted.
func (d GeneratedDocument) Validate() error {
	if strings.TrimSpace(d.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidDocument)
	}
	if strings.TrimSpace(d.Date) == "" {
		return fmt.Errorf("%w: date is required", ErrInvalidDocument)
	}
	return nil
}
