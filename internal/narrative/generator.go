// Package narrative turns a trend snapshot and a chosen topic into a
// document by prompting a text generator once.
package narrative

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"trendpress/internal/core"
	"trendpress/internal/frontmatter"
	"trendpress/internal/relevance"
)

var (
	// ErrNoTitle means the generated header carries no title.
	ErrNoTitle = errors.New("generated document has no title")
	// ErrMalformedOutput means the generated text does not follow the
	// header-then-body contract.
	ErrMalformedOutput = errors.New("generated document is malformed")
)

const (
	defaultItemsPerSource = 5
	maxExcerptLen         = 160
)

// LLMClient defines the interface for LLM operations needed by the generator
type LLMClient interface {
	// GenerateText generates text from a prompt
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// Options shapes the prompt.
type Options struct {
	MinWords       int
	MaxWords       int
	Voice          string
	ItemsPerSource int
}

// Generator writes one document per call.
type Generator struct {
	llmClient LLMClient
	opts      Options
	now       func() time.Time
}

// NewGenerator creates a new document generator
func NewGenerator(llmClient LLMClient, opts Options) *Generator {
	if opts.ItemsPerSource <= 0 {
		opts.ItemsPerSource = defaultItemsPerSource
	}
	if opts.MinWords <= 0 {
		opts.MinWords = 700
	}
	if opts.MaxWords < opts.MinWords {
		opts.MaxWords = opts.MinWords + 500
	}
	if strings.TrimSpace(opts.Voice) == "" {
		opts.Voice = "a senior engineer writing for peers: direct, concrete, and skeptical of hype"
	}
	return &Generator{llmClient: llmClient, opts: opts, now: time.Now}
}

// WithClock replaces the clock used for the default document date.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Generate prompts the model once and parses its answer. insights may be nil.
func (g *Generator) Generate(ctx context.Context, agg core.AggregateResult, topic core.TopicCandidate, insights *relevance.CategoryInsights) (core.GeneratedDocument, error) {
	prompt, err := g.BuildPrompt(agg, topic, insights)
	if err != nil {
		return core.GeneratedDocument{}, err
	}

	text, err := g.llmClient.GenerateText(ctx, prompt)
	if err != nil {
		return core.GeneratedDocument{}, fmt.Errorf("text generation failed: %w", err)
	}

	return g.Parse(text, topic)
}

// trendDigest is the JSON shape of trend data embedded in the prompt.
type trendDigest struct {
	Source string        `json:"source"`
	Items  []trendSample `json:"items"`
}

type trendSample struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	URL         string `json:"url,omitempty"`
	Metric      *int   `json:"metric,omitempty"`
}

// BuildPrompt assembles the single instruction sent to the model.
func (g *Generator) BuildPrompt(agg core.AggregateResult, topic core.TopicCandidate, insights *relevance.CategoryInsights) (string, error) {
	bySource := agg.BySource()
	digests := make([]trendDigest, 0, len(bySource))
	for _, src := range agg.Sources() {
		items := bySource[src]
		if len(items) > g.opts.ItemsPerSource {
			items = items[:g.opts.ItemsPerSource]
		}
		digest := trendDigest{Source: string(src), Items: make([]trendSample, 0, len(items))}
		for _, item := range items {
			digest.Items = append(digest.Items, trendSample{
				Title:       item.Title,
				Description: item.Description,
				URL:         item.URL,
				Metric:      item.Metric,
			})
		}
		digests = append(digests, digest)
	}

	trendJSON, err := json.MarshalIndent(digests, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode trend data: %w", err)
	}

	var prompt strings.Builder

	prompt.WriteString("Write an original technical blog post for software developers.\n\n")
	prompt.WriteString(fmt.Sprintf("Topic: %s\n", topic.Topic))
	prompt.WriteString(fmt.Sprintf("Category: %s\n", topic.Category))
	prompt.WriteString(fmt.Sprintf("Date: %s\n\n", g.now().Format(core.DateLayout)))

	prompt.WriteString("## Current developer trends\n")
	if len(agg.Items) == 0 {
		prompt.WriteString("No live trend data is available today. Rely on durable, well-established knowledge of the topic.\n\n")
	} else {
		prompt.WriteString("Use these signals to ground the post in what developers are discussing right now. Reference them where relevant, never invent links.\n\n")
		prompt.WriteString("```json\n")
		prompt.Write(trendJSON)
		prompt.WriteString("\n```\n\n")
	}

	if insights != nil && !insights.Empty() {
		prompt.WriteString(fmt.Sprintf("## What the %s community is focused on\n", insights.Category))
		for _, kw := range insights.Keywords {
			prompt.WriteString(fmt.Sprintf("- %s (%d mentions)\n", kw.Keyword, kw.Count))
		}
		if len(insights.Suggestions) > 0 {
			prompt.WriteString("\nPossible angles:\n")
			for _, s := range insights.Suggestions {
				prompt.WriteString("- " + s + "\n")
			}
		}
		prompt.WriteString("\n")
	}

	prompt.WriteString(fmt.Sprintf(`## Instructions
1. Voice: %s
2. Length: %d to %d words of body text
3. Structure: a short hook, then sections with ## headings, concrete examples or code where useful, and a closing takeaway
4. Do not mention that you are an AI or that you were given trend data

## Output format
Respond with the document only, exactly in this shape:

---
title: "A specific, compelling title"
date: %s
excerpt: "One or two sentences summarizing the post"
tags: [%s]
featured: false
---

Markdown body starts here.
`, g.opts.Voice, g.opts.MinWords, g.opts.MaxWords, g.now().Format(core.DateLayout), topic.Category))

	return prompt.String(), nil
}

// Parse validates generated text against the header contract and fills in
// defaults for optional fields.
func (g *Generator) Parse(text string, topic core.TopicCandidate) (core.GeneratedDocument, error) {
	header, body, err := frontmatter.Parse(text)
	if err != nil {
		if errors.Is(err, frontmatter.ErrNoTitle) {
			return core.GeneratedDocument{}, ErrNoTitle
		}
		return core.GeneratedDocument{}, fmt.Errorf("%w: %v", ErrMalformedOutput, err)
	}
	if body == "" {
		return core.GeneratedDocument{}, fmt.Errorf("%w: empty body", ErrMalformedOutput)
	}

	date := strings.TrimSpace(header.Date)
	if date == "" {
		date = g.now().Format(core.DateLayout)
	} else if _, err := header.ParsedDate(); err != nil {
		return core.GeneratedDocument{}, fmt.Errorf("%w: %v", ErrMalformedOutput, err)
	}

	tags := cleanTags(header.Tags)
	if len(tags) == 0 {
		tags = []string{topic.Category}
	}

	excerpt := strings.TrimSpace(header.Excerpt)
	if excerpt == "" {
		excerpt = truncateText(firstParagraph(body), maxExcerptLen)
	}

	return core.GeneratedDocument{
		Title:    header.Title,
		Date:     date,
		Excerpt:  excerpt,
		Tags:     tags,
		Featured: header.Featured,
		Body:     body,
	}, nil
}

func cleanTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// firstParagraph returns the first prose paragraph of a Markdown body,
// skipping headings and fenced code.
func firstParagraph(body string) string {
	for _, para := range strings.Split(body, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" || strings.HasPrefix(para, "#") || strings.HasPrefix(para, "```") {
			continue
		}
		return strings.Join(strings.Fields(para), " ")
	}
	return ""
}

func truncateText(text string, maxLength int) string {
	runes := []rune(text)
	if len(runes) <= maxLength {
		return text
	}

	truncated := string(runes[:maxLength])
	if lastSpace := strings.LastIndex(truncated, " "); lastSpace > 0 {
		truncated = truncated[:lastSpace]
	}
	return strings.TrimRight(truncated, " ,.;:") + "..."
}
