package pipeline

import (
	"fmt"

	"trendpress/internal/catalog"
	"trendpress/internal/config"
	"trendpress/internal/dedup"
	"trendpress/internal/llm"
	"trendpress/internal/logger"
	"trendpress/internal/narrative"
	"trendpress/internal/relevance"
	"trendpress/internal/sources"
	"trendpress/internal/store"
	"trendpress/internal/trends"

	"github.com/rs/zerolog"
)

// Builder helps construct a fully configured Orchestrator
type Builder struct {
	cfg       *config.Config
	catalog   *catalog.Catalog
	llmClient narrative.LLMClient
	transport *sources.Transport
	log       zerolog.Logger
}

// NewBuilder creates a builder over the loaded configuration
func NewBuilder(cfg *config.Config) *Builder {
	return &Builder{cfg: cfg, log: logger.Get()}
}

// WithCatalog sets the topic catalog instead of loading catalog.path
func (b *Builder) WithCatalog(cat *catalog.Catalog) *Builder {
	b.catalog = cat
	return b
}

// WithLLMClient sets the text generator instead of creating a Gemini client
func (b *Builder) WithLLMClient(client narrative.LLMClient) *Builder {
	b.llmClient = client
	return b
}

// WithTransport sets the HTTP transport shared by the source clients
func (b *Builder) WithTransport(t *sources.Transport) *Builder {
	b.transport = t
	return b
}

// WithLogger sets the logger handed to every component
func (b *Builder) WithLogger(log zerolog.Logger) *Builder {
	b.log = log
	return b
}

// Catalog loads the configured catalog once and returns it.
func (b *Builder) Catalog() (*catalog.Catalog, error) {
	if b.catalog != nil {
		return b.catalog, nil
	}
	cat, err := catalog.Load(b.cfg.Catalog.Path)
	if err != nil {
		return nil, err
	}
	b.catalog = cat
	return cat, nil
}

// Transport returns the shared source transport.
func (b *Builder) Transport() *sources.Transport {
	if b.transport == nil {
		b.transport = sources.NewTransport(b.cfg.Sources).WithLogger(b.log)
	}
	return b.transport
}

// Aggregator builds the general-purpose trend aggregator.
func (b *Builder) Aggregator() *trends.Aggregator {
	return trends.NewAggregator(sources.Default(b.Transport(), b.cfg.Sources)...).WithLogger(b.log)
}

// Build constructs an Orchestrator. It fails on setup problems such as a
// missing API key or an unreadable catalog.
func (b *Builder) Build() (*Orchestrator, error) {
	if b.cfg.Output.Directory == "" {
		return nil, fmt.Errorf("output directory is not configured")
	}

	cat, err := b.Catalog()
	if err != nil {
		return nil, err
	}

	if b.llmClient == nil {
		client, err := llm.NewClient(b.cfg.Gemini)
		if err != nil {
			return nil, err
		}
		b.llmClient = client
	}

	docs := store.FromConfig(b.cfg.Output).WithLogger(b.log)
	detector := dedup.NewDetector(docs, dedup.Options{MinFirstTokenLen: b.cfg.Dedup.MinFirstTokenLen})
	generator := narrative.NewGenerator(b.llmClient, narrative.Options{
		MinWords: b.cfg.Generation.MinWords,
		MaxWords: b.cfg.Generation.MaxWords,
		Voice:    b.cfg.Generation.Voice,
	})

	return NewOrchestrator(
		b.Aggregator(),
		relevance.NewScorer(cat),
		cat,
		detector,
		generator,
		docs,
		NewProfileInsights(cat, b.Transport(), b.cfg.Sources, b.log),
	).WithLogger(b.log), nil
}

// RunOptions derives run options from configuration; CLI arguments override
// Count, Category and ForcedTopic.
func (b *Builder) RunOptions() Options {
	return Options{
		AttemptsFactor: b.cfg.Generation.MaxAttemptsFactor,
		Pause:          b.cfg.Generation.PauseDuration(),
		ForcedTopic:    b.cfg.Generation.Topic,
	}
}
