// Package pipeline runs the bounded retry loop that turns trends into
// documents. Each attempt walks an explicit state machine:
//
//	SelectingTopic -> CheckingDuplicate -> Generating -> CheckingTitle -> Persisting -> Counted
//
// and any rejection or failure along the way ends the attempt in Retrying.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"trendpress/internal/core"
	"trendpress/internal/dedup"
	"trendpress/internal/logger"
	"trendpress/internal/relevance"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// DefaultAttemptsFactor sets the attempt ceiling relative to the requested count.
const DefaultAttemptsFactor = 3

// ErrInvalidOptions is returned by Run for unusable options.
var ErrInvalidOptions = errors.New("invalid run options")

// State is a step of one attempt.
type State int

const (
	StateSelectingTopic State = iota
	StateCheckingDuplicate
	StateGenerating
	StateCheckingTitle
	StatePersisting
	StateCounted
	StateRetrying
)

func (s State) String() string {
	switch s {
	case StateSelectingTopic:
		return "selecting-topic"
	case StateCheckingDuplicate:
		return "checking-duplicate"
	case StateGenerating:
		return "generating"
	case StateCheckingTitle:
		return "checking-title"
	case StatePersisting:
		return "persisting"
	case StateCounted:
		return "counted"
	case StateRetrying:
		return "retrying"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Options controls one run.
type Options struct {
	// Count is the number of documents requested.
	Count int
	// MaxAttempts bounds the attempts; zero means AttemptsFactor * Count.
	MaxAttempts int
	// AttemptsFactor derives MaxAttempts when it is unset; zero means
	// DefaultAttemptsFactor.
	AttemptsFactor int
	// Pause is the minimum spacing between generation calls.
	Pause time.Duration
	// Category limits topic selection to one catalog category.
	Category string
	// ForcedTopic is used for the first attempt instead of a picked topic.
	ForcedTopic string
}

// Outcome records how one attempt ended.
type Outcome struct {
	Attempt   int                 `json:"attempt"`
	Topic     core.TopicCandidate `json:"topic"`
	Forced    bool                `json:"forced,omitempty"`
	Final     State               `json:"final"`
	StoppedAt State               `json:"stopped_at"`
	Reason    string              `json:"reason,omitempty"`
	Title     string              `json:"title,omitempty"`
	Filename  string              `json:"filename,omitempty"`
	Err       error               `json:"-"`
}

// Counted reports whether the attempt produced a document.
func (o Outcome) Counted() bool {
	return o.Final == StateCounted
}

// Entry is a document produced by a run.
type Entry struct {
	Filename string `json:"filename"`
	Title    string `json:"title"`
}

// Report summarizes a run. Generated never holds more than Requested entries.
type Report struct {
	RunID       uuid.UUID `json:"run_id"`
	Requested   int       `json:"requested"`
	Attempts    int       `json:"attempts"`
	MaxAttempts int       `json:"max_attempts"`
	Generated   []Entry   `json:"generated"`
	Outcomes    []Outcome `json:"outcomes"`
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at"`
}

// Complete reports whether every requested document was produced.
func (r *Report) Complete() bool {
	return len(r.Generated) >= r.Requested
}

// Orchestrator wires the run's components together.
type Orchestrator struct {
	trends    TrendAggregator
	picker    TopicPicker
	catalog   TopicCatalog
	dedup     DuplicateChecker
	generator DocumentGenerator
	writer    DocumentWriter
	insights  InsightProvider
	log       zerolog.Logger
	now       func() time.Time
}

// NewOrchestrator creates an orchestrator. insights may be nil.
func NewOrchestrator(
	trends TrendAggregator,
	picker TopicPicker,
	catalog TopicCatalog,
	dedup DuplicateChecker,
	generator DocumentGenerator,
	writer DocumentWriter,
	insights InsightProvider,
) *Orchestrator {
	return &Orchestrator{
		trends:    trends,
		picker:    picker,
		catalog:   catalog,
		dedup:     dedup,
		generator: generator,
		writer:    writer,
		insights:  insights,
		log:       logger.Get(),
		now:       time.Now,
	}
}

// WithLogger replaces the orchestrator's logger.
func (o *Orchestrator) WithLogger(log zerolog.Logger) *Orchestrator {
	o.log = log
	return o
}

// runState is shared by the attempts of one run.
type runState struct {
	opts     Options
	agg      core.AggregateResult
	insights *relevance.CategoryInsights
	limiter  *rate.Limiter
	tried    map[core.TopicCandidate]bool
}

// Run produces up to opts.Count documents using at most opts.MaxAttempts
// attempts. Attempt failures are recorded in the report, not returned. A
// cancelled context stops the run and returns the partial report together
// with the context error.
func (o *Orchestrator) Run(ctx context.Context, opts Options) (*Report, error) {
	opts, err := o.normalize(opts)
	if err != nil {
		return nil, err
	}

	report := &Report{
		RunID:       uuid.New(),
		Requested:   opts.Count,
		MaxAttempts: opts.MaxAttempts,
		Generated:   []Entry{},
		Outcomes:    []Outcome{},
		StartedAt:   o.now(),
	}
	log := o.log.With().Str("run_id", report.RunID.String()).Logger()
	log.Info().
		Int("requested", opts.Count).
		Int("max_attempts", opts.MaxAttempts).
		Str("category", opts.Category).
		Msg("Starting run")

	run := &runState{
		opts:    opts,
		agg:     o.trends.Aggregate(ctx),
		limiter: newLimiter(opts.Pause),
		tried:   make(map[core.TopicCandidate]bool),
	}
	if opts.Category != "" && o.insights != nil {
		ci, err := o.insights.Insights(ctx, opts.Category)
		if err != nil {
			log.Warn().Err(err).Str("category", opts.Category).Msg("Category insights unavailable, continuing without them")
		} else {
			run.insights = &ci
		}
	}

	for report.Attempts < opts.MaxAttempts && len(report.Generated) < opts.Count {
		if err := ctx.Err(); err != nil {
			report.FinishedAt = o.now()
			return report, err
		}

		report.Attempts++
		outcome := o.attempt(ctx, report.Attempts, run)
		report.Outcomes = append(report.Outcomes, outcome)

		event := log.Info()
		if !outcome.Counted() {
			event = log.Warn().Err(outcome.Err)
		}
		event.
			Int("attempt", outcome.Attempt).
			Str("topic", outcome.Topic.Topic).
			Str("state", outcome.Final.String()).
			Str("stopped_at", outcome.StoppedAt.String()).
			Str("reason", outcome.Reason).
			Msg("Attempt finished")

		if outcome.Counted() {
			report.Generated = append(report.Generated, Entry{Filename: outcome.Filename, Title: outcome.Title})
		}
	}

	report.FinishedAt = o.now()
	log.Info().
		Int("generated", len(report.Generated)).
		Int("requested", report.Requested).
		Int("attempts", report.Attempts).
		Msg("Run finished")

	if err := ctx.Err(); err != nil && !report.Complete() {
		return report, err
	}
	return report, nil
}

func (o *Orchestrator) normalize(opts Options) (Options, error) {
	if opts.Count < 0 {
		return opts, fmt.Errorf("%w: count must be positive, got %d", ErrInvalidOptions, opts.Count)
	}
	if opts.Count == 0 {
		opts.Count = o.catalog.PostsPerRun()
		if opts.Count <= 0 {
			opts.Count = 1
		}
	}
	if opts.MaxAttempts < 0 {
		return opts, fmt.Errorf("%w: max attempts cannot be negative, got %d", ErrInvalidOptions, opts.MaxAttempts)
	}
	if opts.MaxAttempts == 0 {
		factor := opts.AttemptsFactor
		if factor <= 0 {
			factor = DefaultAttemptsFactor
		}
		opts.MaxAttempts = factor * opts.Count
	}
	if opts.Pause < 0 {
		return opts, fmt.Errorf("%w: pause cannot be negative", ErrInvalidOptions)
	}
	opts.Category = strings.TrimSpace(opts.Category)
	if opts.Category != "" && !o.catalog.Has(opts.Category) {
		return opts, fmt.Errorf("%w: unknown category %q", ErrInvalidOptions, opts.Category)
	}
	opts.ForcedTopic = strings.TrimSpace(opts.ForcedTopic)
	return opts, nil
}

func newLimiter(pause time.Duration) *rate.Limiter {
	if pause <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(pause), 1)
}

// attempt drives one pass through the state machine.
func (o *Orchestrator) attempt(ctx context.Context, n int, run *runState) Outcome {
	out := Outcome{Attempt: n}
	retry := func(at State, reason string, err error) Outcome {
		out.Final = StateRetrying
		out.StoppedAt = at
		out.Reason = reason
		out.Err = err
		return out
	}

	var doc core.GeneratedDocument
	state := StateSelectingTopic
	for {
		switch state {
		case StateSelectingTopic:
			topic, forced, ok := o.selectTopic(run, n)
			if !ok {
				return retry(state, "no topic available", nil)
			}
			run.tried[topic] = true
			out.Topic = topic
			out.Forced = forced
			// A forced topic was chosen explicitly, so only the
			// post-generation title check applies to it.
			if forced {
				state = StateGenerating
			} else {
				state = StateCheckingDuplicate
			}

		case StateCheckingDuplicate:
			dup, err := o.dedup.IsDuplicate(out.Topic.Topic, dedup.ScopeToday)
			if err != nil {
				return retry(state, "duplicate check failed", err)
			}
			if dup {
				return retry(state, "topic already covered today", nil)
			}
			state = StateGenerating

		case StateGenerating:
			if err := run.limiter.Wait(ctx); err != nil {
				return retry(state, "interrupted while pacing", err)
			}
			var err error
			doc, err = o.generator.Generate(ctx, run.agg, out.Topic, run.insights)
			if err != nil {
				return retry(state, "generation failed", err)
			}
			out.Title = doc.Title
			state = StateCheckingTitle

		case StateCheckingTitle:
			dup, err := o.dedup.IsDuplicate(doc.Title, dedup.ScopeAll)
			if err != nil {
				return retry(state, "title check failed", err)
			}
			if dup {
				return retry(state, "generated title duplicates an existing document", nil)
			}
			state = StatePersisting

		case StatePersisting:
			name, err := o.writer.Write(doc)
			if err != nil {
				return retry(state, "persist failed", err)
			}
			out.Filename = name
			out.Final = StateCounted
			out.StoppedAt = StateCounted
			return out

		default:
			return retry(state, "unexpected state", nil)
		}
	}
}

// selectTopic returns the forced topic on the first attempt, otherwise a
// picked topic not yet tried this run.
func (o *Orchestrator) selectTopic(run *runState, n int) (core.TopicCandidate, bool, bool) {
	if n == 1 && run.opts.ForcedTopic != "" {
		if cand, ok := o.catalog.Lookup(run.opts.ForcedTopic); ok {
			return cand, true, true
		}
		category := run.opts.Category
		if category == "" {
			category = "general"
		}
		return core.TopicCandidate{Category: category, Topic: run.opts.ForcedTopic}, true, true
	}

	picked, ok := o.picker.Pick(run.agg, run.opts.Category, run.tried)
	if !ok {
		return core.TopicCandidate{}, false, false
	}
	return picked.TopicCandidate, false, true
}
