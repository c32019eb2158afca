package pipeline

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"trendpress/internal/catalog"
	"trendpress/internal/core"
	"trendpress/internal/dedup"
	"trendpress/internal/relevance"
	"trendpress/internal/store"

	"github.com/rs/zerolog"
)

type fakeTrends struct {
	agg   core.AggregateResult
	calls int
}

func (f *fakeTrends) Aggregate(ctx context.Context) core.AggregateResult {
	f.calls++
	return f.agg
}

type fakeGenerator struct {
	mu       sync.Mutex
	calls    int
	topics   []core.TopicCandidate
	insights []*relevance.CategoryInsights
	titles   []string
	err      error
}

func (f *fakeGenerator) Generate(ctx context.Context, agg core.AggregateResult, topic core.TopicCandidate, insights *relevance.CategoryInsights) (core.GeneratedDocument, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.topics = append(f.topics, topic)
	f.insights = append(f.insights, insights)
	if f.err != nil {
		return core.GeneratedDocument{}, f.err
	}
	title := fmt.Sprintf("Generated post %d", f.calls)
	if f.calls <= len(f.titles) {
		title = f.titles[f.calls-1]
	}
	return core.GeneratedDocument{
		Title: title,
		Date:  "2026-10-18",
		Tags:  []string{topic.Category},
		Body:  "Body for " + topic.Topic,
	}, nil
}

// scriptedDedup flags titles on the post-generation check according to dupAt.
type scriptedDedup struct {
	todayCalls int
	allCalls   int
	dupAt      func(call int) bool
}

func (s *scriptedDedup) IsDuplicate(text string, scope dedup.Scope) (bool, error) {
	if scope == dedup.ScopeToday {
		s.todayCalls++
		return false, nil
	}
	s.allCalls++
	return s.dupAt != nil && s.dupAt(s.allCalls), nil
}

type memoryWriter struct {
	docs []core.GeneratedDocument
}

func (m *memoryWriter) Write(doc core.GeneratedDocument) (string, error) {
	m.docs = append(m.docs, doc)
	return fmt.Sprintf("%s-%d.md", doc.Date, len(m.docs)), nil
}

type fakeInsights struct {
	calls int
}

func (f *fakeInsights) Insights(ctx context.Context, category string) (relevance.CategoryInsights, error) {
	f.calls++
	return relevance.CategoryInsights{
		Category: category,
		Keywords: []relevance.KeywordCount{{Keyword: "cve", Count: 3}},
	}, nil
}

func mustCatalog(t *testing.T, data string) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.Parse([]byte(data))
	if err != nil {
		t.Fatalf("Failed to parse catalog: %v", err)
	}
	return cat
}

func newPicker(cat *catalog.Catalog) *relevance.Scorer {
	return relevance.NewScorer(cat).WithRand(rand.New(rand.NewPCG(1, 2)))
}

const wideCatalog = `
posts_per_run: 2
categories:
  security: ["CVE triage", "Auth tokens", "Supply chain attacks", "Secrets scanning"]
  languages: ["Rust ownership", "Go generics", "Zig comptime"]
`

func TestRun_AllSourcesEmptyStillTerminates(t *testing.T) {
	cat := mustCatalog(t, `
categories:
  security: ["CVE", "auth"]
`)
	trendSrc := &fakeTrends{agg: core.AggregateResult{Items: []core.TrendItem{}}}
	gen := &fakeGenerator{}
	o := NewOrchestrator(trendSrc, newPicker(cat), cat, &scriptedDedup{}, gen, &memoryWriter{}, nil).
		WithLogger(zerolog.Nop())

	report, err := o.Run(context.Background(), Options{Count: 1})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(report.Outcomes) != 1 || report.Attempts != 1 {
		t.Fatalf("Expected exactly one attempt outcome, got %d outcomes / %d attempts", len(report.Outcomes), report.Attempts)
	}
	topic := report.Outcomes[0].Topic
	if topic.Category != "security" || (topic.Topic != "CVE" && topic.Topic != "auth") {
		t.Errorf("Expected a catalog topic from the random fallback, got %v", topic)
	}
	if trendSrc.calls != 1 {
		t.Errorf("Expected one aggregation per run, got %d", trendSrc.calls)
	}
}

func TestRun_GeneratedTitleDuplicateTriggersRetry(t *testing.T) {
	cat := mustCatalog(t, `
categories:
  security: ["Understanding CVE basics for developers", "Rotating auth tokens"]
`)
	docs := store.NewStore(filepath.Join(t.TempDir(), "posts"), ".md").WithLogger(zerolog.Nop())
	if _, err := docs.Write(core.GeneratedDocument{Title: "Understanding CVE Basics", Date: "2026-01-05", Body: "old"}); err != nil {
		t.Fatalf("Failed to seed store: %v", err)
	}
	detector := dedup.NewDetector(docs, dedup.Options{}).
		WithClock(func() time.Time { return time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC) })

	gen := &fakeGenerator{titles: []string{"understanding cve basics!!", "Rotating tokens without downtime"}}
	o := NewOrchestrator(&fakeTrends{}, newPicker(cat), cat, detector, gen, docs, nil).WithLogger(zerolog.Nop())

	report, err := o.Run(context.Background(), Options{Count: 1})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(report.Outcomes) != 2 {
		t.Fatalf("Expected 2 attempts, got %d", len(report.Outcomes))
	}
	first, second := report.Outcomes[0], report.Outcomes[1]
	if first.Final != StateRetrying || first.StoppedAt != StateCheckingTitle {
		t.Errorf("Expected first attempt rejected at title check, got %s at %s", first.Final, first.StoppedAt)
	}
	if second.Topic == first.Topic {
		t.Errorf("Expected retry with a different topic, both were %v", first.Topic)
	}
	if !second.Counted() || len(report.Generated) != 1 {
		t.Errorf("Expected second attempt to be counted, got %+v", second)
	}

	records, err := docs.Scan()
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if len(records) != 2 {
		t.Errorf("Expected the seed plus one new document, got %d", len(records))
	}
}

func TestRun_EverySecondAttemptDuplicate(t *testing.T) {
	cat := mustCatalog(t, wideCatalog)
	checker := &scriptedDedup{dupAt: func(call int) bool { return call%2 == 0 }}
	writer := &memoryWriter{}
	o := NewOrchestrator(&fakeTrends{}, newPicker(cat), cat, checker, &fakeGenerator{}, writer, nil).
		WithLogger(zerolog.Nop())

	report, err := o.Run(context.Background(), Options{Count: 3, MaxAttempts: 9})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(report.Generated) != 3 {
		t.Errorf("Expected 3 generated documents, got %d", len(report.Generated))
	}
	if report.Attempts > 9 {
		t.Errorf("Expected at most 9 attempts, got %d", report.Attempts)
	}
	if report.Attempts != 5 {
		t.Errorf("Expected 5 attempts with alternating duplicates, got %d", report.Attempts)
	}
	if len(writer.docs) != 3 {
		t.Errorf("Expected 3 persisted documents, got %d", len(writer.docs))
	}
}

func TestRun_CeilingAlwaysHolds(t *testing.T) {
	cat := mustCatalog(t, wideCatalog)
	tests := []struct {
		name    string
		checker DuplicateChecker
		gen     *fakeGenerator
	}{
		{"always duplicate", &scriptedDedup{dupAt: func(int) bool { return true }}, &fakeGenerator{}},
		{"always failing", &scriptedDedup{}, &fakeGenerator{err: errors.New("model overloaded")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := NewOrchestrator(&fakeTrends{}, newPicker(cat), cat, tt.checker, tt.gen, &memoryWriter{}, nil).
				WithLogger(zerolog.Nop())

			report, err := o.Run(context.Background(), Options{Count: 2, MaxAttempts: 7})
			if err != nil {
				t.Fatalf("Run failed: %v", err)
			}
			if report.Attempts != 7 || len(report.Outcomes) != 7 {
				t.Errorf("Expected exactly 7 attempts, got %d", report.Attempts)
			}
			if len(report.Generated) != 0 || report.Complete() {
				t.Errorf("Expected nothing generated, got %d", len(report.Generated))
			}
		})
	}
}

func TestRun_GeneratedNeverExceedsRequested(t *testing.T) {
	cat := mustCatalog(t, wideCatalog)
	for count := 1; count <= 4; count++ {
		o := NewOrchestrator(&fakeTrends{}, newPicker(cat), cat, &scriptedDedup{}, &fakeGenerator{}, &memoryWriter{}, nil).
			WithLogger(zerolog.Nop())
		report, err := o.Run(context.Background(), Options{Count: count})
		if err != nil {
			t.Fatalf("Run failed: %v", err)
		}
		if len(report.Generated) > report.Requested {
			t.Errorf("Generated %d of %d requested", len(report.Generated), report.Requested)
		}
		if report.MaxAttempts != DefaultAttemptsFactor*count {
			t.Errorf("Expected default ceiling %d, got %d", DefaultAttemptsFactor*count, report.MaxAttempts)
		}
	}
}

func TestRun_ForcedTopic(t *testing.T) {
	cat := mustCatalog(t, wideCatalog)
	checker := &scriptedDedup{}
	gen := &fakeGenerator{}
	o := NewOrchestrator(&fakeTrends{}, newPicker(cat), cat, checker, gen, &memoryWriter{}, nil).WithLogger(zerolog.Nop())

	report, err := o.Run(context.Background(), Options{Count: 2, ForcedTopic: "zig comptime"})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	first := report.Outcomes[0]
	if !first.Forced || first.Topic != (core.TopicCandidate{Category: "languages", Topic: "Zig comptime"}) {
		t.Errorf("Expected forced catalog topic on first attempt, got %+v", first)
	}
	if report.Outcomes[1].Forced {
		t.Error("Expected forced topic only on the first attempt")
	}
	if checker.todayCalls != 1 {
		t.Errorf("Expected pre-check skipped for forced topic, got %d pre-checks", checker.todayCalls)
	}
}

func TestRun_ForcedTopicOutsideCatalog(t *testing.T) {
	cat := mustCatalog(t, wideCatalog)
	gen := &fakeGenerator{}
	o := NewOrchestrator(&fakeTrends{}, newPicker(cat), cat, &scriptedDedup{}, gen, &memoryWriter{}, nil).WithLogger(zerolog.Nop())

	if _, err := o.Run(context.Background(), Options{Count: 1, ForcedTopic: "WebAssembly on the edge"}); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if gen.topics[0].Topic != "WebAssembly on the edge" || gen.topics[0].Category != "general" {
		t.Errorf("Unexpected forced topic %v", gen.topics[0])
	}
}

func TestRun_CategoryScoped(t *testing.T) {
	cat := mustCatalog(t, wideCatalog)
	gen := &fakeGenerator{}
	insights := &fakeInsights{}
	o := NewOrchestrator(&fakeTrends{}, newPicker(cat), cat, &scriptedDedup{}, gen, &memoryWriter{}, insights).
		WithLogger(zerolog.Nop())

	report, err := o.Run(context.Background(), Options{Count: 3, Category: "security"})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(report.Generated) != 3 {
		t.Fatalf("Expected 3 documents, got %d", len(report.Generated))
	}
	for i, topic := range gen.topics {
		if topic.Category != "security" {
			t.Errorf("Attempt %d: expected security topic, got %v", i+1, topic)
		}
		if gen.insights[i] == nil || gen.insights[i].Category != "security" {
			t.Errorf("Attempt %d: expected category insights in the prompt", i+1)
		}
	}
	if insights.calls != 1 {
		t.Errorf("Expected insights computed once per run, got %d", insights.calls)
	}
}

func TestRun_DefaultCountFromCatalog(t *testing.T) {
	cat := mustCatalog(t, wideCatalog)
	o := NewOrchestrator(&fakeTrends{}, newPicker(cat), cat, &scriptedDedup{}, &fakeGenerator{}, &memoryWriter{}, nil).WithLogger(zerolog.Nop())

	report, err := o.Run(context.Background(), Options{})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if report.Requested != 2 {
		t.Errorf("Expected posts_per_run default of 2, got %d", report.Requested)
	}
}

func TestRun_InvalidOptions(t *testing.T) {
	cat := mustCatalog(t, wideCatalog)
	o := NewOrchestrator(&fakeTrends{}, newPicker(cat), cat, &scriptedDedup{}, &fakeGenerator{}, &memoryWriter{}, nil).WithLogger(zerolog.Nop())

	for _, opts := range []Options{
		{Count: -1},
		{Count: 1, MaxAttempts: -3},
		{Count: 1, Category: "gardening"},
		{Count: 1, Pause: -time.Second},
	} {
		if _, err := o.Run(context.Background(), opts); !errors.Is(err, ErrInvalidOptions) {
			t.Errorf("Options %+v: expected ErrInvalidOptions, got %v", opts, err)
		}
	}
}

func TestRun_Cancelled(t *testing.T) {
	cat := mustCatalog(t, wideCatalog)
	gen := &fakeGenerator{}
	o := NewOrchestrator(&fakeTrends{}, newPicker(cat), cat, &scriptedDedup{}, gen, &memoryWriter{}, nil).WithLogger(zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := o.Run(ctx, Options{Count: 3})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected context.Canceled, got %v", err)
	}
	if report == nil || report.Attempts != 0 || gen.calls != 0 {
		t.Errorf("Expected a partial report with no attempts, got %+v", report)
	}
}

func TestRun_PacesGenerationCalls(t *testing.T) {
	cat := mustCatalog(t, wideCatalog)
	o := NewOrchestrator(&fakeTrends{}, newPicker(cat), cat, &scriptedDedup{}, &fakeGenerator{}, &memoryWriter{}, nil).WithLogger(zerolog.Nop())

	start := time.Now()
	if _, err := o.Run(context.Background(), Options{Count: 3, Pause: 40 * time.Millisecond}); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 70*time.Millisecond {
		t.Errorf("Expected generation calls to be paced, finished in %v", elapsed)
	}
}

func TestStateString(t *testing.T) {
	if StateCheckingTitle.String() != "checking-title" || StateCounted.String() != "counted" {
		t.Error("Unexpected state names")
	}
	if State(99).String() != "state(99)" {
		t.Errorf("Unexpected fallback name %q", State(99).String())
	}
}
