// Package relevance ranks catalog topics against the current trends and
// summarizes what a category's sources are talking about.
package relevance

import (
	"math/rand/v2"
	"sort"
	"strings"
	"time"

	"trendpress/internal/catalog"
	"trendpress/internal/core"
)

const (
	// KeywordWeight is added for every priority keyword found in a topic.
	KeywordWeight = 1.0
	// SourceBonus is added, per matching keyword, for every source that
	// mentions that keyword.
	SourceBonus = 2.0
	// TopK is the size of the shortlist Pick chooses from.
	TopK = 5
)

// Scorer ranks the candidates of a catalog.
type Scorer struct {
	catalog  *catalog.Catalog
	keywords []string
	rng      *rand.Rand
}

// NewScorer creates a scorer over cat using its priority keywords.
func NewScorer(cat *catalog.Catalog) *Scorer {
	seed := uint64(time.Now().UnixNano())
	return &Scorer{
		catalog:  cat,
		keywords: cat.PriorityKeywords(),
		rng:      rand.New(rand.NewPCG(seed, seed>>1|1)),
	}
}

// WithRand replaces the random source used by Pick.
func (s *Scorer) WithRand(r *rand.Rand) *Scorer {
	s.rng = r
	return s
}

// Score ranks candidates by keyword overlap with the trend snapshot. The sort
// is stable, so equal scores keep catalog order.
func (s *Scorer) Score(candidates []core.TopicCandidate, agg core.AggregateResult) []core.ScoredTopic {
	mentions := s.sourceMentions(agg)

	scored := make([]core.ScoredTopic, len(candidates))
	for i, cand := range candidates {
		topic := strings.ToLower(cand.Topic)
		var score float64
		for _, kw := range s.keywords {
			if !strings.Contains(topic, kw) {
				continue
			}
			score += KeywordWeight + SourceBonus*float64(mentions[kw])
		}
		scored[i] = core.ScoredTopic{TopicCandidate: cand, Score: score}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	return scored
}

// sourceMentions counts, per keyword, the sources with at least one item
// mentioning it.
func (s *Scorer) sourceMentions(agg core.AggregateResult) map[string]int {
	bySource := agg.BySource()
	counts := make(map[string]int, len(s.keywords))
	for _, kw := range s.keywords {
		for _, items := range bySource {
			for _, item := range items {
				if item.Mentions(kw) {
					counts[kw]++
					break
				}
			}
		}
	}
	return counts
}

// Pick chooses a topic to write about, limited to category when it is not
// empty. It draws uniformly from the TopK best candidates not in exclude;
// when nothing scores it draws from all of them, and when everything is
// excluded it draws from the whole catalog. The boolean is false when there
// is nothing to choose from, such as an unknown category.
func (s *Scorer) Pick(agg core.AggregateResult, category string, exclude map[core.TopicCandidate]bool) (core.ScoredTopic, bool) {
	all := s.catalog.Candidates()
	if category != "" {
		scoped, err := s.catalog.Filter(category)
		if err != nil {
			return core.ScoredTopic{}, false
		}
		all = scoped.Candidates()
	}
	if len(all) == 0 {
		return core.ScoredTopic{}, false
	}

	pool := make([]core.TopicCandidate, 0, len(all))
	for _, cand := range all {
		if !exclude[cand] {
			pool = append(pool, cand)
		}
	}
	if len(pool) == 0 {
		pool = all
	}

	scored := s.Score(pool, agg)
	if scored[0].Score == 0 {
		return scored[s.rng.IntN(len(scored))], true
	}

	top := scored[:min(TopK, len(scored))]
	return top[s.rng.IntN(len(top))], true
}

// Rank scores the whole catalog against agg.
func (s *Scorer) Rank(agg core.AggregateResult) []core.ScoredTopic {
	return s.Score(s.catalog.Candidates(), agg)
}
