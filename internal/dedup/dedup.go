// Package dedup decides whether a title or topic repeats an existing document.
//
// The heuristic deliberately over-rejects: two texts match when their
// normalized forms are equal, when either contains the other, or when the
// first token of either appears inside the other.
package dedup

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"trendpress/internal/core"
)

// Scope selects which existing documents a check compares against.
type Scope int

const (
	// ScopeToday compares against documents dated on the current day.
	ScopeToday Scope = iota
	// ScopeAll compares against every document in the store.
	ScopeAll
)

func (s Scope) String() string {
	switch s {
	case ScopeToday:
		return "today"
	case ScopeAll:
		return "all"
	default:
		return fmt.Sprintf("scope(%d)", int(s))
	}
}

// Scanner produces a fresh snapshot of the stored documents.
type Scanner interface {
	Scan() ([]core.ExistingDocumentRecord, error)
}

// Options tunes the heuristic.
type Options struct {
	// MinFirstTokenLen ignores first tokens shorter than this many runes in
	// the first-token rule. Zero keeps every token.
	MinFirstTokenLen int
}

// Detector checks candidates against the store.
type Detector struct {
	store Scanner
	opts  Options
	now   func() time.Time
}

// NewDetector creates a detector reading from store.
func NewDetector(store Scanner, opts Options) *Detector {
	return &Detector{store: store, opts: opts, now: time.Now}
}

// WithClock replaces the clock that defines "today".
func (d *Detector) WithClock(now func() time.Time) *Detector {
	d.now = now
	return d
}

// IsDuplicate reports whether candidate repeats an existing document title in
// scope. The store is rescanned on every call so documents written earlier in
// the same run are visible.
func (d *Detector) IsDuplicate(candidate string, scope Scope) (bool, error) {
	_, found, err := d.Match(candidate, scope)
	return found, err
}

// Match is IsDuplicate that also returns the matching record.
func (d *Detector) Match(candidate string, scope Scope) (core.ExistingDocumentRecord, bool, error) {
	if Normalize(candidate) == "" {
		return core.ExistingDocumentRecord{}, false, nil
	}

	records, err := d.store.Scan()
	if err != nil {
		return core.ExistingDocumentRecord{}, false, fmt.Errorf("failed to scan documents: %w", err)
	}

	today := d.now().Format(core.DateLayout)
	for _, rec := range records {
		if scope == ScopeToday && rec.Date != today {
			continue
		}
		if similar(candidate, rec.Title, d.opts.MinFirstTokenLen) {
			return rec, true, nil
		}
	}
	return core.ExistingDocumentRecord{}, false, nil
}

// Normalize lowercases s, turns punctuation into spaces and collapses
// whitespace.
func Normalize(s string) string {
	mapped := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			return unicode.ToLower(r)
		}
		return ' '
	}, s)
	return strings.Join(strings.Fields(mapped), " ")
}

// Similar applies the duplicate heuristic with every first token eligible.
func Similar(a, b string) bool {
	return similar(a, b, 0)
}

func similar(a, b string, minFirstToken int) bool {
	na, nb := Normalize(a), Normalize(b)
	if na == "" || nb == "" {
		return false
	}
	if na == nb || strings.Contains(na, nb) || strings.Contains(nb, na) {
		return true
	}
	return firstTokenIn(na, nb, minFirstToken) || firstTokenIn(nb, na, minFirstToken)
}

// firstTokenIn reports whether the first token of from occurs inside in.
func firstTokenIn(from, in string, minLen int) bool {
	token, _, _ := strings.Cut(from, " ")
	if len([]rune(token)) < minLen {
		return false
	}
	return strings.Contains(in, token)
}
