package dedup

import (
	"fmt"
	"math"
	"sync"
	"time"

	"recipe-harvest/pkg/domain"
)

// Which version a duplicate check decided to keep.
const (
	KeptNew      = "new"
	KeptExisting = "existing"
)

// Decision is the outcome of one duplicate check. It lives in the run log
// only; decisions are not persisted.
type Decision struct {
	IsDuplicate bool    `json:"is_duplicate"`
	MatchedURL  string  `json:"matched_url,omitempty"`
	Similarity  float64 `json:"similarity"`
	Reason      string  `json:"reason,omitempty"`
	KeptVersion string  `json:"kept_version,omitempty"`
}

// LogEntry records a single duplicate hit for offline audit.
type LogEntry struct {
	Timestamp  time.Time `json:"timestamp"`
	NewTitle   string    `json:"new_title"`
	Platform   string    `json:"platform"`
	MatchedURL string    `json:"matched_url"`
	Reason     string    `json:"reason"`
	Similarity float64   `json:"similarity"`
	Action     string    `json:"action"`
}

// Log accumulates dedup decisions and counters for one harvest run.
// Safe for concurrent use.
type Log struct {
	mu      sync.Mutex
	entries []LogEntry

	TotalChecked       int
	DuplicatesFound    int
	DuplicatesReplaced int
	DuplicatesSkipped  int
}

func (l *Log) record(r *domain.Recipe, d Decision) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.TotalChecked++
	if !d.IsDuplicate {
		return
	}
	l.DuplicatesFound++
	if d.KeptVersion == KeptNew {
		l.DuplicatesReplaced++
	} else {
		l.DuplicatesSkipped++
	}
	l.entries = append(l.entries, LogEntry{
		Timestamp:  time.Now().UTC(),
		NewTitle:   r.Title,
		Platform:   string(r.Platform),
		MatchedURL: d.MatchedURL,
		Reason:     d.Reason,
		Similarity: math.Round(d.Similarity*1000) / 1000,
		Action:     d.KeptVersion,
	})
}

// Entries returns a copy of the recorded duplicate hits.
func (l *Log) Entries() []LogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]LogEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Summary returns the aggregate counters.
func (l *Log) Summary() map[string]int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return map[string]int{
		"total_checked":       l.TotalChecked,
		"duplicates_found":    l.DuplicatesFound,
		"duplicates_replaced": l.DuplicatesReplaced,
		"duplicates_skipped":  l.DuplicatesSkipped,
		"unique_new":          l.TotalChecked - l.DuplicatesSkipped,
	}
}

// Deduplicator detects cross-platform duplicate recipes by title similarity
// and macro proximity. A fresh Deduplicator (and with it a fresh Log) is
// created per harvest run.
type Deduplicator struct {
	// TitleThreshold alone marks a duplicate.
	TitleThreshold float64
	// MacroTitleThreshold marks a duplicate only when macros also match.
	MacroTitleThreshold float64
	CalorieTolerance    int
	ProteinTolerance    float64

	Log *Log
}

// New returns a deduplicator with the given thresholds.
func New(titleThreshold, macroTitleThreshold float64, calTol int, proteinTol float64) *Deduplicator {
	return &Deduplicator{
		TitleThreshold:      titleThreshold,
		MacroTitleThreshold: macroTitleThreshold,
		CalorieTolerance:    calTol,
		ProteinTolerance:    proteinTol,
		Log:                 &Log{},
	}
}

// Check compares candidate against the pool and reports the first duplicate
// found, including which version to keep.
func (d *Deduplicator) Check(candidate *domain.Recipe, pool []*domain.Recipe) Decision {
	for _, existing := range pool {
		sim := TitleSimilarity(candidate.Title, existing.Title)

		if sim >= d.TitleThreshold {
			decision := d.duplicate(candidate, existing, sim, fmt.Sprintf("title_similarity=%.2f", sim))
			d.Log.record(candidate, decision)
			return decision
		}

		if sim >= d.MacroTitleThreshold && d.macrosSimilar(candidate, existing) {
			decision := d.duplicate(candidate, existing, sim, fmt.Sprintf("title_similarity=%.2f+macro_match", sim))
			d.Log.record(candidate, decision)
			return decision
		}
	}

	decision := Decision{IsDuplicate: false}
	d.Log.record(candidate, decision)
	return decision
}

func (d *Deduplicator) duplicate(candidate, existing *domain.Recipe, sim float64, reason string) Decision {
	kept := KeptExisting
	if CompletenessScore(candidate) > CompletenessScore(existing) {
		kept = KeptNew
	}
	return Decision{
		IsDuplicate: true,
		MatchedURL:  existing.SourceURL,
		Similarity:  sim,
		Reason:      reason,
		KeptVersion: kept,
	}
}

// macrosSimilar reports whether both recipes carry complete macros within
// the calorie and protein tolerances.
func (d *Deduplicator) macrosSimilar(a, b *domain.Recipe) bool {
	if !a.Nutrition.Complete() || !b.Nutrition.Complete() {
		return false
	}
	calDiff := *a.Nutrition.Calories - *b.Nutrition.Calories
	if calDiff < 0 {
		calDiff = -calDiff
	}
	return calDiff <= d.CalorieTolerance &&
		math.Abs(*a.Nutrition.ProteinG-*b.Nutrition.ProteinG) <= d.ProteinTolerance
}

// DeduplicateBatch processes candidates in arrival order against the
// accepted result set so far. A later, more complete version of an already
// accepted recipe replaces it.
func (d *Deduplicator) DeduplicateBatch(candidates []*domain.Recipe) []*domain.Recipe {
	var accepted []*domain.Recipe
	for _, candidate := range candidates {
		decision := d.Check(candidate, accepted)
		switch {
		case !decision.IsDuplicate:
			accepted = append(accepted, candidate)
		case decision.KeptVersion == KeptNew:
			kept := accepted[:0:0]
			for _, r := range accepted {
				if r.SourceURL != decision.MatchedURL {
					kept = append(kept, r)
				}
			}
			accepted = append(kept, candidate)
		}
	}
	return accepted
}

// FilterAgainstCorpus re-checks batch survivors against a window of
// previously stored recipes. A candidate that duplicates a stored recipe is
// dropped unless it is the more complete version, in which case it is kept
// and will overwrite on upsert.
func (d *Deduplicator) FilterAgainstCorpus(candidates, corpus []*domain.Recipe) []*domain.Recipe {
	var kept []*domain.Recipe
	for _, candidate := range candidates {
		decision := d.Check(candidate, corpus)
		if !decision.IsDuplicate || decision.KeptVersion == KeptNew {
			kept = append(kept, candidate)
		}
	}
	return kept
}

// CompletenessScore counts how much structure a recipe carries; it breaks
// ties between duplicate versions. Higher wins; on an exact tie the
// existing version is kept.
func CompletenessScore(r *domain.Recipe) int {
	score := len(r.Ingredients) + len(r.Steps)
	if r.Nutrition.Complete() {
		score += 3
	}
	if r.Description != "" {
		score++
	}
	if r.ThumbnailURL != "" {
		score++
	}
	if len(r.Tags) > 0 {
		score++
	}
	return score
}
