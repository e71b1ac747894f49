// Package dedup folds the same hospitalization recorded on several
// pre-treatment forms into a single event.
package dedup

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/fontanka/edc-check/internal/model"
)

// Strategy selects when two same-day events count as one.
type Strategy string

// Dedup strategies.
const (
	// StrategyTerm merges same-day events whose terms are equivalent.
	StrategyTerm Strategy = "term"
	// StrategyDate merges every same-day event regardless of term.
	StrategyDate Strategy = "date"
)

// ErrUnknownStrategy is returned for an unsupported strategy name.
var ErrUnknownStrategy = errors.New("unknown dedup strategy")

// ParseStrategy converts a configuration value into a Strategy.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(strings.ToLower(strings.TrimSpace(s))) {
	case StrategyTerm, "":
		return StrategyTerm, nil
	case StrategyDate:
		return StrategyDate, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStrategy, s)
}

// Similarity scores two terms in [0, 1].
type Similarity interface {
	Similarity(a, b string) float64
	FuzzyThreshold() float64
}

// formRank orders forms by precedence; lower wins.
var formRank = map[model.SourceForm]int{
	model.FormHFH:  0,
	model.FormHMEH: 1,
	model.FormCVH:  2,
}

func rank(form model.SourceForm) int {
	if r, ok := formRank[form]; ok {
		return r
	}
	return len(formRank)
}

// Deduplicator merges duplicate pre-treatment events.
type Deduplicator struct {
	similarity Similarity
	strategy   Strategy
}

// New creates a deduplicator. similarity may be nil with StrategyDate.
func New(similarity Similarity, strategy Strategy) *Deduplicator {
	return &Deduplicator{similarity: similarity, strategy: strategy}
}

// Deduplicate returns the surviving events ordered by form precedence
// (HFH, HMEH, CVH) and then input order. A duplicate's id is appended to the
// survivor's MergedIDs. Undated events are never merged. The input is not
// modified.
func (d *Deduplicator) Deduplicate(events []model.HFEvent) []model.HFEvent {
	ordered := make([]model.HFEvent, len(events))
	for i := range events {
		ordered[i] = events[i].Clone()
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return rank(ordered[i].SourceForm) < rank(ordered[j].SourceForm)
	})

	kept := make([]model.HFEvent, 0, len(ordered))
	for _, event := range ordered {
		if event.Date == "" {
			kept = append(kept, event)
			continue
		}

		survivor := -1
		for i := range kept {
			if kept[i].Date == event.Date && d.equivalent(&kept[i], &event) {
				survivor = i
				break
			}
		}
		if survivor < 0 {
			kept = append(kept, event)
			continue
		}

		kept[survivor].MergedIDs = append(kept[survivor].MergedIDs, event.EventID)
		kept[survivor].MergedIDs = append(kept[survivor].MergedIDs, event.MergedIDs...)
		slog.Debug("Merged duplicate event",
			"kept", kept[survivor].EventID,
			"dropped", event.EventID,
			"date", event.Date)
	}

	return kept
}

func (d *Deduplicator) equivalent(a, b *model.HFEvent) bool {
	if d.strategy == StrategyDate {
		return true
	}
	if strings.EqualFold(a.MatchedSynonym, b.MatchedSynonym) && a.MatchedSynonym != "" {
		return true
	}
	if d.similarity == nil {
		return false
	}
	threshold := d.similarity.FuzzyThreshold()
	return d.similarity.Similarity(a.MatchedSynonym, b.MatchedSynonym) >= threshold ||
		d.similarity.Similarity(a.OriginalTerm, b.OriginalTerm) >= threshold
}
