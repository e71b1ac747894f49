package classification

import (
	"slices"
	"sync"
)

// Tuning holds the reviewer's custom include and exclude keywords. Every
// change bumps Version, which is part of the classifier's cache key.
type Tuning struct {
	includes []string
	excludes []string
	version  uint64
	mu       sync.RWMutex
}

// TuningSnapshot is an immutable copy of the tuning lists at one version.
type TuningSnapshot struct {
	Includes []string `yaml:"custom_includes" json:"custom_includes"`
	Excludes []string `yaml:"custom_excludes" json:"custom_excludes"`
	Version  uint64   `yaml:"-" json:"version"`
}

// NewTuning creates tuning state seeded with the given keywords.
func NewTuning(includes, excludes []string) *Tuning {
	t := &Tuning{}
	t.includes = normalizeKeywords(includes)
	t.excludes = normalizeKeywords(excludes)
	return t
}

// Snapshot returns a consistent copy of both lists and the version.
func (t *Tuning) Snapshot() TuningSnapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return TuningSnapshot{
		Includes: slices.Clone(t.includes),
		Excludes: slices.Clone(t.excludes),
		Version:  t.version,
	}
}

// Version returns the current tuning version.
func (t *Tuning) Version() uint64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.version
}

// AddInclude adds a keyword that always classifies as a match.
// It reports whether the list changed.
func (t *Tuning) AddInclude(keyword string) bool {
	return t.update(&t.includes, keyword, true)
}

// RemoveInclude removes a custom include keyword.
func (t *Tuning) RemoveInclude(keyword string) bool {
	return t.update(&t.includes, keyword, false)
}

// AddExclude adds a keyword that always blocks a match.
func (t *Tuning) AddExclude(keyword string) bool {
	return t.update(&t.excludes, keyword, true)
}

// RemoveExclude removes a custom exclude keyword.
func (t *Tuning) RemoveExclude(keyword string) bool {
	return t.update(&t.excludes, keyword, false)
}

// Replace swaps both lists at once, e.g. after reloading the tuning file.
func (t *Tuning) Replace(includes, excludes []string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.includes = normalizeKeywords(includes)
	t.excludes = normalizeKeywords(excludes)
	t.version++
}

func (t *Tuning) update(list *[]string, keyword string, add bool) bool {
	keyword = Normalize(keyword)
	if keyword == "" {
		return false
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	idx := slices.Index(*list, keyword)
	switch {
	case add && idx < 0:
		*list = append(*list, keyword)
	case !add && idx >= 0:
		*list = slices.Delete(*list, idx, idx+1)
	default:
		return false
	}
	t.version++
	return true
}

func normalizeKeywords(keywords []string) []string {
	out := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		kw = Normalize(kw)
		if kw != "" && !slices.Contains(out, kw) {
			out = append(out, kw)
		}
	}
	return out
}
