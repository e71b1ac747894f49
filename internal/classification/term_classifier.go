// Package classification decides whether free-text clinical terms describe a
// heart failure hospitalization.
package classification

import (
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/fontanka/edc-check/internal/model"
)

// ErrInvalidThreshold is returned for a fuzzy threshold outside (0, 1].
var ErrInvalidThreshold = errors.New("fuzzy threshold must be in (0, 1]")

// Config controls classifier behavior.
type Config struct {
	FuzzyThreshold float64 `mapstructure:"fuzzy_threshold"`
	CacheSize      int     `mapstructure:"cache_size"`
}

// DefaultConfig returns the standard classifier settings.
func DefaultConfig() Config {
	return Config{
		FuzzyThreshold: 0.85,
		CacheSize:      1000,
	}
}

type compiledTerm struct {
	re   *regexp.Regexp
	term string
}

type customRules struct {
	includes []compiledTerm
	excludes []compiledTerm
	version  uint64
}

// TermClassifier applies the layered decision order: custom excludes, custom
// includes, built-in exclusions, exact terms, procedures, patterns, fuzzy.
// Results are memoized per tuning version.
type TermClassifier struct {
	tuning     *Tuning
	cache      *lru.Cache[string, model.ClassificationResult]
	custom     *customRules
	exclusions []compiledTerm
	exact      []compiledTerm
	procedures []compiledTerm
	patterns   []compiledTerm
	fuzzyTerms []string
	threshold  float64
	mu         sync.Mutex
}

// NewTermClassifier compiles the vocabulary and binds the classifier to tuning.
func NewTermClassifier(vocab Vocabulary, tuning *Tuning, cfg Config) (*TermClassifier, error) {
	if cfg.FuzzyThreshold <= 0 || cfg.FuzzyThreshold > 1 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidThreshold, cfg.FuzzyThreshold)
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = DefaultConfig().CacheSize
	}
	if tuning == nil {
		tuning = NewTuning(nil, nil)
	}

	cache, err := lru.New[string, model.ClassificationResult](cfg.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create classification cache: %w", err)
	}

	c := &TermClassifier{
		tuning:    tuning,
		cache:     cache,
		threshold: cfg.FuzzyThreshold,
	}

	if c.exclusions, err = compileWords(vocab.Exclusions); err != nil {
		return nil, err
	}
	if c.exact, err = compileWords(vocab.Exact); err != nil {
		return nil, err
	}
	if c.procedures, err = compileWords(vocab.Procedures); err != nil {
		return nil, err
	}
	for _, p := range vocab.Patterns {
		re, compileErr := regexp.Compile(p)
		if compileErr != nil {
			return nil, fmt.Errorf("failed to compile pattern %q: %w", p, compileErr)
		}
		c.patterns = append(c.patterns, compiledTerm{term: p, re: re})
	}
	for _, t := range c.exact {
		c.fuzzyTerms = append(c.fuzzyTerms, t.term)
	}
	for _, t := range c.procedures {
		c.fuzzyTerms = append(c.fuzzyTerms, t.term)
	}

	return c, nil
}

// Tuning returns the tuning state the classifier reads.
func (c *TermClassifier) Tuning() *Tuning {
	return c.tuning
}

// FuzzyThreshold returns the minimum similarity for a fuzzy match.
func (c *TermClassifier) FuzzyThreshold() float64 {
	return c.threshold
}

// Similarity returns the sequence similarity of two terms after normalization.
func (c *TermClassifier) Similarity(a, b string) float64 {
	return ratio(Normalize(a), Normalize(b))
}

// Classify decides whether text names a heart failure event.
func (c *TermClassifier) Classify(text string) model.ClassificationResult {
	normalized := Normalize(text)
	if normalized == "" {
		return model.NoMatch()
	}

	snapshot := c.tuning.Snapshot()
	key := strconv.FormatUint(snapshot.Version, 10) + "\x00" + normalized
	if result, ok := c.cache.Get(key); ok {
		return result
	}

	result := c.classify(normalized, c.rulesFor(snapshot))
	c.cache.Add(key, result)

	slog.Debug("Classified term",
		"text", normalized,
		"matched", result.Matched,
		"match_type", result.MatchType,
		"synonym", result.MatchedSynonym,
		"confidence", result.Confidence)

	return result
}

func (c *TermClassifier) classify(text string, rules *customRules) model.ClassificationResult {
	if t, ok := firstMatch(rules.excludes, text); ok {
		return model.ClassificationResult{MatchedSynonym: t, MatchType: model.MatchCustomExcluded, Confidence: 1.0}
	}
	if t, ok := firstMatch(rules.includes, text); ok {
		return model.ClassificationResult{Matched: true, MatchedSynonym: t, MatchType: model.MatchCustomIncluded, Confidence: 1.0}
	}
	if t, ok := firstMatch(c.exclusions, text); ok {
		return model.ClassificationResult{MatchedSynonym: t, MatchType: model.MatchNone}
	}
	if t, ok := firstMatch(c.exact, text); ok {
		return model.ClassificationResult{Matched: true, MatchedSynonym: t, MatchType: model.MatchExact, Confidence: 1.0}
	}
	if t, ok := firstMatch(c.procedures, text); ok {
		return model.ClassificationResult{Matched: true, MatchedSynonym: t, MatchType: model.MatchProcedure, Confidence: 1.0}
	}
	if t, ok := firstMatch(c.patterns, text); ok {
		return model.ClassificationResult{Matched: true, MatchedSynonym: t, MatchType: model.MatchPattern, Confidence: 1.0}
	}

	best, bestRatio := "", 0.0
	for _, term := range c.fuzzyTerms {
		if r := ratio(term, text); r > bestRatio {
			best, bestRatio = term, r
		}
	}
	if bestRatio >= c.threshold {
		return model.ClassificationResult{Matched: true, MatchedSynonym: best, MatchType: model.MatchFuzzy, Confidence: bestRatio}
	}

	return model.NoMatch()
}

// rulesFor returns the compiled custom keywords for the snapshot's version,
// recompiling only when the version moved.
func (c *TermClassifier) rulesFor(snapshot TuningSnapshot) *customRules {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.custom != nil && c.custom.version == snapshot.Version {
		return c.custom
	}

	rules := &customRules{version: snapshot.Version}
	for _, kw := range snapshot.Excludes {
		if re, err := wordPattern(kw); err == nil {
			rules.excludes = append(rules.excludes, compiledTerm{term: kw, re: re})
		}
	}
	for _, kw := range snapshot.Includes {
		if re, err := wordPattern(kw); err == nil {
			rules.includes = append(rules.includes, compiledTerm{term: kw, re: re})
		}
	}
	c.custom = rules
	return rules
}

func compileWords(terms []string) ([]compiledTerm, error) {
	compiled := make([]compiledTerm, 0, len(terms))
	for _, term := range terms {
		term = Normalize(term)
		re, err := wordPattern(term)
		if err != nil {
			return nil, fmt.Errorf("failed to compile term %q: %w", term, err)
		}
		compiled = append(compiled, compiledTerm{term: term, re: re})
	}
	return compiled, nil
}

func firstMatch(terms []compiledTerm, text string) (string, bool) {
	for _, t := range terms {
		if t.re.MatchString(text) {
			return t.term, true
		}
	}
	return "", false
}
