// Package model defines the core domain models used throughout the application.
package model

// MatchType records which classifier rule produced a decision.
type MatchType string

// Match type constants. MatchNone marks a term that did not match anything.
const (
	MatchNone           MatchType = ""
	MatchExact          MatchType = "exact"
	MatchProcedure      MatchType = "procedure"
	MatchPattern        MatchType = "pattern"
	MatchFuzzy          MatchType = "fuzzy"
	MatchCustomIncluded MatchType = "custom_included"
	MatchCustomExcluded MatchType = "custom_excluded"
	MatchManual         MatchType = "manual"
)

// IsValid reports whether t is one of the known match types.
func (t MatchType) IsValid() bool {
	switch t {
	case MatchNone, MatchExact, MatchProcedure, MatchPattern, MatchFuzzy,
		MatchCustomIncluded, MatchCustomExcluded, MatchManual:
		return true
	}
	return false
}

// ClassificationResult is the outcome of classifying one free-text term.
type ClassificationResult struct {
	MatchedSynonym string    `json:"matched_synonym"`
	MatchType      MatchType `json:"match_type"`
	Confidence     float64   `json:"confidence"`
	Matched        bool      `json:"matched"`
}

// NoMatch is the result returned for empty or unrecognized text.
func NoMatch() ClassificationResult {
	return ClassificationResult{MatchType: MatchNone}
}
