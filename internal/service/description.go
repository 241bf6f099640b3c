package service

import (
	"strings"
	"unicode"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/timmy/artcaption/internal/prompts"
)

// DefaultDescriptionCutoff is the minimum similarity ratio for a keyword match.
const DefaultDescriptionCutoff = 0.6

// DescriptionMatcher maps a title to a curated description sentence by fuzzy
// keyword similarity, falling back to a random poetic line.
type DescriptionMatcher struct {
	entries   []prompts.DescriptionEntry
	fallbacks []string
	cutoff    float64
	rnd       RandomSource
}

// NewDescriptionMatcher creates a matcher over the curated tables.
// A cutoff outside (0, 1] falls back to DefaultDescriptionCutoff.
func NewDescriptionMatcher(rnd RandomSource, cutoff float64) *DescriptionMatcher {
	if rnd == nil {
		rnd = NewRandomSource(0)
	}
	if cutoff <= 0 || cutoff > 1 {
		cutoff = DefaultDescriptionCutoff
	}
	return &DescriptionMatcher{
		entries:   prompts.Descriptions,
		fallbacks: prompts.FallbackDescriptions,
		cutoff:    cutoff,
		rnd:       rnd,
	}
}

// Describe returns the sentence of the closest keyword, or a fallback line.
// It never fails.
func (m *DescriptionMatcher) Describe(title string) string {
	if keyword, ok := m.MatchKeyword(title); ok {
		for _, e := range m.entries {
			if e.Keyword == keyword {
				return e.Sentence
			}
		}
	}
	return m.fallbacks[pickIndex(m.rnd, len(m.fallbacks))]
}

// MatchKeyword finds the best keyword whose similarity to the title, taken as a
// whole or word by word, reaches the cutoff. Ties keep table order.
func (m *DescriptionMatcher) MatchKeyword(title string) (string, bool) {
	lower := strings.ToLower(strings.TrimSpace(title))
	if lower == "" {
		return "", false
	}
	targets := append([]string{lower}, titleWords(lower)...)

	best, bestScore := "", 0.0
	for _, e := range m.entries {
		score := 0.0
		for _, t := range targets {
			if r := similarity(e.Keyword, t, m.cutoff); r > score {
				score = r
			}
		}
		if score >= m.cutoff && score > bestScore {
			best, bestScore = e.Keyword, score
		}
	}
	return best, best != ""
}

// similarity is the difflib ratio of two strings compared rune by rune.
// The cheap upper bounds are checked first; below cutoff it reports 0.
func similarity(keyword, target string, cutoff float64) float64 {
	sm := difflib.NewMatcher(strings.Split(keyword, ""), strings.Split(target, ""))
	if sm.RealQuickRatio() < cutoff || sm.QuickRatio() < cutoff {
		return 0
	}
	return sm.Ratio()
}

func titleWords(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && r != '\''
	})
}
