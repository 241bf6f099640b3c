package service

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/timmy/artcaption/internal/prompts"
)

// DefaultFlourishProbability is the chance a flourish sentence is appended.
const DefaultFlourishProbability = 0.3

type rule struct {
	pattern *regexp.Regexp
	poetic  string
}

var (
	poeticRules    = compileRules(prompts.PoeticReplacements)
	expansionRegex = compileExpansions(prompts.MoodExpansions)
	expansionTable = expansionLookup(prompts.MoodExpansions)
	multiSpace     = regexp.MustCompile(`\s{2,}`)
)

func compileRules(replacements []prompts.Replacement) []rule {
	rules := make([]rule, 0, len(replacements))
	for _, r := range replacements {
		rules = append(rules, rule{
			pattern: regexp.MustCompile(`(?i)\b` + r.Pattern + `\b`),
			poetic:  r.Poetic,
		})
	}
	return rules
}

// compileExpansions builds one alternation so a single left-to-right pass expands
// each occurrence at most once and never re-expands inserted phrases.
func compileExpansions(expansions []prompts.Expansion) *regexp.Regexp {
	words := make([]string, 0, len(expansions))
	for _, e := range expansions {
		words = append(words, regexp.QuoteMeta(e.Word))
	}
	return regexp.MustCompile(`(?i)\b(?:` + strings.Join(words, "|") + `)\b`)
}

func expansionLookup(expansions []prompts.Expansion) map[string]string {
	m := make(map[string]string, len(expansions))
	for _, e := range expansions {
		m[strings.ToLower(e.Word)] = e.Phrase
	}
	return m
}

// PoeticRewriter turns a plain caption into poetic prose.
type PoeticRewriter struct {
	rnd                 RandomSource
	flourishProbability float64
}

// NewPoeticRewriter creates a rewriter drawing flourishes from rnd.
// A probability outside [0, 1] falls back to DefaultFlourishProbability.
func NewPoeticRewriter(rnd RandomSource, flourishProbability float64) *PoeticRewriter {
	if rnd == nil {
		rnd = NewRandomSource(0)
	}
	if flourishProbability < 0 || flourishProbability > 1 {
		flourishProbability = DefaultFlourishProbability
	}
	return &PoeticRewriter{rnd: rnd, flourishProbability: flourishProbability}
}

// Rewrite applies, in order: normalization, phrase substitution, genericness
// rescue, an occasional flourish, mood-word expansion and whitespace cleanup.
// The result is never empty and ends with exactly one period.
func (p *PoeticRewriter) Rewrite(caption string) string {
	caption = NormalizeSentence(caption)
	caption = Substitute(caption)

	if isGeneric(caption) {
		caption = prompts.RescueSentence
	}

	if p.rnd.Float64() < p.flourishProbability {
		caption += " It is " + p.Flourish() + "."
	}

	caption = ExpandMoodWords(caption)
	return cleanup(caption)
}

// Flourish draws one phrase from the flourish pool.
func (p *PoeticRewriter) Flourish() string {
	return prompts.Flourishes[pickIndex(p.rnd, len(prompts.Flourishes))]
}

// NormalizeSentence trims, capitalizes the first letter and ends the text
// with a single period.
func NormalizeSentence(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimRightFunc(s, func(r rune) bool {
		return r == '.' || r == '!' || r == '?' || r == '…' || unicode.IsSpace(r)
	})
	return Capitalize(s) + "."
}

// Substitute applies the poetic phrase table in order, each rule over the
// output of the previous one.
func Substitute(s string) string {
	for _, r := range poeticRules {
		s = r.pattern.ReplaceAllLiteralString(s, r.poetic)
	}
	return s
}

// ExpandMoodWords replaces whole-word mood and style keywords with their phrases.
func ExpandMoodWords(s string) string {
	return expansionRegex.ReplaceAllStringFunc(s, func(word string) string {
		return expansionTable[strings.ToLower(word)]
	})
}

// Capitalize upper-cases the first rune and leaves the rest untouched.
func Capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

func isGeneric(caption string) bool {
	lower := strings.ToLower(strings.TrimSpace(caption))
	if lower == "." {
		return true
	}
	for _, g := range prompts.GenericCaptions {
		if lower == g {
			return true
		}
	}
	return false
}

func cleanup(s string) string {
	s = multiSpace.ReplaceAllString(s, " ")
	return Capitalize(strings.TrimSpace(s))
}
