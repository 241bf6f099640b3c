package service

import (
	"sort"
	"strings"
	"sync"

	"github.com/timmy/artcaption/internal/prompts"
)

const (
	// DefaultPrefixCandidates is how many least-used prefixes are surfaced per draw.
	DefaultPrefixCandidates = 10
	prefixNoiseRange        = 0.5
)

// PrefixUsage counts how often each title prefix has been chosen.
// Counts only increase; the table lives as long as its owner.
type PrefixUsage struct {
	mu     sync.Mutex
	counts map[string]int
}

// NewPrefixUsage creates a usage table with every prefix at zero.
func NewPrefixUsage(prefixes []string) *PrefixUsage {
	counts := make(map[string]int, len(prefixes))
	for _, p := range prefixes {
		counts[p] = 0
	}
	return &PrefixUsage{counts: counts}
}

// Count returns the usage count of a prefix.
func (u *PrefixUsage) Count(prefix string) int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.counts[prefix]
}

// Snapshot copies the current counts.
func (u *PrefixUsage) Snapshot() map[string]int {
	u.mu.Lock()
	defer u.mu.Unlock()
	out := make(map[string]int, len(u.counts))
	for k, v := range u.counts {
		out[k] = v
	}
	return out
}

// TitlePrefixSelector picks title prefixes biased toward under-used ones.
type TitlePrefixSelector struct {
	prefixes   []string
	usage      *PrefixUsage
	rnd        RandomSource
	candidates int
}

// NewTitlePrefixSelector creates a selector over prefixes.
// Parameters:
//   - prefixes: candidate pool; nil uses prompts.TitlePrefixes.
//   - usage: usage table; nil creates a fresh one.
//   - rnd: random source for noise and the final pick.
//   - candidates: size of the low-usage band; <= 0 uses DefaultPrefixCandidates.
//
// Returns:
//   - *TitlePrefixSelector: initialized selector.
func NewTitlePrefixSelector(prefixes []string, usage *PrefixUsage, rnd RandomSource, candidates int) *TitlePrefixSelector {
	if len(prefixes) == 0 {
		prefixes = prompts.TitlePrefixes
	}
	if usage == nil {
		usage = NewPrefixUsage(prefixes)
	}
	if rnd == nil {
		rnd = NewRandomSource(0)
	}
	if candidates <= 0 {
		candidates = DefaultPrefixCandidates
	}
	return &TitlePrefixSelector{
		prefixes:   append([]string(nil), prefixes...),
		usage:      usage,
		rnd:        rnd,
		candidates: candidates,
	}
}

type scoredPrefix struct {
	prefix string
	score  float64
}

// SelectPrefix scores every prefix as usage + U[0, 0.5), takes the lowest K
// and picks one of them uniformly, incrementing its count.
func (s *TitlePrefixSelector) SelectPrefix() string {
	s.usage.mu.Lock()
	defer s.usage.mu.Unlock()

	scored := make([]scoredPrefix, len(s.prefixes))
	for i, p := range s.prefixes {
		scored[i] = scoredPrefix{
			prefix: p,
			score:  float64(s.usage.counts[p]) + s.rnd.Float64()*prefixNoiseRange,
		}
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].score < scored[j].score
	})

	k := s.candidates
	if k > len(scored) {
		k = len(scored)
	}
	choice := scored[pickIndex(s.rnd, k)].prefix
	s.usage.counts[choice]++
	return choice
}

// ApplyTitle prepends a freshly selected prefix to the capitalized base title.
func (s *TitlePrefixSelector) ApplyTitle(baseTitle string) string {
	return s.SelectPrefix() + " " + Capitalize(strings.TrimSpace(baseTitle))
}

// Usage returns a snapshot of the selector's usage table.
func (s *TitlePrefixSelector) Usage() map[string]int {
	return s.usage.Snapshot()
}
