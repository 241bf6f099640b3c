package service

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/timmy/artcaption/internal/prompts"
)

func TestTitlePrefixSelector_ApplyTitle(t *testing.T) {
	s := NewTitlePrefixSelector(nil, nil, newSequence(0), 0)

	assert.Equal(t, "Echoes of Mountain", s.ApplyTitle("mountain"))
	// Echoes of is now used once, so the next zero-noise draw moves on.
	assert.Equal(t, "Dreams of Mountain", s.ApplyTitle("  Mountain "))
	assert.Equal(t, 1, s.Usage()["Echoes of"])
	assert.Equal(t, 1, s.Usage()["Dreams of"])
}

func TestTitlePrefixSelector_PicksWithinLowUsageBand(t *testing.T) {
	usage := NewPrefixUsage([]string{"A", "B", "C", "D"})
	s := NewTitlePrefixSelector([]string{"A", "B", "C", "D"}, usage, newSequence(0), 2)

	for i := 0; i < 3; i++ {
		s.SelectPrefix()
	}
	// With zero noise the least used prefix in table order wins each draw.
	assert.Equal(t, map[string]int{"A": 1, "B": 1, "C": 1, "D": 0}, usage.Snapshot())
}

func TestTitlePrefixSelector_Fairness(t *testing.T) {
	const draws = 2000
	k := DefaultPrefixCandidates
	s := NewTitlePrefixSelector(prompts.TitlePrefixes, nil, NewRandomSource(42), k)

	for i := 0; i < draws; i++ {
		s.SelectPrefix()
	}

	usage := s.Usage()
	require.Len(t, usage, len(prompts.TitlePrefixes))
	lowest, highest, total := draws, 0, 0
	for _, n := range usage {
		lowest = min(lowest, n)
		highest = max(highest, n)
		total += n
	}
	assert.Equal(t, draws, total)
	assert.LessOrEqual(t, highest-lowest, 1+k)
}

func TestTitlePrefixSelector_ConcurrentUse(t *testing.T) {
	s := NewTitlePrefixSelector(nil, nil, NewRandomSource(7), 0)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				s.SelectPrefix()
			}
		}()
	}
	wg.Wait()

	total := 0
	for _, n := range s.Usage() {
		total += n
	}
	assert.Equal(t, 400, total)
}

func TestPrefixUsage_StartsAtZero(t *testing.T) {
	u := NewPrefixUsage(prompts.TitlePrefixes)
	for _, p := range prompts.TitlePrefixes {
		assert.Zero(t, u.Count(p))
	}
}
