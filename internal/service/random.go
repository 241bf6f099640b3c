package service

import (
	"math/rand"
	"sync"
	"time"
)

// RandomSource yields uniform floats in [0, 1).
// *rand.Rand satisfies it; tests pin outcomes with fixed sequences.
type RandomSource interface {
	Float64() float64
}

// lockedSource serializes access to a *rand.Rand, which is not safe for concurrent use.
type lockedSource struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewRandomSource returns a goroutine-safe source. A zero seed seeds from the clock.
func NewRandomSource(seed int64) RandomSource {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &lockedSource{rnd: rand.New(rand.NewSource(seed))}
}

func (s *lockedSource) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rnd.Float64()
}

// pickIndex maps one uniform draw onto [0, n).
func pickIndex(rnd RandomSource, n int) int {
	if n <= 1 {
		return 0
	}
	i := int(rnd.Float64() * float64(n))
	if i >= n {
		i = n - 1
	}
	if i < 0 {
		i = 0
	}
	return i
}
