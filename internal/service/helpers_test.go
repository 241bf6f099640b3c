package service

import (
	"context"
	"image"
	"image/color"
	"sync"
	"sync/atomic"
)

// sequenceSource replays fixed draws, cycling when exhausted.
type sequenceSource struct {
	mu     sync.Mutex
	values []float64
	next   int
}

func newSequence(values ...float64) *sequenceSource {
	return &sequenceSource{values: values}
}

func (s *sequenceSource) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.values) == 0 {
		return 0
	}
	v := s.values[s.next%len(s.values)]
	s.next++
	return v
}

// stubModel returns a canned caption and records what it was asked.
type stubModel struct {
	text  string
	err   error
	panic bool

	calls      atomic.Int32
	mu         sync.Mutex
	lastPrompt string
}

func (m *stubModel) Caption(ctx context.Context, img image.Image, prompt string) (string, error) {
	m.calls.Add(1)
	m.mu.Lock()
	m.lastPrompt = prompt
	m.mu.Unlock()
	if m.panic {
		panic("model exploded")
	}
	if m.err != nil {
		return "", m.err
	}
	return m.text, nil
}

func (m *stubModel) GetModel() string {
	return "stub-vlm"
}

func (m *stubModel) prompt() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastPrompt
}

func solidImage(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

// splitImage paints the first leftCols columns with left and the rest with right.
func splitImage(w, h, leftCols int, left, right color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if x < leftCols {
				img.Set(x, y, left)
			} else {
				img.Set(x, y, right)
			}
		}
	}
	return img
}

func checkerboard(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if (x+y)%2 == 0 {
				img.Set(x, y, color.White)
			} else {
				img.Set(x, y, color.Black)
			}
		}
	}
	return img
}
