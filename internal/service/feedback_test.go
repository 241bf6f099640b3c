package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseDirective(t *testing.T) {
	tests := []struct {
		feedback string
		want     FeedbackDirective
	}{
		{"make it more poetic", DirectiveIntensify},
		{"Dreamy, please!", DirectiveIntensify},
		{"shorter please", DirectiveCompress},
		{"Keep it CONCISE.", DirectiveCompress},
		{"add detail", DirectiveElaborate},
		{"more", DirectiveElaborate},
		{"poetically", DirectiveNone},
		{"nice work", DirectiveNone},
		{"", DirectiveNone},
	}
	for _, tt := range tests {
		t.Run(tt.feedback, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseDirective(tt.feedback))
		})
	}
}

func newTestRefiner() *FeedbackRefiner {
	rnd := newSequence(0)
	return NewFeedbackRefiner(NewPoeticRewriter(rnd, 0), rnd)
}

func TestFeedbackRefiner_Intensify(t *testing.T) {
	f := newTestRefiner()

	assert.Equal(t, "A mountain. It is an eternal dance of light and shadow.", f.Refine("A mountain.", "more poetic"))
	assert.Equal(t,
		"The sea exists as the quiet stillness of dawn. It is an eternal dance of light and shadow.",
		f.Refine("the sea is calm", "lyrical"))
}

func TestFeedbackRefiner_Compress(t *testing.T) {
	f := newTestRefiner()

	assert.Equal(t, "A mountain.", f.Refine("A mountain. It is a voyage of imagination.", "simpler? no, short"))
	assert.Equal(t, "A lone tree.", f.Refine("a lone tree", "simplify"))
}

func TestFeedbackRefiner_Elaborate(t *testing.T) {
	f := newTestRefiner()

	assert.Equal(t, "A mountain. Every stroke carries a quiet intention.", f.Refine("A mountain.", "more detail"))
}

func TestFeedbackRefiner_UnknownFeedbackKeepsCaption(t *testing.T) {
	f := newTestRefiner()

	assert.Equal(t, "A mountain.", f.Refine("A mountain.", "looks great"))
}
