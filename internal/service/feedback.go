package service

import (
	"strings"

	"github.com/timmy/artcaption/internal/prompts"
)

// Refiner applies a free-text feedback directive to a caption.
type Refiner interface {
	Refine(caption, feedback string) string
}

// FeedbackDirective is the transformation a piece of feedback asks for.
type FeedbackDirective string

const (
	DirectiveNone      FeedbackDirective = "none"
	DirectiveIntensify FeedbackDirective = "intensify"
	DirectiveCompress  FeedbackDirective = "compress"
	DirectiveElaborate FeedbackDirective = "elaborate"
)

// FeedbackRefiner interprets feedback by keyword sniffing.
type FeedbackRefiner struct {
	rewriter *PoeticRewriter
	rnd      RandomSource
}

// NewFeedbackRefiner creates a refiner sharing the rewriter's vocabulary.
func NewFeedbackRefiner(rewriter *PoeticRewriter, rnd RandomSource) *FeedbackRefiner {
	if rnd == nil {
		rnd = NewRandomSource(0)
	}
	if rewriter == nil {
		rewriter = NewPoeticRewriter(rnd, DefaultFlourishProbability)
	}
	return &FeedbackRefiner{rewriter: rewriter, rnd: rnd}
}

// ParseDirective maps feedback text to a directive. The first matching group wins:
// poetic, then simple, then detail.
func ParseDirective(feedback string) FeedbackDirective {
	words := strings.FieldsFunc(strings.ToLower(feedback), func(r rune) bool {
		return !(r >= 'a' && r <= 'z')
	})
	switch {
	case containsAny(words, prompts.FeedbackPoeticWords):
		return DirectiveIntensify
	case containsAny(words, prompts.FeedbackSimpleWords):
		return DirectiveCompress
	case containsAny(words, prompts.FeedbackDetailWords):
		return DirectiveElaborate
	default:
		return DirectiveNone
	}
}

// Refine transforms caption according to feedback. Unrecognized feedback
// leaves the caption unchanged.
func (f *FeedbackRefiner) Refine(caption, feedback string) string {
	switch ParseDirective(feedback) {
	case DirectiveIntensify:
		return f.intensify(caption)
	case DirectiveCompress:
		return compress(caption)
	case DirectiveElaborate:
		return f.elaborate(caption)
	default:
		return caption
	}
}

// intensify reruns the poetic vocabulary and always adds a flourish.
func (f *FeedbackRefiner) intensify(caption string) string {
	out := ExpandMoodWords(Substitute(NormalizeSentence(caption)))
	return cleanup(out + " It is " + f.rewriter.Flourish() + ".")
}

// compress keeps only the first sentence, which drops any flourish.
func compress(caption string) string {
	caption = strings.TrimSpace(caption)
	if i := strings.Index(caption, ". "); i >= 0 {
		caption = caption[:i]
	}
	return NormalizeSentence(caption)
}

func (f *FeedbackRefiner) elaborate(caption string) string {
	detail := prompts.DetailSentences[pickIndex(f.rnd, len(prompts.DetailSentences))]
	return cleanup(NormalizeSentence(caption) + " " + detail)
}

func containsAny(words, targets []string) bool {
	for _, w := range words {
		for _, t := range targets {
			if w == t {
				return true
			}
		}
	}
	return false
}
