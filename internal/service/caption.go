package service

import (
	"context"
	"fmt"
	"image"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/timmy/artcaption/internal/domain"
	"github.com/timmy/artcaption/internal/logger"
	"github.com/timmy/artcaption/internal/prompts"
)

// CaptionConfig holds configuration for the caption pipeline.
type CaptionConfig struct {
	DefaultPrompt       string
	FlourishProbability float64
	PrefixCandidates    int
	DescriptionCutoff   float64
	Seed                int64

	// Random overrides the seeded source; Refiner overrides the keyword refiner.
	Random  RandomSource
	Refiner Refiner
}

// DefaultCaptionConfig returns the pipeline defaults.
func DefaultCaptionConfig() *CaptionConfig {
	return &CaptionConfig{
		DefaultPrompt:       prompts.DefaultPrompt,
		FlourishProbability: DefaultFlourishProbability,
		PrefixCandidates:    DefaultPrefixCandidates,
		DescriptionCutoff:   DefaultDescriptionCutoff,
	}
}

// CaptionService sequences interpretation, inference and text refinement into
// a single caption result.
type CaptionService struct {
	interpreter   *ImageInterpreter
	model         CaptionModel
	rewriter      *PoeticRewriter
	refiner       Refiner
	titles        *TitlePrefixSelector
	descriptions  *DescriptionMatcher
	defaultPrompt string
	logger        *logger.Logger
}

// NewCaptionService creates a new caption service.
// Parameters:
//   - model: external image-to-text capability.
//   - log: fallback logger when the context carries none.
//   - cfg: pipeline configuration; nil uses DefaultCaptionConfig.
//
// Returns:
//   - *CaptionService: service with its own prefix usage table.
func NewCaptionService(model CaptionModel, log *logger.Logger, cfg *CaptionConfig) *CaptionService {
	if cfg == nil {
		cfg = DefaultCaptionConfig()
	}
	if log == nil {
		log = logger.GetDefault()
	}
	rnd := cfg.Random
	if rnd == nil {
		rnd = NewRandomSource(cfg.Seed)
	}

	rewriter := NewPoeticRewriter(rnd, cfg.FlourishProbability)
	refiner := cfg.Refiner
	if refiner == nil {
		refiner = NewFeedbackRefiner(rewriter, rnd)
	}

	return &CaptionService{
		interpreter:   NewImageInterpreter(),
		model:         model,
		rewriter:      rewriter,
		refiner:       refiner,
		titles:        NewTitlePrefixSelector(prompts.TitlePrefixes, nil, rnd, cfg.PrefixCandidates),
		descriptions:  NewDescriptionMatcher(rnd, cfg.DescriptionCutoff),
		defaultPrompt: cfg.DefaultPrompt,
		logger:        log,
	}
}

// log returns a logger from context if available, otherwise returns the service logger
func (s *CaptionService) log(ctx context.Context) *logger.Logger {
	if logger.HasLogger(ctx) {
		return logger.FromContext(ctx)
	}
	return s.logger
}

// Model returns the identifier of the underlying caption model.
func (s *CaptionService) Model() string {
	return s.model.GetModel()
}

// PrefixUsage returns a snapshot of title prefix usage.
func (s *CaptionService) PrefixUsage() map[string]int {
	return s.titles.Usage()
}

// Generate produces a titled, described caption for img.
// Parameters:
//   - ctx: context for cancellation; carries the request logger.
//   - img: decoded image, required.
//   - prompt: optional caller prompt; empty uses the configured default.
//   - feedback: optional refinement directive; empty skips refinement.
//
// Returns:
//   - *domain.CaptionResult: the assembled artifact.
//   - error: *InputError for precondition violations, *GenerationError otherwise.
func (s *CaptionService) Generate(ctx context.Context, img image.Image, prompt, feedback string) (result *domain.CaptionResult, err error) {
	if img == nil {
		return nil, &InputError{Field: "image", Reason: "is required"}
	}
	if !utf8.ValidString(prompt) {
		return nil, &InputError{Field: "prompt", Reason: "must be valid UTF-8 text"}
	}
	if !utf8.ValidString(feedback) {
		return nil, &InputError{Field: "feedback", Reason: "must be valid UTF-8 text"}
	}

	// Every stage, the interpreter included, logs through the context logger
	if !logger.HasLogger(ctx) {
		ctx = s.logger.WithContext(ctx)
	}

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			result, err = nil, s.fail(ctx, "panic", fmt.Errorf("%v", r))
		}
	}()

	interpretation, err := s.interpreter.Interpret(ctx, img)
	if err != nil {
		return nil, s.fail(ctx, "interpret", err)
	}

	fullPrompt := s.mergePrompt(prompt, interpretation.Prompt)
	s.log(ctx).WithFields(logger.Fields{
		logger.FieldStage: "infer",
		"prompt":          fullPrompt,
		"model":           s.model.GetModel(),
	}).Debug("Requesting caption from model")

	raw, err := s.model.Caption(ctx, img, fullPrompt)
	if err != nil {
		return nil, s.fail(ctx, "infer", err)
	}
	rawCaption := DecodeOutput(raw)

	refined := s.rewriter.Rewrite(rawCaption)
	if strings.TrimSpace(feedback) != "" {
		refined = s.refiner.Refine(refined, feedback)
	}

	baseTitle := BaseTitle(refined)
	result = &domain.CaptionResult{
		Title:          s.titles.ApplyTitle(baseTitle),
		Description:    s.descriptions.Describe(baseTitle),
		RawCaption:     rawCaption,
		RefinedCaption: refined,
		Mood:           interpretation.Mood,
		Style:          interpretation.Style,
		DominantColor:  interpretation.DominantColor,
	}

	logger.With(logger.Fields{logger.FieldStatus: "generated"}).
		Since(start).
		Info(ctx, "Caption generated: title=%q", result.Title)

	return result, nil
}

// Refine applies feedback to an already refined caption. Blank feedback
// returns the caption unchanged.
func (s *CaptionService) Refine(ctx context.Context, caption, feedback string) (string, error) {
	if strings.TrimSpace(caption) == "" {
		return "", &InputError{Field: "caption", Reason: "is required"}
	}
	if !utf8.ValidString(caption) || !utf8.ValidString(feedback) {
		return "", &InputError{Field: "feedback", Reason: "must be valid UTF-8 text"}
	}
	if strings.TrimSpace(feedback) == "" {
		return caption, nil
	}

	refined := s.refiner.Refine(caption, feedback)
	s.log(ctx).WithFields(logger.Fields{
		logger.FieldStage: "refine",
		"directive":       ParseDirective(feedback),
	}).Debug("Caption refined with feedback")
	return refined, nil
}

func (s *CaptionService) mergePrompt(prompt, interpretation string) string {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		prompt = strings.TrimSpace(s.defaultPrompt)
	}
	if prompt == "" {
		return interpretation
	}
	return prompt + " " + interpretation
}

func (s *CaptionService) fail(ctx context.Context, stage string, cause error) error {
	s.log(ctx).WithField(logger.FieldStage, stage).WithError(cause).Error("Caption generation failed")
	return newGenerationError(stage, cause)
}

// BaseTitle is the refined caption up to its first colon, trimmed and capitalized.
func BaseTitle(refined string) string {
	base := refined
	if i := strings.Index(refined, ":"); i >= 0 {
		base = refined[:i]
	}
	base = strings.TrimSpace(base)
	if base == "" {
		base = strings.TrimSpace(refined)
	}
	return Capitalize(base)
}
