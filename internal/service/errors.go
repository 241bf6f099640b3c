package service

import (
	"errors"
	"fmt"
)

var (
	// ErrInput matches every *InputError.
	ErrInput = errors.New("invalid caption input")
	// ErrGeneration matches every *GenerationError.
	ErrGeneration = errors.New("failed to generate caption from image")
)

// InputError reports a caller precondition violation. It is never retried.
type InputError struct {
	Field  string
	Reason string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("%s: %s %s", ErrInput.Error(), e.Field, e.Reason)
}

// Is lets errors.Is(err, ErrInput) match.
func (e *InputError) Is(target error) bool {
	return target == ErrInput
}

// GenerationError is the single opaque failure surfaced for anything that goes
// wrong inside the pipeline. The cause is kept for logging only.
type GenerationError struct {
	Stage string
	cause error
}

func newGenerationError(stage string, cause error) *GenerationError {
	return &GenerationError{Stage: stage, cause: cause}
}

func (e *GenerationError) Error() string {
	return ErrGeneration.Error()
}

// Is lets errors.Is(err, ErrGeneration) match.
func (e *GenerationError) Is(target error) bool {
	return target == ErrGeneration
}

// Unwrap exposes the underlying cause.
func (e *GenerationError) Unwrap() error {
	return e.cause
}
