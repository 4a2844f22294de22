package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/fyrsmithlabs/brandguard/internal/docstore"
	"github.com/fyrsmithlabs/brandguard/internal/generation"
	"github.com/fyrsmithlabs/brandguard/internal/profile"
	"github.com/fyrsmithlabs/brandguard/internal/prompt"
	"github.com/fyrsmithlabs/brandguard/internal/retrieval"
)

// Stage identifies which pipeline stage produced a failure. Retrieval and
// assembly failures are deterministic: retrying an identical request cannot
// succeed. Generation failures may be transient and worth retrying.
type Stage string

const (
	StageIngestion  Stage = "ingestion"
	StageRetrieval  Stage = "retrieval"
	StageAssembly   Stage = "assembly"
	StageGeneration Stage = "generation"
)

// ErrorKind is the discriminant surfaced to callers in place of content.
type ErrorKind string

const (
	KindNone                  ErrorKind = ""
	KindInvalidArgument       ErrorKind = "invalid_argument"
	KindUnknownClient         ErrorKind = "unknown_client"
	KindInsufficientContext   ErrorKind = "insufficient_context"
	KindGenerationTimeout     ErrorKind = "generation_timeout"
	KindGenerationUnavailable ErrorKind = "generation_unavailable"
	KindCanceled              ErrorKind = "canceled"
	KindInternal              ErrorKind = "internal"
)

// StageError wraps a failure with the stage that produced it.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// stageErr wraps err with its originating stage, preserving the kind chain.
func stageErr(stage Stage, err error) error {
	if err == nil {
		return nil
	}
	return &StageError{Stage: stage, Err: err}
}

// StageOf returns the pipeline stage recorded on err, or empty if none.
func StageOf(err error) Stage {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage
	}
	return ""
}

// KindOf maps an error onto its caller-facing discriminant.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, retrieval.ErrInvalidTopK),
		errors.Is(err, retrieval.ErrEmptyQuery),
		errors.Is(err, profile.ErrInvalidProfile),
		errors.Is(err, docstore.ErrEmptyContent),
		errors.Is(err, docstore.ErrMissingClientID),
		errors.Is(err, docstore.ErrMissingDocID):
		return KindInvalidArgument
	case errors.Is(err, profile.ErrUnknownClient):
		return KindUnknownClient
	case errors.Is(err, prompt.ErrEmptyContext):
		return KindInsufficientContext
	case errors.Is(err, generation.ErrTimeout):
		return KindGenerationTimeout
	case errors.Is(err, generation.ErrUnavailable):
		return KindGenerationUnavailable
	case errors.Is(err, context.Canceled):
		return KindCanceled
	default:
		return KindInternal
	}
}
