// Package generation calls the external language model.
//
// The model is a collaborator, not part of the core: this package defines
// the narrow Generate contract, classifies its failures, and nothing else.
// Retry policy belongs to the caller; failures are surfaced, never retried
// here.
package generation

import (
	"context"
	"errors"
	"fmt"

	"github.com/fyrsmithlabs/brandguard/internal/prompt"
)

// Collaborator failure kinds. Both may be transient; the caller decides
// whether to retry.
var (
	// ErrTimeout is returned when the generation call exceeds the
	// caller-supplied deadline.
	ErrTimeout = errors.New("generation timed out")

	// ErrUnavailable is returned when the generation backend cannot be
	// reached or returns a failure.
	ErrUnavailable = errors.New("generation backend unavailable")
)

// Generator produces text from an assembled generation request.
//
// Implementations should be deterministic given a fixed seed and
// temperature, and must honor context cancellation: the caller supplies a
// timeout via ctx and expects a structured failure rather than a hang.
type Generator interface {
	Generate(ctx context.Context, req prompt.GenerationRequest) (string, error)
}

// classify maps a raw collaborator error onto the package's failure kinds.
// Caller cancellation is not a collaborator failure: it keeps its
// context.Canceled identity instead of masquerading as a backend outage.
func classify(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	if errors.Is(err, context.Canceled) || errors.Is(ctx.Err(), context.Canceled) {
		return fmt.Errorf("generation canceled: %w", context.Canceled)
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}
