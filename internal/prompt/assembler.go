// Package prompt assembles brand-constrained generation requests.
package prompt

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/brandguard/internal/profile"
	"github.com/fyrsmithlabs/brandguard/internal/retrieval"
)

var tracer = otel.Tracer("brandguard.prompt")

// ErrEmptyContext is returned when assembly is attempted with no retrieved
// evidence. The system refuses to build an ungrounded prompt; callers treat
// this as an expected "insufficient context" outcome, not a fault.
var ErrEmptyContext = errors.New("insufficient context: no relevant documents retrieved")

// GenerationRequest is an assembled prompt plus the metadata needed to
// report provenance. It is a value object: built once, never mutated.
type GenerationRequest struct {
	// Prompt is the full prompt text, four sections in fixed order:
	// brand constraints, evidence, task, grounding directive.
	Prompt string

	// ClientID is the tenant the prompt was assembled for.
	ClientID string

	// DeliverableType is the requested content category.
	DeliverableType string

	// Sources lists the doc IDs of the evidence block, in ranked order.
	Sources []string
}

// Assembler builds generation requests from a brand profile, a deliverable
// type, and retrieved evidence.
type Assembler struct {
	registry *profile.Registry
	logger   *zap.Logger
}

// NewAssembler creates an assembler backed by the given profile registry.
func NewAssembler(registry *profile.Registry, logger *zap.Logger) (*Assembler, error) {
	if registry == nil {
		return nil, fmt.Errorf("profile registry cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Assembler{registry: registry, logger: logger}, nil
}

// Assemble combines the client's brand profile with the retrieved evidence
// into a deterministic, fixed-order prompt.
//
// The section ordering and the verbatim inclusion of every profile field are
// the contract here; the surrounding wording belongs to the target model's
// expected input shape and may evolve. Evidence is rendered in ranked order,
// never re-sorted, each document tagged with its doc ID so generated content
// is traceable back to its sources.
//
// Fails with profile.ErrUnknownClient for an unregistered client and
// ErrEmptyContext for an empty retrieval result.
func (a *Assembler) Assemble(ctx context.Context, query, clientID, deliverableType string, res retrieval.Result) (GenerationRequest, error) {
	_, span := tracer.Start(ctx, "Assembler.Assemble")
	defer span.End()

	span.SetAttributes(
		attribute.String("client_id", clientID),
		attribute.Int("evidence_count", len(res.Documents)),
	)

	p, err := a.registry.Lookup(clientID)
	if err != nil {
		span.RecordError(err)
		return GenerationRequest{}, err
	}

	if res.Empty() {
		span.RecordError(ErrEmptyContext)
		return GenerationRequest{}, fmt.Errorf("%w: client %s", ErrEmptyContext, clientID)
	}

	if !p.AllowsDeliverable(deliverableType) {
		a.logger.Warn("deliverable type not listed in client profile",
			zap.String("client_id", clientID),
			zap.String("deliverable_type", deliverableType),
		)
	}

	var sb strings.Builder

	// Section 1: brand constraints, all profile fields verbatim.
	fmt.Fprintf(&sb, "BRAND VOICE REQUIREMENTS FOR %s:\n", p.ClientID)
	fmt.Fprintf(&sb, "- Voice: %s\n", p.BrandVoice)
	fmt.Fprintf(&sb, "- Tone: %s\n", p.Tone)
	fmt.Fprintf(&sb, "- Required terms: %s\n", strings.Join(p.Lexicon, ", "))
	fmt.Fprintf(&sb, "- Avoid: %s\n", strings.Join(p.AvoidTerms, ", "))
	sb.WriteString("\n")

	// Section 2: evidence in ranked order, each entry source-tagged.
	sb.WriteString("CONTEXT FROM CLIENT DOCUMENTS:\n")
	for _, d := range res.Documents {
		fmt.Fprintf(&sb, "[Source: %s] %s\n\n", d.Document.DocID, d.Document.Content)
	}

	// Section 3: the task, embedding deliverable type and raw query.
	fmt.Fprintf(&sb, "TASK: Write a %s that %s\n\n", deliverableType, query)

	// Section 4: grounding directive.
	sb.WriteString("IMPORTANT: Only use information from the provided context. Follow the brand voice requirements exactly.")

	req := GenerationRequest{
		Prompt:          sb.String(),
		ClientID:        clientID,
		DeliverableType: deliverableType,
		Sources:         res.Sources(),
	}

	a.logger.Debug("assembled prompt",
		zap.String("client_id", clientID),
		zap.String("deliverable_type", deliverableType),
		zap.Int("sources", len(req.Sources)),
		zap.Int("prompt_len", len(req.Prompt)),
	)

	return req, nil
}
