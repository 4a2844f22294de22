// Package pipeline orchestrates retrieval, assembly, and generation.
package pipeline

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/brandguard/internal/docstore"
	"github.com/fyrsmithlabs/brandguard/internal/generation"
	"github.com/fyrsmithlabs/brandguard/internal/profile"
	"github.com/fyrsmithlabs/brandguard/internal/prompt"
	"github.com/fyrsmithlabs/brandguard/internal/retrieval"
)

var tracer = otel.Tracer("brandguard.pipeline")

// Indexer receives ingested documents for retrieval backends that keep
// their own index (the vector store). The in-memory keyword backend reads
// the document store directly and needs none.
type Indexer interface {
	Index(ctx context.Context, docs []docstore.StoredDocument) error
}

// Request is one generation query.
type Request struct {
	// Query is the content request in free text (required).
	Query string `json:"query"`

	// ClientID selects the tenant (required).
	ClientID string `json:"client_id"`

	// DeliverableType is the requested content category.
	DeliverableType string `json:"deliverable_type"`

	// TopK bounds the evidence set. Zero means the default; negative is
	// rejected before any retrieval work.
	TopK int `json:"top_k,omitempty"`
}

// Result is the caller-facing outcome of a generation request.
//
// On success Content is set and ErrorKind is empty. When no relevant
// evidence exists, ErrorKind is "insufficient_context" and Content is
// empty: the pipeline refuses to generate ungrounded content, and that
// refusal is an expected outcome rather than a fault.
type Result struct {
	RequestID       string    `json:"request_id"`
	Content         string    `json:"content,omitempty"`
	Sources         []string  `json:"sources"`
	ClientID        string    `json:"client_id"`
	DeliverableType string    `json:"deliverable_type"`
	ErrorKind       ErrorKind `json:"error_kind,omitempty"`
}

// Pipeline wires the stores and stages into one explicit object. All
// dependencies are injected; two pipelines never share state, so isolated
// instances (one per test, one per process) cannot interfere.
//
// The pipeline itself is stateless across requests: registry and document
// store are the only mutable members, and both serialize their own writes.
// Generate calls for different requests may run concurrently.
type Pipeline struct {
	registry  *profile.Registry
	store     *docstore.Store
	retriever retrieval.Retriever
	assembler *prompt.Assembler
	generator generation.Generator
	indexer   Indexer
	logger    *zap.Logger
}

// Options configures New.
type Options struct {
	Registry  *profile.Registry
	Store     *docstore.Store
	Retriever retrieval.Retriever
	Generator generation.Generator

	// Indexer is optional; set it when the retriever keeps its own index.
	Indexer Indexer

	Logger *zap.Logger
}

// New creates a pipeline from injected components.
func New(opts Options) (*Pipeline, error) {
	if opts.Registry == nil {
		return nil, fmt.Errorf("profile registry is required")
	}
	if opts.Store == nil {
		return nil, fmt.Errorf("document store is required")
	}
	if opts.Retriever == nil {
		return nil, fmt.Errorf("retriever is required")
	}
	if opts.Generator == nil {
		return nil, fmt.Errorf("generator is required")
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	assembler, err := prompt.NewAssembler(opts.Registry, opts.Logger)
	if err != nil {
		return nil, fmt.Errorf("creating assembler: %w", err)
	}

	return &Pipeline{
		registry:  opts.Registry,
		store:     opts.Store,
		retriever: opts.Retriever,
		assembler: assembler,
		generator: opts.Generator,
		indexer:   opts.Indexer,
		logger:    opts.Logger,
	}, nil
}

// RegisterClient registers or replaces a client profile (last-write-wins).
func (p *Pipeline) RegisterClient(cp profile.ClientProfile) error {
	return p.registry.Register(cp)
}

// Ingest appends documents to the store and forwards them to the retrieval
// index, if one is configured. Returns the assigned handles.
func (p *Pipeline) Ingest(ctx context.Context, docs []docstore.Document) ([]string, error) {
	ctx, span := tracer.Start(ctx, "Pipeline.Ingest")
	defer span.End()
	span.SetAttributes(attribute.Int("document_count", len(docs)))

	stored, err := p.store.Ingest(docs)
	if err != nil {
		span.RecordError(err)
		return nil, stageErr(StageIngestion, err)
	}

	if p.indexer != nil {
		if err := p.indexer.Index(ctx, stored); err != nil {
			span.RecordError(err)
			return nil, stageErr(StageIngestion, fmt.Errorf("indexing documents: %w", err))
		}
	}

	handles := make([]string, len(stored))
	for i, d := range stored {
		handles[i] = d.Handle
	}
	return handles, nil
}

// Generate runs the full pipeline for one request: tenant-filtered
// retrieval, brand-constrained prompt assembly, then the external
// generation call.
//
// An empty retrieval result produces a Result with ErrorKind
// "insufficient_context" and a nil error. All other failures return a
// stage-tagged error; KindOf and StageOf recover the discriminants.
func (p *Pipeline) Generate(ctx context.Context, req Request) (*Result, error) {
	ctx, span := tracer.Start(ctx, "Pipeline.Generate")
	defer span.End()

	requestID := uuid.NewString()
	span.SetAttributes(
		attribute.String("request_id", requestID),
		attribute.String("client_id", req.ClientID),
		attribute.String("deliverable_type", req.DeliverableType),
	)

	logger := p.logger.With(
		zap.String("request_id", requestID),
		zap.String("client_id", req.ClientID),
	)

	// The profile must exist before any work happens; assembly would catch
	// this too, but failing first keeps the error's stage honest for
	// callers who need to know whether retrying makes sense.
	if _, err := p.registry.Lookup(req.ClientID); err != nil {
		span.RecordError(err)
		return nil, stageErr(StageAssembly, err)
	}

	res, err := p.retriever.Retrieve(ctx, req.Query, req.ClientID, req.TopK)
	if err != nil {
		span.RecordError(err)
		return nil, stageErr(StageRetrieval, err)
	}

	if res.Empty() {
		logger.Info("no relevant documents for query",
			zap.String("deliverable_type", req.DeliverableType),
		)
		return &Result{
			RequestID:       requestID,
			Sources:         []string{},
			ClientID:        req.ClientID,
			DeliverableType: req.DeliverableType,
			ErrorKind:       KindInsufficientContext,
		}, nil
	}

	genReq, err := p.assembler.Assemble(ctx, req.Query, req.ClientID, req.DeliverableType, res)
	if err != nil {
		span.RecordError(err)
		return nil, stageErr(StageAssembly, err)
	}

	content, err := p.generator.Generate(ctx, genReq)
	if err != nil {
		span.RecordError(err)
		return nil, stageErr(StageGeneration, err)
	}

	logger.Info("generated content",
		zap.String("deliverable_type", req.DeliverableType),
		zap.Strings("sources", genReq.Sources),
	)

	return &Result{
		RequestID:       requestID,
		Content:         content,
		Sources:         genReq.Sources,
		ClientID:        req.ClientID,
		DeliverableType: req.DeliverableType,
	}, nil
}
