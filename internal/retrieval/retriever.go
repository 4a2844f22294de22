// Package retrieval ranks tenant-scoped documents against a query.
package retrieval

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/brandguard/internal/docstore"
)

var tracer = otel.Tracer("brandguard.retrieval")

// DefaultTopK is the result bound applied when the caller does not set one.
const DefaultTopK = 3

// Argument error types. These are rejected before any retrieval work and
// retrying without changing the input is futile.
var (
	// ErrInvalidTopK is returned for a negative top-k bound.
	ErrInvalidTopK = errors.New("top_k must be a positive integer")

	// ErrEmptyQuery is returned for an empty or missing query.
	ErrEmptyQuery = errors.New("query cannot be empty")
)

// ScoredDocument pairs a stored document with its relevance score.
type ScoredDocument struct {
	Document docstore.StoredDocument `json:"document"`
	Score    float64                 `json:"score"`
}

// Result is an ordered, bounded sequence of scored documents. It is
// recomputed per query and never persisted.
type Result struct {
	Documents []ScoredDocument `json:"documents"`
}

// Empty reports whether the result contains no documents.
func (r Result) Empty() bool {
	return len(r.Documents) == 0
}

// Sources returns the doc IDs in ranked order.
func (r Result) Sources() []string {
	out := make([]string, len(r.Documents))
	for i, d := range r.Documents {
		out[i] = d.Document.DocID
	}
	return out
}

// Retriever returns a ranked, bounded list of documents relevant to a query,
// strictly belonging to the given tenant.
//
// Implementations must apply the tenant filter as a hard pre-filter at the
// storage or query layer. Filtering an unscoped result set after the fact
// reopens the cross-tenant leak this system exists to prevent.
type Retriever interface {
	Retrieve(ctx context.Context, query, clientID string, topK int) (Result, error)
}

// KeywordRetriever scores a tenant's documents with a pluggable Scorer over
// the in-memory document store.
type KeywordRetriever struct {
	store  *docstore.Store
	scorer Scorer
	logger *zap.Logger
}

// NewKeywordRetriever creates a retriever over the given store. A nil scorer
// falls back to the keyword-overlap baseline.
func NewKeywordRetriever(store *docstore.Store, scorer Scorer, logger *zap.Logger) (*KeywordRetriever, error) {
	if store == nil {
		return nil, fmt.Errorf("document store cannot be nil")
	}
	if scorer == nil {
		scorer = NewKeywordScorer()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &KeywordRetriever{
		store:  store,
		scorer: scorer,
		logger: logger,
	}, nil
}

// Retrieve ranks the tenant's documents against the query.
//
// Documents scoring zero are excluded. Ties are broken by ingestion order,
// so identical inputs always produce identical output. A tenant with no
// matching documents yields an empty result, not an error. topK of zero
// means DefaultTopK.
func (r *KeywordRetriever) Retrieve(ctx context.Context, query, clientID string, topK int) (Result, error) {
	_, span := tracer.Start(ctx, "KeywordRetriever.Retrieve")
	defer span.End()

	span.SetAttributes(
		attribute.String("client_id", clientID),
		attribute.Int("top_k", topK),
	)

	topK, err := ValidateArgs(query, topK)
	if err != nil {
		span.RecordError(err)
		return Result{}, err
	}

	// Hard tenant pre-filter: only this client's documents are ever scored.
	candidates := r.store.DocumentsFor(clientID)
	if len(candidates) == 0 {
		return Result{}, nil
	}

	scored := make([]ScoredDocument, 0, len(candidates))
	for _, doc := range candidates {
		score := r.scorer.Score(query, doc.Content)
		if score > 0 {
			scored = append(scored, ScoredDocument{Document: doc, Score: score})
		}
	}

	// Candidates arrive in ingestion order; the stable sort keeps that
	// order for equal scores.
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if len(scored) > topK {
		scored = scored[:topK]
	}

	span.SetAttributes(attribute.Int("results", len(scored)))
	r.logger.Debug("retrieved documents",
		zap.String("client_id", clientID),
		zap.Int("candidates", len(candidates)),
		zap.Int("results", len(scored)),
	)

	return Result{Documents: scored}, nil
}

// ValidateArgs checks the retrieval arguments shared by all Retriever
// implementations and resolves the top-k default. Returns the effective
// top-k bound. A query containing only whitespace counts as empty.
func ValidateArgs(query string, topK int) (int, error) {
	if strings.TrimSpace(query) == "" {
		return 0, ErrEmptyQuery
	}
	if topK == 0 {
		return DefaultTopK, nil
	}
	if topK < 0 {
		return 0, fmt.Errorf("%w: got %d", ErrInvalidTopK, topK)
	}
	return topK, nil
}

var _ Retriever = (*KeywordRetriever)(nil)
