// Package vectorstore provides a dense-vector retrieval backend.
//
// Documents are embedded and stored in chromem-go, an embeddable pure-Go
// vector database. Every query carries a client_id metadata filter so the
// similarity search never sees another client's vectors. The filter is
// applied inside the store, before scoring, not on the result set.
package vectorstore

import (
	"context"
	"errors"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	chromem "github.com/philippgille/chromem-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/brandguard/internal/docstore"
	"github.com/fyrsmithlabs/brandguard/internal/embeddings"
	"github.com/fyrsmithlabs/brandguard/internal/retrieval"
)

var tracer = otel.Tracer("brandguard.vectorstore")

var (
	// ErrInvalidConfig indicates invalid store configuration.
	ErrInvalidConfig = errors.New("invalid vectorstore config")

	// ErrIndexFailed indicates a document batch could not be indexed.
	ErrIndexFailed = errors.New("indexing failed")
)

// metadata keys stored alongside each vector.
const (
	metaClientID  = "client_id"
	metaDocID     = "doc_id"
	metaDocType   = "doc_type"
	metaSourceURL = "source_url"
)

// Config holds configuration for the chromem-backed index.
type Config struct {
	// Path is the directory for persistent storage.
	// Empty means in-memory only.
	Path string

	// Compress enables gzip compression for stored data.
	Compress bool

	// Collection is the collection name documents are stored in.
	Collection string
}

// ApplyDefaults sets default values for unset fields.
func (c *Config) ApplyDefaults() {
	if c.Collection == "" {
		c.Collection = "brandguard_docs"
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Collection == "" {
		return fmt.Errorf("%w: collection name required", ErrInvalidConfig)
	}
	return nil
}

// ChromemIndex is a vector index over client documents.
//
// It serves two roles: it accepts freshly stored documents for indexing,
// and it answers similarity queries scoped to a single client.
type ChromemIndex struct {
	db       *chromem.DB
	embedder embeddings.Embedder
	config   Config
	logger   *zap.Logger

	// mu guards perClient. chromem cannot report how many documents match
	// a metadata filter, and Query rejects a k larger than the candidate
	// set, so the index keeps its own per-client counts to clamp k. In
	// persistent mode the counts are written to a sidecar file next to the
	// chromem data and reloaded on construction; chromem exposes no way to
	// enumerate a reloaded collection, so the counts must survive on their
	// own.
	mu        sync.RWMutex
	perClient map[string]int
}

// countsFileName is the sidecar holding per-client document counts in
// persistent mode.
const countsFileName = "client_counts.json"

func (x *ChromemIndex) countsPath() string {
	return filepath.Join(x.config.Path, countsFileName)
}

// loadCounts restores per-client counts from the sidecar file. A missing
// file means a fresh index.
func (x *ChromemIndex) loadCounts() error {
	data, err := os.ReadFile(x.countsPath())
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading client counts: %w", err)
	}
	if err := json.Unmarshal(data, &x.perClient); err != nil {
		return fmt.Errorf("decoding client counts: %w", err)
	}
	return nil
}

// saveCounts writes the per-client counts sidecar. Callers hold mu.
func (x *ChromemIndex) saveCounts() error {
	data, err := json.Marshal(x.perClient)
	if err != nil {
		return fmt.Errorf("encoding client counts: %w", err)
	}
	if err := os.WriteFile(x.countsPath(), data, 0o644); err != nil {
		return fmt.Errorf("writing client counts: %w", err)
	}
	return nil
}

// NewChromemIndex creates a chromem-backed index.
// If config.Path is empty the index lives in memory only.
func NewChromemIndex(config Config, embedder embeddings.Embedder, logger *zap.Logger) (*ChromemIndex, error) {
	if embedder == nil {
		return nil, fmt.Errorf("%w: embedder is required", ErrInvalidConfig)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	config.ApplyDefaults()
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	var db *chromem.DB
	if config.Path == "" {
		db = chromem.NewDB()
	} else {
		if err := os.MkdirAll(config.Path, 0o755); err != nil {
			return nil, fmt.Errorf("creating directory %s: %w", config.Path, err)
		}
		var err error
		db, err = chromem.NewPersistentDB(config.Path, config.Compress)
		if err != nil {
			return nil, fmt.Errorf("creating chromem DB: %w", err)
		}
	}

	x := &ChromemIndex{
		db:        db,
		embedder:  embedder,
		config:    config,
		logger:    logger,
		perClient: make(map[string]int),
	}

	// A reloaded persistent index is useless without its counts: every
	// client would clamp to zero and get empty results forever.
	if config.Path != "" {
		if err := x.loadCounts(); err != nil {
			return nil, err
		}
	}

	return x, nil
}

// embeddingFunc adapts the Embedder to chromem's query-time interface.
func (x *ChromemIndex) embeddingFunc() chromem.EmbeddingFunc {
	return func(ctx context.Context, text string) ([]float32, error) {
		return x.embedder.EmbedQuery(ctx, text)
	}
}

func (x *ChromemIndex) collection() (*chromem.Collection, error) {
	col, err := x.db.GetOrCreateCollection(x.config.Collection, nil, x.embeddingFunc())
	if err != nil {
		return nil, fmt.Errorf("getting/creating collection %s: %w", x.config.Collection, err)
	}
	return col, nil
}

// Index embeds and stores a batch of documents. Handles are assumed unique;
// the store mints a fresh handle for every ingested document, including
// re-ingestions of the same doc ID.
func (x *ChromemIndex) Index(ctx context.Context, docs []docstore.StoredDocument) error {
	ctx, span := tracer.Start(ctx, "ChromemIndex.Index")
	defer span.End()

	span.SetAttributes(attribute.Int("document_count", len(docs)))

	if len(docs) == 0 {
		return nil
	}

	texts := make([]string, len(docs))
	for i, doc := range docs {
		texts[i] = doc.Content
	}

	vectors, err := x.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("%w: embedding batch: %v", ErrIndexFailed, err)
	}
	if len(vectors) != len(docs) {
		return fmt.Errorf("%w: embedder returned %d vectors for %d documents", ErrIndexFailed, len(vectors), len(docs))
	}

	chromemDocs := make([]chromem.Document, len(docs))
	for i, doc := range docs {
		chromemDocs[i] = chromem.Document{
			ID:      doc.Handle,
			Content: doc.Content,
			Metadata: map[string]string{
				metaClientID:  doc.ClientID,
				metaDocID:     doc.DocID,
				metaDocType:   doc.DocType,
				metaSourceURL: doc.SourceURL,
			},
			Embedding: vectors[i],
		}
	}

	col, err := x.collection()
	if err != nil {
		span.RecordError(err)
		return err
	}

	// Concurrency of 1 since the embeddings are already computed.
	if err := col.AddDocuments(ctx, chromemDocs, 1); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("%w: %v", ErrIndexFailed, err)
	}

	x.mu.Lock()
	for _, doc := range docs {
		x.perClient[doc.ClientID]++
	}
	if x.config.Path != "" {
		if err := x.saveCounts(); err != nil {
			x.mu.Unlock()
			span.RecordError(err)
			return fmt.Errorf("%w: %v", ErrIndexFailed, err)
		}
	}
	x.mu.Unlock()

	x.logger.Debug("indexed documents",
		zap.String("collection", x.config.Collection),
		zap.Int("count", len(docs)),
	)
	return nil
}

// Retrieve performs a similarity search restricted to one client's documents.
// The client filter is enforced by the store on every query; a client with
// no indexed documents gets an empty result, never a neighbor's.
func (x *ChromemIndex) Retrieve(ctx context.Context, query, clientID string, topK int) (retrieval.Result, error) {
	ctx, span := tracer.Start(ctx, "ChromemIndex.Retrieve")
	defer span.End()

	span.SetAttributes(
		attribute.String("client_id", clientID),
		attribute.Int("top_k", topK),
	)

	k, err := retrieval.ValidateArgs(query, topK)
	if err != nil {
		span.RecordError(err)
		return retrieval.Result{}, err
	}

	col, err := x.collection()
	if err != nil {
		span.RecordError(err)
		return retrieval.Result{}, err
	}

	// chromem requires k to fit the candidate set, so clamp to this
	// client's document count. Zero documents means an empty result.
	x.mu.RLock()
	count := x.perClient[clientID]
	x.mu.RUnlock()
	if count == 0 {
		return retrieval.Result{}, nil
	}
	if k > count {
		k = count
	}

	where := map[string]string{metaClientID: clientID}
	results, err := col.Query(ctx, query, k, where, nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return retrieval.Result{}, fmt.Errorf("querying collection %s: %w", x.config.Collection, err)
	}

	docs := make([]retrieval.ScoredDocument, 0, len(results))
	for _, r := range results {
		// Same inclusion rule as the keyword backend: evidence must be
		// positively relevant, not merely the nearest neighbor.
		if r.Similarity <= 0 {
			continue
		}
		docs = append(docs, retrieval.ScoredDocument{
			Document: docstore.StoredDocument{
				Document: docstore.Document{
					ClientID:  r.Metadata[metaClientID],
					DocID:     r.Metadata[metaDocID],
					DocType:   r.Metadata[metaDocType],
					SourceURL: r.Metadata[metaSourceURL],
					Content:   r.Content,
				},
				Handle: r.ID,
			},
			Score: float64(r.Similarity),
		})
	}

	span.SetAttributes(attribute.Int("results_count", len(docs)))

	x.logger.Debug("vector retrieval complete",
		zap.String("client_id", clientID),
		zap.Int("k", k),
		zap.Int("results", len(docs)),
	)

	return retrieval.Result{Documents: docs}, nil
}

var _ retrieval.Retriever = (*ChromemIndex)(nil)
