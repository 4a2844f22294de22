// Package docstore holds ingested documents tagged with their tenant.
//
// The store is the system's isolation boundary: DocumentsFor is the only
// way to read documents, and it filters by exact client ID match. Callers
// downstream never see another tenant's documents, so no post-hoc filtering
// is required (or possible to forget).
package docstore

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// SourceInternal is the sentinel source URL for documents without one.
const SourceInternal = "internal"

// Ingestion error types.
var (
	// ErrEmptyContent is returned when a document has no content.
	ErrEmptyContent = errors.New("document content cannot be empty")

	// ErrMissingClientID is returned when a document has no tenant tag.
	ErrMissingClientID = errors.New("document client_id cannot be empty")

	// ErrMissingDocID is returned when a document has no identifier.
	ErrMissingDocID = errors.New("document doc_id cannot be empty")
)

// Document is a unit of ingested client evidence.
//
// DocID only needs to be unique within a client's corpus; the store derives
// a globally unique handle at ingestion time. A document's client ID is a
// logical reference to a registered profile, but the profile does not have
// to exist yet at ingestion time.
type Document struct {
	// Content is the document text (required, non-empty).
	Content string `json:"content"`

	// ClientID tags the owning tenant (required).
	ClientID string `json:"client_id"`

	// DocType is a free-form tag (brand_guide, technical_spec, ...).
	DocType string `json:"doc_type"`

	// DocID identifies the document within the client's corpus (required).
	DocID string `json:"doc_id"`

	// SourceURL is the document origin. Defaults to "internal".
	SourceURL string `json:"source_url,omitempty"`
}

// Validate checks required document fields. Content containing only
// whitespace counts as empty.
func (d *Document) Validate() error {
	if strings.TrimSpace(d.Content) == "" {
		return ErrEmptyContent
	}
	if d.ClientID == "" {
		return ErrMissingClientID
	}
	if d.DocID == "" {
		return ErrMissingDocID
	}
	return nil
}

// StoredDocument is a Document after ingestion: immutable, with a globally
// unique handle and its position in ingestion order.
type StoredDocument struct {
	Document

	// Handle is the globally unique internal identifier, derived
	// deterministically from (client_id, doc_id, ingestion sequence).
	Handle string `json:"handle"`

	// Seq is the store-wide ingestion sequence number. Retrieval uses it
	// as the tie-break for equal relevance scores.
	Seq int `json:"seq"`
}

// Store is an append-only, order-preserving document store.
//
// Writes are serialized by a single lock; reads may run concurrently.
// Documents are never mutated or deleted once ingested. Re-ingesting the
// same (client_id, doc_id) appends a second independent entry rather than
// replacing the first; deduplication is deliberately not the store's job.
type Store struct {
	mu     sync.RWMutex
	docs   []StoredDocument
	seq    int
	logger *zap.Logger
}

// NewStore creates an empty document store.
func NewStore(logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{logger: logger}
}

// Ingest appends a batch of documents and returns the stored entries in
// input order, each carrying its assigned handle. The batch is atomic: if
// any document fails validation, nothing is ingested.
func (s *Store) Ingest(docs []Document) ([]StoredDocument, error) {
	for i := range docs {
		if err := docs[i].Validate(); err != nil {
			return nil, fmt.Errorf("document at index %d: %w", i, err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stored := make([]StoredDocument, len(docs))
	for i, doc := range docs {
		if doc.SourceURL == "" {
			doc.SourceURL = SourceInternal
		}
		stored[i] = StoredDocument{
			Document: doc,
			Handle:   fmt.Sprintf("%s_%s_%d", doc.ClientID, doc.DocID, s.seq),
			Seq:      s.seq,
		}
		s.docs = append(s.docs, stored[i])
		s.seq++
	}

	s.logger.Debug("ingested documents", zap.Int("count", len(docs)))
	return stored, nil
}

// DocumentsFor returns this client's documents in ingestion order.
//
// Matching is exact, case-sensitive string equality on the client ID. This
// is the sole tenant filter in the system; every retrieval path goes
// through it.
func (s *Store) DocumentsFor(clientID string) []StoredDocument {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []StoredDocument
	for _, d := range s.docs {
		if d.ClientID == clientID {
			out = append(out, d)
		}
	}
	return out
}

// Count returns the total number of stored documents across all tenants.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

// All returns a snapshot of every stored document in ingestion order.
// Intended for indexing backends, not for retrieval: retrieval must go
// through DocumentsFor.
func (s *Store) All() []StoredDocument {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]StoredDocument, len(s.docs))
	copy(out, s.docs)
	return out
}
