package vectorstore_test

import (
	"context"
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/brandguard/internal/docstore"
	"github.com/fyrsmithlabs/brandguard/internal/retrieval"
	"github.com/fyrsmithlabs/brandguard/internal/vectorstore"
)

// topicEmbedder maps known topic words onto fixed vector dimensions so
// similarity rankings in tests are predictable.
type topicEmbedder struct{}

var topicDims = map[string]int{
	"eip7702":    0,
	"wallet":     0,
	"funcoin":    1,
	"meme":       1,
	"compliance": 2,
	"audit":      2,
}

func (topicEmbedder) embed(text string) []float32 {
	vec := make([]float32, 4)
	for _, tok := range strings.Fields(strings.ToLower(text)) {
		if dim, ok := topicDims[strings.Trim(tok, ".,!?")]; ok {
			vec[dim]++
		}
	}
	vec[3] = 0.1 // keeps zero-topic texts embeddable
	var sumSq float32
	for _, v := range vec {
		sumSq += v * v
	}
	norm := float32(1.0 / math.Sqrt(float64(sumSq)))
	for i := range vec {
		vec[i] *= norm
	}
	return vec
}

func (e topicEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return e.embed(text), nil
}

func (e topicEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = e.embed(t)
	}
	return out, nil
}

func newTestIndex(t *testing.T) *vectorstore.ChromemIndex {
	t.Helper()
	idx, err := vectorstore.NewChromemIndex(vectorstore.Config{}, topicEmbedder{}, zap.NewNop())
	require.NoError(t, err)
	return idx
}

func stored(clientID, docID, content string, seq int) docstore.StoredDocument {
	return docstore.StoredDocument{
		Document: docstore.Document{
			ClientID:  clientID,
			DocID:     docID,
			DocType:   "brand_guide",
			SourceURL: "internal",
			Content:   content,
		},
		Handle: fmt.Sprintf("%s_%s_%d", clientID, docID, seq),
		Seq:    seq,
	}
}

func TestNewChromemIndex(t *testing.T) {
	t.Run("nil embedder rejected", func(t *testing.T) {
		_, err := vectorstore.NewChromemIndex(vectorstore.Config{}, nil, zap.NewNop())
		require.ErrorIs(t, err, vectorstore.ErrInvalidConfig)
	})

	t.Run("nil logger tolerated", func(t *testing.T) {
		idx, err := vectorstore.NewChromemIndex(vectorstore.Config{}, topicEmbedder{}, nil)
		require.NoError(t, err)
		require.NotNil(t, idx)
	})

	t.Run("persistent path", func(t *testing.T) {
		idx, err := vectorstore.NewChromemIndex(vectorstore.Config{Path: t.TempDir()}, topicEmbedder{}, zap.NewNop())
		require.NoError(t, err)
		require.NotNil(t, idx)
	})
}

func TestChromemIndexRanking(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	err := idx.Index(ctx, []docstore.StoredDocument{
		stored("alpha", "eip-guide", "eip7702 wallet upgrade guidance for the eip7702 launch", 0),
		stored("alpha", "audit-notes", "compliance audit checklist", 1),
	})
	require.NoError(t, err)

	res, err := idx.Retrieve(ctx, "eip7702 wallet plans", "alpha", 2)
	require.NoError(t, err)
	require.Len(t, res.Documents, 2)
	assert.Equal(t, "eip-guide", res.Documents[0].Document.DocID)
	assert.Greater(t, res.Documents[0].Score, res.Documents[1].Score)
}

func TestChromemIndexTenantIsolation(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	err := idx.Index(ctx, []docstore.StoredDocument{
		stored("alpha", "alpha-eip", "eip7702 wallet rollout", 0),
		stored("beta", "beta-eip", "eip7702 wallet rollout for funcoin meme holders", 1),
	})
	require.NoError(t, err)

	res, err := idx.Retrieve(ctx, "eip7702 wallet", "alpha", 10)
	require.NoError(t, err)
	require.NotEmpty(t, res.Documents)
	for _, d := range res.Documents {
		assert.Equal(t, "alpha", d.Document.ClientID,
			"ISOLATION VIOLATION: alpha query returned document %q owned by %q", d.Document.DocID, d.Document.ClientID)
	}
}

func TestChromemIndexUnknownClientEmpty(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	err := idx.Index(ctx, []docstore.StoredDocument{
		stored("alpha", "alpha-eip", "eip7702 wallet rollout", 0),
	})
	require.NoError(t, err)

	res, err := idx.Retrieve(ctx, "eip7702 wallet", "gamma", 3)
	require.NoError(t, err)
	assert.True(t, res.Empty(), "client with no documents must get an empty result")
}

func TestChromemIndexEmptyCollection(t *testing.T) {
	idx := newTestIndex(t)

	res, err := idx.Retrieve(context.Background(), "anything", "alpha", 3)
	require.NoError(t, err)
	assert.True(t, res.Empty())
}

func TestChromemIndexClampsTopK(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	err := idx.Index(ctx, []docstore.StoredDocument{
		stored("alpha", "d1", "funcoin meme strategy", 0),
		stored("alpha", "d2", "funcoin governance", 1),
	})
	require.NoError(t, err)

	res, err := idx.Retrieve(ctx, "funcoin", "alpha", 50)
	require.NoError(t, err)
	assert.Len(t, res.Documents, 2)
}

func TestChromemIndexArgumentErrors(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	_, err := idx.Retrieve(ctx, "", "alpha", 3)
	require.ErrorIs(t, err, retrieval.ErrEmptyQuery)

	_, err = idx.Retrieve(ctx, "query", "alpha", -1)
	require.ErrorIs(t, err, retrieval.ErrInvalidTopK)
}

func TestChromemIndexEmptyBatchNoop(t *testing.T) {
	idx := newTestIndex(t)
	require.NoError(t, idx.Index(context.Background(), nil))
}

func TestChromemIndexSurvivesRestart(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	idx, err := vectorstore.NewChromemIndex(vectorstore.Config{Path: dir}, topicEmbedder{}, zap.NewNop())
	require.NoError(t, err)

	err = idx.Index(ctx, []docstore.StoredDocument{
		stored("alpha", "eip-guide", "eip7702 wallet rollout", 0),
		stored("beta", "beta-promo", "funcoin meme rewards", 1),
	})
	require.NoError(t, err)

	res, err := idx.Retrieve(ctx, "eip7702 wallet", "alpha", 3)
	require.NoError(t, err)
	require.Len(t, res.Documents, 1)

	// A fresh index over the same path must see the persisted documents,
	// not report every client as empty.
	reopened, err := vectorstore.NewChromemIndex(vectorstore.Config{Path: dir}, topicEmbedder{}, zap.NewNop())
	require.NoError(t, err)

	res, err = reopened.Retrieve(ctx, "eip7702 wallet", "alpha", 3)
	require.NoError(t, err)
	require.Len(t, res.Documents, 1, "reopened index returned empty despite persisted documents")
	assert.Equal(t, "eip-guide", res.Documents[0].Document.DocID)

	res, err = reopened.Retrieve(ctx, "funcoin meme", "beta", 3)
	require.NoError(t, err)
	require.Len(t, res.Documents, 1)
	assert.Equal(t, "beta-promo", res.Documents[0].Document.DocID)
}

// axisEmbedder places each known text on a fixed axis so similarities are
// exactly 1, 0, or -1 in tests.
type axisEmbedder struct {
	axes map[string][]float32
}

func (e axisEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if v, ok := e.axes[text]; ok {
		return v, nil
	}
	return []float32{1, 0, 0}, nil
}

func (e axisEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := e.EmbedQuery(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func TestChromemIndexExcludesNonPositiveSimilarity(t *testing.T) {
	embedder := axisEmbedder{axes: map[string][]float32{
		"wallet news":    {1, 0, 0},
		"wallet update":  {1, 0, 0},
		"orthogonal doc": {0, 1, 0},
		"opposite doc":   {-1, 0, 0},
	}}

	idx, err := vectorstore.NewChromemIndex(vectorstore.Config{}, embedder, zap.NewNop())
	require.NoError(t, err)
	ctx := context.Background()

	err = idx.Index(ctx, []docstore.StoredDocument{
		stored("alpha", "match", "wallet update", 0),
		stored("alpha", "ortho", "orthogonal doc", 1),
		stored("alpha", "anti", "opposite doc", 2),
	})
	require.NoError(t, err)

	res, err := idx.Retrieve(ctx, "wallet news", "alpha", 3)
	require.NoError(t, err)
	require.Len(t, res.Documents, 1, "zero or negative similarity documents must be excluded")
	assert.Equal(t, "match", res.Documents[0].Document.DocID)
	assert.Greater(t, res.Documents[0].Score, 0.0)
}
