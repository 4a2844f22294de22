package embeddings

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestServer(t *testing.T, vectors [][]float32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embed" {
			t.Errorf("path = %q, want /embed", r.URL.Path)
		}
		var req embedRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		if err := json.NewEncoder(w).Encode(vectors); err != nil {
			t.Errorf("encoding response: %v", err)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestClientEmbedQuery(t *testing.T) {
	srv := newTestServer(t, [][]float32{{0.1, 0.2, 0.3}})

	client, err := NewClient(Config{BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	vec, err := client.EmbedQuery(context.Background(), "hello world")
	if err != nil {
		t.Fatalf("EmbedQuery: %v", err)
	}
	if len(vec) != 3 {
		t.Errorf("len(vec) = %d, want 3", len(vec))
	}
}

func TestClientEmbedQueryEmpty(t *testing.T) {
	client, err := NewClient(Config{BaseURL: "http://localhost:1"})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	_, err = client.EmbedQuery(context.Background(), "")
	if !errors.Is(err, ErrEmptyInput) {
		t.Errorf("err = %v, want ErrEmptyInput", err)
	}
}

func TestClientEmbedDocuments(t *testing.T) {
	srv := newTestServer(t, [][]float32{{0.1, 0.2}, {0.3, 0.4}})

	client, err := NewClient(Config{BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	vecs, err := client.EmbedDocuments(context.Background(), []string{"a", "b"})
	if err != nil {
		t.Fatalf("EmbedDocuments: %v", err)
	}
	if len(vecs) != 2 {
		t.Errorf("len(vecs) = %d, want 2", len(vecs))
	}
}

func TestClientEmbedDocumentsEmpty(t *testing.T) {
	client, err := NewClient(Config{BaseURL: "http://localhost:1"})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	_, err = client.EmbedDocuments(context.Background(), nil)
	if !errors.Is(err, ErrEmptyInput) {
		t.Errorf("err = %v, want ErrEmptyInput", err)
	}
}

func TestClientServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)

	client, err := NewClient(Config{BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	_, err = client.EmbedQuery(context.Background(), "hello")
	if !errors.Is(err, ErrEmbeddingFailed) {
		t.Errorf("err = %v, want ErrEmbeddingFailed", err)
	}
}

func TestConfigValidate(t *testing.T) {
	if _, err := NewClient(Config{}); err == nil {
		t.Error("NewClient with empty BaseURL should fail")
	}
}
