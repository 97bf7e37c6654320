package embedder

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalProviderDeterministic(t *testing.T) {
	provider, err := NewLocalProvider(nil)
	require.NoError(t, err)
	ctx := context.Background()

	first, err := provider.GenerateEmbedding(ctx, EmbeddingRequest{Text: "stable input"})
	require.NoError(t, err)
	second, err := provider.GenerateEmbedding(ctx, EmbeddingRequest{Text: "stable input"})
	require.NoError(t, err)

	assert.Equal(t, first.Vector, second.Vector)
	assert.Equal(t, LocalDimension, first.Dimension)
	assert.Len(t, first.Vector, LocalDimension)

	other, err := provider.GenerateEmbedding(ctx, EmbeddingRequest{Text: "different input"})
	require.NoError(t, err)
	assert.NotEqual(t, first.Vector, other.Vector)
}

func TestLocalProviderBatchPreservesOrder(t *testing.T) {
	provider, err := NewLocalProvider(nil)
	require.NoError(t, err)
	ctx := context.Background()

	texts := []string{"alpha", "beta", "gamma"}
	resp, err := provider.GenerateBatch(ctx, BatchEmbeddingRequest{Texts: texts})
	require.NoError(t, err)
	require.Len(t, resp.Embeddings, 3)

	for i, text := range texts {
		single, err := provider.GenerateEmbedding(ctx, EmbeddingRequest{Text: text})
		require.NoError(t, err)
		assert.Equal(t, single.Vector, resp.Embeddings[i].Vector, "order must match input at %d", i)
	}
}

// fakeOllama records the framed inputs it receives and answers with
// small constant-dimension vectors.
type fakeOllama struct {
	inputs [][]string
}

func (f *fakeOllama) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/embed", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Model string   `json:"model"`
			Input []string `json:"input"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		f.inputs = append(f.inputs, req.Input)

		embeddings := make([][]float32, len(req.Input))
		for i := range req.Input {
			embeddings[i] = []float32{float32(i), 1, 2}
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"model":      req.Model,
			"embeddings": embeddings,
		})
	})
	return mux
}

func TestOllamaProviderNomicFraming(t *testing.T) {
	fake := &fakeOllama{}
	server := httptest.NewServer(fake.handler())
	defer server.Close()

	provider, err := NewOllamaProvider(server.URL, "nomic-embed-text", nil, RetryConfig{})
	require.NoError(t, err)
	ctx := context.Background()

	_, err = provider.GenerateBatch(ctx, BatchEmbeddingRequest{
		Texts:   []string{"stored passage"},
		Purpose: PurposeDocument,
	})
	require.NoError(t, err)

	_, err = provider.GenerateEmbedding(ctx, EmbeddingRequest{
		Text:    "what was stored?",
		Purpose: PurposeQuery,
	})
	require.NoError(t, err)

	require.Len(t, fake.inputs, 2)
	assert.Equal(t, []string{"search_document: stored passage"}, fake.inputs[0])
	assert.Equal(t, []string{"search_query: what was stored?"}, fake.inputs[1])
}

func TestOllamaProviderNonNomicNoFraming(t *testing.T) {
	fake := &fakeOllama{}
	server := httptest.NewServer(fake.handler())
	defer server.Close()

	provider, err := NewOllamaProvider(server.URL, "mxbai-embed-large", nil, RetryConfig{})
	require.NoError(t, err)

	_, err = provider.GenerateBatch(context.Background(), BatchEmbeddingRequest{
		Texts:   []string{"untouched text"},
		Purpose: PurposeQuery,
	})
	require.NoError(t, err)

	require.Len(t, fake.inputs, 1)
	assert.Equal(t, []string{"untouched text"}, fake.inputs[0])
}

func TestOllamaProviderBatchTooLarge(t *testing.T) {
	provider, err := NewOllamaProvider("http://localhost:1", "nomic-embed-text", nil, RetryConfig{})
	require.NoError(t, err)

	texts := make([]string, MaxBatchSize+1)
	for i := range texts {
		texts[i] = "x"
	}
	_, err = provider.GenerateBatch(context.Background(), BatchEmbeddingRequest{Texts: texts})
	assert.ErrorIs(t, err, ErrBatchTooLarge)
}

func TestOllamaProviderCaching(t *testing.T) {
	fake := &fakeOllama{}
	server := httptest.NewServer(fake.handler())
	defer server.Close()

	provider, err := NewOllamaProvider(server.URL, "nomic-embed-text", NewCache(10), RetryConfig{})
	require.NoError(t, err)
	ctx := context.Background()

	req := EmbeddingRequest{Text: "cache me", Purpose: PurposeDocument}
	first, err := provider.GenerateEmbedding(ctx, req)
	require.NoError(t, err)
	second, err := provider.GenerateEmbedding(ctx, req)
	require.NoError(t, err)

	assert.Equal(t, first.Vector, second.Vector)
	// The second call is answered from cache, not the server
	assert.Len(t, fake.inputs, 1)
}

func TestOllamaProviderServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	}))
	defer server.Close()

	retry := RetryConfig{MaxAttempts: 1, BaseDelay: time.Millisecond}
	provider, err := NewOllamaProvider(server.URL, "nomic-embed-text", nil, retry)
	require.NoError(t, err)

	_, err = provider.GenerateBatch(context.Background(), BatchEmbeddingRequest{Texts: []string{"x"}})
	assert.ErrorIs(t, err, ErrProviderFailed)
}

func TestOllamaProviderRetryAttemptsBounded(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "still broken", http.StatusInternalServerError)
	}))
	defer server.Close()

	retry := RetryConfig{MaxAttempts: 2, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond}
	provider, err := NewOllamaProvider(server.URL, "nomic-embed-text", nil, retry)
	require.NoError(t, err)

	_, err = provider.GenerateBatch(context.Background(), BatchEmbeddingRequest{Texts: []string{"x"}})
	assert.ErrorIs(t, err, ErrProviderFailed)
	assert.Equal(t, 2, calls)
}
