package embedder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeHash(t *testing.T) {
	docHash := ComputeHash("same text", PurposeDocument)
	queryHash := ComputeHash("same text", PurposeQuery)

	// Same text framed differently yields a different cache key
	assert.NotEqual(t, docHash, queryHash)
	assert.Equal(t, docHash, ComputeHash("same text", PurposeDocument))
	assert.Len(t, docHash, 64)
}

func TestCacheDeepCopy(t *testing.T) {
	cache := NewCache(10)

	original := &Embedding{
		Vector:    []float32{1, 2, 3},
		Dimension: 3,
		Provider:  ProviderLocal,
	}
	cache.Set("key", original)

	got, ok := cache.Get("key")
	require.True(t, ok)
	got.Vector[0] = 99

	again, ok := cache.Get("key")
	require.True(t, ok)
	assert.Equal(t, float32(1), again.Vector[0])
}

func TestCacheMiss(t *testing.T) {
	cache := NewCache(10)
	_, ok := cache.Get("absent")
	assert.False(t, ok)
}

func TestCacheEviction(t *testing.T) {
	cache := NewCache(2)
	cache.Set("a", &Embedding{Vector: []float32{1}})
	cache.Set("b", &Embedding{Vector: []float32{2}})
	cache.Set("c", &Embedding{Vector: []float32{3}})

	assert.Equal(t, 2, cache.Size())
	_, ok := cache.Get("a")
	assert.False(t, ok)
}

func TestValidateRequest(t *testing.T) {
	assert.ErrorIs(t, ValidateRequest(EmbeddingRequest{}), ErrEmptyText)
	assert.NoError(t, ValidateRequest(EmbeddingRequest{Text: "ok"}))
}

func TestValidateBatchRequest(t *testing.T) {
	assert.ErrorIs(t, ValidateBatchRequest(BatchEmbeddingRequest{}), ErrInvalidInput)
	assert.ErrorIs(t, ValidateBatchRequest(BatchEmbeddingRequest{Texts: []string{"ok", ""}}), ErrInvalidInput)
	assert.NoError(t, ValidateBatchRequest(BatchEmbeddingRequest{Texts: []string{"a", "b"}}))
}

func TestFactory(t *testing.T) {
	emb, err := New(Config{Provider: "local"})
	require.NoError(t, err)
	assert.Equal(t, ProviderLocal, emb.Provider())

	// Empty provider defaults to local
	emb, err = New(Config{})
	require.NoError(t, err)
	assert.Equal(t, ProviderLocal, emb.Provider())

	_, err = New(Config{Provider: "openai"})
	assert.ErrorIs(t, err, ErrNoProviderEnabled)

	_, err = New(Config{Provider: "quantum"})
	assert.ErrorIs(t, err, ErrUnsupportedModel)
}
