package embedder

import (
	"fmt"
	"strings"
)

// Config holds embedder configuration. Backend selection is explicit and
// threaded in at construction; nothing here is read from globals.
type Config struct {
	Provider  string // openai, ollama, local
	Model     string
	APIKey    string // openai only
	BaseURL   string // ollama only
	CacheSize int
	Retry     RetryConfig // zero value uses package defaults
}

// New creates an embedder with explicit configuration
func New(cfg Config) (Embedder, error) {
	var cache *Cache
	if cfg.CacheSize > 0 {
		cache = NewCache(cfg.CacheSize)
	}

	provider := strings.ToLower(cfg.Provider)
	switch provider {
	case ProviderOpenAI:
		return NewOpenAIProvider(cfg.APIKey, cfg.Model, cache, cfg.Retry)
	case ProviderOllama:
		return NewOllamaProvider(cfg.BaseURL, cfg.Model, cache, cfg.Retry)
	case ProviderLocal, "":
		return NewLocalProvider(cache)
	default:
		return nil, fmt.Errorf("%w: unknown provider %s", ErrUnsupportedModel, cfg.Provider)
	}
}
