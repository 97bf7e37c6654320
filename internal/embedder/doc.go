// Package embedder generates vector embeddings for cataloged content.
//
// An Embedder turns prepared text into fixed-dimension float32 vectors.
// Three backends are provided: OpenAI's embeddings API, a local Ollama
// server, and a deterministic offline provider useful for tests and
// air-gapped setups. All backends share an LRU cache keyed by the
// SHA-256 of the framed input, so repeated texts never hit the network
// twice.
//
// The Coordinator drives batch embedding of content rows that do not yet
// carry a vector. It prepares each text (truncation, code structure
// summaries, document prologues), submits fixed-size batches, and
// persists results in input order. Every deployment embeds at exactly
// one dimension; a backend returning vectors of any other size aborts
// the run with catalog.ErrDimensionMismatch.
package embedder
