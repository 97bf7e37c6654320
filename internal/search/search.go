package search

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/b08x/zDB/internal/catalog"
	"github.com/b08x/zDB/internal/hasher"
)

// DefaultLimit is the result count used when the caller passes k <= 0.
const DefaultLimit = 10

// Match pairs a content row with its cosine distance from the query.
type Match struct {
	Content  *catalog.ContentRecord
	Distance float64
}

// Index answers nearest-neighbor queries over embedded content rows.
// Every deployment stores vectors of exactly one dimension; the index
// refuses to compare vectors of unequal length rather than coerce them.
type Index struct {
	store     catalog.Store
	dimension int
}

// New creates an index over the given store. dimension must match the
// embedding backend the catalog was populated with.
func New(store catalog.Store, dimension int) *Index {
	return &Index{store: store, dimension: dimension}
}

// Dimension returns the vector dimension the index expects.
func (ix *Index) Dimension() int {
	return ix.dimension
}

// Nearest returns the k content rows closest to the query vector,
// ascending by cosine distance. Rows at equal distance keep insertion
// order. A query or stored vector of the wrong dimension fails the
// whole call.
func (ix *Index) Nearest(ctx context.Context, query []float32, k int) ([]Match, error) {
	if len(query) != ix.dimension {
		return nil, fmt.Errorf("%w: query has %d dimensions, index expects %d",
			catalog.ErrDimensionMismatch, len(query), ix.dimension)
	}
	return ix.nearest(ctx, query, k, 0)
}

// NearestTo returns the k content rows closest to an already embedded
// content row, excluding the row itself. A row without an embedding
// yields an empty result, not an error.
func (ix *Index) NearestTo(ctx context.Context, contentID int64, k int) ([]Match, error) {
	content, err := ix.store.GetContent(ctx, contentID)
	if err != nil {
		return nil, err
	}
	if content.Embedding == nil {
		return nil, nil
	}
	if len(content.Embedding) != ix.dimension {
		return nil, fmt.Errorf("%w: content %d has %d dimensions, index expects %d",
			catalog.ErrDimensionMismatch, contentID, len(content.Embedding), ix.dimension)
	}
	return ix.nearest(ctx, content.Embedding, k, contentID)
}

// NearestToFile resolves a file by content hash and runs NearestTo
// against its first embedded content variant. Files with no embedded
// content yield an empty result.
func (ix *Index) NearestToFile(ctx context.Context, hash hasher.Digest, k int) ([]Match, error) {
	file, err := ix.store.GetFileByHash(ctx, hash)
	if err != nil {
		return nil, err
	}
	contents, err := ix.store.ListContentByFile(ctx, file.ID)
	if err != nil {
		return nil, err
	}
	for _, content := range contents {
		if content.Embedding != nil {
			return ix.NearestTo(ctx, content.ID, k)
		}
	}
	return nil, nil
}

// nearest scans all embedded rows. excludeID skips a row by ID when
// non-zero. The embedded listing is ordered by insertion, and the sort
// below is stable, so ties resolve to the earlier row.
func (ix *Index) nearest(ctx context.Context, query []float32, k int, excludeID int64) ([]Match, error) {
	if k <= 0 {
		k = DefaultLimit
	}

	embedded, err := ix.store.ListEmbedded(ctx)
	if err != nil {
		return nil, err
	}

	matches := make([]Match, 0, len(embedded))
	for _, content := range embedded {
		if content.ID == excludeID {
			continue
		}
		if len(content.Embedding) != ix.dimension {
			return nil, fmt.Errorf("%w: content %d has %d dimensions, index expects %d",
				catalog.ErrDimensionMismatch, content.ID, len(content.Embedding), ix.dimension)
		}
		matches = append(matches, Match{
			Content:  content,
			Distance: CosineDistance(query, content.Embedding),
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Distance < matches[j].Distance
	})

	if len(matches) > k {
		matches = matches[:k]
	}
	return matches, nil
}

// CosineDistance computes 1 - cosine similarity. Identical directions
// yield 0, orthogonal vectors 1, opposite directions 2. A zero vector
// has no direction and is reported at distance 1 from everything.
func CosineDistance(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 1
	}
	return 1 - dot/(math.Sqrt(normA)*math.Sqrt(normB))
}
