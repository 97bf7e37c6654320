package embedder

import (
	"context"
	"fmt"
	"strings"

	"github.com/b08x/zDB/internal/catalog"
	"github.com/b08x/zDB/internal/extractor"
	"github.com/b08x/zDB/internal/logger"
)

// DefaultMaxChars is the preparation character budget applied before
// submission when none is configured.
const DefaultMaxChars = 8000

// Coordinator embeds content rows that do not yet carry a vector.
type Coordinator struct {
	store     catalog.Store
	embedder  Embedder
	batchSize int
	maxChars  int
}

// CoordinatorStats summarizes an embedding run.
type CoordinatorStats struct {
	Embedded int
	Batches  int
	Skipped  int
}

// NewCoordinator wires an embedding coordinator. batchSize and maxChars
// fall back to package defaults when non-positive.
func NewCoordinator(store catalog.Store, emb Embedder, batchSize, maxChars int) *Coordinator {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if batchSize > MaxBatchSize {
		batchSize = MaxBatchSize
	}
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}
	return &Coordinator{
		store:     store,
		embedder:  emb,
		batchSize: batchSize,
		maxChars:  maxChars,
	}
}

// EmbedPending embeds every content row lacking a vector. Inputs are
// grouped into fixed-size batches submitted sequentially, and results are
// persisted in the same order as the inputs. Rows whose prepared text is
// empty, such as a cataloged zero-byte file, are counted as skipped and
// never submitted. A vector whose dimension disagrees with the active
// backend's declared dimension aborts the run; it is a configuration
// error, never coerced.
func (c *Coordinator) EmbedPending(ctx context.Context) (*CoordinatorStats, error) {
	pending, err := c.store.ListPendingEmbedding(ctx, 0)
	if err != nil {
		return nil, err
	}

	stats := &CoordinatorStats{}
	ready := make([]*catalog.ContentRecord, 0, len(pending))
	for _, content := range pending {
		if PrepareText(content, c.maxChars) == "" {
			stats.Skipped++
			logger.Debug("skipping content %d: no text to embed", content.ID)
			continue
		}
		ready = append(ready, content)
	}

	for start := 0; start < len(ready); start += c.batchSize {
		end := start + c.batchSize
		if end > len(ready) {
			end = len(ready)
		}
		batch := ready[start:end]

		if err := c.embedBatch(ctx, batch); err != nil {
			return stats, err
		}
		stats.Embedded += len(batch)
		stats.Batches++
	}

	logger.Info("embedded %d content rows in %d batches (%d skipped)",
		stats.Embedded, stats.Batches, stats.Skipped)
	return stats, nil
}

// EmbedContent embeds a single content row by ID. Unlike EmbedPending,
// asking for a row with nothing to embed is an error.
func (c *Coordinator) EmbedContent(ctx context.Context, contentID int64) error {
	content, err := c.store.GetContent(ctx, contentID)
	if err != nil {
		return err
	}
	if PrepareText(content, c.maxChars) == "" {
		return fmt.Errorf("%w: content %d", ErrEmptyText, contentID)
	}
	return c.embedBatch(ctx, []*catalog.ContentRecord{content})
}

func (c *Coordinator) embedBatch(ctx context.Context, batch []*catalog.ContentRecord) error {
	texts := make([]string, len(batch))
	for i, content := range batch {
		texts[i] = PrepareText(content, c.maxChars)
	}

	resp, err := c.embedder.GenerateBatch(ctx, BatchEmbeddingRequest{
		Texts:   texts,
		Purpose: PurposeDocument,
	})
	if err != nil {
		return fmt.Errorf("embedding batch failed: %w", err)
	}
	if len(resp.Embeddings) != len(batch) {
		return fmt.Errorf("%w: %d embeddings for %d inputs", ErrProviderFailed, len(resp.Embeddings), len(batch))
	}

	want := c.embedder.Dimension()
	for i, emb := range resp.Embeddings {
		if emb.Dimension != want {
			return fmt.Errorf("%w: got %d, backend declares %d",
				catalog.ErrDimensionMismatch, emb.Dimension, want)
		}
		if err := c.store.SetEmbedding(ctx, batch[i].ID, emb.Vector); err != nil {
			return err
		}
	}
	return nil
}

// PrepareText shapes a content row's text for embedding. Generic content is
// truncated to the character budget. Code content gets a trailing summary
// line of structural elements found in annotations; document content gets a
// title/tags/category prologue drawn from annotations.
func PrepareText(content *catalog.ContentRecord, maxChars int) string {
	text := truncate(content.Text, maxChars)

	if extractor.IsCodeLanguage(content.Language) {
		if summary := structureSummary(content.Annotations); summary != "" {
			return text + "\n\n" + summary
		}
		return text
	}

	if prologue := documentPrologue(content.Annotations); prologue != "" {
		return prologue + "\n\n" + text
	}
	return text
}

func truncate(text string, maxChars int) string {
	if maxChars <= 0 || len(text) <= maxChars {
		return text
	}
	runes := []rune(text)
	if len(runes) <= maxChars {
		return text
	}
	return string(runes[:maxChars])
}

func structureSummary(annotations map[string]string) string {
	var parts []string
	for _, key := range []string{"classes", "methods", "functions"} {
		if v, ok := annotations[key]; ok && v != "" {
			parts = append(parts, key+": "+v)
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return "Structure: " + strings.Join(parts, "; ")
}

func documentPrologue(annotations map[string]string) string {
	var lines []string
	if v, ok := annotations["title"]; ok && v != "" {
		lines = append(lines, "Title: "+v)
	}
	if v, ok := annotations["tags"]; ok && v != "" {
		lines = append(lines, "Tags: "+v)
	}
	if v, ok := annotations["category"]; ok && v != "" {
		lines = append(lines, "Category: "+v)
	}
	return strings.Join(lines, "\n")
}
