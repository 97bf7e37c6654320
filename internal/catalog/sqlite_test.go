package catalog

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/b08x/zDB/internal/hasher"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func testInfo(content string) hasher.FileInfo {
	return hasher.FileInfo{
		Digest:     hasher.SumBytes([]byte(content)),
		SizeBytes:  int64(len(content)),
		ModifiedAt: time.Now(),
	}
}

func TestFindOrCreateFileDedup(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	info := testInfo("identical bytes")

	first, created, err := store.FindOrCreateFile(ctx, "/a/report.txt", info)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, StatusDiscovered, first.Status)
	assert.Equal(t, "/a/report.txt", first.OriginalPath)

	second, created, err := store.FindOrCreateFile(ctx, "/b/copy-of-report.txt", info)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
	// First observed path is immutable
	assert.Equal(t, "/a/report.txt", second.OriginalPath)

	observations, err := store.ListObservations(ctx, info.Digest)
	require.NoError(t, err)
	require.Len(t, observations, 2)
	assert.Equal(t, "/a/report.txt", observations[0].Path)
	assert.Equal(t, "/b/copy-of-report.txt", observations[1].Path)
}

func TestFindOrCreateFileRepeatedPath(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	info := testInfo("rescan me")

	_, _, err := store.FindOrCreateFile(ctx, "/a/x.txt", info)
	require.NoError(t, err)
	_, created, err := store.FindOrCreateFile(ctx, "/a/x.txt", info)
	require.NoError(t, err)
	assert.False(t, created)

	observations, err := store.ListObservations(ctx, info.Digest)
	require.NoError(t, err)
	assert.Len(t, observations, 1)
}

func TestGetFileByHashNotFound(t *testing.T) {
	store := newTestStore(t)
	_, err := store.GetFileByHash(context.Background(), hasher.SumBytes([]byte("never stored")))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSetStatusUnknownHash(t *testing.T) {
	store := newTestStore(t)
	err := store.SetStatus(context.Background(), hasher.SumBytes([]byte("ghost")), StatusProcessed, "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSetStatusStoresErrorMessageOnlyForError(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	info := testInfo("status target")
	_, _, err := store.FindOrCreateFile(ctx, "/f.txt", info)
	require.NoError(t, err)

	require.NoError(t, store.SetStatus(ctx, info.Digest, StatusError, "conversion failed: corrupt PDF"))
	file, err := store.GetFileByHash(ctx, info.Digest)
	require.NoError(t, err)
	assert.Equal(t, StatusError, file.Status)
	assert.Equal(t, "conversion failed: corrupt PDF", file.ErrorMessage)

	require.NoError(t, store.SetStatus(ctx, info.Digest, StatusProcessed, "stale message"))
	file, err = store.GetFileByHash(ctx, info.Digest)
	require.NoError(t, err)
	assert.Equal(t, StatusProcessed, file.Status)
	assert.Empty(t, file.ErrorMessage)
}

func TestClaimFileExactlyOneWinner(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	info := testInfo("contended file")
	_, _, err := store.FindOrCreateFile(ctx, "/contended.txt", info)
	require.NoError(t, err)

	const claimers = 8
	var wg sync.WaitGroup
	results := make([]bool, claimers)
	errs := make([]error, claimers)

	for i := 0; i < claimers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = store.ClaimFile(ctx, info.Digest)
		}(i)
	}
	wg.Wait()

	winners := 0
	for i := 0; i < claimers; i++ {
		require.NoError(t, errs[i])
		if results[i] {
			winners++
		}
	}
	assert.Equal(t, 1, winners)

	file, err := store.GetFileByHash(ctx, info.Digest)
	require.NoError(t, err)
	assert.Equal(t, StatusProcessing, file.Status)
}

func TestClaimFileFromErrorState(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	info := testInfo("failed once")
	_, _, err := store.FindOrCreateFile(ctx, "/failed.txt", info)
	require.NoError(t, err)

	require.NoError(t, store.SetStatus(ctx, info.Digest, StatusError, "backend down"))

	claimed, err := store.ClaimFile(ctx, info.Digest)
	require.NoError(t, err)
	assert.True(t, claimed)

	file, err := store.GetFileByHash(ctx, info.Digest)
	require.NoError(t, err)
	assert.Equal(t, StatusProcessing, file.Status)
	assert.Empty(t, file.ErrorMessage)
}

func TestClaimFileNotClaimable(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	info := testInfo("already done")
	_, _, err := store.FindOrCreateFile(ctx, "/done.txt", info)
	require.NoError(t, err)
	require.NoError(t, store.SetStatus(ctx, info.Digest, StatusProcessed, ""))

	claimed, err := store.ClaimFile(ctx, info.Digest)
	require.NoError(t, err)
	assert.False(t, claimed)

	_, err = store.ClaimFile(ctx, hasher.SumBytes([]byte("unknown")))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReprocess(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	info := testInfo("reprocess me")
	_, _, err := store.FindOrCreateFile(ctx, "/r.txt", info)
	require.NoError(t, err)

	// Only Processed may go back to Discovered
	err = store.Reprocess(ctx, info.Digest)
	assert.Error(t, err)

	require.NoError(t, store.SetStatus(ctx, info.Digest, StatusProcessed, ""))
	require.NoError(t, store.Reprocess(ctx, info.Digest))

	file, err := store.GetFileByHash(ctx, info.Digest)
	require.NoError(t, err)
	assert.Equal(t, StatusDiscovered, file.Status)
}

func TestUpsertContentIdempotent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	info := testInfo("file with content")
	file, _, err := store.FindOrCreateFile(ctx, "/doc.pdf", info)
	require.NoError(t, err)

	content := &ContentRecord{
		FileID:      file.ID,
		ContentType: ContentExtracted,
		Text:        "extracted text",
		Annotations: map[string]string{"pages": "3"},
	}
	require.NoError(t, store.UpsertContent(ctx, content))
	firstID := content.ID

	require.NoError(t, store.SetEmbedding(ctx, firstID, []float32{1, 2, 3}))

	// Same text again: row count stays at one, embedding survives
	again := &ContentRecord{
		FileID:      file.ID,
		ContentType: ContentExtracted,
		Text:        "extracted text",
		Annotations: map[string]string{"pages": "3"},
	}
	require.NoError(t, store.UpsertContent(ctx, again))
	assert.Equal(t, firstID, again.ID)

	stored, err := store.GetContent(ctx, firstID)
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2, 3}, stored.Embedding)

	contents, err := store.ListContentByFile(ctx, file.ID)
	require.NoError(t, err)
	assert.Len(t, contents, 1)
}

func TestUpsertContentChangedTextClearsEmbedding(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	info := testInfo("mutable content")
	file, _, err := store.FindOrCreateFile(ctx, "/doc.txt", info)
	require.NoError(t, err)

	content := &ContentRecord{FileID: file.ID, ContentType: ContentRaw, Text: "version one"}
	require.NoError(t, store.UpsertContent(ctx, content))
	require.NoError(t, store.SetEmbedding(ctx, content.ID, []float32{0.5, 0.5}))

	updated := &ContentRecord{FileID: file.ID, ContentType: ContentRaw, Text: "version two"}
	require.NoError(t, store.UpsertContent(ctx, updated))

	stored, err := store.GetContent(ctx, content.ID)
	require.NoError(t, err)
	assert.Equal(t, "version two", stored.Text)
	assert.Nil(t, stored.Embedding)
}

func TestListPendingAndEmbedded(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	info := testInfo("embedding queue")
	file, _, err := store.FindOrCreateFile(ctx, "/q.txt", info)
	require.NoError(t, err)

	raw := &ContentRecord{FileID: file.ID, ContentType: ContentRaw, Text: "raw"}
	extracted := &ContentRecord{FileID: file.ID, ContentType: ContentExtracted, Text: "extracted"}
	require.NoError(t, store.UpsertContent(ctx, raw))
	require.NoError(t, store.UpsertContent(ctx, extracted))

	pending, err := store.ListPendingEmbedding(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, pending, 2)

	require.NoError(t, store.SetEmbedding(ctx, raw.ID, []float32{1, 0}))

	pending, err = store.ListPendingEmbedding(ctx, 0)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, extracted.ID, pending[0].ID)

	embedded, err := store.ListEmbedded(ctx)
	require.NoError(t, err)
	require.Len(t, embedded, 1)
	assert.Equal(t, raw.ID, embedded[0].ID)
	assert.Equal(t, []float32{1, 0}, embedded[0].Embedding)
}

func TestDuplicateScenario(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	// A and A' share bytes, B differs
	shared := testInfo("shared content")
	unique := testInfo("unique content")

	_, _, err := store.FindOrCreateFile(ctx, "/a/original.txt", shared)
	require.NoError(t, err)
	_, _, err = store.FindOrCreateFile(ctx, "/b/copy.txt", shared)
	require.NoError(t, err)
	_, _, err = store.FindOrCreateFile(ctx, "/c/other.txt", unique)
	require.NoError(t, err)

	hashes, err := store.FindDuplicateHashes(ctx)
	require.NoError(t, err)
	require.Len(t, hashes, 1)
	assert.Equal(t, shared.Digest, hashes[0])

	groups, err := store.RefreshDuplicateSummary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, groups)

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalFiles)
	assert.Equal(t, 1, stats.DuplicateHashes)
}

func TestTags(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	info := testInfo("tagged file")
	file, _, err := store.FindOrCreateFile(ctx, "/t.txt", info)
	require.NoError(t, err)

	tag, err := store.EnsureTag(ctx, "finance", "topic")
	require.NoError(t, err)
	assert.Equal(t, "finance", tag.Name)
	assert.Equal(t, "topic", tag.Category)

	// Idempotent: same name returns the same tag
	same, err := store.EnsureTag(ctx, "finance", "")
	require.NoError(t, err)
	assert.Equal(t, tag.ID, same.ID)
	assert.Equal(t, "topic", same.Category)

	require.NoError(t, store.TagFile(ctx, file.ID, tag.ID))
	require.NoError(t, store.TagFile(ctx, file.ID, tag.ID)) // repeat is a no-op

	tags, err := store.ListTagsByFile(ctx, file.ID)
	require.NoError(t, err)
	require.Len(t, tags, 1)
	assert.Equal(t, "finance", tags[0].Name)

	files, err := store.ListFilesByTag(ctx, "finance")
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, file.ID, files[0].ID)

	none, err := store.ListFilesByTag(ctx, "unknown-tag")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestMetadataRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	info := testInfo("metadata holder")
	_, _, err := store.FindOrCreateFile(ctx, "/m.txt", info)
	require.NoError(t, err)

	meta := map[string]string{"source": "scanner", "campaign": "q3"}
	require.NoError(t, store.UpdateFileMetadata(ctx, info.Digest, meta))

	file, err := store.GetFileByHash(ctx, info.Digest)
	require.NoError(t, err)
	assert.Equal(t, meta, file.Metadata)
}

func TestSetCentralizedPath(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	info := testInfo("relocated")
	_, _, err := store.FindOrCreateFile(ctx, "/orig.txt", info)
	require.NoError(t, err)

	require.NoError(t, store.SetCentralizedPath(ctx, info.Digest, "/vault/orig.txt"))
	file, err := store.GetFileByHash(ctx, info.Digest)
	require.NoError(t, err)
	assert.Equal(t, "/vault/orig.txt", file.CentralizedPath)
	assert.Equal(t, "/orig.txt", file.OriginalPath)
}
