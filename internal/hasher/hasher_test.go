package hasher

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Known SHA-256 of "hello world".
const helloWorldHex = "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9"

func TestSumBytes(t *testing.T) {
	d := SumBytes([]byte("hello world"))
	assert.Equal(t, helloWorldHex, d.Hex())
}

func TestSumMatchesSumBytes(t *testing.T) {
	d, err := Sum(strings.NewReader("hello world"))
	require.NoError(t, err)
	assert.Equal(t, SumBytes([]byte("hello world")), d)
}

func TestSumFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello world"), 0o644))

	info, err := SumFile(path)
	require.NoError(t, err)
	assert.Equal(t, helloWorldHex, info.Digest.Hex())
	assert.Equal(t, int64(11), info.SizeBytes)
	assert.False(t, info.ModifiedAt.IsZero())
}

func TestSumFileIdenticalContentDifferentPaths(t *testing.T) {
	dir := t.TempDir()
	pathA := filepath.Join(dir, "a.txt")
	pathB := filepath.Join(dir, "sub", "b.txt")
	require.NoError(t, os.MkdirAll(filepath.Dir(pathB), 0o755))
	require.NoError(t, os.WriteFile(pathA, []byte("same bytes"), 0o644))
	require.NoError(t, os.WriteFile(pathB, []byte("same bytes"), 0o644))

	infoA, err := SumFile(pathA)
	require.NoError(t, err)
	infoB, err := SumFile(pathB)
	require.NoError(t, err)

	assert.Equal(t, infoA.Digest, infoB.Digest)
}

func TestSumFileMissing(t *testing.T) {
	_, err := SumFile(filepath.Join(t.TempDir(), "nope.txt"))
	assert.Error(t, err)
}

func TestParseHex(t *testing.T) {
	d, err := ParseHex(helloWorldHex)
	require.NoError(t, err)
	assert.Equal(t, helloWorldHex, d.Hex())

	_, err = ParseHex("abcd")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "digest must be 32 bytes")

	_, err = ParseHex("not hex at all")
	assert.Error(t, err)
}
