// Package hasher computes content fingerprints for catalog identity.
//
// A file's identity is the SHA-256 digest of its full byte content. Two
// files with identical bytes hash to the same digest regardless of path,
// which is the foundation of the catalog's deduplication guarantee.
package hasher

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"time"
)

// Size is the digest length in bytes.
const Size = sha256.Size

// Digest is a fixed-length content hash.
type Digest [Size]byte

// Hex returns the lowercase hex encoding of the digest.
func (d Digest) Hex() string {
	return hex.EncodeToString(d[:])
}

// ParseHex decodes a hex-encoded digest.
func ParseHex(s string) (Digest, error) {
	var d Digest
	b, err := hex.DecodeString(s)
	if err != nil {
		return d, err
	}
	if len(b) != Size {
		return d, fmt.Errorf("digest must be %d bytes, got %d", Size, len(b))
	}
	copy(d[:], b)
	return d, nil
}

// Sum computes the digest of everything readable from r.
func Sum(r io.Reader) (Digest, error) {
	h := sha256.New()
	if _, err := io.Copy(h, r); err != nil {
		return Digest{}, err
	}
	var d Digest
	copy(d[:], h.Sum(nil))
	return d, nil
}

// SumBytes computes the digest of b.
func SumBytes(b []byte) Digest {
	return sha256.Sum256(b)
}

// FileInfo carries the discovery-time attributes captured alongside a hash.
type FileInfo struct {
	Digest     Digest
	SizeBytes  int64
	ModifiedAt time.Time
}

// SumFile hashes a file's full content and captures its size and mtime.
// Any I/O error is returned as-is; no partial digest is produced.
func SumFile(path string) (FileInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return FileInfo{}, err
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return FileInfo{}, err
	}

	d, err := Sum(f)
	if err != nil {
		return FileInfo{}, err
	}

	return FileInfo{
		Digest:     d,
		SizeBytes:  info.Size(),
		ModifiedAt: info.ModTime(),
	}, nil
}
