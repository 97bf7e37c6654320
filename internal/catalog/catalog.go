package catalog

import (
	"context"
	"errors"
	"time"

	"github.com/b08x/zDB/internal/hasher"
)

var (
	// ErrNotFound is returned when a requested record doesn't exist
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned when a manual insert violates hash uniqueness
	ErrAlreadyExists = errors.New("already exists")
	// ErrDimensionMismatch is returned when an embedding's dimension disagrees
	// with the dimension already present in the store or configured for it
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)

// Status is the processing state of a FileRecord.
type Status string

const (
	StatusDiscovered Status = "discovered"
	StatusProcessing Status = "processing"
	StatusProcessed  Status = "processed"
	StatusError      Status = "error"
)

// ContentType distinguishes the variants of stored content for one file.
type ContentType string

const (
	ContentRaw       ContentType = "raw"       // verbatim bytes-as-text
	ContentExtracted ContentType = "extracted" // backend/reader-recovered text
	ContentProcessed ContentType = "processed" // further-transformed text
)

// Store defines the persistence surface for the catalog and content tables.
type Store interface {
	// File identity operations
	FindOrCreateFile(ctx context.Context, path string, info hasher.FileInfo) (*FileRecord, bool, error)
	InsertFile(ctx context.Context, file *FileRecord) error
	GetFileByHash(ctx context.Context, hash hasher.Digest) (*FileRecord, error)
	ListFiles(ctx context.Context) ([]*FileRecord, error)
	SetStatus(ctx context.Context, hash hasher.Digest, status Status, errorMessage string) error
	ClaimFile(ctx context.Context, hash hasher.Digest) (bool, error)
	Reprocess(ctx context.Context, hash hasher.Digest) error
	SetCentralizedPath(ctx context.Context, hash hasher.Digest, path string) error
	UpdateFileMetadata(ctx context.Context, hash hasher.Digest, metadata map[string]string) error

	// Duplicate operations
	FindDuplicateHashes(ctx context.Context) ([]hasher.Digest, error)
	ListObservations(ctx context.Context, hash hasher.Digest) ([]*PathObservation, error)
	RefreshDuplicateSummary(ctx context.Context) (int, error)

	// Content operations
	UpsertContent(ctx context.Context, content *ContentRecord) error
	GetContent(ctx context.Context, contentID int64) (*ContentRecord, error)
	ListContentByFile(ctx context.Context, fileID int64) ([]*ContentRecord, error)
	ListPendingEmbedding(ctx context.Context, limit int) ([]*ContentRecord, error)
	ListEmbedded(ctx context.Context) ([]*ContentRecord, error)
	SetEmbedding(ctx context.Context, contentID int64, vector []float32) error

	// Tag operations
	EnsureTag(ctx context.Context, name, category string) (*Tag, error)
	TagFile(ctx context.Context, fileID, tagID int64) error
	ListTagsByFile(ctx context.Context, fileID int64) ([]*Tag, error)
	ListFilesByTag(ctx context.Context, tagName string) ([]*FileRecord, error)

	// Status operations
	Stats(ctx context.Context) (*CatalogStats, error)

	Close() error
}

// FileRecord is the durable identity of one unique content hash.
type FileRecord struct {
	ID              int64
	ContentHash     hasher.Digest
	OriginalPath    string // path first observed, immutable after creation
	CentralizedPath string // set only by relocation, empty otherwise
	SizeBytes       int64
	ModifiedAt      time.Time
	Status          Status
	ErrorMessage    string // set only when Status == StatusError
	Metadata        map[string]string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// PathObservation records one path at which a hash was seen.
// A second observation of the same bytes never creates a new FileRecord.
type PathObservation struct {
	ID         int64
	FileID     int64
	Path       string
	ObservedAt time.Time
}

// ContentRecord is one content variant belonging to exactly one FileRecord.
type ContentRecord struct {
	ID          int64
	FileID      int64
	ContentType ContentType
	Text        string
	Embedding   []float32 // nil until the embedding coordinator succeeds
	Annotations map[string]string
	Language    string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Tag is an open-vocabulary label, orthogonal to the state machine.
type Tag struct {
	ID       int64
	Name     string
	Category string
}

// DuplicateGroup is the set of observed paths sharing one content hash.
type DuplicateGroup struct {
	ContentHash hasher.Digest
	Paths       []string
	KeptFileID  int64
}

// CatalogStats summarizes the catalog for reporting.
type CatalogStats struct {
	TotalFiles      int
	ByStatus        map[Status]int
	TotalContents   int
	TotalEmbeddings int
	DuplicateHashes int
	DatabaseSizeMB  float64
}
