package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/b08x/zDB/internal/hasher"
)

// SQLiteStore implements the Store interface using SQLite
type SQLiteStore struct {
	db *sql.DB
}

// openDatabase opens a SQLite database with appropriate settings
func openDatabase(dbPath string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, dbPath)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// SQLite benefits from a single writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return db, nil
}

// NewSQLiteStore opens (and if necessary bootstraps) a catalog database.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := openDatabase(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := ApplyMigrations(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// marshalMap serializes an open key/value map to JSON text. The catalog
// never interprets keys, it only round-trips them.
func marshalMap(m map[string]string) (string, error) {
	if len(m) == 0 {
		return "{}", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("failed to marshal metadata: %w", err)
	}
	return string(b), nil
}

func unmarshalMap(s string) (map[string]string, error) {
	m := make(map[string]string)
	if s == "" || s == "{}" {
		return m, nil
	}
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
	}
	return m, nil
}

const fileColumns = `id, content_hash, original_path, centralized_path, size_bytes,
       modified_at, status, error_message, metadata, created_at, updated_at`

// scanFile scans one files row from either *sql.Row or *sql.Rows.
func scanFile(scan func(dest ...interface{}) error) (*FileRecord, error) {
	var file FileRecord
	var hash []byte
	var centralizedPath, errorMessage sql.NullString
	var modifiedAt sql.NullTime
	var metadata string

	err := scan(
		&file.ID, &hash, &file.OriginalPath, &centralizedPath, &file.SizeBytes,
		&modifiedAt, &file.Status, &errorMessage, &metadata,
		&file.CreatedAt, &file.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	copy(file.ContentHash[:], hash)
	if centralizedPath.Valid {
		file.CentralizedPath = centralizedPath.String
	}
	if errorMessage.Valid {
		file.ErrorMessage = errorMessage.String
	}
	if modifiedAt.Valid {
		file.ModifiedAt = modifiedAt.Time
	}
	file.Metadata, err = unmarshalMap(metadata)
	if err != nil {
		return nil, err
	}
	return &file, nil
}

// File identity operations

// FindOrCreateFile is the dedup point: concurrent callers for the same hash
// resolve to exactly one created FileRecord, losers observe created=false.
// The path is always appended as an observation, new record or not.
func (s *SQLiteStore) FindOrCreateFile(ctx context.Context, path string, info hasher.FileInfo) (*FileRecord, bool, error) {
	now := time.Now()
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO files (content_hash, original_path, size_bytes, modified_at, status, metadata, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, '{}', ?, ?)
		ON CONFLICT(content_hash) DO NOTHING
	`, info.Digest[:], path, info.SizeBytes, info.ModifiedAt, StatusDiscovered, now, now)
	if err != nil {
		return nil, false, fmt.Errorf("failed to create file record: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, false, err
	}
	created := affected == 1

	file, err := s.GetFileByHash(ctx, info.Digest)
	if err != nil {
		return nil, false, err
	}

	if err := s.addObservation(ctx, file.ID, path, now); err != nil {
		return nil, false, err
	}

	return file, created, nil
}

// InsertFile creates a FileRecord directly. A hash collision here is a
// programming error and is signaled as ErrAlreadyExists, never ignored.
func (s *SQLiteStore) InsertFile(ctx context.Context, file *FileRecord) error {
	metadata, err := marshalMap(file.Metadata)
	if err != nil {
		return err
	}
	if file.Status == "" {
		file.Status = StatusDiscovered
	}

	now := time.Now()
	query := `
		INSERT INTO files (content_hash, original_path, size_bytes, modified_at, status, metadata, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`
	err = s.db.QueryRowContext(ctx, query,
		file.ContentHash[:], file.OriginalPath, file.SizeBytes, file.ModifiedAt,
		file.Status, metadata, now, now).Scan(&file.ID)
	if err != nil {
		if existing, lookupErr := s.GetFileByHash(ctx, file.ContentHash); lookupErr == nil && existing != nil {
			return fmt.Errorf("%w: hash %s", ErrAlreadyExists, file.ContentHash.Hex())
		}
		return fmt.Errorf("failed to insert file: %w", err)
	}
	file.CreatedAt = now
	file.UpdatedAt = now

	return s.addObservation(ctx, file.ID, file.OriginalPath, now)
}

// addObservation appends a path observation, ignoring exact repeats.
func (s *SQLiteStore) addObservation(ctx context.Context, fileID int64, path string, now time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO file_paths (file_id, path, observed_at)
		VALUES (?, ?, ?)
		ON CONFLICT(file_id, path) DO NOTHING
	`, fileID, path, now)
	if err != nil {
		return fmt.Errorf("failed to record path observation: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetFileByHash(ctx context.Context, hash hasher.Digest) (*FileRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+fileColumns+` FROM files WHERE content_hash = ?`, hash[:])
	file, err := scanFile(row.Scan)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return file, nil
}

func (s *SQLiteStore) ListFiles(ctx context.Context) ([]*FileRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+fileColumns+` FROM files ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	files := make([]*FileRecord, 0)
	for rows.Next() {
		file, err := scanFile(rows.Scan)
		if err != nil {
			return nil, err
		}
		files = append(files, file)
	}
	return files, rows.Err()
}

// SetStatus performs an unconditional status transition. The error message
// is stored only for StatusError and cleared on any other transition.
func (s *SQLiteStore) SetStatus(ctx context.Context, hash hasher.Digest, status Status, errorMessage string) error {
	var errMsg interface{}
	if status == StatusError && errorMessage != "" {
		errMsg = errorMessage
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE files SET status = ?, error_message = ?, updated_at = ?
		WHERE content_hash = ?
	`, status, errMsg, time.Now(), hash[:])
	if err != nil {
		return fmt.Errorf("failed to set status: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// ClaimFile atomically transitions Discovered|Error -> Processing. Exactly
// one of N concurrent claimers wins; the rest observe claimed=false. This is
// the single mandatory mutual-exclusion point of the whole system.
func (s *SQLiteStore) ClaimFile(ctx context.Context, hash hasher.Digest) (bool, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE files SET status = ?, error_message = NULL, updated_at = ?
		WHERE content_hash = ? AND status IN (?, ?)
	`, StatusProcessing, time.Now(), hash[:], StatusDiscovered, StatusError)
	if err != nil {
		return false, fmt.Errorf("failed to claim file: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	if affected == 1 {
		return true, nil
	}

	// Not claimable: distinguish an unknown hash from a non-claimable state
	if _, err := s.GetFileByHash(ctx, hash); err != nil {
		return false, err
	}
	return false, nil
}

// Reprocess is the administrative Processed -> Discovered transition.
func (s *SQLiteStore) Reprocess(ctx context.Context, hash hasher.Digest) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE files SET status = ?, error_message = NULL, updated_at = ?
		WHERE content_hash = ? AND status = ?
	`, StatusDiscovered, time.Now(), hash[:], StatusProcessed)
	if err != nil {
		return fmt.Errorf("failed to reprocess: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		file, err := s.GetFileByHash(ctx, hash)
		if err != nil {
			return err
		}
		return fmt.Errorf("cannot reprocess file in status %s", file.Status)
	}
	return nil
}

func (s *SQLiteStore) SetCentralizedPath(ctx context.Context, hash hasher.Digest, path string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE files SET centralized_path = ?, updated_at = ? WHERE content_hash = ?
	`, path, time.Now(), hash[:])
	if err != nil {
		return fmt.Errorf("failed to set centralized path: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) UpdateFileMetadata(ctx context.Context, hash hasher.Digest, metadata map[string]string) error {
	encoded, err := marshalMap(metadata)
	if err != nil {
		return err
	}
	result, err := s.db.ExecContext(ctx, `
		UPDATE files SET metadata = ?, updated_at = ? WHERE content_hash = ?
	`, encoded, time.Now(), hash[:])
	if err != nil {
		return fmt.Errorf("failed to update metadata: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Duplicate operations

// FindDuplicateHashes returns every hash with more than one path observation.
func (s *SQLiteStore) FindDuplicateHashes(ctx context.Context) ([]hasher.Digest, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT f.content_hash
		FROM files f
		JOIN file_paths p ON p.file_id = f.id
		GROUP BY f.id
		HAVING COUNT(p.id) > 1
	`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	hashes := make([]hasher.Digest, 0)
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var d hasher.Digest
		copy(d[:], raw)
		hashes = append(hashes, d)
	}
	return hashes, rows.Err()
}

// ListObservations returns a hash's path observations in insertion order.
func (s *SQLiteStore) ListObservations(ctx context.Context, hash hasher.Digest) ([]*PathObservation, error) {
	file, err := s.GetFileByHash(ctx, hash)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, file_id, path, observed_at
		FROM file_paths
		WHERE file_id = ?
		ORDER BY id
	`, file.ID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	observations := make([]*PathObservation, 0)
	for rows.Next() {
		var obs PathObservation
		if err := rows.Scan(&obs.ID, &obs.FileID, &obs.Path, &obs.ObservedAt); err != nil {
			return nil, err
		}
		observations = append(observations, &obs)
	}
	return observations, rows.Err()
}

// RefreshDuplicateSummary rebuilds the materialized duplicate table and
// returns the number of duplicate groups. The file record itself is the
// designated "kept" member of each group.
func (s *SQLiteStore) RefreshDuplicateSummary(ctx context.Context) (int, error) {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM duplicate_summary`); err != nil {
		return 0, fmt.Errorf("failed to clear duplicate summary: %w", err)
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO duplicate_summary (content_hash, path_count, kept_file_id, refreshed_at)
		SELECT f.content_hash, COUNT(p.id), f.id, ?
		FROM files f
		JOIN file_paths p ON p.file_id = f.id
		GROUP BY f.id
		HAVING COUNT(p.id) > 1
	`, time.Now())
	if err != nil {
		return 0, fmt.Errorf("failed to refresh duplicate summary: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(affected), nil
}

// Content operations

const contentColumns = `id, file_id, content_type, text, embedding, embedding_dim,
       annotations, language, created_at, updated_at`

func scanContent(scan func(dest ...interface{}) error) (*ContentRecord, error) {
	var content ContentRecord
	var embedding []byte
	var dim sql.NullInt64
	var annotations string
	var language sql.NullString

	err := scan(
		&content.ID, &content.FileID, &content.ContentType, &content.Text,
		&embedding, &dim, &annotations, &language,
		&content.CreatedAt, &content.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(embedding) > 0 {
		content.Embedding = DecodeVector(embedding)
	}
	if language.Valid {
		content.Language = language.String
	}
	content.Annotations, err = unmarshalMap(annotations)
	if err != nil {
		return nil, err
	}
	return &content, nil
}

// UpsertContent stores a content variant, keyed on (file, content_type).
// Re-extraction never duplicates a variant: an existing row is updated in
// place, and its embedding survives only when the text is unchanged.
func (s *SQLiteStore) UpsertContent(ctx context.Context, content *ContentRecord) error {
	annotations, err := marshalMap(content.Annotations)
	if err != nil {
		return err
	}

	var language interface{}
	if content.Language != "" {
		language = content.Language
	}

	now := time.Now()
	query := `
		INSERT INTO contents (file_id, content_type, text, annotations, language, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(file_id, content_type) DO UPDATE SET
			text = excluded.text,
			annotations = excluded.annotations,
			language = excluded.language,
			embedding = CASE WHEN contents.text = excluded.text THEN contents.embedding ELSE NULL END,
			embedding_dim = CASE WHEN contents.text = excluded.text THEN contents.embedding_dim ELSE NULL END,
			updated_at = excluded.updated_at
		RETURNING id, created_at, updated_at
	`
	err = s.db.QueryRowContext(ctx, query,
		content.FileID, content.ContentType, content.Text,
		annotations, language, now, now,
	).Scan(&content.ID, &content.CreatedAt, &content.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert content: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetContent(ctx context.Context, contentID int64) (*ContentRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+contentColumns+` FROM contents WHERE id = ?`, contentID)
	content, err := scanContent(row.Scan)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return content, nil
}

func (s *SQLiteStore) ListContentByFile(ctx context.Context, fileID int64) ([]*ContentRecord, error) {
	return s.listContent(ctx,
		`SELECT `+contentColumns+` FROM contents WHERE file_id = ? ORDER BY id`, fileID)
}

// ListPendingEmbedding returns content rows that still lack a vector.
// A limit <= 0 means no limit.
func (s *SQLiteStore) ListPendingEmbedding(ctx context.Context, limit int) ([]*ContentRecord, error) {
	if limit <= 0 {
		limit = -1
	}
	return s.listContent(ctx,
		`SELECT `+contentColumns+` FROM contents WHERE embedding IS NULL ORDER BY id LIMIT ?`, limit)
}

// ListEmbedded returns all embedded content rows in insertion order. The
// similarity index depends on this ordering for stable tie-breaking.
func (s *SQLiteStore) ListEmbedded(ctx context.Context) ([]*ContentRecord, error) {
	return s.listContent(ctx,
		`SELECT `+contentColumns+` FROM contents WHERE embedding IS NOT NULL ORDER BY id`)
}

func (s *SQLiteStore) listContent(ctx context.Context, query string, args ...interface{}) ([]*ContentRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	contents := make([]*ContentRecord, 0)
	for rows.Next() {
		content, err := scanContent(rows.Scan)
		if err != nil {
			return nil, err
		}
		contents = append(contents, content)
	}
	return contents, rows.Err()
}

// SetEmbedding stores a vector for a content row, overwriting any prior one.
func (s *SQLiteStore) SetEmbedding(ctx context.Context, contentID int64, vector []float32) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE contents SET embedding = ?, embedding_dim = ?, updated_at = ?
		WHERE id = ?
	`, EncodeVector(vector), len(vector), time.Now(), contentID)
	if err != nil {
		return fmt.Errorf("failed to set embedding: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Tag operations

// EnsureTag creates a tag if it doesn't exist and returns it either way.
// A non-empty category on an existing tag updates the category.
func (s *SQLiteStore) EnsureTag(ctx context.Context, name, category string) (*Tag, error) {
	query := `
		INSERT INTO tags (name, category) VALUES (?, ?)
		ON CONFLICT(name) DO UPDATE SET
			category = CASE WHEN excluded.category IS NOT NULL THEN excluded.category ELSE tags.category END
		RETURNING id, name, category
	`
	var cat interface{}
	if category != "" {
		cat = category
	}

	var tag Tag
	var scanned sql.NullString
	if err := s.db.QueryRowContext(ctx, query, name, cat).Scan(&tag.ID, &tag.Name, &scanned); err != nil {
		return nil, fmt.Errorf("failed to ensure tag: %w", err)
	}
	if scanned.Valid {
		tag.Category = scanned.String
	}
	return &tag, nil
}

func (s *SQLiteStore) TagFile(ctx context.Context, fileID, tagID int64) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO file_tags (file_id, tag_id) VALUES (?, ?)
		ON CONFLICT(file_id, tag_id) DO NOTHING
	`, fileID, tagID)
	if err != nil {
		return fmt.Errorf("failed to tag file: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ListTagsByFile(ctx context.Context, fileID int64) ([]*Tag, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT t.id, t.name, t.category
		FROM tags t
		JOIN file_tags ft ON ft.tag_id = t.id
		WHERE ft.file_id = ?
		ORDER BY t.name
	`, fileID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	tags := make([]*Tag, 0)
	for rows.Next() {
		var tag Tag
		var category sql.NullString
		if err := rows.Scan(&tag.ID, &tag.Name, &category); err != nil {
			return nil, err
		}
		if category.Valid {
			tag.Category = category.String
		}
		tags = append(tags, &tag)
	}
	return tags, rows.Err()
}

func (s *SQLiteStore) ListFilesByTag(ctx context.Context, tagName string) ([]*FileRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+prefixedFileColumns("f")+`
		FROM files f
		JOIN file_tags ft ON ft.file_id = f.id
		JOIN tags t ON t.id = ft.tag_id
		WHERE t.name = ?
		ORDER BY f.id
	`, tagName)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	files := make([]*FileRecord, 0)
	for rows.Next() {
		file, err := scanFile(rows.Scan)
		if err != nil {
			return nil, err
		}
		files = append(files, file)
	}
	return files, rows.Err()
}

func prefixedFileColumns(alias string) string {
	return alias + `.id, ` + alias + `.content_hash, ` + alias + `.original_path, ` +
		alias + `.centralized_path, ` + alias + `.size_bytes, ` + alias + `.modified_at, ` +
		alias + `.status, ` + alias + `.error_message, ` + alias + `.metadata, ` +
		alias + `.created_at, ` + alias + `.updated_at`
}

// Status operations

func (s *SQLiteStore) Stats(ctx context.Context) (*CatalogStats, error) {
	stats := &CatalogStats{ByStatus: make(map[Status]int)}

	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM files GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var status Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats.ByStatus[status] = count
		stats.TotalFiles += count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM contents`).Scan(&stats.TotalContents); err != nil {
		return nil, err
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM contents WHERE embedding IS NOT NULL`).Scan(&stats.TotalEmbeddings); err != nil {
		return nil, err
	}
	err = s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM (
			SELECT f.id FROM files f
			JOIN file_paths p ON p.file_id = f.id
			GROUP BY f.id
			HAVING COUNT(p.id) > 1
		)
	`).Scan(&stats.DuplicateHashes)
	if err != nil {
		return nil, err
	}

	var pageCount, pageSize int
	if err := s.db.QueryRowContext(ctx, "PRAGMA page_count").Scan(&pageCount); err == nil {
		_ = s.db.QueryRowContext(ctx, "PRAGMA page_size").Scan(&pageSize)
		stats.DatabaseSizeMB = float64(pageCount*pageSize) / (1024 * 1024)
	}

	return stats, nil
}
