package catalog

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyMigrationsIdempotent(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "migrate.db")
	db, err := openDatabase(dbPath)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	ctx := context.Background()
	require.NoError(t, ApplyMigrations(ctx, db))
	require.NoError(t, ApplyMigrations(ctx, db)) // second run is a no-op

	var version string
	err = db.QueryRowContext(ctx,
		"SELECT version FROM schema_version ORDER BY applied_at DESC LIMIT 1").Scan(&version)
	require.NoError(t, err)
	assert.Equal(t, CurrentSchemaVersion, version)

	var count int
	err = db.QueryRowContext(ctx, "SELECT COUNT(*) FROM schema_version").Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestMigrationsCreateAllTables(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "tables.db")
	db, err := openDatabase(dbPath)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	ctx := context.Background()
	require.NoError(t, ApplyMigrations(ctx, db))

	for _, table := range []string{"files", "file_paths", "contents", "tags", "file_tags", "duplicate_summary", "schema_version"} {
		var name string
		err := db.QueryRowContext(ctx,
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		require.NoError(t, err, "table %s must exist", table)
	}
}

func TestRollbackMigration(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "rollback.db")
	db, err := openDatabase(dbPath)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	ctx := context.Background()
	require.NoError(t, ApplyMigrations(ctx, db))
	require.NoError(t, RollbackMigration(ctx, db))

	var name string
	err = db.QueryRowContext(ctx,
		"SELECT name FROM sqlite_master WHERE type='table' AND name='files'").Scan(&name)
	assert.Error(t, err)
}
