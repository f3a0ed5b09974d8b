package database

import (
	"context"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(Config{Path: filepath.Join(t.TempDir(), "portal.db")}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestMigrator_RunEmbedded(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	require.NoError(t, NewMigrator(db, zap.NewNop()).Run(ctx))
	// second run is a no-op
	require.NoError(t, NewMigrator(db, zap.NewNop()).Run(ctx))

	var count int
	require.NoError(t, db.QueryRowContext(ctx, "SELECT COUNT(*) FROM schema_migrations").Scan(&count))
	assert.Equal(t, 2, count)

	for _, table := range []string{"sessions", "visitor"} {
		var name string
		err := db.QueryRowContext(ctx,
			"SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?", table).Scan(&name)
		require.NoError(t, err, table)
		assert.Equal(t, table, name)
	}
}

func TestMigrator_OrdersByVersion(t *testing.T) {
	db := openTestDB(t)
	source := fstest.MapFS{
		"010_second.sql": {Data: []byte("ALTER TABLE things ADD COLUMN label TEXT;")},
		"002_first.sql":  {Data: []byte("CREATE TABLE things (id INTEGER PRIMARY KEY);")},
		"README.md":      {Data: []byte("ignored")},
	}

	require.NoError(t, NewMigratorFS(db, source, zap.NewNop()).Run(context.Background()))

	rows, err := db.Query("SELECT version, name FROM schema_migrations ORDER BY version")
	require.NoError(t, err)
	defer rows.Close()

	var names []string
	for rows.Next() {
		var version int
		var name string
		require.NoError(t, rows.Scan(&version, &name))
		names = append(names, name)
	}
	assert.Equal(t, []string{"first", "second"}, names)
}

func TestMigrator_InvalidFilename(t *testing.T) {
	db := openTestDB(t)
	source := fstest.MapFS{
		"initial.sql": {Data: []byte("SELECT 1;")},
	}

	err := NewMigratorFS(db, source, zap.NewNop()).Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid migration filename")
}

func TestMigrator_FailedMigrationRollsBack(t *testing.T) {
	db := openTestDB(t)
	source := fstest.MapFS{
		"001_broken.sql": {Data: []byte("CREATE TABLE ok (id INTEGER); NOT VALID SQL;")},
	}

	err := NewMigratorFS(db, source, zap.NewNop()).Run(context.Background())
	require.Error(t, err)

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count))
	assert.Zero(t, count)
}

func TestNew_RequiresPath(t *testing.T) {
	_, err := New(Config{}, zap.NewNop())
	assert.Error(t, err)
}
