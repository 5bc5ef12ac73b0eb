package database

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationFilesSorted(t *testing.T) {
	fsys := fstest.MapFS{
		"m/0002_b.sql": {Data: []byte("select 2")},
		"m/0001_a.sql": {Data: []byte("select 1")},
		"m/README.md":  {Data: []byte("docs")},
		"m/sub/x.sql":  {Data: []byte("select 3")},
		"other/0.sql":  {Data: []byte("select 0")},
	}

	files, err := MigrationFiles(fsys, "m")
	require.NoError(t, err)
	assert.Equal(t, []string{"0001_a.sql", "0002_b.sql"}, files)
}

func TestEmbeddedMigrationsPresent(t *testing.T) {
	files, err := MigrationFiles(migrationFS, "migrations")
	require.NoError(t, err)
	require.NotEmpty(t, files)
	assert.Equal(t, "0001_orders.sql", files[0])
}
