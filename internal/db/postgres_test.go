package db

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationNames_SortedSQLOnly(t *testing.T) {
	fsys := fstest.MapFS{
		"002_b.sql":  {Data: []byte("SELECT 2")},
		"001_a.sql":  {Data: []byte("SELECT 1")},
		"README.md":  {Data: []byte("docs")},
		"sub/03.sql": {Data: []byte("SELECT 3")},
	}

	names, err := migrationNames(fsys)
	require.NoError(t, err)
	assert.Equal(t, []string{"001_a.sql", "002_b.sql"}, names)
}

func TestMigrations_Embedded(t *testing.T) {
	fsys, err := Migrations("")
	require.NoError(t, err)

	names, err := migrationNames(fsys)
	require.NoError(t, err)
	assert.Contains(t, names, "001_payment_contexts.sql")
}
