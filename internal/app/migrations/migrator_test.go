package migrations

import (
	"io/fs"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPendingOrder(t *testing.T) {
	fsys := fstest.MapFS{
		"002_indexes.sql": {Data: []byte("SELECT 1;")},
		"001_init.sql":    {Data: []byte("SELECT 1;")},
		"README.md":       {Data: []byte("notes")},
	}
	files, err := Pending(fsys)
	require.NoError(t, err)
	assert.Equal(t, []string{"001_init.sql", "002_indexes.sql"}, files)
	assert.Equal(t, "002", Version(files[1]))
}

func TestEmbeddedSchema(t *testing.T) {
	files, err := Pending(Embedded())
	require.NoError(t, err)
	require.NotEmpty(t, files)

	schema, err := fs.ReadFile(Embedded(), files[0])
	require.NoError(t, err)
	assert.Contains(t, string(schema), "UNIQUE (student_id, document_type)")
}
