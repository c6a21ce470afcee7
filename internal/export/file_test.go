package export

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteFileCreatesDirectories(t *testing.T) {
	dir := t.TempDir()
	name := filepath.Join(dir, "nested", "deeper", GeometryFilename)

	require.NoError(t, WriteFile(name, []byte("first")))
	require.NoError(t, WriteFile(name, []byte("second")))

	data, err := os.ReadFile(name)
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))

	entries, err := os.ReadDir(filepath.Dir(name))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files are cleaned up")
}
