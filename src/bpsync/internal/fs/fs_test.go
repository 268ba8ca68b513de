package fs

import (
	"os"
	"path"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMkdirAll(t *testing.T) {
	dir := t.TempDir()
	fs := New()
	err := fs.MkdirAll(path.Join(dir, "foo/bar"))
	assert.NoError(t, err)
}

func TestFileExists(t *testing.T) {
	dir := t.TempDir()
	file := path.Join(dir, "inventory.yaml")
	require.NoError(t, os.WriteFile(file, []byte("backends: []\n"), 0644))
	fs := New()

	t.Run("exists", func(t *testing.T) {
		result, err := fs.FileExists(file)
		assert.NoError(t, err)
		assert.True(t, result)
	})

	t.Run("directory", func(t *testing.T) {
		result, err := fs.FileExists(dir)
		assert.NoError(t, err)
		assert.False(t, result)
	})

	t.Run("does not exist", func(t *testing.T) {
		result, err := fs.FileExists(file + "foo")
		assert.NoError(t, err)
		assert.False(t, result)
	})
}

func TestReadFile(t *testing.T) {
	file := path.Join(t.TempDir(), "f")
	require.NoError(t, os.WriteFile(file, []byte("data"), 0644))
	b, err := New().ReadFile(file)
	require.NoError(t, err)
	assert.Equal(t, "data", string(b))
}
