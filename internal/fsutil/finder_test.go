package fsutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindFilesByExtension(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"b.hcl", "a.yaml", "nested/c.yml", "nested/deeper/d.hcl", "notes.txt", "nested/e.hcl.bak"} {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, nil, 0o644))
	}

	files, err := FindFilesByExtension(root, ".hcl", ".yaml", ".yml")
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(root, "a.yaml"),
		filepath.Join(root, "b.hcl"),
		filepath.Join(root, "nested/c.yml"),
		filepath.Join(root, "nested/deeper/d.hcl"),
	}, files)

	single, err := FindFilesByExtension(filepath.Join(root, "b.hcl"), ".hcl")
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(root, "b.hcl")}, single)

	none, err := FindFilesByExtension(filepath.Join(root, "notes.txt"), ".hcl")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestFindFilesByExtension_Errors(t *testing.T) {
	_, err := FindFilesByExtension(filepath.Join(t.TempDir(), "missing"), ".hcl")
	assert.Error(t, err)

	assert.Panics(t, func() { _, _ = FindFilesByExtension(".") })
	assert.Panics(t, func() { _, _ = FindFilesByExtension(".", "") })
}
