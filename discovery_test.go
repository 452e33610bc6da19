package httpflow

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestDiscover_FindsNestedHTTPFilesInOrder verifies Discover walks
// subdirectories and returns a sorted, deterministic file list.
func TestDiscover_FindsNestedHTTPFilesInOrder(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "nested"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "b.http"), []byte("### \nGET https://a\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "nested", "a.http"), []byte("### \nGET https://b\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "ignore.txt"), []byte("not http"), 0o644))

	files, err := Discover(root)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, filepath.Join(root, "b.http"), files[0])
	assert.Equal(t, filepath.Join(root, "nested", "a.http"), files[1])
}

// TestDiscover_SkipsHiddenDirectories verifies a dotted directory is not walked.
func TestDiscover_SkipsHiddenDirectories(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".git"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, ".git", "hidden.http"), []byte("### \nGET https://c\n"), 0o644))

	files, err := Discover(root)
	require.NoError(t, err)
	assert.Empty(t, files)
}
