package provider

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodecEncode(t *testing.T) {
	c := NewCodec("/data/files")

	tests := []struct {
		name     string
		path     string
		expected string
	}{
		{"base directory", "/data/files", "files:"},
		{"base directory with trailing slash", "/data/files/", "files:"},
		{"top directory", "/data/files/Folder1", "files:Folder1"},
		{"nested file", "/data/files/Folder1/sub/b.txt", "files:Folder1/sub/b.txt"},
		{"outside via base prefix", "/data/files/../OutsideFolder/sample.pdf", "files:../OutsideFolder/sample.pdf"},
		{"outside without base prefix", "/data/OutsideFolder/sample.pdf", "files:../OutsideFolder/sample.pdf"},
		{"common prefix is not a parent", "/data/files2/x", "files:../files2/x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, c.Encode(tt.path))
		})
	}
}

func TestCodecDecode(t *testing.T) {
	tree := setupTree(t)
	c := NewCodec(tree.baseDir)

	path, err := c.Decode(RootID)
	require.NoError(t, err)
	assert.Equal(t, tree.baseDir, path)

	path, err = c.Decode("files:Folder1/a.txt")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(tree.baseDir, "Folder1", "a.txt"), path)

	path, err = c.Decode("files:../OutsideFolder/sample.pdf")
	require.NoError(t, err)
	assert.Equal(t, tree.baseDir+"/../OutsideFolder/sample.pdf", path)

	path, err = c.Decode("files:")
	require.NoError(t, err)
	assert.Equal(t, tree.baseDir, path)
}

func TestCodecDecodeNotFound(t *testing.T) {
	tree := setupTree(t)
	c := NewCodec(tree.baseDir)

	ids := []string{
		"files:Folder1/missing.txt",
		"Folder1/a.txt",
		":Folder1/a.txt",
		"other:Folder1/a.txt",
		"",
	}
	for _, id := range ids {
		t.Run(id, func(t *testing.T) {
			_, err := c.Decode(id)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrNotFound)
			assert.Equal(t, KindNotFound, KindOf(err))
		})
	}
}

func TestCodecRoundTrip(t *testing.T) {
	tree := setupTree(t)
	c := NewCodec(tree.baseDir)

	paths := []string{
		tree.baseDir,
		filepath.Join(tree.baseDir, "Folder1"),
		filepath.Join(tree.baseDir, "Folder1", "a.txt"),
		filepath.Join(tree.baseDir, "Folder1", "sub", "b.txt"),
		filepath.Join(tree.baseDir, "Folder2", "pic.png"),
		tree.baseDir + "/../OutsideFolder",
		tree.baseDir + "/../OutsideFolder/inner/deep.txt",
	}
	for _, p := range paths {
		decoded, err := c.Decode(c.Encode(p))
		require.NoError(t, err)
		assert.Equal(t, p, decoded)
	}
}

func TestIsRoot(t *testing.T) {
	assert.True(t, IsRoot("files"))
	assert.False(t, IsRoot("files:"))
	assert.False(t, IsRoot("files:Folder1"))
}
