package provider

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveFile(t *testing.T) {
	tree := setupTree(t)
	p := newTestProvider(t, tree, 0)

	tests := []struct {
		name     string
		path     string
		expected string
	}{
		{
			name:     "file in top directory",
			path:     filepath.Join(tree.baseDir, "Folder1", "a.txt"),
			expected: "content://pfs.android.contentprovider/document/files%3AFolder1%2Fa.txt",
		},
		{
			name:     "top directory itself",
			path:     filepath.Join(tree.baseDir, "Folder2"),
			expected: "content://pfs.android.contentprovider/document/files%3AFolder2",
		},
		{
			name:     "uncleaned input",
			path:     tree.baseDir + "/Folder2/../Folder1/./sub//b.txt",
			expected: "content://pfs.android.contentprovider/document/files%3AFolder1%2Fsub%2Fb.txt",
		},
		{
			name:     "missing file keeps its name",
			path:     filepath.Join(tree.baseDir, "Folder1", "new", "draft.txt"),
			expected: "content://pfs.android.contentprovider/document/files%3AFolder1%2Fnew%2Fdraft.txt",
		},
		{
			name:     "top directory outside base",
			path:     filepath.Join(tree.dataDir, "OutsideFolder", "sample.pdf"),
			expected: "content://pfs.android.contentprovider/document/files%3A..%2FOutsideFolder%2Fsample.pdf",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := p.ResolveFile(testAuthority, tt.path)
			require.True(t, res.OK(), "unexpected failure: %+v", res)
			assert.Equal(t, tt.expected, res.URI)
			assert.NoError(t, res.Err())
		})
	}
}

func TestResolveFileIDDecodesBack(t *testing.T) {
	tree := setupTree(t)
	p := newTestProvider(t, tree, 0)

	path := filepath.Join(tree.dataDir, "OutsideFolder", "inner", "deep.txt")
	res := p.ResolveFile(testAuthority, path)
	require.True(t, res.OK())

	_, id, err := ParseContentURI(res.URI)
	require.NoError(t, err)
	assert.Equal(t, "files:../OutsideFolder/inner/deep.txt", id)

	doc, err := p.QueryDocument(id)
	require.NoError(t, err)
	assert.Equal(t, "deep.txt", doc.DisplayName)
}

func TestResolveFileThroughSymlink(t *testing.T) {
	tree := setupTree(t)
	p := newTestProvider(t, tree, 0)

	link := filepath.Join(tree.dataDir, "shortcut")
	require.NoError(t, os.Symlink(filepath.Join(tree.baseDir, "Folder1"), link))

	res := p.ResolveFile(testAuthority, filepath.Join(link, "sub", "b.txt"))
	require.True(t, res.OK())
	assert.Equal(t, "content://pfs.android.contentprovider/document/files%3AFolder1%2Fsub%2Fb.txt", res.URI)
}

func TestResolveFileNotMatch(t *testing.T) {
	tree := setupTree(t)
	p := newTestProvider(t, tree, 0)

	paths := []string{
		filepath.Join(tree.dataDir, "secret.txt"),
		filepath.Join(tree.baseDir, "loose.txt"),
		tree.baseDir,
		"/",
	}
	for _, path := range paths {
		t.Run(path, func(t *testing.T) {
			res := p.ResolveFile(testAuthority, path)
			assert.False(t, res.OK())
			assert.Equal(t, KindFileNotMatch, res.Code)
			assert.Empty(t, res.Message)
			assert.ErrorIs(t, res.Err(), ErrFileNotMatch)
		})
	}
}

func TestResolveFileMissingArgument(t *testing.T) {
	p, err := New(Config{BaseDir: t.TempDir(), TopDirs: []string{"x"}})
	require.NoError(t, err)

	res := p.ResolveFile("", "/does/not/matter")
	assert.Equal(t, KindMissingArgument, res.Code)
	assert.Equal(t, "Argument expected at 'arg1': Authority", res.Message)

	res = p.ResolveFile(testAuthority, "")
	assert.Equal(t, KindMissingArgument, res.Code)
	assert.Equal(t, "Argument expected at 'arg2': File path", res.Message)
	assert.ErrorIs(t, res.Err(), ErrMissingArgument)
}

func TestCall(t *testing.T) {
	tree := setupTree(t)
	p := newTestProvider(t, tree, 0)

	t.Run("uri from file", func(t *testing.T) {
		result, err := p.Call(MethodURIFromFile, "", Bundle{
			Arg1: testAuthority,
			Arg2: filepath.Join(tree.baseDir, "Folder2", "pic.png"),
		})
		require.NoError(t, err)
		assert.Equal(t, Bundle{
			ResultURI: "content://pfs.android.contentprovider/document/files%3AFolder2%2Fpic.png",
		}, result)
	})

	t.Run("file not match", func(t *testing.T) {
		result, err := p.Call(MethodURIFromFile, "", Bundle{
			Arg1: testAuthority,
			Arg2: filepath.Join(tree.dataDir, "secret.txt"),
		})
		require.NoError(t, err)
		code, ok := result.Int(ResultError)
		require.True(t, ok)
		assert.Equal(t, CodeFileNotMatch, code)
		assert.Equal(t, "", result.String(ResultErrorMessage))
	})

	t.Run("missing arguments", func(t *testing.T) {
		result, err := p.Call(MethodURIFromFile, "", nil)
		require.NoError(t, err)
		code, _ := result.Int(ResultError)
		assert.Equal(t, CodeMissingArgument, code)
		assert.Equal(t, "Argument expected at 'arg1': Authority", result.String(ResultErrorMessage))
	})

	t.Run("unknown method", func(t *testing.T) {
		result, err := p.Call("deleteEverything", "", Bundle{})
		assert.Nil(t, result)
		assert.ErrorIs(t, err, ErrUnknownMethod)
	})
}

func TestCanonicalize(t *testing.T) {
	dir := t.TempDir()
	realDir := filepath.Join(dir, "real")
	require.NoError(t, os.Mkdir(realDir, 0o755))
	require.NoError(t, os.Symlink(realDir, filepath.Join(dir, "link")))

	canonicalDir, err := filepath.EvalSymlinks(dir)
	require.NoError(t, err)

	got, err := canonicalize(filepath.Join(dir, "link", "a", "b.txt"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(canonicalDir, "real", "a", "b.txt"), got)

	got, err = canonicalize("/")
	require.NoError(t, err)
	assert.Equal(t, "/", got)
}
