package provider

import (
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testAuthority = "pfs.android.contentprovider"

var testTopDirs = []string{
	"Folder1;Folder One",
	"Folder2",
	"../OutsideFolder;Outside;nosubdirs",
	"Missing;Gone",
	"",
}

// testTree lays out:
//
//	<data>/files/Folder1/{a.txt, notes.md, sub/b.txt}
//	<data>/files/Folder2/pic.png
//	<data>/files/loose.txt
//	<data>/OutsideFolder/{sample.pdf, inner/deep.txt}
//	<data>/secret.txt
type testTree struct {
	dataDir string
	baseDir string
}

func setupTree(t *testing.T) testTree {
	t.Helper()

	dataDir := t.TempDir()
	tree := testTree{dataDir: dataDir, baseDir: filepath.Join(dataDir, "files")}

	dirs := []string{
		filepath.Join(tree.baseDir, "Folder1", "sub"),
		filepath.Join(tree.baseDir, "Folder2"),
		filepath.Join(dataDir, "OutsideFolder", "inner"),
	}
	for _, dir := range dirs {
		require.NoError(t, os.MkdirAll(dir, 0o755))
	}

	writeFile(t, filepath.Join(tree.baseDir, "Folder1", "a.txt"), "hello")
	writeFile(t, filepath.Join(tree.baseDir, "Folder1", "notes.md"), "# notes")
	writeFile(t, filepath.Join(tree.baseDir, "Folder1", "sub", "b.txt"), "b")
	writeFile(t, filepath.Join(tree.baseDir, "loose.txt"), "loose")
	writeFile(t, filepath.Join(dataDir, "OutsideFolder", "sample.pdf"), "%PDF-1.4")
	writeFile(t, filepath.Join(dataDir, "OutsideFolder", "inner", "deep.txt"), "deep")
	writeFile(t, filepath.Join(dataDir, "secret.txt"), "secret")

	img := imaging.New(400, 200, color.NRGBA{R: 200, G: 40, B: 40, A: 255})
	require.NoError(t, imaging.Save(img, filepath.Join(tree.baseDir, "Folder2", "pic.png")))

	return tree
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func newTestProvider(t *testing.T, tree testTree, featureLevel int) *Provider {
	t.Helper()

	p, err := New(Config{
		Authority:    testAuthority,
		Title:        "Unified Content Provider",
		Description:  "Test provider",
		Icon:         7,
		BaseDir:      tree.baseDir,
		TopDirs:      testTopDirs,
		MimeTypes:    map[string]string{".MD": "text/markdown"},
		FeatureLevel: featureLevel,
	})
	require.NoError(t, err)
	return p
}

func TestNewRejectsMissingBaseDir(t *testing.T) {
	_, err := New(Config{BaseDir: filepath.Join(t.TempDir(), "absent")})
	require.Error(t, err)
	assert.Equal(t, KindConfiguration, KindOf(err))
}

func TestNewDefaultsAuthority(t *testing.T) {
	p, err := New(Config{BaseDir: t.TempDir()})
	require.NoError(t, err)
	assert.Equal(t, DefaultAuthority, p.Authority())
	assert.Equal(t, DefaultFeatureLevel, p.Capabilities().FeatureLevel)
	assert.Equal(t, 0, p.Registry().Len())
}

func TestContentURI(t *testing.T) {
	tree := setupTree(t)
	p := newTestProvider(t, tree, 0)

	assert.Equal(t,
		"content://pfs.android.contentprovider/document/files%3AFolder1%2Fa.txt",
		p.ContentURI("files:Folder1/a.txt"))
}

func TestDecodeRefusesPathsOutsideExportedDirectories(t *testing.T) {
	tree := setupTree(t)
	p := newTestProvider(t, tree, 0)

	// The file exists, but neither the base directory nor a top directory
	// contains it.
	_, err := p.QueryDocument("files:../secret.txt")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)

	doc, err := p.QueryDocument("files:../OutsideFolder/sample.pdf")
	require.NoError(t, err)
	assert.Equal(t, "sample.pdf", doc.DisplayName)
}
