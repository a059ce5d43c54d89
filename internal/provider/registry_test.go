package provider

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRootSpec(t *testing.T) {
	base := "/data/files"

	tests := []struct {
		name        string
		spec        string
		folder      string
		displayName string
		noSubdirs   bool
	}{
		{
			name:        "path and display name",
			spec:        "Folder1;Folder One",
			folder:      "/data/files/Folder1",
			displayName: "Folder One",
		},
		{
			name:        "display name defaults to path",
			spec:        "Folder2",
			folder:      "/data/files/Folder2",
			displayName: "Folder2",
		},
		{
			name:        "empty display name",
			spec:        "Folder3;",
			folder:      "/data/files/Folder3",
			displayName: "Folder3",
		},
		{
			name:        "parent directory is kept",
			spec:        "../OutsideFolder;Outside;nosubdirs",
			folder:      "/data/files/../OutsideFolder",
			displayName: "Outside",
			noSubdirs:   true,
		},
		{
			name:        "unknown option",
			spec:        "Folder4;Four;readonly",
			folder:      "/data/files/Folder4",
			displayName: "Four",
		},
		{
			name:        "nested path",
			spec:        "Folder1/sub;Sub",
			folder:      "/data/files/Folder1/sub",
			displayName: "Sub",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry, err := ParseRootSpec(base, tt.spec)
			require.NoError(t, err)
			assert.Equal(t, tt.folder, entry.Folder)
			assert.Equal(t, tt.displayName, entry.DisplayName)
			assert.Equal(t, tt.noSubdirs, entry.Options.NoSubdirs)
		})
	}
}

func TestParseRootSpecRejectsBlank(t *testing.T) {
	for _, spec := range []string{"", "   "} {
		_, err := ParseRootSpec("/data/files", spec)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrConfiguration)
		assert.Equal(t, KindConfiguration, KindOf(err))
	}
}

func TestResolveBaseDir(t *testing.T) {
	tests := []struct {
		code     string
		expected string
	}{
		{BaseDirFiles, "/var/lib/unifiedfs/files"},
		{BaseDirData, "/var/lib/unifiedfs"},
		{"/srv/export/", "/srv/export"},
		{"CACHE_DIR", "/var/lib/unifiedfs/files"},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.expected, ResolveBaseDir(tt.code, "/var/lib/unifiedfs"))
		})
	}
}

func TestNewRegistry(t *testing.T) {
	tree := setupTree(t)
	require.NoError(t, os.WriteFile(filepath.Join(tree.baseDir, "plain"), []byte("x"), 0o644))

	specs := append([]string{"plain;Not A Directory"}, testTopDirs...)
	r := NewRegistry(tree.baseDir, specs, 3)

	roots := r.Roots()
	require.Len(t, roots, 3)

	assert.Equal(t, "Folder One", roots[0].DisplayName)
	assert.Equal(t, "Folder2", roots[1].DisplayName)
	assert.Equal(t, "Outside", roots[2].DisplayName)
	assert.Equal(t, tree.baseDir+"/../OutsideFolder", roots[2].Folder)
	assert.True(t, roots[2].Options.NoSubdirs)
	for _, root := range roots {
		assert.Equal(t, 3, root.IconID)
	}

	// Roots returns a copy.
	roots[0].DisplayName = "changed"
	assert.Equal(t, "Folder One", r.Roots()[0].DisplayName)
}

func TestRegistryOwner(t *testing.T) {
	tree := setupTree(t)
	r := NewRegistry(tree.baseDir, testTopDirs, 0)

	tests := []struct {
		name  string
		path  string
		owner string
		found bool
	}{
		{"root folder itself", filepath.Join(tree.baseDir, "Folder1"), "Folder One", true},
		{"nested file", filepath.Join(tree.baseDir, "Folder1", "sub", "b.txt"), "Folder One", true},
		{"outside root", filepath.Join(tree.dataDir, "OutsideFolder", "inner"), "Outside", true},
		{"outside root via base", tree.baseDir + "/../OutsideFolder/sample.pdf", "Outside", true},
		{"sibling with common prefix", filepath.Join(tree.baseDir, "Folder10"), "", false},
		{"base directory", tree.baseDir, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root, ok := r.Owner(tt.path)
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.owner, root.DisplayName)
		})
	}
}

func TestRegistryOverlappingRootsFirstWins(t *testing.T) {
	tree := setupTree(t)
	r := NewRegistry(tree.baseDir, []string{"Folder1/sub;Sub", "Folder1;Folder One"}, 0)

	root, ok := r.Owner(filepath.Join(tree.baseDir, "Folder1", "sub", "b.txt"))
	require.True(t, ok)
	assert.Equal(t, "Sub", root.DisplayName)

	root, ok = r.Owner(filepath.Join(tree.baseDir, "Folder1", "a.txt"))
	require.True(t, ok)
	assert.Equal(t, "Folder One", root.DisplayName)
}

func TestRegistryListingOwnerPrefersNestedRoot(t *testing.T) {
	tree := setupTree(t)
	r := NewRegistry(tree.baseDir, []string{"Folder1;Folder One", "Folder1/sub;Sub;nosubdirs"}, 0)

	tests := []struct {
		name  string
		path  string
		owner string
	}{
		{"outer folder", filepath.Join(tree.baseDir, "Folder1"), "Folder One"},
		{"outer file", filepath.Join(tree.baseDir, "Folder1", "a.txt"), "Folder One"},
		{"nested folder", filepath.Join(tree.baseDir, "Folder1", "sub"), "Sub"},
		{"nested file", filepath.Join(tree.baseDir, "Folder1", "sub", "b.txt"), "Sub"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root, ok := r.ListingOwner(tt.path)
			require.True(t, ok)
			assert.Equal(t, tt.owner, root.DisplayName)
		})
	}

	// Resolution still goes by configuration order.
	root, ok := r.Owner(filepath.Join(tree.baseDir, "Folder1", "sub", "b.txt"))
	require.True(t, ok)
	assert.Equal(t, "Folder One", root.DisplayName)

	_, ok = r.ListingOwner(filepath.Join(tree.baseDir, "Folder2"))
	assert.False(t, ok)
}

func TestJoinPath(t *testing.T) {
	assert.Equal(t, "/a/b", joinPath("/a", "b"))
	assert.Equal(t, "/a/b", joinPath("/a/", "/b"))
	assert.Equal(t, "/a/../b", joinPath("/a", "../b"))
	assert.Equal(t, "/a", joinPath("/a//", ""))
	assert.Equal(t, "/b", joinPath("/", "b"))
}
