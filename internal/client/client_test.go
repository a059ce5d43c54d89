package client

import (
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"unifiedfs/internal/api"
	"unifiedfs/internal/provider"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testAuthority = "com.example.unified"

func setup(t *testing.T) (*Client, string) {
	t.Helper()

	baseDir := filepath.Join(t.TempDir(), "files")
	require.NoError(t, os.MkdirAll(filepath.Join(baseDir, "Music"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(baseDir, "Music", "playlist.m3u"), []byte("#EXTM3U\nsong.mp3\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(baseDir, "Music", "notes.txt"), []byte("0123456789"), 0o644))

	p, err := provider.New(provider.Config{
		Authority: testAuthority,
		BaseDir:   baseDir,
		TopDirs:   []string{"Music;My Music"},
	})
	require.NoError(t, err)

	srv := httptest.NewServer(api.NewServer(p, api.Options{}).Handler())
	t.Cleanup(srv.Close)

	return New(Config{BaseURL: srv.URL}), baseDir
}

func TestPingAndQueries(t *testing.T) {
	c, _ := setup(t)
	ctx := context.Background()

	require.NoError(t, c.Ping(ctx))

	roots, err := c.QueryRoots(ctx)
	require.NoError(t, err)
	require.Len(t, roots, 1)

	docs, err := c.QueryChildDocuments(ctx, provider.RootID)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "My Music", docs[0].DisplayName)

	_, err = c.QueryDocument(ctx, "files:Music/absent.txt")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 404, apiErr.Status)
	assert.Equal(t, "NotFound", apiErr.Kind)
}

func TestGetURIFromFilePath(t *testing.T) {
	c, baseDir := setup(t)
	caller := NewCaller(c)
	ctx := context.Background()

	uri, err := caller.GetURIFromFilePath(ctx, testAuthority, filepath.Join(baseDir, "Music", "notes.txt"))
	require.NoError(t, err)
	assert.Equal(t, "content://com.example.unified/document/files%3AMusic%2Fnotes.txt", uri)

	f, err := os.Open(filepath.Join(baseDir, "Music", "playlist.m3u"))
	require.NoError(t, err)
	defer f.Close()

	uri, err = caller.GetURIFromFile(ctx, testAuthority, f)
	require.NoError(t, err)
	assert.Equal(t, "content://com.example.unified/document/files%3AMusic%2Fplaylist.m3u", uri)

	_, err = caller.GetURIFromFilePath(ctx, testAuthority, "/etc/hostname")
	var callErr *CallError
	require.ErrorAs(t, err, &callErr)
	assert.Equal(t, provider.CodeFileNotMatch, callErr.Code)
	assert.ErrorIs(t, err, provider.ErrFileNotMatch)

	_, err = caller.GetURIFromFilePath(ctx, "", "/tmp/x")
	require.ErrorAs(t, err, &callErr)
	assert.Equal(t, provider.CodeMissingArgument, callErr.Code)
	assert.Equal(t, "Argument expected at 'arg1': Authority", callErr.Message)
}

func TestCallUnknownMethod(t *testing.T) {
	c, _ := setup(t)

	_, err := NewCaller(c).Call(context.Background(), "format", "", nil)
	assert.ErrorIs(t, err, provider.ErrUnknownMethod)
}

func TestGetFileInfo(t *testing.T) {
	c, baseDir := setup(t)
	bridge := NewBridge(c)
	ctx := context.Background()

	info, err := bridge.GetFileInfo(ctx, provider.BuildContentURI(testAuthority, "files:Music/notes.txt"))
	require.NoError(t, err)
	assert.Equal(t, "notes.txt", info.DisplayName)
	assert.Equal(t, "text/plain", info.MimeType)
	assert.Equal(t, int64(10), info.Size)
	assert.NotZero(t, info.ModTime)

	// A content URI without a row falls back to the last path segment.
	info, err = bridge.GetFileInfo(ctx, provider.BuildContentURI(testAuthority, "files:Music/gone.bin"))
	require.NoError(t, err)
	assert.Equal(t, "gone.bin", info.DisplayName)
	assert.Equal(t, provider.MimeTypeDefault, info.MimeType)
	assert.Equal(t, int64(-1), info.Size)

	local := filepath.Join(baseDir, "Music", "notes.txt")
	info, err = bridge.GetFileInfo(ctx, "file://"+local)
	require.NoError(t, err)
	assert.Equal(t, "notes.txt", info.DisplayName)
	assert.True(t, strings.HasPrefix(info.MimeType, "text/plain"), info.MimeType)
	assert.Equal(t, int64(10), info.Size)

	info, err = bridge.GetFileInfo(ctx, filepath.Join(baseDir, "Music", "missing.dat"))
	require.NoError(t, err)
	assert.Equal(t, "missing.dat", info.DisplayName)
	assert.Equal(t, provider.MimeTypeDefault, info.MimeType)
	assert.Equal(t, int64(-1), info.Size)
}

func TestOpenReadClose(t *testing.T) {
	c, _ := setup(t)
	bridge := NewBridge(c)
	ctx := context.Background()

	h, err := bridge.OpenRawReadOnly(ctx, provider.BuildContentURI(testAuthority, "files:Music/notes.txt"))
	require.NoError(t, err)
	assert.NotEqual(t, provider.InvalidHandle, h)

	data, err := bridge.ReadAt(ctx, h, 4, 3)
	require.NoError(t, err)
	assert.Equal(t, "456", string(data))

	data, err = bridge.ReadAt(ctx, h, 8, 100)
	require.NoError(t, err)
	assert.Equal(t, "89", string(data))

	require.NoError(t, bridge.Close(ctx, h))
	assert.NoError(t, bridge.Close(ctx, h))

	_, err = bridge.ReadAt(ctx, h, 0, 1)
	assert.ErrorIs(t, err, provider.ErrInvalidArgument)

	h, err = bridge.OpenRawReadOnly(ctx, provider.BuildContentURI(testAuthority, "files:Music/none.txt"))
	assert.Equal(t, provider.InvalidHandle, h)
	assert.True(t, IsNotFound(err))

	_, err = bridge.OpenRawReadOnly(ctx, "http://example.com/document/x")
	assert.ErrorIs(t, err, provider.ErrInvalidArgument)
}
