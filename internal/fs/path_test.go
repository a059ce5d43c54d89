package fs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"syscall"
	"testing"

	"unifiedfs/internal/provider"
)

func TestVirtualPath(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "simple path",
			input:    "test.txt",
			expected: "/test.txt",
		},
		{
			name:     "nested path",
			input:    "dir/test.txt",
			expected: "/dir/test.txt",
		},
		{
			name:     "already absolute path",
			input:    "/dir/test.txt",
			expected: "/dir/test.txt",
		},
		{
			name:     "dot path gets cleaned",
			input:    "./test.txt",
			expected: "/test.txt",
		},
		{
			name:     "double dot path gets cleaned",
			input:    "dir/../test.txt",
			expected: "/test.txt",
		},
		{
			name:     "cannot escape the root",
			input:    "../../etc",
			expected: "/etc",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vp := NewVirtualPath(tt.input)
			if vp.String() != tt.expected {
				t.Errorf("Expected path %q, got %q", tt.expected, vp.String())
			}
		})
	}
}

func TestVirtualPathNavigation(t *testing.T) {
	vp := NewVirtualPath("/Docs/sub/inner.txt")

	if got := vp.Segments(); len(got) != 3 || got[0] != "Docs" || got[2] != "inner.txt" {
		t.Errorf("Unexpected segments %v", got)
	}
	if NewVirtualPath("/").Segments() != nil {
		t.Error("Root should have no segments")
	}
	if !NewVirtualPath("/Docs/..").IsRoot() {
		t.Error("Path climbing back to the top should be the root")
	}
	if NewVirtualPath("/Docs").Join("a.txt").String() != "/Docs/a.txt" {
		t.Error("Join should append a path element")
	}
}

func TestNamedEntries(t *testing.T) {
	docs := []provider.Document{
		{DocumentID: "files:A", DisplayName: "Music"},
		{DocumentID: "files:B", DisplayName: "Music"},
		{DocumentID: "files:C", DisplayName: "Music"},
		{DocumentID: "files:D", DisplayName: "a/b"},
		{DocumentID: "files:E", DisplayName: ".."},
		{DocumentID: "files:F", DisplayName: ""},
	}

	expected := []string{"Music", "Music (2)", "Music (3)", "a_b", "_..", "_"}
	entries := namedEntries(docs)
	if len(entries) != len(expected) {
		t.Fatalf("Expected %d entries, got %d", len(expected), len(entries))
	}
	for i, e := range entries {
		if e.name != expected[i] {
			t.Errorf("Entry %d: expected %q, got %q", i, expected[i], e.name)
		}
		if e.doc.DocumentID != docs[i].DocumentID {
			t.Errorf("Entry %d: document order changed", i)
		}
	}
}

func TestResolve(t *testing.T) {
	vfs, _ := setupTestFS(t)
	ctx := context.Background()

	tests := []struct {
		path     string
		expected string
	}{
		{"/", provider.RootID},
		{"/Docs", "files:Docs"},
		{"/Docs/sub/inner.txt", "files:Docs/sub/inner.txt"},
		{"/Docs (2)/old.txt", "files:Archive/old.txt"},
		{"/Camera_Roll/img.jpg", "files:Photos/img.jpg"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			doc, err := Resolve(ctx, vfs.provider, NewVirtualPath(tt.path))
			if err != nil {
				t.Fatalf("Failed to resolve %q: %v", tt.path, err)
			}
			if doc.DocumentID != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, doc.DocumentID)
			}
		})
	}

	for _, missing := range []string{"/Nope", "/Docs/report.txt/child", "/Docs/sub/missing.txt"} {
		if _, err := Resolve(ctx, vfs.provider, NewVirtualPath(missing)); ToFuseError(err) != syscall.ENOENT {
			t.Errorf("Resolve(%q): expected ENOENT, got %v", missing, err)
		}
	}
}

func TestToFuseError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected error
	}{
		{"nil", nil, nil},
		{"path not found", NewFSError(OpLookup, "/x", ErrPathNotFound), syscall.ENOENT},
		{"provider not found", fmt.Errorf("wrapped: %w", provider.ErrNotFound), syscall.ENOENT},
		{"read only", NewFSError(OpOpen, "/x", ErrReadOnly), syscall.EROFS},
		{"invalid argument", provider.ErrInvalidArgument, syscall.EINVAL},
		{"os not exist", os.ErrNotExist, syscall.ENOENT},
		{"permission", &os.PathError{Op: "open", Path: "/x", Err: os.ErrPermission}, syscall.EACCES},
		{"raw errno", &os.PathError{Op: "read", Path: "/x", Err: syscall.EISDIR}, syscall.EISDIR},
		{"unknown", errors.New("boom"), syscall.EIO},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ToFuseError(tt.err)
			if got != tt.expected {
				t.Errorf("Expected %v, got %v", tt.expected, got)
			}
		})
	}
}
