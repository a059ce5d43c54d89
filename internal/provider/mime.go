package provider

import (
	"mime"
	"path/filepath"
	"strings"
)

const (
	// MimeTypeDirectory is the MIME type of directory rows.
	MimeTypeDirectory = "vnd.android.document/directory"

	// MimeTypeDefault is reported for files without a known extension.
	MimeTypeDefault = "application/octet-stream"

	// RootMimeTypes is the MIME filter advertised by the root row.
	RootMimeTypes = "*/*\n"
)

// Types the Go table only knows when the host ships a mime.types file.
var fallbackTypes = map[string]string{
	"txt":  "text/plain",
	"md":   "text/markdown",
	"csv":  "text/csv",
	"log":  "text/plain",
	"apk":  "application/vnd.android.package-archive",
	"zip":  "application/zip",
	"mp3":  "audio/mpeg",
	"ogg":  "audio/ogg",
	"mp4":  "video/mp4",
	"bmp":  "image/bmp",
	"heic": "image/heic",
}

// MimeTable looks up MIME types by file extension. Configured overrides take
// precedence over the system table.
type MimeTable struct {
	overrides map[string]string
}

// NewMimeTable builds a table from extension overrides. Keys may be given
// with or without a leading dot and in any case.
func NewMimeTable(overrides map[string]string) *MimeTable {
	t := &MimeTable{overrides: make(map[string]string, len(overrides))}
	for ext, typ := range overrides {
		ext = strings.ToLower(strings.TrimPrefix(ext, "."))
		if ext == "" || typ == "" {
			continue
		}
		t.overrides[ext] = typ
	}
	return t
}

// TypeForName returns the MIME type for a file name: configured overrides
// first, then the system table, then a few common types.
func (t *MimeTable) TypeForName(name string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	if ext == "" {
		return MimeTypeDefault
	}
	if typ, ok := t.overrides[ext]; ok {
		return typ
	}
	if typ := mime.TypeByExtension("." + ext); typ != "" {
		if i := strings.IndexByte(typ, ';'); i >= 0 {
			typ = strings.TrimSpace(typ[:i])
		}
		return typ
	}
	if typ, ok := fallbackTypes[ext]; ok {
		return typ
	}
	return MimeTypeDefault
}

func isImage(mimeType string) bool {
	return strings.HasPrefix(mimeType, "image/")
}
