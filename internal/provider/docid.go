package provider

import (
	"os"
	"path/filepath"
	"strings"
)

// RootID is the root token of every document ID. The bare token names the
// synthetic root that lists the configured top directories.
const RootID = "files"

// Codec converts between filesystem paths and document IDs relative to a
// base directory.
type Codec struct {
	baseDir string
}

// NewCodec returns a codec for baseDir. The base directory is made absolute
// but not cleaned.
func NewCodec(baseDir string) *Codec {
	return &Codec{baseDir: absPath(baseDir)}
}

// BaseDir returns the directory the sentinel ID decodes to.
func (c *Codec) BaseDir() string {
	return c.baseDir
}

// IsRoot reports whether id is the synthetic root sentinel.
func IsRoot(id string) bool {
	return id == RootID
}

// Encode maps path to "files:<relative path>". A path equal to the base
// directory encodes with an empty relative part.
func (c *Codec) Encode(path string) string {
	path = trimSeparators(path)
	base := c.baseDir

	var rel string
	switch {
	case path == base:
		rel = ""
	case strings.HasPrefix(path, base+string(filepath.Separator)):
		rel = path[len(base)+1:]
	case base == string(filepath.Separator) && strings.HasPrefix(path, base):
		rel = path[1:]
	default:
		r, err := filepath.Rel(base, path)
		if err != nil {
			rel = path
		} else {
			rel = r
		}
	}
	return RootID + ":" + filepath.ToSlash(rel)
}

// Decode maps a document ID to a path on disk. The sentinel decodes to the
// base directory. Malformed IDs, unknown root tokens and missing files are
// reported as ErrNotFound.
func (c *Codec) Decode(id string) (string, error) {
	if IsRoot(id) {
		return c.baseDir, nil
	}

	path, err := c.Path(id)
	if err != nil {
		return "", err
	}
	if _, err := os.Lstat(path); err != nil {
		return "", newError(OpDecode, id, KindNotFound, err)
	}
	return path, nil
}

// Path decodes id without checking the filesystem.
func (c *Codec) Path(id string) (string, error) {
	if IsRoot(id) {
		return c.baseDir, nil
	}

	// The separator is searched from index 1, so an ID starting with ':'
	// is malformed rather than an empty root token.
	sep := -1
	if len(id) > 1 {
		if i := strings.IndexByte(id[1:], ':'); i >= 0 {
			sep = i + 1
		}
	}
	if sep < 0 {
		return "", newError(OpDecode, id, KindNotFound, nil)
	}

	if token := id[:sep]; token != RootID {
		return "", newError(OpDecode, id, KindNotFound, nil)
	}

	rel := filepath.FromSlash(id[sep+1:])
	return joinPath(c.baseDir, rel), nil
}
