package fs

import (
	"context"
	"path"
	"strconv"
	"strings"

	"unifiedfs/internal/logging"
	"unifiedfs/internal/provider"
)

var (
	pathLogger = logging.GetLogger().WithPrefix("path")
)

// VirtualPath is a path inside the mount. It always starts with "/".
type VirtualPath struct {
	path string
}

// NewVirtualPath creates a new VirtualPath instance.
// It cleans the path and ensures it's absolute.
func NewVirtualPath(p string) *VirtualPath {
	cleaned := path.Clean("/" + p)
	pathLogger.Trace("Creating new virtual path: %q -> %q", p, cleaned)
	return &VirtualPath{path: cleaned}
}

// String returns the string representation of the path
func (vp *VirtualPath) String() string {
	return vp.path
}

// IsRoot returns true if this is the root virtual path "/"
func (vp *VirtualPath) IsRoot() bool {
	return vp.path == "/"
}

// Join returns the child path name below vp.
func (vp *VirtualPath) Join(name string) *VirtualPath {
	return NewVirtualPath(vp.path + "/" + name)
}

// Segments returns the path elements below the root.
func (vp *VirtualPath) Segments() []string {
	if vp.IsRoot() {
		return nil
	}
	return strings.Split(strings.TrimPrefix(vp.path, "/"), "/")
}

// entry is a document under the name it is listed with.
type entry struct {
	name string
	doc  provider.Document
}

// entryName turns a display name into a single path element.
func entryName(displayName string) string {
	name := strings.ReplaceAll(displayName, "/", "_")
	switch name {
	case "", ".", "..":
		return "_" + name
	}
	return name
}

// namedEntries assigns every document a unique name within one listing.
// Later documents whose name is taken get a " (n)" suffix, so listing order
// decides which one keeps the plain name.
func namedEntries(docs []provider.Document) []entry {
	entries := make([]entry, 0, len(docs))
	taken := make(map[string]bool, len(docs))

	for _, doc := range docs {
		base := entryName(doc.DisplayName)
		name := base
		for n := 2; taken[name]; n++ {
			name = base + " (" + strconv.Itoa(n) + ")"
		}
		taken[name] = true
		entries = append(entries, entry{name: name, doc: doc})
	}
	return entries
}

// listEntries returns the named children of the document id.
func listEntries(p *provider.Provider, id string) ([]entry, error) {
	docs, err := p.QueryChildDocuments(id)
	if err != nil {
		return nil, err
	}
	return namedEntries(docs), nil
}

// lookupEntry finds name among the children of id.
func lookupEntry(p *provider.Provider, id, name string) (entry, error) {
	entries, err := listEntries(p, id)
	if err != nil {
		return entry{}, err
	}
	for _, e := range entries {
		if e.name == name {
			return e, nil
		}
	}
	return entry{}, ErrPathNotFound
}

// Resolve walks vp from the synthetic root and returns the document it
// names. The root itself resolves to the provider's root document.
func Resolve(ctx context.Context, p *provider.Provider, vp *VirtualPath) (provider.Document, error) {
	if vp.IsRoot() {
		return p.QueryDocument(provider.RootID)
	}

	id := provider.RootID
	var doc provider.Document
	for i, name := range vp.Segments() {
		if err := ctx.Err(); err != nil {
			return provider.Document{}, err
		}
		if i > 0 && !doc.IsDir() {
			return provider.Document{}, NewFSError(OpLookup, vp.String(), ErrPathNotFound)
		}
		e, err := lookupEntry(p, id, name)
		if err != nil {
			return provider.Document{}, NewFSError(OpLookup, vp.String(), err)
		}
		doc = e.doc
		id = doc.DocumentID
	}

	pathLogger.Trace("Resolved %q -> %s", vp.String(), doc.DocumentID)
	return doc, nil
}
