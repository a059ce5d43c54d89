package fs

import (
	"context"
	"os"
	"time"

	"unifiedfs/internal/logging"

	"bazil.org/fuse"
	fusefs "bazil.org/fuse/fs"
)

var (
	dirLogger = logging.GetLogger().WithPrefix("dir")
)

// Dir is a directory node: the synthetic root, a top directory or a real
// directory below one.
type Dir struct {
	fs   *UnifiedFS
	path *VirtualPath
	id   string
}

// DocumentID returns the document the directory shows.
func (d *Dir) DocumentID() string {
	return d.id
}

// Attr implements the Node interface, returning directory attributes.
func (d *Dir) Attr(_ context.Context, a *fuse.Attr) error {
	dirLogger.Trace("Getting attributes for directory: %q", d.path.String())

	a.Mode = os.ModeDir | 0o555
	a.Uid = d.fs.uid
	a.Gid = d.fs.gid

	// The synthetic root has no single backing directory worth reporting.
	if d.path.IsRoot() {
		return nil
	}

	doc, err := d.fs.provider.QueryDocument(d.id)
	if err != nil {
		dirLogger.Debug("Directory %q is gone: %v", d.path.String(), err)
		return ToFuseError(NewFSError(OpGetattr, d.path.String(), err))
	}
	mtime := time.UnixMilli(doc.LastModified)
	a.Mtime = mtime
	a.Ctime = mtime
	a.Atime = mtime
	return nil
}

// Lookup implements the NodeStringLookuper interface, finding a child node.
func (d *Dir) Lookup(_ context.Context, name string) (fusefs.Node, error) {
	dirLogger.Debug("Looking up %q in directory %q", name, d.path.String())

	e, err := lookupEntry(d.fs.provider, d.id, name)
	if err != nil {
		dirLogger.Debug("Path not found: %q", d.path.Join(name).String())
		return nil, ToFuseError(NewFSError(OpLookup, d.path.Join(name).String(), err))
	}

	return d.node(e), nil
}

func (d *Dir) node(e entry) fusefs.Node {
	childPath := d.path.Join(e.name)
	if e.doc.IsDir() {
		return &Dir{fs: d.fs, path: childPath, id: e.doc.DocumentID}
	}
	return &File{fs: d.fs, path: childPath, id: e.doc.DocumentID}
}

// ReadDirAll implements the HandleReadDirAller interface, listing directory contents.
func (d *Dir) ReadDirAll(_ context.Context) ([]fuse.Dirent, error) {
	dirLogger.Debug("Reading directory contents: %q", d.path.String())

	children, err := listEntries(d.fs.provider, d.id)
	if err != nil {
		dirLogger.Warn("Failed to list %q: %v", d.path.String(), err)
		return nil, ToFuseError(NewFSError(OpReadDir, d.path.String(), err))
	}

	entries := make([]fuse.Dirent, 0, len(children)+2)
	entries = append(entries, fuse.Dirent{Name: ".", Type: fuse.DT_Dir})
	entries = append(entries, fuse.Dirent{Name: "..", Type: fuse.DT_Dir})

	for _, e := range children {
		typ := fuse.DT_File
		if e.doc.IsDir() {
			typ = fuse.DT_Dir
		}
		entries = append(entries, fuse.Dirent{Name: e.name, Type: typ})
	}

	dirLogger.Debug("Directory %q contains %d entries", d.path.String(), len(entries))
	return entries, nil
}
