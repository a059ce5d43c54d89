package fs

import (
	"context"
	"sync"
	"syscall"
	"time"

	"unifiedfs/internal/logging"
	"unifiedfs/internal/provider"

	"bazil.org/fuse"
	fusefs "bazil.org/fuse/fs"
)

var (
	fileLogger = logging.GetLogger().WithPrefix("file")
)

// Extended attributes exposed on every file.
const (
	XattrDocumentID = "user.unifiedfs.document_id"
	XattrContentURI = "user.unifiedfs.content_uri"
	XattrMimeType   = "user.unifiedfs.mime_type"
)

var xattrNames = []string{XattrDocumentID, XattrContentURI, XattrMimeType}

// File is a document below a top directory.
type File struct {
	fs   *UnifiedFS
	path *VirtualPath
	id   string
}

// DocumentID returns the document the file shows.
func (f *File) DocumentID() string {
	return f.id
}

// Attr implements the Node interface, returning the file's attributes.
func (f *File) Attr(_ context.Context, a *fuse.Attr) error {
	fileLogger.Trace("Getting attributes for file: %q (document: %s)", f.path.String(), f.id)

	doc, err := f.fs.provider.QueryDocument(f.id)
	if err != nil {
		fileLogger.Warn("Document not found: %s", f.id)
		return ToFuseError(NewFSError(OpGetattr, f.path.String(), err))
	}

	mtime := time.UnixMilli(doc.LastModified)
	a.Mode = 0o444
	a.Size = safeInt64ToUint64(doc.Size)
	a.Mtime = mtime
	a.Atime = mtime // We don't track access time
	a.Ctime = mtime // We don't track change time
	a.Uid = f.fs.uid
	a.Gid = f.fs.gid
	a.BlockSize = 4096
	a.Blocks = safeInt64ToUint64((doc.Size + 511) / 512)

	fileLogger.Trace("File attributes: mode=%v, size=%d, mtime=%v", a.Mode, a.Size, a.Mtime)
	return nil
}

// Open implements the NodeOpener interface. Files open read-only through
// the provider's handle table.
func (f *File) Open(_ context.Context, req *fuse.OpenRequest, resp *fuse.OpenResponse) (fusefs.Handle, error) {
	fileLogger.Debug("Opening file %q with flags %v", f.path.String(), req.Flags)

	if !req.Flags.IsReadOnly() {
		fileLogger.Warn("Attempted write access to read-only file: %q", f.path.String())
		return nil, ToFuseError(NewFSError(OpOpen, f.path.String(), ErrReadOnly))
	}

	h, err := f.fs.provider.OpenDocument(f.id, provider.ModeRead)
	if err != nil {
		fileLogger.Error("Failed to open file: %v", err)
		return nil, ToFuseError(NewFSError(OpOpen, f.path.String(), err))
	}

	resp.Flags |= fuse.OpenKeepCache

	fileLogger.Debug("Successfully opened file %q as handle %d", f.path.String(), h)
	return &FileHandle{
		handles: f.fs.provider.Handles(),
		handle:  h,
		path:    f.path.String(),
	}, nil
}

func (f *File) xattr(name string) (string, bool) {
	switch name {
	case XattrDocumentID:
		return f.id, true
	case XattrContentURI:
		return f.fs.provider.ContentURI(f.id), true
	case XattrMimeType:
		doc, err := f.fs.provider.QueryDocument(f.id)
		if err != nil {
			return "", false
		}
		return doc.MimeType, true
	}
	return "", false
}

// Getxattr implements the NodeGetxattrer interface, retrieving an extended attribute.
func (f *File) Getxattr(_ context.Context, req *fuse.GetxattrRequest, resp *fuse.GetxattrResponse) error {
	fileLogger.Debug("Getting xattr %q for file %q", req.Name, f.path.String())

	value, ok := f.xattr(req.Name)
	if !ok {
		return fuse.ErrNoXattr
	}

	resp.Xattr = []byte(value)
	fileLogger.Trace("Retrieved xattr %q: %d bytes", req.Name, len(value))
	return nil
}

// Listxattr implements the NodeListxattrer interface, listing all extended attributes.
func (f *File) Listxattr(_ context.Context, _ *fuse.ListxattrRequest, resp *fuse.ListxattrResponse) error {
	resp.Append(xattrNames...)
	return nil
}

// handleTable is the part of the provider's handle table a FileHandle uses.
type handleTable interface {
	ReadAt(h int, buf []byte, offset int64) (int, error)
	Close(h int) error
}

// FileHandle is an open provider handle.
type FileHandle struct {
	handles handleTable
	handle  int
	path    string // For logging purposes
	mu      sync.Mutex
	closed  bool
}

// Read implements the HandleReader interface, reading data from the file.
func (fh *FileHandle) Read(_ context.Context, req *fuse.ReadRequest, resp *fuse.ReadResponse) error {
	fileLogger.Trace("Reading %d bytes from file %q at offset %d", req.Size, fh.path, req.Offset)

	fh.mu.Lock()
	closed := fh.closed
	fh.mu.Unlock()
	if closed {
		return syscall.EBADF
	}

	buf := make([]byte, req.Size)
	n, err := fh.handles.ReadAt(fh.handle, buf, req.Offset)
	if err != nil {
		fileLogger.Error("Failed to read from file: %v", err)
		return ToFuseError(NewFSError(OpRead, fh.path, err))
	}

	resp.Data = buf[:n]
	fileLogger.Trace("Successfully read %d bytes", n)
	return nil
}

// Release implements the HandleReleaser interface, closing the file handle.
func (fh *FileHandle) Release(_ context.Context, _ *fuse.ReleaseRequest) error {
	fh.mu.Lock()
	defer fh.mu.Unlock()

	if fh.closed {
		return nil
	}
	fh.closed = true

	fileLogger.Debug("Closing file %q (handle %d)", fh.path, fh.handle)
	return ToFuseError(fh.handles.Close(fh.handle))
}

func safeInt64ToUint64(n int64) uint64 {
	if n < 0 {
		return 0
	}
	return uint64(n)
}

func safeIntToUint32(n int) uint32 {
	if n < 0 {
		return 0
	}
	return uint32(n)
}
