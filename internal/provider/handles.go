package provider

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"sync"
)

var (
	handleLogger = providerLogger.WithPrefix("handles")
)

// InvalidHandle is never returned by a successful Open.
const InvalidHandle = -1

// Open modes, as accepted by ParcelFileDescriptor.parseMode.
const (
	ModeRead              = "r"
	ModeWrite             = "w"
	ModeWriteTruncate     = "wt"
	ModeWriteAppend       = "wa"
	ModeReadWrite         = "rw"
	ModeReadWriteTruncate = "rwt"
)

var modeFlags = map[string]int{
	ModeRead:              os.O_RDONLY,
	ModeWrite:             os.O_WRONLY | os.O_CREATE,
	ModeWriteTruncate:     os.O_WRONLY | os.O_CREATE | os.O_TRUNC,
	ModeWriteAppend:       os.O_WRONLY | os.O_CREATE | os.O_APPEND,
	ModeReadWrite:         os.O_RDWR | os.O_CREATE,
	ModeReadWriteTruncate: os.O_RDWR | os.O_CREATE | os.O_TRUNC,
}

// ParseMode converts an open mode string to os.OpenFile flags.
func ParseMode(mode string) (int, error) {
	flags, ok := modeFlags[mode]
	if !ok {
		return 0, newError(OpOpen, mode, KindInvalidArgument,
			fmt.Errorf("%w: bad mode %q", ErrInvalidArgument, mode))
	}
	return flags, nil
}

// IsWriteMode reports whether mode opens for writing.
func IsWriteMode(mode string) bool {
	return mode != ModeRead
}

type openFile struct {
	mu   sync.Mutex
	file *os.File
	path string
	mode string
}

// HandleTable tracks open files by integer handle. The map is guarded by one
// mutex, I/O on each handle by its own.
type HandleTable struct {
	mu    sync.Mutex
	next  int
	files map[int]*openFile
}

// NewHandleTable returns an empty table.
func NewHandleTable() *HandleTable {
	return &HandleTable{files: make(map[int]*openFile)}
}

// Open opens path with the given mode and returns a new handle.
func (t *HandleTable) Open(path, mode string) (int, error) {
	flags, err := ParseMode(mode)
	if err != nil {
		return InvalidHandle, err
	}

	f, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return InvalidHandle, newError(OpOpen, path, KindIOFailure, err)
	}

	t.mu.Lock()
	t.next++
	h := t.next
	t.files[h] = &openFile{file: f, path: path, mode: mode}
	t.mu.Unlock()

	handleLogger.Debug("Opened %s (mode %s) as handle %d", path, mode, h)
	return h, nil
}

func (t *HandleTable) get(op string, h int) (*openFile, error) {
	t.mu.Lock()
	of, ok := t.files[h]
	t.mu.Unlock()
	if !ok {
		return nil, newError(op, strconv.Itoa(h), KindInvalidArgument,
			fmt.Errorf("%w: unknown handle %d", ErrInvalidArgument, h))
	}
	return of, nil
}

// ReadAt reads up to len(buf) bytes at offset. A short read at end of file
// is not an error.
func (t *HandleTable) ReadAt(h int, buf []byte, offset int64) (int, error) {
	of, err := t.get(OpRead, h)
	if err != nil {
		return 0, err
	}

	of.mu.Lock()
	defer of.mu.Unlock()
	if of.file == nil {
		return 0, newError(OpRead, strconv.Itoa(h), KindInvalidArgument, nil)
	}

	n, err := of.file.ReadAt(buf, offset)
	if err != nil && n < len(buf) && !errors.Is(err, io.EOF) {
		return n, newError(OpRead, of.path, KindIOFailure, err)
	}
	return n, nil
}

// WriteAt writes buf at offset. Handles opened in append mode ignore offset.
func (t *HandleTable) WriteAt(h int, buf []byte, offset int64) (int, error) {
	of, err := t.get(OpWrite, h)
	if err != nil {
		return 0, err
	}

	of.mu.Lock()
	defer of.mu.Unlock()
	if of.file == nil {
		return 0, newError(OpWrite, strconv.Itoa(h), KindInvalidArgument, nil)
	}
	if !IsWriteMode(of.mode) {
		return 0, newError(OpWrite, of.path, KindInvalidArgument,
			fmt.Errorf("%w: handle %d is read-only", ErrInvalidArgument, h))
	}

	var n int
	if of.mode == ModeWriteAppend {
		n, err = of.file.Write(buf)
	} else {
		n, err = of.file.WriteAt(buf, offset)
	}
	if err != nil {
		return n, newError(OpWrite, of.path, KindIOFailure, err)
	}
	return n, nil
}

// Close releases a handle.
func (t *HandleTable) Close(h int) error {
	t.mu.Lock()
	of, ok := t.files[h]
	delete(t.files, h)
	t.mu.Unlock()
	if !ok {
		return newError(OpClose, strconv.Itoa(h), KindInvalidArgument,
			fmt.Errorf("%w: unknown handle %d", ErrInvalidArgument, h))
	}

	of.mu.Lock()
	defer of.mu.Unlock()
	err := of.file.Close()
	of.file = nil
	if err != nil {
		return newError(OpClose, of.path, KindIOFailure, err)
	}
	handleLogger.Debug("Closed handle %d (%s)", h, of.path)
	return nil
}

// Len returns the number of open handles.
func (t *HandleTable) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.files)
}

// CloseAll releases every handle, returning the first error.
func (t *HandleTable) CloseAll() error {
	t.mu.Lock()
	handles := make([]int, 0, len(t.files))
	for h := range t.files {
		handles = append(handles, h)
	}
	t.mu.Unlock()

	var first error
	for _, h := range handles {
		if err := t.Close(h); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// OpenDocument decodes id and opens it. Only files can be opened, and write
// modes require a writable file.
func (p *Provider) OpenDocument(id, mode string) (int, error) {
	if _, err := ParseMode(mode); err != nil {
		return InvalidHandle, err
	}

	path, err := p.decode(OpOpen, id)
	if err != nil {
		return InvalidHandle, err
	}

	info, err := os.Stat(path)
	if err != nil {
		return InvalidHandle, newError(OpOpen, id, KindNotFound, err)
	}
	if info.IsDir() {
		return InvalidHandle, newError(OpOpen, id, KindInvalidArgument,
			fmt.Errorf("%w: %s is a directory", ErrInvalidArgument, id))
	}

	h, err := p.handles.Open(path, mode)
	if err != nil {
		providerLogger.Warn("Failed to open document with id %s and mode '%s': %v", id, mode, err)
		return InvalidHandle, err
	}
	return h, nil
}
