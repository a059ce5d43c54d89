// Package fs provides filesystem implementations.
//
// This file contains error types and error handling utilities.
package fs

import (
	"errors"
	"fmt"
	"os"
	"syscall"

	"unifiedfs/internal/logging"
	"unifiedfs/internal/provider"
)

var (
	errLogger = logging.GetLogger().WithPrefix("error")

	// ErrPathNotFound indicates a virtual path doesn't exist
	ErrPathNotFound = errors.New("virtual path not found")

	// ErrReadOnly indicates attempt to modify read-only filesystem
	ErrReadOnly = errors.New("filesystem is read-only")
)

// Error wraps filesystem errors with the operation and the virtual path
// it was applied to.
type Error struct {
	Op   string // Operation that failed (e.g., "lookup", "readdir")
	Path string // Affected path
	Err  error  // Underlying error
}

// Error implements the error interface, providing a formatted error message
func (e *Error) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("operation %s failed: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("operation %s on %s failed: %v", e.Op, e.Path, e.Err)
}

// Unwrap implements error unwrapping for the errors.Is/As functions
func (e *Error) Unwrap() error {
	return e.Err
}

// ToFuseError converts an error to the errno FUSE should report. Provider
// error kinds and our own sentinels are mapped first, then raw os errors.
func ToFuseError(err error) error {
	if err == nil {
		return nil
	}

	errLogger.Trace("Converting error to FUSE error: %v", err)

	switch {
	case errors.Is(err, ErrPathNotFound), errors.Is(err, provider.ErrNotFound):
		return syscall.ENOENT
	case errors.Is(err, ErrReadOnly):
		return syscall.EROFS
	case errors.Is(err, provider.ErrInvalidArgument), errors.Is(err, provider.ErrMissingArgument):
		return syscall.EINVAL
	case errors.Is(err, os.ErrNotExist):
		return syscall.ENOENT
	case errors.Is(err, os.ErrPermission):
		return syscall.EACCES
	}

	var errno syscall.Errno
	if errors.As(err, &errno) {
		return errno
	}

	errLogger.Debug("Unknown error type, returning EIO: %v", err)
	return syscall.EIO
}

// NewFSError creates a new Error with the given operation, path, and underlying error
func NewFSError(op string, path string, err error) *Error {
	fsErr := &Error{
		Op:   op,
		Path: path,
		Err:  err,
	}
	errLogger.Debug("Created new FSError: %v", fsErr)
	return fsErr
}

// Common operation names for consistent logging and error reporting
const (
	OpLookup   = "lookup"   // Looking up a path
	OpReadDir  = "readdir"  // Reading directory contents
	OpOpen     = "open"     // Opening a file
	OpRead     = "read"     // Reading from a file
	OpGetattr  = "getattr"  // Getting file attributes
	OpGetxattr = "getxattr" // Reading an extended attribute
)
