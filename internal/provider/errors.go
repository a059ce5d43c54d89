// Package provider implements the document provider: the root registry,
// document-ID codec, directory lister, path resolver and handle table.
//
// This file contains error types and error handling utilities.
package provider

import (
	"errors"
	"fmt"
)

// Kind classifies provider errors. The numeric values of the call-facing
// kinds are the error codes carried in call result bundles.
type Kind int

const (
	KindUnknown Kind = iota
	// KindIOFailure is a canonicalization or filesystem access error
	KindIOFailure
	// KindFileNotMatch means a resolved path is not under any registered root
	KindFileNotMatch
	// KindMissingArgument means a required call parameter was absent
	KindMissingArgument
	// KindNotFound means a document ID is unknown or no longer exists
	KindNotFound
	// KindConfiguration marks a malformed or unusable root specification
	KindConfiguration
	// KindInvalidArgument marks a malformed request (bad mode, bad handle)
	KindInvalidArgument
)

var kindNames = map[Kind]string{
	KindUnknown:         "Unknown",
	KindIOFailure:       "IOFailure",
	KindFileNotMatch:    "FileNotMatch",
	KindMissingArgument: "MissingArgument",
	KindNotFound:        "NotFound",
	KindConfiguration:   "ConfigurationError",
	KindInvalidArgument: "InvalidArgument",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

var (
	// ErrNotFound indicates a document ID that does not decode to an existing file
	ErrNotFound = errors.New("document not found")

	// ErrIOFailure indicates the filesystem could not be accessed
	ErrIOFailure = errors.New("i/o failure")

	// ErrFileNotMatch indicates a path outside every registered root
	ErrFileNotMatch = errors.New("file does not match any top directory")

	// ErrMissingArgument indicates a required call argument is absent
	ErrMissingArgument = errors.New("argument expected")

	// ErrConfiguration indicates a bad root specification
	ErrConfiguration = errors.New("bad configuration")

	// ErrInvalidArgument indicates a malformed request parameter
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrUnknownMethod indicates a call method this provider does not handle
	ErrUnknownMethod = errors.New("unknown call method")
)

var kindSentinels = map[Kind]error{
	KindNotFound:        ErrNotFound,
	KindIOFailure:       ErrIOFailure,
	KindFileNotMatch:    ErrFileNotMatch,
	KindMissingArgument: ErrMissingArgument,
	KindConfiguration:   ErrConfiguration,
	KindInvalidArgument: ErrInvalidArgument,
}

// Error wraps provider errors with the operation and affected path or
// document ID.
type Error struct {
	Op   string // Operation that failed (e.g., "decode", "resolve")
	Path string // Affected path or document ID
	Kind Kind
	Err  error // Underlying error
}

func (e *Error) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s %s: %s: %v", e.Op, e.Path, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the sentinel of the error's kind, so errors.Is(err, ErrNotFound)
// holds for every NotFound error regardless of its cause.
func (e *Error) Is(target error) bool {
	if sentinel, ok := kindSentinels[e.Kind]; ok {
		return sentinel == target
	}
	return false
}

func newError(op, path string, kind Kind, err error) *Error {
	if err == nil {
		err = kindSentinels[kind]
	}
	return &Error{Op: op, Path: path, Kind: kind, Err: err}
}

// KindOf extracts the kind of err. Plain errors report KindUnknown.
func KindOf(err error) Kind {
	var pErr *Error
	if errors.As(err, &pErr) {
		return pErr.Kind
	}
	for kind, sentinel := range kindSentinels {
		if errors.Is(err, sentinel) {
			return kind
		}
	}
	return KindUnknown
}

// Common operation names for consistent logging and error reporting
const (
	OpDecode    = "decode"
	OpRegister  = "register"
	OpList      = "list"
	OpQuery     = "query"
	OpResolve   = "resolve"
	OpOpen      = "open"
	OpRead      = "read"
	OpWrite     = "write"
	OpClose     = "close"
	OpThumbnail = "thumbnail"
	OpSearch    = "search"
)
