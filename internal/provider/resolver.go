package provider

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/mitchellh/mapstructure"
)

var (
	resolveLogger = providerLogger.WithPrefix("resolver")
)

// Call method and bundle keys shared with callers.
const (
	MethodURIFromFile = "uriFromFile"

	Arg1 = "arg1" // authority
	Arg2 = "arg2" // file path
	Arg3 = "arg3" // reserved

	ResultURI          = "uri"
	ResultError        = "error"
	ResultErrorMessage = "error_message"
)

// Error codes carried in ResultError.
const (
	CodeIOFailure       = int(KindIOFailure)
	CodeFileNotMatch    = int(KindFileNotMatch)
	CodeMissingArgument = int(KindMissingArgument)
)

// Bundle carries call arguments and results.
type Bundle map[string]any

// String returns the string stored under key, or "" when absent.
func (b Bundle) String(key string) string {
	if s, ok := b[key].(string); ok {
		return s
	}
	return ""
}

// Int returns the integer stored under key. JSON-decoded numbers are
// accepted as well.
func (b Bundle) Int(key string) (int, bool) {
	switch v := b[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	}
	return 0, false
}

type uriFromFileArgs struct {
	Authority string `mapstructure:"arg1"`
	FilePath  string `mapstructure:"arg2"`
	Reserved  string `mapstructure:"arg3"`
}

// ResolveResult is the outcome of resolving a path. Either URI is set or
// Code names the failure.
type ResolveResult struct {
	URI     string
	Code    Kind
	Message string
}

// OK reports whether the path resolved to a URI.
func (r ResolveResult) OK() bool {
	return r.Code == KindUnknown && r.URI != ""
}

// Bundle converts the result to its call form.
func (r ResolveResult) Bundle() Bundle {
	if r.OK() {
		return Bundle{ResultURI: r.URI}
	}
	return Bundle{
		ResultError:        int(r.Code),
		ResultErrorMessage: r.Message,
	}
}

// Err returns the result as a provider error, or nil on success.
func (r ResolveResult) Err() error {
	if r.OK() {
		return nil
	}
	var cause error
	if r.Message != "" {
		cause = fmt.Errorf("%w: %s", kindSentinels[r.Code], r.Message)
	}
	return newError(OpResolve, "", r.Code, cause)
}

// Call dispatches a cross-process call. Methods other than uriFromFile
// return ErrUnknownMethod.
func (p *Provider) Call(method, arg string, extras Bundle) (Bundle, error) {
	switch method {
	case MethodURIFromFile:
		var args uriFromFileArgs
		dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			WeaklyTypedInput: true,
			Result:           &args,
		})
		if err != nil {
			return nil, err
		}
		if err := dec.Decode(map[string]any(extras)); err != nil {
			return nil, newError(OpResolve, "", KindInvalidArgument,
				fmt.Errorf("%w: %v", ErrInvalidArgument, err))
		}
		return p.ResolveFile(args.Authority, args.FilePath).Bundle(), nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownMethod, method)
}

// ResolveFile maps an absolute path from another process to a content URI.
// The first top directory, in configuration order, that is an ancestor of
// the canonical path wins.
func (p *Provider) ResolveFile(authority, filePath string) ResolveResult {
	if authority == "" {
		return argumentExpected(Arg1, "Authority")
	}
	if filePath == "" {
		return argumentExpected(Arg2, "File path")
	}

	resolveLogger.Debug("FILE: %s", filePath)

	file, err := canonicalize(filePath)
	if err != nil {
		return ResolveResult{Code: KindIOFailure, Message: err.Error()}
	}

	for _, root := range p.registry.Roots() {
		parent, err := canonicalize(root.Folder)
		if err != nil {
			return ResolveResult{Code: KindIOFailure, Message: err.Error()}
		}

		if !hasAncestor(file, parent) {
			continue
		}

		resolveLogger.Trace("Top directory matches: %s", root.Folder)
		rel := file[len(parent):]
		id := p.codec.Encode(joinPath(root.Folder, rel))
		return ResolveResult{URI: BuildContentURI(authority, id)}
	}

	return ResolveResult{Code: KindFileNotMatch}
}

func argumentExpected(key, description string) ResolveResult {
	return ResolveResult{
		Code:    KindMissingArgument,
		Message: fmt.Sprintf("Argument expected at '%s': %s", key, description),
	}
}

// hasAncestor walks the ancestor chain of file, file itself included, up to
// the filesystem root.
func hasAncestor(file, ancestor string) bool {
	for child := file; ; {
		if child == ancestor {
			return true
		}
		next := filepath.Dir(child)
		if next == child {
			return false
		}
		child = next
	}
}

// canonicalize returns the absolute path of p with symlinks resolved. A
// missing tail is kept as given below the canonical form of its closest
// existing ancestor.
func canonicalize(p string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", err
	}

	resolved, err := filepath.EvalSymlinks(abs)
	if err == nil {
		return resolved, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return "", err
	}

	dir := filepath.Dir(abs)
	if dir == abs {
		return abs, nil
	}
	parent, err := canonicalize(dir)
	if err != nil {
		return "", err
	}
	return filepath.Join(parent, filepath.Base(abs)), nil
}
