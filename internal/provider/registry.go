package provider

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"unifiedfs/internal/logging"
)

var (
	registryLogger = logging.GetLogger().WithPrefix("registry")
)

// Base directory codes accepted in place of an absolute base directory.
const (
	BaseDirFiles = "FILES_DIR"
	BaseDirData  = "DATA_DIR"

	DefaultBaseDir = BaseDirFiles
)

// OptionNoSubdirs hides subdirectories of a root from listings.
const OptionNoSubdirs = "nosubdirs"

// Options holds per-root options parsed from the third spec field.
type Options struct {
	NoSubdirs bool
}

// RootEntry is a configured top-level directory.
type RootEntry struct {
	// Folder is absolute but not cleaned: a leading ".." segment survives so
	// that roots outside the base directory keep their base prefix.
	Folder      string
	DisplayName string
	Options     Options
	IconID      int
}

// Registry holds the roots in configuration order. It is immutable after
// NewRegistry returns and safe for concurrent use.
type Registry struct {
	baseDir string
	roots   []RootEntry
}

// ResolveBaseDir maps a base directory setting to a directory path.
// FILES_DIR is "<dataDir>/files", DATA_DIR is dataDir and an absolute path
// is used as is. Anything else falls back to FILES_DIR.
func ResolveBaseDir(code, dataDir string) string {
	switch {
	case code == BaseDirFiles:
		return filepath.Join(dataDir, "files")
	case code == BaseDirData:
		return filepath.Clean(dataDir)
	case filepath.IsAbs(code):
		return filepath.Clean(code)
	}

	filesDir := filepath.Join(dataDir, "files")
	registryLogger.Warn("Bad base directory code: %s, use default: %s (%s)",
		code, BaseDirFiles, filesDir)
	return filesDir
}

// ParseRootSpec parses one "path;displayName[;options]" record. The folder is
// resolved against baseDir but not checked on disk.
func ParseRootSpec(baseDir, spec string) (RootEntry, error) {
	if strings.TrimSpace(spec) == "" {
		return RootEntry{}, newError(OpRegister, spec, KindConfiguration,
			fmt.Errorf("%w: empty top directory record", ErrConfiguration))
	}

	fields := strings.Split(spec, ";")
	dir := fields[0]

	entry := RootEntry{DisplayName: dir}
	if len(fields) > 1 && fields[1] != "" {
		entry.DisplayName = fields[1]
	}
	if len(fields) > 2 && strings.Contains(fields[2], OptionNoSubdirs) {
		entry.Options.NoSubdirs = true
	}

	entry.Folder = joinPath(baseDir, dir)
	if entry.DisplayName == "" {
		entry.DisplayName = filepath.Base(entry.Folder)
	}
	return entry, nil
}

// NewRegistry builds the registry from root specs. Specs that fail to parse
// or point at something other than an existing directory are logged and
// skipped.
func NewRegistry(baseDir string, specs []string, iconID int) *Registry {
	r := &Registry{baseDir: absPath(baseDir)}
	registryLogger.Debug("Base directory: %s", r.baseDir)

	for _, spec := range specs {
		entry, err := ParseRootSpec(r.baseDir, spec)
		if err != nil {
			registryLogger.Error("Bad top directory record %q, item ignored: %v", spec, err)
			continue
		}
		entry.IconID = iconID

		info, err := os.Stat(entry.Folder)
		if err != nil {
			registryLogger.Error("Folder not exists: %s, item ignored: %s", entry.Folder, spec)
			continue
		}
		if !info.IsDir() {
			registryLogger.Error("Path must be a directory: %s, item ignored: %s", entry.Folder, spec)
			continue
		}

		r.roots = append(r.roots, entry)
		registryLogger.Info("Added top directory: %s (%s)", filepath.Clean(entry.Folder), entry.DisplayName)
	}

	return r
}

// BaseDir returns the absolute base directory.
func (r *Registry) BaseDir() string {
	return r.baseDir
}

// Roots returns a copy of the registered roots in configuration order.
func (r *Registry) Roots() []RootEntry {
	roots := make([]RootEntry, len(r.roots))
	copy(roots, r.roots)
	return roots
}

// Len returns the number of registered roots.
func (r *Registry) Len() int {
	return len(r.roots)
}

// Owner returns the first root whose folder lexically contains path.
func (r *Registry) Owner(path string) (RootEntry, bool) {
	clean := filepath.Clean(path)
	for _, root := range r.roots {
		if isWithin(filepath.Clean(root.Folder), clean) {
			return root, true
		}
	}
	return RootEntry{}, false
}

// ListingOwner returns the innermost root containing path. Nested roots
// carry their own options, so listings go by the deepest folder rather than
// by configuration order.
func (r *Registry) ListingOwner(path string) (RootEntry, bool) {
	clean := filepath.Clean(path)
	var (
		owner RootEntry
		found bool
		depth = -1
	)
	for _, root := range r.roots {
		folder := filepath.Clean(root.Folder)
		if isWithin(folder, clean) && len(folder) > depth {
			owner, found, depth = root, true, len(folder)
		}
	}
	return owner, found
}

// RootAt returns the root whose folder is exactly path.
func (r *Registry) RootAt(path string) (RootEntry, bool) {
	clean := filepath.Clean(path)
	for _, root := range r.roots {
		if filepath.Clean(root.Folder) == clean {
			return root, true
		}
	}
	return RootEntry{}, false
}

// contains reports whether path lies lexically inside the base directory or
// inside one of the roots.
func (r *Registry) contains(path string) bool {
	clean := filepath.Clean(path)
	if isWithin(filepath.Clean(r.baseDir), clean) {
		return true
	}
	_, ok := r.Owner(clean)
	return ok
}

// joinPath joins base and rel with a single separator. Unlike filepath.Join
// it keeps "." and ".." segments.
func joinPath(base, rel string) string {
	base = trimSeparators(base)
	rel = strings.TrimLeft(rel, string(filepath.Separator))
	if rel == "" {
		return base
	}
	if strings.HasSuffix(base, string(filepath.Separator)) {
		return base + rel
	}
	return base + string(filepath.Separator) + rel
}

// absPath makes p absolute without cleaning it.
func absPath(p string) string {
	if filepath.IsAbs(p) {
		return trimSeparators(p)
	}
	cwd, err := os.Getwd()
	if err != nil {
		return trimSeparators(p)
	}
	return joinPath(cwd, p)
}

// trimSeparators collapses repeated separators and drops a trailing one.
func trimSeparators(p string) string {
	sep := string(filepath.Separator)
	for strings.Contains(p, sep+sep) {
		p = strings.ReplaceAll(p, sep+sep, sep)
	}
	if len(p) > 1 {
		p = strings.TrimSuffix(p, sep)
	}
	return p
}

// isWithin reports whether child equals parent or lies below it. Both paths
// must already be cleaned.
func isWithin(parent, child string) bool {
	if parent == child {
		return true
	}
	if parent == string(filepath.Separator) {
		return strings.HasPrefix(child, parent)
	}
	return strings.HasPrefix(child, parent+string(filepath.Separator))
}
