package provider

import (
	"context"
	"io/fs"
	"path/filepath"
	"strings"
)

// DefaultSearchLimit bounds a search when the caller passes no limit.
const DefaultSearchLimit = 100

// SearchDocuments finds documents whose names contain query, ignoring case.
// Top directories are searched in configuration order. Subdirectories of a
// nosubdirs top directory are neither searched nor returned.
func (p *Provider) SearchDocuments(ctx context.Context, query string, limit int) ([]Document, error) {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	needle := strings.ToLower(query)
	if needle == "" {
		return []Document{}, nil
	}

	results := []Document{}
	seen := make(map[string]bool)

	for _, root := range p.registry.Roots() {
		// WalkDir does not follow a symlinked starting point.
		base, err := filepath.EvalSymlinks(root.Folder)
		if err != nil {
			listLogger.Debug("search: skipping top directory %s: %v", root.Folder, err)
			continue
		}

		err = filepath.WalkDir(base, func(path string, d fs.DirEntry, err error) error {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			if err != nil {
				listLogger.Debug("search: skipping %s: %v", path, err)
				if d != nil && d.IsDir() {
					return fs.SkipDir
				}
				return nil
			}
			if path == base {
				return nil
			}

			// Keep the configured folder prefix so the ID matches listings.
			rel := strings.TrimPrefix(path[len(base):], string(filepath.Separator))
			child := joinPath(root.Folder, rel)
			if d.IsDir() && p.hidesSubdir(child) {
				return fs.SkipDir
			}
			if seen[path] || !strings.Contains(strings.ToLower(d.Name()), needle) {
				return nil
			}
			seen[path] = true

			doc, err := p.documentFor(child, "")
			if err != nil {
				return nil
			}
			results = append(results, doc)
			if len(results) >= limit {
				return fs.SkipAll
			}
			return nil
		})
		if err != nil {
			return results, newError(OpSearch, query, KindIOFailure, err)
		}
		if len(results) >= limit {
			break
		}
	}

	providerLogger.Debug("search %q: %d results", query, len(results))
	return results, nil
}

// hidesSubdir reports whether dir sits below a nosubdirs top directory. The
// top directory itself is not hidden.
func (p *Provider) hidesSubdir(dir string) bool {
	owner, ok := p.registry.ListingOwner(dir)
	if !ok || !owner.Options.NoSubdirs {
		return false
	}
	return filepath.Clean(owner.Folder) != filepath.Clean(dir)
}
