package provider

import (
	"fmt"
	"path/filepath"
	"strings"
)

// DocumentPath is the chain of document IDs leading to a document. RootID is
// set when the chain starts at the synthetic root.
type DocumentPath struct {
	RootID string   `json:"root_id,omitempty"`
	Path   []string `json:"path"`
}

// IsChildDocument reports whether childID lies below parentID. Every
// decodable document is a child of the synthetic root. Decode failures
// report false.
func (p *Provider) IsChildDocument(parentID, childID string) bool {
	child, err := p.decode(OpQuery, childID)
	if err != nil {
		providerLogger.Debug("isChildDocument: %v", err)
		return false
	}
	if IsRoot(parentID) {
		return true
	}

	parent, err := p.decode(OpQuery, parentID)
	if err != nil {
		providerLogger.Debug("isChildDocument: %v", err)
		return false
	}

	c, pa := filepath.Clean(child), filepath.Clean(parent)
	return c != pa && isWithin(pa, c)
}

// FindDocumentPath returns the IDs from parentID down to childID, both
// included. An empty parentID means the synthetic root, in which case the
// chain starts at the top directory that owns the child.
func (p *Provider) FindDocumentPath(parentID, childID string) (DocumentPath, error) {
	if parentID == "" {
		parentID = RootID
	}

	child, err := p.decode(OpQuery, childID)
	if err != nil {
		return DocumentPath{}, err
	}

	var result DocumentPath
	var start string
	if IsRoot(parentID) {
		root, ok := p.registry.Owner(child)
		if !ok {
			return DocumentPath{}, newError(OpQuery, childID, KindNotFound,
				fmt.Errorf("%w: %s is not under any top directory", ErrNotFound, childID))
		}
		result.RootID = RootID
		start = root.Folder
	} else {
		if start, err = p.decode(OpQuery, parentID); err != nil {
			return DocumentPath{}, err
		}
	}

	from, to := filepath.Clean(start), filepath.Clean(child)
	if !isWithin(from, to) {
		return DocumentPath{}, newError(OpQuery, childID, KindNotFound,
			fmt.Errorf("%w: %s is not under %s", ErrNotFound, childID, parentID))
	}

	result.Path = append(result.Path, p.codec.Encode(start))
	if rel := strings.TrimPrefix(to[len(from):], string(filepath.Separator)); rel != "" {
		cur := start
		for _, part := range strings.Split(rel, string(filepath.Separator)) {
			cur = joinPath(cur, part)
			result.Path = append(result.Path, p.codec.Encode(cur))
		}
	}
	return result, nil
}
