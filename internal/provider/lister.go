package provider

import (
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

var (
	listLogger = providerLogger.WithPrefix("lister")
)

// Document is one row of a document listing.
type Document struct {
	DocumentID   string `json:"document_id"`
	DisplayName  string `json:"_display_name"`
	MimeType     string `json:"mime_type"`
	Size         int64  `json:"_size"`
	LastModified int64  `json:"last_modified"`
	Flags        int    `json:"flags"`
	Icon         int    `json:"icon,omitempty"`
}

// IsDir reports whether the row describes a directory.
func (d Document) IsDir() bool {
	return d.MimeType == MimeTypeDirectory
}

// RootInfo describes the provider's single logical root.
type RootInfo struct {
	RootID         string `json:"root_id"`
	Title          string `json:"title"`
	Summary        string `json:"summary"`
	Flags          int    `json:"flags"`
	DocumentID     string `json:"document_id"`
	MimeTypes      string `json:"mime_types"`
	Icon           int    `json:"icon"`
	AvailableBytes int64  `json:"available_bytes"`
}

// QueryRoots returns the root descriptor row.
func (p *Provider) QueryRoots() []RootInfo {
	root := RootInfo{
		RootID:     RootID,
		Title:      p.cfg.Title,
		Summary:    p.cfg.Description,
		Flags:      p.caps.RootFlags,
		DocumentID: RootID,
		MimeTypes:  RootMimeTypes,
		Icon:       p.cfg.Icon,
	}

	var st unix.Statfs_t
	if err := unix.Statfs(p.codec.BaseDir(), &st); err != nil {
		listLogger.Warn("Cannot read free space of %s: %v", p.codec.BaseDir(), err)
	} else {
		root.AvailableBytes = int64(st.Bavail) * int64(st.Bsize)
	}

	return []RootInfo{root}
}

// QueryDocument returns the row for a single document. Rows for configured
// top directories carry the directory's display name and icon.
func (p *Provider) QueryDocument(id string) (Document, error) {
	listLogger.Trace("queryDocument: documentId=%s", id)

	path, err := p.decode(OpQuery, id)
	if err != nil {
		return Document{}, err
	}

	doc, err := p.documentFor(path, id)
	if err != nil {
		return Document{}, err
	}
	if IsRoot(id) {
		return doc, nil
	}
	if root, ok := p.registry.RootAt(path); ok {
		doc.DisplayName = root.DisplayName
		doc.Icon = root.IconID
	}
	return doc, nil
}

// QueryChildDocuments lists the immediate children of a document. The
// synthetic root lists the top directories in configuration order, any other
// directory lists its entries sorted by name.
func (p *Provider) QueryChildDocuments(parentID string) ([]Document, error) {
	listLogger.Trace("queryChildDocuments: parentDocumentId=%s", parentID)

	if IsRoot(parentID) {
		return p.topDirs(), nil
	}

	parent, err := p.decode(OpList, parentID)
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(parent)
	if err != nil {
		return nil, newError(OpList, parentID, KindIOFailure, err)
	}

	noSubdirs := false
	if root, ok := p.registry.ListingOwner(parent); ok {
		noSubdirs = root.Options.NoSubdirs
	}

	docs := make([]Document, 0, len(entries))
	for _, entry := range entries {
		child := joinPath(parent, entry.Name())
		doc, err := p.documentFor(child, "")
		if err != nil {
			listLogger.Debug("Skipping %s: %v", child, err)
			continue
		}
		if noSubdirs && doc.IsDir() {
			continue
		}
		docs = append(docs, doc)
	}

	listLogger.Debug("Directory %s contains %d documents", parentID, len(docs))
	return docs, nil
}

func (p *Provider) topDirs() []Document {
	roots := p.registry.Roots()
	docs := make([]Document, 0, len(roots))

	for _, root := range roots {
		info, err := os.Stat(root.Folder)
		if err != nil {
			listLogger.Warn("Top directory %s is gone: %v", root.Folder, err)
			continue
		}

		flags := 0
		if writable(root.Folder) {
			flags |= FlagDirSupportsCreate
		}

		docs = append(docs, Document{
			DocumentID:   p.codec.Encode(root.Folder),
			DisplayName:  root.DisplayName,
			MimeType:     MimeTypeDirectory,
			Size:         info.Size(),
			LastModified: info.ModTime().UnixMilli(),
			Flags:        p.caps.Mask(flags),
			Icon:         root.IconID,
		})
	}
	return docs
}

// documentFor builds the row for path. An empty id is derived from the path.
func (p *Provider) documentFor(path, id string) (Document, error) {
	if id == "" {
		id = p.codec.Encode(path)
	}

	info, err := os.Stat(path)
	if err != nil {
		return Document{}, newError(OpQuery, id, KindNotFound, err)
	}

	flags := 0
	mimeType := MimeTypeDirectory
	if info.IsDir() {
		if writable(path) {
			flags |= FlagDirSupportsCreate
		}
	} else {
		mimeType = p.mimes.TypeForName(info.Name())
		if writable(path) {
			flags |= fileWriteFlags
		}
	}
	if isImage(mimeType) {
		flags |= FlagSupportsThumbnail
	}

	return Document{
		DocumentID:   id,
		DisplayName:  filepath.Base(path),
		MimeType:     mimeType,
		Size:         info.Size(),
		LastModified: info.ModTime().UnixMilli(),
		Flags:        p.caps.Mask(flags),
	}, nil
}
