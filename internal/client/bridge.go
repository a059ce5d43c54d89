package client

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"strconv"

	"unifiedfs/internal/provider"

	"github.com/gabriel-vasile/mimetype"
)

// ContentInfo describes a content or file URI.
type ContentInfo struct {
	URI         string `json:"uri"`
	DisplayName string `json:"display_name"`
	MimeType    string `json:"mime_type"`
	Size        int64  `json:"size"`     // -1 when unknown
	ModTime     int64  `json:"mod_time"` // milliseconds since the epoch
}

// Bridge opens and inspects documents by URI.
type Bridge struct {
	client *Client
}

// NewBridge wraps c.
func NewBridge(c *Client) *Bridge {
	return &Bridge{client: c}
}

// GetFileInfo describes uri. Content URIs are looked up through the server;
// file URIs and plain paths are inspected locally, with the MIME type
// detected from the file contents. Missing details fall back to the last
// path segment and application/octet-stream.
func (b *Bridge) GetFileInfo(ctx context.Context, uri string) (ContentInfo, error) {
	info := ContentInfo{URI: uri, Size: -1}

	u, err := url.Parse(uri)
	if err != nil {
		return info, err
	}

	switch u.Scheme {
	case provider.Scheme:
		_, id, err := provider.ParseContentURI(uri)
		if err != nil {
			return info, err
		}
		doc, err := b.client.QueryDocument(ctx, id)
		switch {
		case err == nil:
			info.DisplayName = doc.DisplayName
			info.MimeType = doc.MimeType
			info.Size = doc.Size
			info.ModTime = doc.LastModified
		case IsNotFound(err):
			clientLogger.Debug("No row for %s: %v", uri, err)
		default:
			return info, err
		}

	case "", "file":
		if st, err := os.Stat(u.Path); err == nil {
			info.Size = st.Size()
			info.ModTime = st.ModTime().UnixMilli()
			if !st.IsDir() {
				if mtype, err := mimetype.DetectFile(u.Path); err == nil {
					info.MimeType = mtype.String()
				}
			} else {
				info.MimeType = provider.MimeTypeDirectory
			}
		}
	}

	if info.DisplayName == "" {
		info.DisplayName = path.Base(u.Path)
	}
	if info.MimeType == "" {
		info.MimeType = provider.MimeTypeDefault
	}
	return info, nil
}

// OpenRawReadOnly opens a content URI for reading and returns its handle.
func (b *Bridge) OpenRawReadOnly(ctx context.Context, uri string) (int, error) {
	_, id, err := provider.ParseContentURI(uri)
	if err != nil {
		return provider.InvalidHandle, err
	}

	req := struct {
		DocumentID string `json:"document_id"`
		Mode       string `json:"mode"`
	}{id, provider.ModeRead}

	var resp struct {
		Handle int `json:"handle"`
	}
	if err := b.client.postJSON(ctx, "/open", nil, req, &resp); err != nil {
		clientLogger.Debug("Open file failure: %s: %v", uri, err)
		return provider.InvalidHandle, err
	}
	clientLogger.Debug("File opened: %s (handle=%d)", uri, resp.Handle)
	return resp.Handle, nil
}

// ReadAt reads up to length bytes from handle at offset. A short result
// means end of file.
func (b *Bridge) ReadAt(ctx context.Context, handle int, offset int64, length int) ([]byte, error) {
	query := url.Values{
		"handle": {strconv.Itoa(handle)},
		"offset": {strconv.FormatInt(offset, 10)},
		"length": {strconv.Itoa(length)},
	}
	req, err := b.client.newRequest(ctx, http.MethodGet, "/read", query, nil, "")
	if err != nil {
		return nil, err
	}

	resp, err := b.client.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, decodeError(resp)
	}
	return io.ReadAll(resp.Body)
}

// Close releases handle. Closing an unknown handle is not an error.
func (b *Bridge) Close(ctx context.Context, handle int) error {
	err := b.client.postJSON(ctx, "/close", url.Values{"handle": {strconv.Itoa(handle)}}, nil, nil)
	if errors.Is(err, provider.ErrInvalidArgument) {
		clientLogger.Debug("Close file: handle=%d was not open", handle)
		return nil
	}
	return err
}
