package provider

import (
	"bytes"
	"fmt"

	"github.com/disintegration/imaging"
)

// DefaultThumbnailSize is used for a zero size hint.
const DefaultThumbnailSize = 256

const thumbnailQuality = 85

// OpenDocumentThumbnail renders an image document scaled to fit within
// width x height and returns it as JPEG.
func (p *Provider) OpenDocumentThumbnail(id string, width, height int) ([]byte, error) {
	if width <= 0 {
		width = DefaultThumbnailSize
	}
	if height <= 0 {
		height = DefaultThumbnailSize
	}

	path, err := p.decode(OpThumbnail, id)
	if err != nil {
		return nil, err
	}

	doc, err := p.documentFor(path, id)
	if err != nil {
		return nil, err
	}
	if !isImage(doc.MimeType) {
		return nil, newError(OpThumbnail, id, KindInvalidArgument,
			fmt.Errorf("%w: %s is not an image (%s)", ErrInvalidArgument, id, doc.MimeType))
	}

	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, newError(OpThumbnail, id, KindIOFailure, err)
	}

	thumb := imaging.Fit(img, width, height, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, imaging.JPEG, imaging.JPEGQuality(thumbnailQuality)); err != nil {
		return nil, newError(OpThumbnail, id, KindIOFailure, err)
	}

	providerLogger.Debug("Thumbnail for %s: %dx%d, %d bytes", id,
		thumb.Bounds().Dx(), thumb.Bounds().Dy(), buf.Len())
	return buf.Bytes(), nil
}
