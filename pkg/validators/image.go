package validators

import (
	"errors"
	"fmt"
	"io"
	"mime"

	"github.com/gabriel-vasile/mimetype"
)

var ErrImageTypeUnsupported = errors.New("unsupported image type")

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
}

// ImageValidator checks both the declared content type, which is easy to
// spoof but cheap, and the sniffed type of the content itself. On success it
// returns the canonical extension for the image and rewinds r.
func ImageValidator(contentType string, r io.ReadSeeker) (string, error) {
	declared, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return "", ErrImageTypeUnsupported
	}

	ext, ok := imageExtensions[declared]
	if !ok {
		return "", ErrImageTypeUnsupported
	}

	detected, err := mimetype.DetectReader(r)
	if err != nil {
		return "", fmt.Errorf("failed to detect image type, %w", err)
	}

	if !detected.Is(declared) {
		return "", ErrImageTypeUnsupported
	}

	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("failed to rewind image, %w", err)
	}

	return ext, nil
}
