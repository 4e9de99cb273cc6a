// Package storage persists uploaded files and builds the public links to them
package storage

import (
	"context"
	"io"
)

// Sink is where uploaded files end up. Keys are slash separated and relative,
// e.g. profile_images/abc.png
type Sink interface {
	Write(ctx context.Context, key string, body io.Reader, contentType string) error
	// Delete removes key. A key that doesn't exist is not an error.
	Delete(ctx context.Context, key string) error
	// URL returns the absolute URL key is served from
	URL(key string) string
}
