package storage

import (
	"context"
	"io"
)

// Uploader is the archival sink for synthesized replies, kept past the
// playback blob's expiry.
type Uploader interface {
	Upload(ctx context.Context, objectName string, contentType string, r io.Reader) (storedPath string, err error)
}
