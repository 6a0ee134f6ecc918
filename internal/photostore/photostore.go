package photostore

import (
	"context"
	"errors"
	"io"
	"strings"
)

// ErrNotFound is returned by Get and Delete when no blob exists under the key.
var ErrNotFound = errors.New("photo not found")

// PhotoStore persists image blobs by opaque storage key.
type PhotoStore interface {
	Save(ctx context.Context, prefix, mimeType string, r io.Reader) (storageKey string, err error)
	Get(ctx context.Context, storageKey string) (io.ReadCloser, string, error)
	Delete(ctx context.Context, storageKey string) error
	// PublicURL returns a URL a browser can fetch the blob from.
	PublicURL(ctx context.Context, storageKey string) (string, error)
}

func MimeTypeToExt(mimeType string) string {
	switch mimeType {
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	default:
		return ".jpg"
	}
}

func ExtToMimeType(key string) string {
	i := strings.LastIndexByte(key, '.')
	if i < 0 {
		return "image/jpeg"
	}
	switch strings.ToLower(key[i:]) {
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	default:
		return "image/jpeg"
	}
}
