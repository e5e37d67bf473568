// Package storage defines the interface for a blob storage provider.
// This abstraction keeps the upload pipeline independent of a specific
// backend (Google Cloud Storage in production, memory in tests).
package storage

import (
	"context"
	"io"
)

// Provider writes document bytes under a storage key and returns a location
// descriptor for the stored object.
type Provider interface {
	// PutObject uploads the reader's content under key with the given
	// content type and returns the object's location.
	PutObject(ctx context.Context, key string, contentType string, r io.Reader) (string, error)
}
