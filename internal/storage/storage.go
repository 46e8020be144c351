// Package storage abstracts where attachment blobs live. Backends return a
// durable locator on save and accept the same locator for deletion.
package storage

import (
	"context"
	"io"
)

// Uploader persists attachment blobs.
type Uploader interface {
	// Save writes the blob under the given object name and returns its locator.
	Save(ctx context.Context, objectName, contentType string, r io.Reader) (string, error)

	// Delete removes the blob identified by a locator previously returned by
	// Save. Deleting a locator that no longer exists is not an error.
	Delete(ctx context.Context, locator string) error
}
