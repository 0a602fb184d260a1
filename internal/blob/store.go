// Package blob talks to the S3-compatible object store that holds
// uploaded media. URLs it issues live under a single public host, which
// is how the rest of the system tells managed assets apart from
// third-party images.
package blob

import "context"

// Store is the minimal contract the core needs from object storage.
type Store interface {
	// Store uploads data under the given key and returns the public URL.
	Store(ctx context.Context, key string, data []byte, contentType string) (string, error)
	// Delete removes the object behind a previously issued URL.
	Delete(ctx context.Context, url string) error
}
