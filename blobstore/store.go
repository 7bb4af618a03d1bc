// Package blobstore publishes binary objects to the external object storage
// service and returns publicly fetchable URLs.
//
// Storage is optional: when the service is not configured the rest of the
// application receives a nil Store and degrades gracefully (inline reference
// images stay unpublished, the 2-D fallback returns data URIs).
package blobstore

import (
	"context"
)

// Store uploads binary objects and returns their public URLs.
type Store interface {
	// Upload stores data under key with the given content type and returns
	// the publicly reachable URL of the stored object.
	Upload(ctx context.Context, key, contentType string, data []byte) (string, error)
}
