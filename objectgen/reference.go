// Package objectgen implements the multi-provider 3D object generation
// pipeline.
//
// reference.go resolves user-supplied reference images (inline base64 or
// external URLs) into publicly fetchable URLs, uploading to blob storage
// when needed. Resolution failures never abort the request; they downgrade
// to "no public URL" with an explanatory note.
package objectgen

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"strings"
	"sync"

	"studio_backend/blobstore"
	"studio_backend/logging"

	"github.com/google/uuid"
	"go.uber.org/zap"

	// Image decoders registered for reference validation.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"
)

// mimeExtensions maps inline image MIME types to storage file extensions.
var mimeExtensions = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/jpg":  ".jpg",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// ReferenceResolver turns raw reference values into publicly fetchable URLs.
//
// Thread Safety: safe for concurrent use; the two reference slots of one
// request are resolved in parallel.
type ReferenceResolver struct {
	store  blobstore.Store // nil when storage is disabled
	logger *logging.Logger
}

// NewReferenceResolver creates a resolver. A nil store disables uploads:
// inline images then stay unresolved with a note, while external URLs still
// pass through.
func NewReferenceResolver(store blobstore.Store, logger *logging.Logger) *ReferenceResolver {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &ReferenceResolver{
		store:  store,
		logger: logger.Named("references"),
	}
}

// ResolveAll resolves the two reference slots of a request concurrently.
func (r *ReferenceResolver) ResolveAll(ctx context.Context, req *GenerationRequest) ResolvedReferences {
	var refs ResolvedReferences
	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		refs.Product = r.Resolve(ctx, req.ProductRef(), "product")
	}()
	go func() {
		defer wg.Done()
		refs.Brand = r.Resolve(ctx, req.BrandRef(), "brand")
	}()
	wg.Wait()

	return refs
}

// Resolve resolves a single raw reference value.
//
// Rules:
//   - absent value: no resolved URL, no note
//   - http(s) URL: passes through unchanged
//   - inline base64 image with storage enabled: decoded, validated, and
//     uploaded under a fresh random key; the public URL becomes the resolved
//     form. Decode or upload failure downgrades to a note.
//   - inline image with storage disabled: unresolved, with a note that some
//     providers may ignore the reference; the raw form is retained in the
//     request for providers that accept inline payloads.
//   - anything else: unresolved with an "invalid format" note.
func (r *ReferenceResolver) Resolve(ctx context.Context, raw, keyPrefix string) ReferenceAsset {
	if raw == "" {
		return ReferenceAsset{}
	}

	asset := ReferenceAsset{Raw: raw}

	if isHTTPURL(raw) {
		asset.ResolvedURL = raw
		return asset
	}

	if !strings.HasPrefix(strings.ToLower(raw), "data:image/") {
		asset.Note = fmt.Sprintf("%s reference has an invalid format and was ignored", keyPrefix)
		return asset
	}

	if r.store == nil {
		asset.Note = fmt.Sprintf("%s reference could not be published (storage disabled); some providers may ignore it", keyPrefix)
		return asset
	}

	data, mimeType, err := decodeImageDataURI(raw)
	if err != nil {
		r.logger.Warn("reference decode failed",
			zap.String("slot", keyPrefix),
			zap.Error(err))
		asset.Note = fmt.Sprintf("%s reference could not be decoded and was ignored", keyPrefix)
		return asset
	}

	ext := mimeExtensions[mimeType]
	if ext == "" {
		ext = ".png"
	}
	key := fmt.Sprintf("references/%s-%s%s", keyPrefix, uuid.New().String(), ext)

	// One upload attempt, no retries: failure degrades to "no public URL"
	// rather than aborting the request.
	publicURL, err := r.store.Upload(ctx, key, mimeType, data)
	if err != nil {
		r.logger.Warn("reference upload failed",
			zap.String("slot", keyPrefix),
			zap.Error(err))
		asset.Note = fmt.Sprintf("%s reference could not be uploaded; some providers may ignore it", keyPrefix)
		return asset
	}

	r.logger.Debug("reference published",
		zap.String("slot", keyPrefix),
		zap.String("key", key))
	asset.ResolvedURL = publicURL
	return asset
}

// decodeImageDataURI decodes an inline base64 image and validates that the
// payload really is a decodable image. Returns the raw bytes and MIME type.
func decodeImageDataURI(raw string) ([]byte, string, error) {
	header, encoded, found := strings.Cut(raw, ",")
	if !found {
		return nil, "", fmt.Errorf("missing data separator")
	}

	header = strings.TrimPrefix(strings.ToLower(header), "data:")
	mimeType, params, _ := strings.Cut(header, ";")
	if !strings.HasPrefix(mimeType, "image/") {
		return nil, "", fmt.Errorf("unsupported media type %q", mimeType)
	}
	if !strings.Contains(params, "base64") {
		return nil, "", fmt.Errorf("reference data is not base64 encoded")
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, "", fmt.Errorf("invalid base64 payload: %w", err)
	}

	if _, _, err := image.DecodeConfig(bytes.NewReader(data)); err != nil {
		return nil, "", fmt.Errorf("payload is not a decodable image: %w", err)
	}

	return data, mimeType, nil
}

// isHTTPURL reports whether the value is an absolute http(s) URL.
func isHTTPURL(s string) bool {
	lower := strings.ToLower(s)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}
