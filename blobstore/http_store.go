// Package blobstore publishes binary objects to the external object storage
// service and returns publicly fetchable URLs.
//
// http_store.go implements the Store interface against the storage service's
// HTTP upload API.
package blobstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"studio_backend/core"
)

// DefaultUploadTimeout bounds a single upload request.
const DefaultUploadTimeout = 30 * time.Second

// HTTPStore uploads objects with a single PUT per object.
//
// Thread Safety: HTTPStore is safe for concurrent use; each upload creates
// its own HTTP request.
type HTTPStore struct {
	client        *http.Client
	endpoint      string
	apiKey        string
	publicBaseURL string
}

// HTTPStoreConfig holds configuration for the HTTP blob store.
type HTTPStoreConfig struct {
	// Endpoint is the base upload URL of the storage service (required).
	Endpoint string

	// APIKey authorizes uploads (optional, sent as a bearer token when set).
	APIKey string

	// PublicBaseURL is the base URL under which stored objects are publicly
	// reachable (required).
	PublicBaseURL string

	// HTTPClient is the client for upload requests (optional).
	HTTPClient *http.Client
}

// NewHTTPStore creates a blob store client for the storage service.
//
// Returns an error if the endpoint or public base URL is missing.
func NewHTTPStore(config HTTPStoreConfig) (*HTTPStore, error) {
	if config.Endpoint == "" {
		return nil, fmt.Errorf("blobstore: endpoint is required")
	}
	if config.PublicBaseURL == "" {
		return nil, fmt.Errorf("blobstore: public base URL is required")
	}

	client := config.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: DefaultUploadTimeout}
	}

	return &HTTPStore{
		client:        client,
		endpoint:      strings.TrimRight(config.Endpoint, "/"),
		apiKey:        config.APIKey,
		publicBaseURL: strings.TrimRight(config.PublicBaseURL, "/"),
	}, nil
}

// NewHTTPStoreFromConfig builds an HTTPStore from the application config.
// Returns (nil, nil) when storage is not configured; callers treat a nil
// store as "uploads disabled".
func NewHTTPStoreFromConfig(cfg *core.Config) (*HTTPStore, error) {
	if cfg == nil || !cfg.HasStorage() {
		return nil, nil
	}
	return NewHTTPStore(HTTPStoreConfig{
		Endpoint:      cfg.StorageEndpoint,
		APIKey:        cfg.StorageAPIKey,
		PublicBaseURL: cfg.StoragePublicURL,
		HTTPClient:    core.GetHTTPClient(cfg, DefaultUploadTimeout),
	})
}

// Upload stores data under key and returns the public URL.
//
// The upload is a single PUT to <endpoint>/<key>; there are no retries.
// Callers degrade to "no public URL" on failure rather than aborting their
// own request.
func (s *HTTPStore) Upload(ctx context.Context, key, contentType string, data []byte) (string, error) {
	if key == "" {
		return "", fmt.Errorf("blobstore: key cannot be empty")
	}
	if len(data) == 0 {
		return "", fmt.Errorf("blobstore: data cannot be empty")
	}

	uploadURL := s.endpoint + "/" + strings.TrimLeft(key, "/")
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, uploadURL, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("blobstore: failed to create upload request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("blobstore: upload failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("blobstore: upload returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	return s.publicBaseURL + "/" + strings.TrimLeft(key, "/"), nil
}

// PublicURL returns the public URL an object stored under key would have.
func (s *HTTPStore) PublicURL(key string) string {
	return s.publicBaseURL + "/" + strings.TrimLeft(key, "/")
}

// Ensure HTTPStore implements Store at compile time.
var _ Store = (*HTTPStore)(nil)
