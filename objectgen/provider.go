// Package objectgen implements the multi-provider 3D object generation
// pipeline.
//
// provider.go defines the common adapter contract plus the HTTP plumbing
// shared by the job-based adapters.
package objectgen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Provider is the common contract for one generation backend.
//
// Attempt submits one generation job and returns a normalized outcome, or a
// *ProviderError describing why the attempt failed. Adapters never abort the
// overall request; the sequencer decides whether to continue.
type Provider interface {
	// Key identifies the provider in responses, logs, and metrics.
	Key() string

	// Attempt runs one generation attempt against this backend.
	Attempt(ctx context.Context, req *GenerationRequest, refs ResolvedReferences) (*ProviderOutcome, error)
}

// ImageOnlyProvider marks adapters that can never produce a 3-D download.
// The sequencer uses this to apply the 2-D fallback skip policy.
type ImageOnlyProvider interface {
	Provider
	ImageOnly() bool
}

// postJSON submits a JSON body and decodes the JSON response into a generic
// map. Non-2xx responses become ErrKindHTTPFailure provider errors with the
// provider's own error message extracted from the body when present.
func postJSON(ctx context.Context, client *http.Client, provider, url, bearer string, body interface{}) (map[string]interface{}, error) {
	encoded, err := json.Marshal(body)
	if err != nil {
		return nil, wrapProviderError(provider, ErrKindHTTPFailure, "failed to encode request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(encoded))
	if err != nil {
		return nil, wrapProviderError(provider, ErrKindHTTPFailure, "failed to create request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	return doJSON(client, provider, req)
}

// getJSON performs a GET and decodes the JSON response into a generic map.
func getJSON(ctx context.Context, client *http.Client, provider, url, bearer string) (map[string]interface{}, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, wrapProviderError(provider, ErrKindHTTPFailure, "failed to create request", err)
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	return doJSON(client, provider, req)
}

// doJSON executes the request and decodes the response.
func doJSON(client *http.Client, provider string, req *http.Request) (map[string]interface{}, error) {
	resp, err := client.Do(req)
	if err != nil {
		return nil, wrapProviderError(provider, ErrKindHTTPFailure, "request failed", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, wrapProviderError(provider, ErrKindHTTPFailure, "failed to read response", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, newProviderError(provider, ErrKindHTTPFailure,
			fmt.Sprintf("status %d: %s", resp.StatusCode, extractErrorMessage(raw)))
	}

	var payload map[string]interface{}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, wrapProviderError(provider, ErrKindHTTPFailure, "invalid JSON response", err)
	}
	return payload, nil
}

// extractErrorMessage pulls a human-readable message out of a provider error
// body, falling back to the raw body bounded to a sane length.
func extractErrorMessage(body []byte) string {
	var decoded map[string]interface{}
	if err := json.Unmarshal(body, &decoded); err == nil {
		for _, key := range []string{"message", "error", "detail", "title"} {
			if msg, ok := decoded[key].(string); ok && msg != "" {
				return msg
			}
			// Some providers nest the message: {"error": {"message": "..."}}
			if nested, ok := decoded[key].(map[string]interface{}); ok {
				if msg, ok := nested["message"].(string); ok && msg != "" {
					return msg
				}
			}
		}
	}

	text := truncate(strings.TrimSpace(string(body)), 300)
	if text == "" {
		text = "no error detail provided"
	}
	return text
}

// stringField returns payload[key] when it is a non-empty string.
func stringField(payload map[string]interface{}, keys ...string) string {
	for _, key := range keys {
		if value, ok := payload[key].(string); ok && value != "" {
			return value
		}
	}
	return ""
}
