package objectgen

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"studio_backend/logging"
)

// stubStore records uploads and serves canned public URLs.
type stubStore struct {
	keys    []string
	failure error
}

func (s *stubStore) Upload(ctx context.Context, key, contentType string, data []byte) (string, error) {
	if s.failure != nil {
		return "", s.failure
	}
	s.keys = append(s.keys, key)
	return "https://cdn.example.com/" + key, nil
}

// pngDataURI builds a valid inline PNG reference for tests.
func pngDataURI(t *testing.T) string {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode test image: %v", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

func TestResolveAbsentReference(t *testing.T) {
	resolver := NewReferenceResolver(&stubStore{}, logging.NewNop())

	asset := resolver.Resolve(context.Background(), "", "product")
	if asset.Present() {
		t.Error("absent reference should not be present")
	}
	if asset.Note != "" {
		t.Errorf("absent reference should carry no note, got %q", asset.Note)
	}
}

func TestResolvePassesThroughHTTPURL(t *testing.T) {
	resolver := NewReferenceResolver(&stubStore{}, logging.NewNop())
	url := "https://example.com/product.png"

	asset := resolver.Resolve(context.Background(), url, "product")
	if asset.ResolvedURL != url {
		t.Errorf("ResolvedURL = %q, want %q", asset.ResolvedURL, url)
	}
	if asset.Note != "" {
		t.Errorf("URL passthrough should carry no note, got %q", asset.Note)
	}
}

func TestResolveUploadsInlineImage(t *testing.T) {
	store := &stubStore{}
	resolver := NewReferenceResolver(store, logging.NewNop())

	asset := resolver.Resolve(context.Background(), pngDataURI(t), "product")
	if !asset.Resolved() {
		t.Fatalf("inline image was not resolved, note: %q", asset.Note)
	}
	if !strings.HasPrefix(asset.ResolvedURL, "https://cdn.example.com/references/product-") {
		t.Errorf("unexpected resolved URL %q", asset.ResolvedURL)
	}
	if len(store.keys) != 1 {
		t.Fatalf("expected 1 upload, got %d", len(store.keys))
	}
	if !strings.HasSuffix(store.keys[0], ".png") {
		t.Errorf("upload key %q should carry a .png extension", store.keys[0])
	}
}

func TestResolveDowngradesInsteadOfFailing(t *testing.T) {
	tests := []struct {
		name         string
		raw          string
		store        *stubStore
		expectedNote string
	}{
		{
			name:         "non-image data URI",
			raw:          "data:text/plain;base64,aGVsbG8=",
			store:        &stubStore{},
			expectedNote: "invalid format",
		},
		{
			name:         "undecodable image payload",
			raw:          "data:image/png;base64,bm90IGEgcG5n",
			store:        &stubStore{},
			expectedNote: "could not be decoded",
		},
		{
			name:         "storage disabled",
			raw:          "data:image/png;base64,aGVsbG8=",
			store:        nil,
			expectedNote: "storage disabled",
		},
		{
			name:         "upload failure",
			raw:          "",
			store:        &stubStore{failure: errors.New("cdn unavailable")},
			expectedNote: "could not be uploaded",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := tt.raw
			if raw == "" {
				raw = pngDataURI(t)
			}

			var resolver *ReferenceResolver
			if tt.store == nil {
				resolver = NewReferenceResolver(nil, logging.NewNop())
			} else {
				resolver = NewReferenceResolver(tt.store, logging.NewNop())
			}

			asset := resolver.Resolve(context.Background(), raw, "brand")
			if asset.Resolved() {
				t.Fatal("expected an unresolved asset")
			}
			if asset.Raw != raw {
				t.Error("raw value should be retained on downgrade")
			}
			if !strings.Contains(asset.Note, tt.expectedNote) {
				t.Errorf("note %q does not mention %q", asset.Note, tt.expectedNote)
			}
		})
	}
}

func TestResolveAllHandlesBothSlots(t *testing.T) {
	store := &stubStore{}
	resolver := NewReferenceResolver(store, logging.NewNop())

	req, err := NormalizeRequest(RawGenerationRequest{
		Prompt: "a chair",
		References: &RawReferences{
			Product: "https://example.com/product.png",
			Brand:   "data:text/plain;base64,aGVsbG8=",
		},
	})
	if err != nil {
		t.Fatalf("NormalizeRequest returned error: %v", err)
	}

	refs := resolver.ResolveAll(context.Background(), req)
	if refs.Product.ResolvedURL != "https://example.com/product.png" {
		t.Errorf("product slot not resolved: %+v", refs.Product)
	}
	if refs.Brand.Resolved() {
		t.Error("brand slot should not have resolved")
	}
	if notes := refs.Notes(); len(notes) != 1 {
		t.Errorf("expected exactly one note, got %v", notes)
	}
	if urls := refs.URLs(); len(urls) != 1 {
		t.Errorf("expected exactly one resolved URL, got %v", urls)
	}
}
