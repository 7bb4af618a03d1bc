// Package payloadscan extracts artifact URLs from generation provider
// response payloads of unknown, provider-defined shape.
//
// atoms.go contains pure classification functions with no dependencies.
package payloadscan

import (
	"net/url"
	"path"
	"strings"
)

// imageKeyHints are field-name fragments that suggest a preview image URL.
var imageKeyHints = []string{
	"image", "preview", "thumb", "render", "cover", "poster",
}

// modelKeyHints are field-name fragments that suggest a downloadable 3D asset.
var modelKeyHints = []string{
	"model", "mesh", "geometry", "glb", "gltf", "obj", "usdz", "fbx", "stl",
}

// imageExtensions are file extensions treated as preview images.
var imageExtensions = map[string]bool{
	"png": true, "jpg": true, "jpeg": true, "gif": true,
	"webp": true, "bmp": true, "svg": true,
}

// modelExtensions are file extensions treated as downloadable 3D assets or
// archives containing one.
var modelExtensions = map[string]bool{
	"glb": true, "gltf": true, "obj": true, "usdz": true,
	"fbx": true, "stl": true, "zip": true,
}

// directDownloadKeys are well-known top-level fields providers commonly use
// for the authoritative download link. They are checked directly before the
// generic walk.
var directDownloadKeys = []string{
	"model_urls", "modelUrls", "downloads", "files", "glb", "obj", "mesh_url",
}

// IsHTTPURL reports whether s looks like an absolute http(s) URL.
func IsHTTPURL(s string) bool {
	lower := strings.ToLower(s)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// IsImageDataURI reports whether s is an inline base64 image data URI.
func IsImageDataURI(s string) bool {
	return strings.HasPrefix(strings.ToLower(s), "data:image/")
}

// URLExtension returns the lowercase file extension of the URL path without
// the leading dot, ignoring any query string. Returns "" when the path has no
// extension or the value cannot be parsed.
func URLExtension(raw string) string {
	parsed, err := url.Parse(raw)
	if err != nil {
		// Fall back to raw string handling for values url.Parse rejects.
		if idx := strings.IndexAny(raw, "?#"); idx >= 0 {
			raw = raw[:idx]
		}
		return strings.TrimPrefix(strings.ToLower(path.Ext(raw)), ".")
	}
	return strings.TrimPrefix(strings.ToLower(path.Ext(parsed.Path)), ".")
}

// hasKeyHint reports whether the lowercased key contains any of the hints.
func hasKeyHint(key string, hints []string) bool {
	lower := strings.ToLower(key)
	for _, hint := range hints {
		if strings.Contains(lower, hint) {
			return true
		}
	}
	return false
}

// IsImageKey reports whether a field name suggests a preview image.
func IsImageKey(key string) bool {
	return hasKeyHint(key, imageKeyHints)
}

// IsModelKey reports whether a field name suggests a downloadable 3D asset.
func IsModelKey(key string) bool {
	return hasKeyHint(key, modelKeyHints)
}

// IsImageExtension reports whether ext (without dot) is an image extension.
func IsImageExtension(ext string) bool {
	return imageExtensions[strings.ToLower(ext)]
}

// IsModelExtension reports whether ext (without dot) is a 3D/archive extension.
func IsModelExtension(ext string) bool {
	return modelExtensions[strings.ToLower(ext)]
}

// FileType classifies a download URL. The type is derived from the URL's file
// extension when it is a known 3D/archive extension, else from the
// originating field name, else "model".
func FileType(rawURL, fieldKey string) string {
	if ext := URLExtension(rawURL); IsModelExtension(ext) {
		return ext
	}
	lower := strings.ToLower(fieldKey)
	for _, hint := range []string{"glb", "gltf", "obj", "usdz", "fbx", "stl", "zip"} {
		if strings.Contains(lower, hint) {
			return hint
		}
	}
	return "model"
}
