// Package payloadscan extracts artifact URLs from generation provider
// response payloads of unknown, provider-defined shape.
//
// scanner.go implements the recursive payload walk. Every provider returns
// success payloads in its own JSON shape; the scanner visits every string
// leaf and classifies it as a preview image URL or a downloadable 3D asset
// URL using the field-name and extension heuristics from atoms.go.
//
// Already-visited containers are tracked so the walk terminates even on
// self-referential structures. Real API payloads are acyclic, but the
// algorithm must not assume so.
package payloadscan

import (
	"reflect"
)

// DownloadRef is a downloadable asset URL together with its inferred type.
type DownloadRef struct {
	// URL is the fetchable asset location.
	URL string
	// Type is the inferred file type: glb|gltf|obj|usdz|fbx|stl|zip|model.
	Type string
}

// ImageURLs returns the unique preview-image URLs found anywhere in payload.
//
// A string leaf qualifies when it is an http(s) URL or inline image data URI,
// its field key or extension marks it as an image (data URIs always qualify),
// and its extension is not a known 3D-model extension. Order of the result is
// unspecified; uniqueness is the only contract.
func ImageURLs(payload interface{}) []string {
	var urls []string
	seen := map[string]bool{}

	walk(payload, "", newVisitSet(), func(key, value string) {
		if !isImageCandidate(key, value) {
			return
		}
		if !seen[value] {
			seen[value] = true
			urls = append(urls, value)
		}
	})

	return urls
}

// DownloadRefs returns the unique downloadable-asset URLs found anywhere in
// payload, each classified via FileType.
//
// Well-known top-level fields (model_urls, downloads, files, glb, obj,
// mesh_url and friends) are checked directly first: values under them count
// as downloads even without a matching extension or key hint, because
// providers commonly place the authoritative link there. The generic walk
// then picks up everything else.
func DownloadRefs(payload interface{}) []DownloadRef {
	var refs []DownloadRef
	seen := map[string]bool{}

	add := func(key, value string) {
		if seen[value] {
			return
		}
		seen[value] = true
		refs = append(refs, DownloadRef{URL: value, Type: FileType(value, key)})
	}

	// Direct check of well-known fields on the top-level object.
	if top, ok := payload.(map[string]interface{}); ok {
		for _, key := range directDownloadKeys {
			value, present := top[key]
			if !present {
				continue
			}
			walk(value, key, newVisitSet(), func(innerKey, s string) {
				if IsHTTPURL(s) {
					add(innerKey, s)
				}
			})
		}
	}

	// Generic walk over the whole payload.
	walk(payload, "", newVisitSet(), func(key, value string) {
		if !isDownloadCandidate(key, value) {
			return
		}
		add(key, value)
	})

	return refs
}

// isImageCandidate applies the image qualification rules to one string leaf.
func isImageCandidate(key, value string) bool {
	if IsImageDataURI(value) {
		return true
	}
	if !IsHTTPURL(value) {
		return false
	}
	ext := URLExtension(value)
	if IsModelExtension(ext) {
		return false
	}
	return IsImageKey(key) || IsImageExtension(ext)
}

// isDownloadCandidate applies the download qualification rules to one string leaf.
func isDownloadCandidate(key, value string) bool {
	if !IsHTTPURL(value) {
		return false
	}
	return IsModelExtension(URLExtension(value)) || IsModelKey(key)
}

// visitSet tracks container identities already entered during a walk.
type visitSet map[uintptr]bool

func newVisitSet() visitSet {
	return make(visitSet)
}

// enter records a container and reports whether it was seen before.
// Containers are identified by their backing-store pointer.
func (v visitSet) enter(container interface{}) bool {
	ptr := reflect.ValueOf(container).Pointer()
	if v[ptr] {
		return false
	}
	v[ptr] = true
	return true
}

// walk recursively visits every string leaf in a JSON-like value, calling
// visit with the nearest enclosing field key. Array elements inherit the key
// of the field that holds the array.
func walk(value interface{}, key string, seen visitSet, visit func(key, value string)) {
	switch v := value.(type) {
	case map[string]interface{}:
		if !seen.enter(v) {
			return
		}
		for childKey, child := range v {
			walk(child, childKey, seen, visit)
		}
	case []interface{}:
		if len(v) > 0 && !seen.enter(v) {
			return
		}
		for _, child := range v {
			walk(child, key, seen, visit)
		}
	case string:
		visit(key, v)
	}
	// Numbers, booleans, and nulls carry no URLs.
}
