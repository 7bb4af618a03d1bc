// Package objectgen implements the multi-provider 3D object generation
// pipeline: request normalization, reference resolution, the provider
// adapter set, and the attempt sequencing policy that merges artifacts
// across providers.
package objectgen

// RenderItem is a 2-D preview image of the generated subject. It is not
// guaranteed to be downloadable as a 3-D asset.
type RenderItem struct {
	URL      string `json:"url"`
	Provider string `json:"provider"`
	Format   string `json:"format,omitempty"`
	Angle    string `json:"angle,omitempty"`
}

// DownloadItem is a fetchable file representing the generated 3-D asset or
// an archive containing one.
type DownloadItem struct {
	URL      string `json:"url"`
	Type     string `json:"type"`
	Provider string `json:"provider"`
}

// ProviderOutcome is the normalized result of one provider attempt.
type ProviderOutcome struct {
	Provider  string         `json:"provider"`
	Renders   []RenderItem   `json:"renders"`
	Downloads []DownloadItem `json:"downloads"`
	Notes     []string       `json:"notes,omitempty"`
}

// ReferenceAsset is a user-supplied reference image in raw and resolved form.
//
// Raw holds the value exactly as submitted (inline base64 image or external
// URL); it is retained even when unresolvable so providers that accept inline
// payloads can still use it. ResolvedURL is a publicly reachable URL, or
// empty with Note explaining why resolution was not possible.
type ReferenceAsset struct {
	Raw         string
	ResolvedURL string
	Note        string
}

// Present reports whether a reference value was supplied at all.
func (a ReferenceAsset) Present() bool {
	return a.Raw != ""
}

// Resolved reports whether the reference has a publicly fetchable URL.
func (a ReferenceAsset) Resolved() bool {
	return a.ResolvedURL != ""
}

// ResolvedReferences carries the two optional reference slots after
// resolution.
type ResolvedReferences struct {
	Product ReferenceAsset
	Brand   ReferenceAsset
}

// URLs returns the resolved reference URLs in slot order, skipping
// unresolved slots.
func (r ResolvedReferences) URLs() []string {
	var urls []string
	if r.Product.Resolved() {
		urls = append(urls, r.Product.ResolvedURL)
	}
	if r.Brand.Resolved() {
		urls = append(urls, r.Brand.ResolvedURL)
	}
	return urls
}

// Notes returns the resolution notes from both slots.
func (r ResolvedReferences) Notes() []string {
	var notes []string
	if r.Product.Note != "" {
		notes = append(notes, r.Product.Note)
	}
	if r.Brand.Note != "" {
		notes = append(notes, r.Brand.Note)
	}
	return notes
}

// GenerationResult is the final outcome of one generation request across all
// provider attempts.
type GenerationResult struct {
	// Provider is the key of the provider whose artifacts won.
	Provider string `json:"provider"`

	// ProvidersTried lists every provider attempted, in order.
	ProvidersTried []string `json:"providersTried"`

	// Renders are the preview images accompanying the result.
	Renders []RenderItem `json:"renders"`

	// Downloads are the unique downloadable 3-D assets collected. Empty on a
	// degraded (2-D only) result.
	Downloads []DownloadItem `json:"downloads,omitempty"`

	// Notes carry human-readable caveats (unresolved references, degraded
	// results).
	Notes []string `json:"notes,omitempty"`

	// CorrelationID ties the result to the request's log lines and history
	// record. Not part of the response body.
	CorrelationID string `json:"-"`
}
