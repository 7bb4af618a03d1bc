// Package objectgen implements the multi-provider 3D object generation
// pipeline.
//
// aggregator.go accumulates artifacts across provider attempts within one
// request. Download URLs are unique; renders keep the first non-empty set
// observed as the fallback for degraded results.
package objectgen

// ResultAggregator merges download artifacts across provider attempts and
// tracks the best-available preview renders. State lives for one request
// only and is never shared across requests.
type ResultAggregator struct {
	downloads       []DownloadItem
	seenURLs        map[string]bool
	fallbackRenders []RenderItem
	renderProvider  string
}

// NewResultAggregator creates an empty aggregator.
func NewResultAggregator() *ResultAggregator {
	return &ResultAggregator{
		seenURLs: make(map[string]bool),
	}
}

// MergeDownloads adds the downloads from one outcome, deduplicated by URL.
// Returns the number of items actually added.
func (a *ResultAggregator) MergeDownloads(items []DownloadItem) int {
	added := 0
	for _, item := range items {
		if item.URL == "" || a.seenURLs[item.URL] {
			continue
		}
		a.seenURLs[item.URL] = true
		a.downloads = append(a.downloads, item)
		added++
	}
	return added
}

// RecordRenders captures a provider's renders as the fallback set when no
// renders have been captured yet. Empty render sets are ignored.
func (a *ResultAggregator) RecordRenders(provider string, renders []RenderItem) {
	if len(renders) == 0 || len(a.fallbackRenders) > 0 {
		return
	}
	a.fallbackRenders = append([]RenderItem(nil), renders...)
	a.renderProvider = provider
}

// DownloadCount returns the number of unique downloads collected so far.
func (a *ResultAggregator) DownloadCount() int {
	return len(a.downloads)
}

// Downloads returns the unique downloads collected so far.
func (a *ResultAggregator) Downloads() []DownloadItem {
	return a.downloads
}

// FallbackRenders returns the captured fallback render set (may be empty).
func (a *ResultAggregator) FallbackRenders() []RenderItem {
	return a.fallbackRenders
}

// HasRenders reports whether any renders have been captured.
func (a *ResultAggregator) HasRenders() bool {
	return len(a.fallbackRenders) > 0
}

// RenderProvider returns the key of the provider that supplied the fallback
// renders, or "".
func (a *ResultAggregator) RenderProvider() string {
	return a.renderProvider
}
