// Package objectgen implements the multi-provider 3D object generation
// pipeline.
//
// instrument.go wraps providers with attempt counters for the stats
// endpoint.
package objectgen

import (
	"context"
	"time"

	"studio_backend/metrics"
)

// Instrument wraps a provider so every attempt is counted in the collector.
// The image-only marker is preserved.
func Instrument(provider Provider, collector *metrics.Collector) Provider {
	if collector == nil {
		return provider
	}
	wrapped := &instrumentedProvider{provider: provider, collector: collector}
	if imageOnly, ok := provider.(ImageOnlyProvider); ok && imageOnly.ImageOnly() {
		return &instrumentedImageOnlyProvider{instrumentedProvider: wrapped}
	}
	return wrapped
}

// InstrumentAll wraps every provider in the slice.
func InstrumentAll(providers []Provider, collector *metrics.Collector) []Provider {
	wrapped := make([]Provider, len(providers))
	for i, provider := range providers {
		wrapped[i] = Instrument(provider, collector)
	}
	return wrapped
}

type instrumentedProvider struct {
	provider  Provider
	collector *metrics.Collector
}

func (p *instrumentedProvider) Key() string {
	return p.provider.Key()
}

func (p *instrumentedProvider) Attempt(ctx context.Context, req *GenerationRequest, refs ResolvedReferences) (*ProviderOutcome, error) {
	started := time.Now()
	outcome, err := p.provider.Attempt(ctx, req, refs)
	p.collector.RecordAttempt(p.provider.Key(), err == nil, time.Since(started))
	return outcome, err
}

// instrumentedImageOnlyProvider keeps the image-only marker visible through
// the wrapper so the sequencer's skip rule still applies.
type instrumentedImageOnlyProvider struct {
	*instrumentedProvider
}

func (p *instrumentedImageOnlyProvider) ImageOnly() bool {
	return true
}

var (
	_ Provider          = (*instrumentedProvider)(nil)
	_ ImageOnlyProvider = (*instrumentedImageOnlyProvider)(nil)
)
