// Package objectgen implements the multi-provider 3D object generation
// pipeline.
//
// sequencer.go walks the configured providers in order until one of them
// yields a downloadable 3D asset. Provider failures of every kind are
// recoverable: the failure is recorded and the next provider gets its turn.
// A run that collected renders but no downloads still succeeds, degraded;
// only a run with nothing visual at all fails.
package objectgen

import (
	"context"
	"errors"
	"fmt"

	"studio_backend/logging"
)

// AttemptSequencer runs provider attempts in a fixed order for one request.
//
// Thread Safety: safe for concurrent use. Per-run state lives in the
// ResultAggregator created inside Run.
type AttemptSequencer struct {
	providers []Provider
	logger    *logging.Logger
}

// NewAttemptSequencer creates a sequencer over the given providers. Order
// matters: it is the attempt order.
func NewAttemptSequencer(providers []Provider, logger *logging.Logger) *AttemptSequencer {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &AttemptSequencer{
		providers: providers,
		logger:    logger,
	}
}

// Run attempts each provider in order and assembles the final result.
//
// The loop stops at the first attempt that leaves the aggregate with at
// least one download. Image-only providers are skipped while renders are
// already on hand, since they could not improve on them. When every provider
// has gone and no downloads exist, the first renders seen become a degraded
// result; with nothing at all the run fails with a bounded digest of the
// per-provider failures.
func (s *AttemptSequencer) Run(ctx context.Context, req *GenerationRequest, refs ResolvedReferences) (*GenerationResult, error) {
	aggregate := NewResultAggregator()
	tried := make([]string, 0, len(s.providers))
	details := make([]string, 0, len(s.providers))

	for _, provider := range s.providers {
		key := provider.Key()

		if imageOnly, ok := provider.(ImageOnlyProvider); ok && imageOnly.ImageOnly() {
			if aggregate.HasRenders() {
				s.logger.Debugf("sequencer: skipping %s, renders already available from %s",
					key, aggregate.RenderProvider())
				continue
			}
		}

		tried = append(tried, key)
		s.logger.Infof("sequencer: attempting provider %s", key)

		outcome, err := provider.Attempt(ctx, req, refs)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			detail := failureDetail(key, err)
			details = append(details, detail)
			s.logger.Warnf("sequencer: provider %s failed (%s): %s", key, ErrorKindOf(err), detail)
			continue
		}

		added := aggregate.MergeDownloads(outcome.Downloads)
		aggregate.RecordRenders(key, outcome.Renders)
		s.logger.Infof("sequencer: provider %s returned %d renders, %d new downloads",
			key, len(outcome.Renders), added)

		if aggregate.DownloadCount() > 0 {
			renders := outcome.Renders
			if len(renders) == 0 {
				renders = aggregate.FallbackRenders()
			}
			return &GenerationResult{
				Provider:       key,
				ProvidersTried: tried,
				Renders:        renders,
				Downloads:      aggregate.Downloads(),
			}, nil
		}
	}

	if aggregate.HasRenders() {
		notes := append([]string{"no downloadable 3D asset was produced; returning preview renders only"}, details...)
		return &GenerationResult{
			Provider:       aggregate.RenderProvider(),
			ProvidersTried: tried,
			Renders:        aggregate.FallbackRenders(),
			Notes:          notes,
		}, nil
	}

	return nil, newAllFailedError(details)
}

// failureDetail formats one provider failure for the error digest.
func failureDetail(provider string, err error) string {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return fmt.Sprintf("%s: %s", provider, pe.Message)
	}
	return fmt.Sprintf("%s: %s", provider, err.Error())
}
