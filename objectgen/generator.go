// Package objectgen implements the multi-provider 3D object generation
// pipeline.
//
// generator.go is the organism tying the pipeline together: it normalizes
// the raw request, resolves reference images, runs the provider sequence,
// and folds reference caveats into the final result.
//
// This organism composes:
//   - request.go: request normalization and prompt composition
//   - reference.go: reference image resolution
//   - sequencer.go: ordered provider attempts
package objectgen

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"studio_backend/logging"
)

// Generator runs the full generation pipeline for one kind of request.
//
// Thread Safety: safe for concurrent use; every run keeps its state on the
// stack and in per-run components.
type Generator struct {
	resolver  *ReferenceResolver
	sequencer *AttemptSequencer
	logger    *logging.Logger
}

// NewGenerator creates a generator over the given pipeline components.
func NewGenerator(resolver *ReferenceResolver, sequencer *AttemptSequencer, logger *logging.Logger) *Generator {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Generator{
		resolver:  resolver,
		sequencer: sequencer,
		logger:    logger,
	}
}

// Generate handles one generation request end to end under a freshly minted
// correlation id.
func (g *Generator) Generate(ctx context.Context, raw RawGenerationRequest) (*GenerationResult, error) {
	return g.GenerateWithID(ctx, uuid.NewString()[:8], raw)
}

// GenerateWithID runs the pipeline under a caller-supplied correlation id, so
// the HTTP layer can stamp the same id onto history records for runs that
// fail before a result exists.
//
// Invalid input surfaces as an InvalidInputError before any provider is
// contacted. Reference images that cannot be resolved never block the run;
// their caveats are appended to the result notes instead.
func (g *Generator) GenerateWithID(ctx context.Context, correlationID string, raw RawGenerationRequest) (*GenerationResult, error) {
	logger := g.logger.With(zap.String("correlation_id", correlationID))
	started := time.Now()

	req, err := NormalizeRequest(raw)
	if err != nil {
		logger.Warn("request rejected", zap.Error(err))
		return nil, err
	}

	logger.Info("generation started",
		zap.String("prompt", req.Prompt()),
		zap.String("material", req.Material()),
		zap.String("lighting", req.Lighting()),
		zap.Int("detail", req.Detail()),
	)

	refs := g.resolver.ResolveAll(ctx, req)

	result, err := g.sequencer.Run(ctx, req, refs)
	if err != nil {
		logger.Error("generation failed",
			zap.Error(err),
			zap.Duration("elapsed", time.Since(started)),
		)
		return nil, err
	}

	result.CorrelationID = correlationID
	result.Notes = append(result.Notes, refs.Notes()...)

	logger.Info("generation finished",
		zap.String("provider", result.Provider),
		zap.Strings("providers_tried", result.ProvidersTried),
		zap.Int("renders", len(result.Renders)),
		zap.Int("downloads", len(result.Downloads)),
		zap.Duration("elapsed", time.Since(started)),
	)
	return result, nil
}
