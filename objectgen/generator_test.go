package objectgen

import (
	"context"
	"testing"

	"studio_backend/logging"
)

func newTestGenerator(providers ...Provider) *Generator {
	resolver := NewReferenceResolver(nil, logging.NewNop())
	sequencer := NewAttemptSequencer(providers, logging.NewNop())
	return NewGenerator(resolver, sequencer, logging.NewNop())
}

func TestGenerateRejectsInvalidInputBeforeProviders(t *testing.T) {
	provider := &fakeProvider{key: "meshy", outcome: download("meshy", "https://cdn.example.com/a.glb")}
	gen := newTestGenerator(provider)

	_, err := gen.Generate(context.Background(), RawGenerationRequest{Prompt: "   "})
	if !IsInvalidInput(err) {
		t.Fatalf("expected InvalidInputError, got %v", err)
	}
	if provider.calls != 0 {
		t.Error("provider was contacted for an invalid request")
	}
}

func TestGenerateMergesReferenceNotesIntoResult(t *testing.T) {
	provider := &fakeProvider{key: "meshy", outcome: download("meshy", "https://cdn.example.com/a.glb")}
	gen := newTestGenerator(provider)

	result, err := gen.Generate(context.Background(), RawGenerationRequest{
		Prompt: "a chair",
		References: &RawReferences{
			Product: "data:text/plain;base64,aGVsbG8=",
		},
	})
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}

	if len(result.Notes) == 0 {
		t.Fatal("expected the unresolved reference to leave a note")
	}
	if len(result.Downloads) != 1 {
		t.Errorf("Downloads = %+v, want one", result.Downloads)
	}
}

func TestGenerateWithIDStampsResult(t *testing.T) {
	provider := &fakeProvider{key: "meshy", outcome: download("meshy", "https://cdn.example.com/a.glb")}
	gen := newTestGenerator(provider)

	result, err := gen.GenerateWithID(context.Background(), "corr1234", RawGenerationRequest{Prompt: "a chair"})
	if err != nil {
		t.Fatalf("GenerateWithID returned error: %v", err)
	}
	if result.CorrelationID != "corr1234" {
		t.Errorf("CorrelationID = %q, want the caller-supplied id", result.CorrelationID)
	}
}

func TestGeneratePropagatesAllFailed(t *testing.T) {
	provider := &fakeProvider{key: "meshy", err: newProviderError("meshy", ErrKindHTTPFailure, "status 500: broken")}
	gen := newTestGenerator(provider)

	_, err := gen.Generate(context.Background(), RawGenerationRequest{Prompt: "a chair"})
	if err == nil {
		t.Fatal("expected an error when every provider fails")
	}
}
