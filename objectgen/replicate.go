// Package objectgen implements the multi-provider 3D object generation
// pipeline.
//
// replicate.go implements the adapter for the Replicate-style prediction
// provider. Predictions run against a pinned or discovered model version,
// and the input shape is probed across a small ordered list of schemas
// because hosted 3D models disagree on how reference images are passed.
package objectgen

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"studio_backend/core"
	"studio_backend/payloadscan"
)

// ReplicateProviderKey identifies the Replicate-style adapter.
const ReplicateProviderKey = "replicate"

// ReplicateProvider runs 3D generation predictions against a Replicate-style
// API.
//
// Thread Safety: safe for concurrent use; the version cache is guarded by
// its own lock and everything else is request-local.
type ReplicateProvider struct {
	client       *http.Client
	apiToken     string
	endpoint     string
	model        string
	pinned       string
	pollInterval time.Duration

	versions *versionCache
}

// ReplicateConfig holds explicit configuration for the Replicate adapter.
type ReplicateConfig struct {
	// APIToken authorizes prediction calls (required for attempts to
	// proceed).
	APIToken string

	// Endpoint is the API base URL, e.g. "https://api.replicate.com/v1".
	Endpoint string

	// Model is the "owner/name" model reference.
	Model string

	// ModelVersion pins an exact version id. When set, version discovery is
	// skipped entirely.
	ModelVersion string

	// HTTPClient is the client for API calls (optional).
	HTTPClient *http.Client

	// PollInterval overrides the prediction poll interval (optional; tests).
	PollInterval time.Duration
}

// NewReplicateProvider creates the adapter from the application config.
func NewReplicateProvider(cfg *core.Config) *ReplicateProvider {
	return NewReplicateProviderWithConfig(ReplicateConfig{
		APIToken:     cfg.ReplicateAPIToken,
		Endpoint:     cfg.ReplicateEndpoint,
		Model:        cfg.ReplicateModel,
		ModelVersion: cfg.ReplicateModelVersion,
		HTTPClient:   core.GetHTTPClient(cfg, cfg.AITimeout),
	})
}

// NewReplicateProviderWithConfig creates the adapter with explicit
// configuration.
func NewReplicateProviderWithConfig(config ReplicateConfig) *ReplicateProvider {
	client := config.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	interval := config.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &ReplicateProvider{
		client:       client,
		apiToken:     config.APIToken,
		endpoint:     strings.TrimRight(config.Endpoint, "/"),
		model:        config.Model,
		pinned:       config.ModelVersion,
		pollInterval: interval,
		versions:     newVersionCache(),
	}
}

// Key identifies the provider.
func (p *ReplicateProvider) Key() string {
	return ReplicateProviderKey
}

// Attempt resolves the model version, then probes the input schemas in order
// until a prediction yields artifacts. A schema that fails or completes with
// an empty output hands over to the next one; the attempt as a whole fails
// when every applicable schema has failed, or when every schema completed
// without producing any artifacts.
func (p *ReplicateProvider) Attempt(ctx context.Context, req *GenerationRequest, refs ResolvedReferences) (*ProviderOutcome, error) {
	if p.apiToken == "" {
		return nil, newProviderError(ReplicateProviderKey, ErrKindConfigMissing, "REPLICATE_API_TOKEN is not configured")
	}

	version, err := p.resolveVersion(ctx)
	if err != nil {
		return nil, err
	}

	refURLs := refs.URLs()
	var lastErr error
	sawEmptySuccess := false

	for _, schema := range inputSchemas {
		input, applicable := schema.build(req.FinalPrompt(), refURLs)
		if !applicable {
			continue
		}

		outcome, err := p.runPrediction(ctx, version, input)
		if err != nil {
			lastErr = err
			continue
		}
		if len(outcome.Renders) > 0 || len(outcome.Downloads) > 0 {
			return outcome, nil
		}
		sawEmptySuccess = true
	}

	if sawEmptySuccess {
		return nil, newProviderError(ReplicateProviderKey, ErrKindJobFailure, "every input schema completed without artifacts")
	}
	if lastErr != nil {
		return nil, lastErr
	}
	return nil, newProviderError(ReplicateProviderKey, ErrKindJobFailure, "no input schema applied to the request")
}

// inputSchema is one candidate shape for the prediction input. build returns
// false when the schema does not apply to the request at hand.
type inputSchema struct {
	name  string
	build func(prompt string, refs []string) (map[string]interface{}, bool)
}

// inputSchemas is the probe order. Reference-driven shapes come first so
// supplied images are not silently dropped; the text-only shape applies only
// when there are no references at all.
var inputSchemas = []inputSchema{
	{
		name: "image-list",
		build: func(prompt string, refs []string) (map[string]interface{}, bool) {
			if len(refs) == 0 {
				return nil, false
			}
			return map[string]interface{}{"prompt": prompt, "image_urls": refs}, true
		},
	},
	{
		name: "single-image",
		build: func(prompt string, refs []string) (map[string]interface{}, bool) {
			if len(refs) == 0 {
				return nil, false
			}
			return map[string]interface{}{"prompt": prompt, "image": refs[0]}, true
		},
	},
	{
		name: "legacy-image",
		build: func(prompt string, refs []string) (map[string]interface{}, bool) {
			if len(refs) == 0 {
				return nil, false
			}
			return map[string]interface{}{"prompt": prompt, "input_image": refs[0]}, true
		},
	},
	{
		name: "text-only",
		build: func(prompt string, refs []string) (map[string]interface{}, bool) {
			if len(refs) > 0 {
				return nil, false
			}
			return map[string]interface{}{"prompt": prompt}, true
		},
	},
}

// runPrediction submits one prediction and polls it to a terminal status.
func (p *ReplicateProvider) runPrediction(ctx context.Context, version string, input map[string]interface{}) (*ProviderOutcome, error) {
	body := map[string]interface{}{
		"version": version,
		"input":   input,
	}

	payload, err := postJSON(ctx, p.client, ReplicateProviderKey, p.endpoint+"/predictions", p.apiToken, body)
	if err != nil {
		return nil, err
	}

	predictionID := stringField(payload, "id")
	if predictionID == "" {
		return nil, newProviderError(ReplicateProviderKey, ErrKindHTTPFailure, "prediction response carried no id")
	}

	if verdict, _ := evaluatePrediction(payload); verdict == pollSucceeded {
		return p.buildOutcome(payload), nil
	}

	pollURL := p.predictionPollURL(payload, predictionID)
	poller := newTaskPoller(ReplicateProviderKey, PredictionPollAttempts, p.pollInterval)

	final, err := poller.run(ctx,
		func(ctx context.Context) (map[string]interface{}, error) {
			return getJSON(ctx, p.client, ReplicateProviderKey, pollURL, p.apiToken)
		},
		evaluatePrediction,
	)
	if err != nil {
		return nil, err
	}
	return p.buildOutcome(final), nil
}

// predictionPollURL prefers the self link from the prediction payload.
func (p *ReplicateProvider) predictionPollURL(payload map[string]interface{}, predictionID string) string {
	if urls, ok := payload["urls"].(map[string]interface{}); ok {
		if get := stringField(urls, "get"); get != "" {
			return get
		}
	}
	return p.endpoint + "/predictions/" + predictionID
}

// evaluatePrediction maps a prediction payload onto a poll verdict.
func evaluatePrediction(payload map[string]interface{}) (pollVerdict, string) {
	switch strings.ToLower(stringField(payload, "status")) {
	case "succeeded":
		return pollSucceeded, ""
	case "failed", "canceled", "cancelled":
		return pollFailed, stringField(payload, "error", "detail")
	}
	return pollContinue, ""
}

// buildOutcome extracts artifacts from a finished prediction. Only the
// output field is scanned; the rest of the payload echoes the input back and
// would leak the reference URLs into the result.
func (p *ReplicateProvider) buildOutcome(payload map[string]interface{}) *ProviderOutcome {
	outcome := &ProviderOutcome{Provider: ReplicateProviderKey}
	if payload == nil {
		return outcome
	}

	scoped := map[string]interface{}{"output": payload["output"]}
	for _, url := range payloadscan.ImageURLs(scoped) {
		outcome.Renders = append(outcome.Renders, RenderItem{URL: url, Provider: ReplicateProviderKey})
	}
	for _, ref := range payloadscan.DownloadRefs(scoped) {
		outcome.Downloads = append(outcome.Downloads, DownloadItem{
			URL:      ref.URL,
			Type:     ref.Type,
			Provider: ReplicateProviderKey,
		})
	}

	return outcome
}

// resolveVersion returns the version id predictions should run against. An
// explicit pin always wins; otherwise the model's latest version is looked
// up once and cached for the process lifetime.
func (p *ReplicateProvider) resolveVersion(ctx context.Context) (string, error) {
	if p.pinned != "" {
		p.versions.put(p.model, p.pinned)
		return p.pinned, nil
	}
	if cached, ok := p.versions.get(p.model); ok {
		return cached, nil
	}

	payload, err := getJSON(ctx, p.client, ReplicateProviderKey, p.endpoint+"/models/"+p.model, p.apiToken)
	if err != nil {
		return "", err
	}

	latest, ok := payload["latest_version"].(map[string]interface{})
	if !ok {
		return "", newProviderError(ReplicateProviderKey, ErrKindHTTPFailure,
			fmt.Sprintf("model %s has no latest version", p.model))
	}
	version := stringField(latest, "id")
	if version == "" {
		return "", newProviderError(ReplicateProviderKey, ErrKindHTTPFailure,
			fmt.Sprintf("model %s has no latest version", p.model))
	}

	p.versions.put(p.model, version)
	return version, nil
}

// versionCache caches resolved model version ids across requests.
//
// Thread Safety: all methods are safe for concurrent use.
type versionCache struct {
	mu       sync.RWMutex
	versions map[string]string
}

// newVersionCache creates an empty cache.
func newVersionCache() *versionCache {
	return &versionCache{versions: make(map[string]string)}
}

// get returns the cached version id for a model reference.
func (c *versionCache) get(model string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	version, ok := c.versions[model]
	return version, ok
}

// put stores a resolved version id.
func (c *versionCache) put(model, version string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.versions[model] = version
}

// Ensure ReplicateProvider implements Provider at compile time.
var _ Provider = (*ReplicateProvider)(nil)
