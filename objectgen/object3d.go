// Package objectgen implements the multi-provider 3D object generation
// pipeline.
//
// object3d.go implements the adapter for the generic async 3D job provider.
// It follows the same submit-then-poll shape as the Meshy adapter but the
// poll URL comes from the submission response when the provider supplies
// one, falling back to the <endpoint>/status?taskId=<id> convention.
package objectgen

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"studio_backend/core"
	"studio_backend/payloadscan"
)

// Object3DProviderKey identifies the generic 3D job adapter.
const Object3DProviderKey = "object3d"

// Object3DProvider submits generation jobs to a generic async 3D API.
//
// Thread Safety: safe for concurrent use; all state is request-local.
type Object3DProvider struct {
	client       *http.Client
	apiKey       string
	endpoint     string
	pollInterval time.Duration
}

// Object3DConfig holds explicit configuration for the generic 3D adapter.
type Object3DConfig struct {
	// APIKey authorizes job submissions (required for attempts to proceed).
	APIKey string

	// Endpoint is the job submission URL.
	Endpoint string

	// HTTPClient is the client for API calls (optional).
	HTTPClient *http.Client

	// PollInterval overrides the status poll interval (optional; tests).
	PollInterval time.Duration
}

// NewObject3DProvider creates the adapter from the application config.
func NewObject3DProvider(cfg *core.Config) *Object3DProvider {
	return NewObject3DProviderWithConfig(Object3DConfig{
		APIKey:     cfg.Object3DAPIKey,
		Endpoint:   cfg.Object3DEndpoint,
		HTTPClient: core.GetHTTPClient(cfg, cfg.AITimeout),
	})
}

// NewObject3DProviderWithConfig creates the adapter with explicit
// configuration.
func NewObject3DProviderWithConfig(config Object3DConfig) *Object3DProvider {
	client := config.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	interval := config.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Object3DProvider{
		client:       client,
		apiKey:       config.APIKey,
		endpoint:     strings.TrimRight(config.Endpoint, "/"),
		pollInterval: interval,
	}
}

// Key identifies the provider.
func (p *Object3DProvider) Key() string {
	return Object3DProviderKey
}

// Attempt submits a generation job and polls it to completion.
func (p *Object3DProvider) Attempt(ctx context.Context, req *GenerationRequest, refs ResolvedReferences) (*ProviderOutcome, error) {
	if p.apiKey == "" || p.endpoint == "" {
		return nil, newProviderError(Object3DProviderKey, ErrKindConfigMissing, "OBJECT3D_API_KEY or OBJECT3D_ENDPOINT is not configured")
	}

	body := map[string]interface{}{
		"prompt": req.FinalPrompt(),
		"format": "glb",
	}
	if urls := refs.URLs(); len(urls) > 0 {
		body["reference_images"] = urls
	}

	payload, err := postJSON(ctx, p.client, Object3DProviderKey, p.endpoint, p.apiKey, body)
	if err != nil {
		return nil, err
	}

	outcome := p.buildOutcome(payload)
	if len(outcome.Renders) > 0 || len(outcome.Downloads) > 0 {
		return outcome, nil
	}

	taskID := stringField(payload, "task_id", "taskId", "id", "job_id")
	if taskID == "" {
		return outcome, nil
	}

	handle := taskHandle{
		TaskID:  taskID,
		PollURL: p.pollURL(payload, taskID),
		Status:  taskStatusSubmitted,
	}
	final, err := p.poll(ctx, &handle)
	if err != nil {
		return nil, err
	}
	return p.buildOutcome(final), nil
}

// pollURL resolves the status URL for a submitted job. Providers that hand
// back an explicit poll URL win; otherwise the status query convention
// applies.
func (p *Object3DProvider) pollURL(payload map[string]interface{}, taskID string) string {
	if explicit := stringField(payload, "status_url", "statusUrl", "poll_url", "pollUrl"); explicit != "" {
		return explicit
	}
	return p.endpoint + "/status?taskId=" + url.QueryEscape(taskID)
}

// poll runs the async task poll loop for one submitted job.
func (p *Object3DProvider) poll(ctx context.Context, handle *taskHandle) (map[string]interface{}, error) {
	poller := newTaskPoller(Object3DProviderKey, TaskPollAttempts, p.pollInterval)

	return poller.run(ctx,
		func(ctx context.Context) (map[string]interface{}, error) {
			return getJSON(ctx, p.client, Object3DProviderKey, handle.PollURL, p.apiKey)
		},
		func(payload map[string]interface{}) (pollVerdict, string) {
			handle.Status = taskStatusProcessing

			status := strings.ToLower(stringField(payload, "status", "state"))
			switch status {
			case "failed", "error", "canceled", "cancelled":
				handle.Status = taskStatusFailed
				reason := stringField(payload, "error", "message", "detail")
				return pollFailed, reason
			case "succeeded", "success", "completed", "done", "finished":
				handle.Status = taskStatusSucceeded
				return pollSucceeded, ""
			}

			outcome := p.buildOutcome(payload)
			if len(outcome.Renders) > 0 || len(outcome.Downloads) > 0 {
				handle.Status = taskStatusSucceeded
				return pollSucceeded, ""
			}
			return pollContinue, ""
		})
}

// buildOutcome decodes a job payload into a normalized outcome. This
// provider has no stable field names, so extraction leans entirely on the
// generic payload scanner.
func (p *Object3DProvider) buildOutcome(payload map[string]interface{}) *ProviderOutcome {
	outcome := &ProviderOutcome{Provider: Object3DProviderKey}
	if payload == nil {
		return outcome
	}

	for _, url := range payloadscan.ImageURLs(payload) {
		outcome.Renders = append(outcome.Renders, RenderItem{URL: url, Provider: Object3DProviderKey})
	}
	for _, ref := range payloadscan.DownloadRefs(payload) {
		outcome.Downloads = append(outcome.Downloads, DownloadItem{
			URL:      ref.URL,
			Type:     ref.Type,
			Provider: Object3DProviderKey,
		})
	}

	return outcome
}

// Ensure Object3DProvider implements Provider at compile time.
var _ Provider = (*Object3DProvider)(nil)
