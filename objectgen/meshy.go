// Package objectgen implements the multi-provider 3D object generation
// pipeline.
//
// meshy.go implements the adapter for the Meshy-style text-to-3D provider.
// Submissions create a task; the task is then polled until it reaches a
// terminal status or its payload starts carrying artifacts.
package objectgen

import (
	"context"
	"net/http"
	"strings"
	"time"

	"studio_backend/core"
	"studio_backend/payloadscan"
)

// MeshyProviderKey identifies the Meshy-style adapter in responses and logs.
const MeshyProviderKey = "meshy"

// MeshyProvider submits text-to-3D tasks to a Meshy-style job API.
//
// Thread Safety: safe for concurrent use; all state is request-local.
type MeshyProvider struct {
	client       *http.Client
	apiKey       string
	endpoint     string
	pollInterval time.Duration
}

// MeshyConfig holds explicit configuration for the Meshy adapter.
type MeshyConfig struct {
	// APIKey authorizes task submissions (required for attempts to proceed).
	APIKey string

	// Endpoint is the task creation URL; task status is polled at
	// <endpoint>/<taskID>.
	Endpoint string

	// HTTPClient is the client for API calls (optional).
	HTTPClient *http.Client

	// PollInterval overrides the status poll interval (optional; tests).
	PollInterval time.Duration
}

// NewMeshyProvider creates the adapter from the application config. The
// adapter is constructed even when unconfigured; a missing key surfaces as a
// config-missing provider error at attempt time so the sequencer can move on.
func NewMeshyProvider(cfg *core.Config) *MeshyProvider {
	return NewMeshyProviderWithConfig(MeshyConfig{
		APIKey:     cfg.MeshyAPIKey,
		Endpoint:   cfg.MeshyEndpoint,
		HTTPClient: core.GetHTTPClient(cfg, cfg.AITimeout),
	})
}

// NewMeshyProviderWithConfig creates the adapter with explicit configuration.
func NewMeshyProviderWithConfig(config MeshyConfig) *MeshyProvider {
	client := config.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	interval := config.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &MeshyProvider{
		client:       client,
		apiKey:       config.APIKey,
		endpoint:     strings.TrimRight(config.Endpoint, "/"),
		pollInterval: interval,
	}
}

// Key identifies the provider.
func (p *MeshyProvider) Key() string {
	return MeshyProviderKey
}

// Attempt submits a text-to-3D task and polls it to completion.
func (p *MeshyProvider) Attempt(ctx context.Context, req *GenerationRequest, refs ResolvedReferences) (*ProviderOutcome, error) {
	if p.apiKey == "" {
		return nil, newProviderError(MeshyProviderKey, ErrKindConfigMissing, "MESHY_API_KEY is not configured")
	}

	body := map[string]interface{}{
		"mode":      "preview",
		"prompt":    req.FinalPrompt(),
		"art_style": "realistic",
		"topology":  "triangle",
	}
	if refs.Product.Resolved() {
		body["image_url"] = refs.Product.ResolvedURL
	}

	payload, err := postJSON(ctx, p.client, MeshyProviderKey, p.endpoint, p.apiKey, body)
	if err != nil {
		return nil, err
	}

	// Some responses already carry artifacts; no polling needed then.
	outcome := p.buildOutcome(payload)
	if len(outcome.Renders) > 0 || len(outcome.Downloads) > 0 {
		return outcome, nil
	}

	taskID := stringField(payload, "result", "id", "task_id")
	if taskID == "" {
		return outcome, nil
	}

	handle := taskHandle{TaskID: taskID, PollURL: p.endpoint + "/" + taskID, Status: taskStatusSubmitted}
	final, err := p.poll(ctx, &handle)
	if err != nil {
		return nil, err
	}
	return p.buildOutcome(final), nil
}

// poll runs the async task poll loop for one submitted task.
func (p *MeshyProvider) poll(ctx context.Context, handle *taskHandle) (map[string]interface{}, error) {
	poller := newTaskPoller(MeshyProviderKey, TaskPollAttempts, p.pollInterval)

	return poller.run(ctx,
		func(ctx context.Context) (map[string]interface{}, error) {
			return getJSON(ctx, p.client, MeshyProviderKey, handle.PollURL, p.apiKey)
		},
		func(payload map[string]interface{}) (pollVerdict, string) {
			handle.Status = taskStatusProcessing

			status := strings.ToUpper(stringField(payload, "status", "state"))
			switch status {
			case "FAILED", "CANCELED", "CANCELLED", "EXPIRED":
				handle.Status = taskStatusFailed
				return pollFailed, meshyFailureReason(payload)
			case "SUCCEEDED", "SUCCESS", "COMPLETED":
				handle.Status = taskStatusSucceeded
				return pollSucceeded, ""
			}

			// Artifacts appearing before a terminal status also end the poll.
			outcome := p.buildOutcome(payload)
			if len(outcome.Renders) > 0 || len(outcome.Downloads) > 0 {
				handle.Status = taskStatusSucceeded
				return pollSucceeded, ""
			}
			return pollContinue, ""
		})
}

// buildOutcome decodes a Meshy payload into a normalized outcome. Known
// fields are checked explicitly; the generic payload scanner picks up
// everything else.
func (p *MeshyProvider) buildOutcome(payload map[string]interface{}) *ProviderOutcome {
	outcome := &ProviderOutcome{Provider: MeshyProviderKey}
	if payload == nil {
		return outcome
	}

	seenRenders := map[string]bool{}
	addRender := func(url string) {
		if url != "" && !seenRenders[url] {
			seenRenders[url] = true
			outcome.Renders = append(outcome.Renders, RenderItem{URL: url, Provider: MeshyProviderKey})
		}
	}

	// Provider-scoped lookups first.
	addRender(stringField(payload, "thumbnail_url", "preview_url"))
	for _, url := range payloadscan.ImageURLs(payload) {
		addRender(url)
	}

	for _, ref := range payloadscan.DownloadRefs(payload) {
		outcome.Downloads = append(outcome.Downloads, DownloadItem{
			URL:      ref.URL,
			Type:     ref.Type,
			Provider: MeshyProviderKey,
		})
	}

	return outcome
}

// meshyFailureReason extracts the provider-supplied failure reason.
func meshyFailureReason(payload map[string]interface{}) string {
	if taskError, ok := payload["task_error"].(map[string]interface{}); ok {
		if msg := stringField(taskError, "message"); msg != "" {
			return msg
		}
	}
	if msg := stringField(payload, "message", "error"); msg != "" {
		return msg
	}
	return "task failed without a reason"
}

// Ensure MeshyProvider implements Provider at compile time.
var _ Provider = (*MeshyProvider)(nil)
