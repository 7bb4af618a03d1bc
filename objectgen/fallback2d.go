// Package objectgen implements the multi-provider 3D object generation
// pipeline.
//
// fallback2d.go implements the image-only fallback adapter. When no 3D
// provider produced anything visual, it renders concept images of the object
// with the OpenAI image API so the caller is never left empty-handed. It can
// only ever contribute renders, never downloadable model files.
package objectgen

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/google/uuid"
	openai "github.com/sashabaranov/go-openai"

	"studio_backend/blobstore"
	"studio_backend/core"
)

// Fallback2DProviderKey identifies the image-only fallback adapter.
const Fallback2DProviderKey = "openai-image"

// fallbackImageCount is how many concept renders one attempt requests.
const fallbackImageCount = 2

// Fallback2DProvider generates 2D concept renders of the requested object.
//
// Thread Safety: safe for concurrent use. The underlying OpenAI client
// handles connection pooling; the blob store manages its own state.
type Fallback2DProvider struct {
	client *openai.Client
	model  string
	store  blobstore.Store
}

// Fallback2DConfig holds configuration for the fallback adapter.
type Fallback2DConfig struct {
	// APIKey is the OpenAI API key (required for attempts to proceed).
	APIKey string

	// BaseURL is the API endpoint (default: https://api.openai.com/v1).
	BaseURL string

	// Model is the image model to use (default: dall-e-2).
	Model string

	// Store receives generated images; when nil the images are returned
	// inline as data URIs instead.
	Store blobstore.Store
}

// NewFallback2DProvider creates the adapter from the application config.
func NewFallback2DProvider(cfg *core.Config, store blobstore.Store) *Fallback2DProvider {
	return NewFallback2DProviderWithConfig(Fallback2DConfig{
		APIKey: cfg.OpenAIAPIKey,
		Model:  cfg.OpenAIImageModel,
		Store:  store,
	})
}

// NewFallback2DProviderWithConfig creates the adapter with explicit
// configuration.
func NewFallback2DProviderWithConfig(config Fallback2DConfig) *Fallback2DProvider {
	var client *openai.Client
	if config.APIKey != "" {
		clientConfig := openai.DefaultConfig(config.APIKey)
		if config.BaseURL != "" {
			clientConfig.BaseURL = config.BaseURL
		}
		client = openai.NewClientWithConfig(clientConfig)
	}

	model := config.Model
	if model == "" {
		model = "dall-e-2"
	}

	return &Fallback2DProvider{
		client: client,
		model:  model,
		store:  config.Store,
	}
}

// Key identifies the provider.
func (p *Fallback2DProvider) Key() string {
	return Fallback2DProviderKey
}

// ImageOnly marks the adapter as unable to produce downloadable model files.
// The sequencer skips it when renders already exist.
func (p *Fallback2DProvider) ImageOnly() bool {
	return true
}

// Attempt generates concept renders for the request. Images come back
// base64-encoded and are uploaded to the blob store for a stable URL; when
// the store is unavailable the image is returned inline as a data URI.
func (p *Fallback2DProvider) Attempt(ctx context.Context, req *GenerationRequest, refs ResolvedReferences) (*ProviderOutcome, error) {
	if p.client == nil {
		return nil, newProviderError(Fallback2DProviderKey, ErrKindConfigMissing, "OPENAI_API_KEY is not configured")
	}

	imageReq := openai.ImageRequest{
		Prompt:         fallbackPrompt(req),
		Model:          p.model,
		ResponseFormat: openai.CreateImageResponseFormatB64JSON,
		N:              fallbackImageCount,
		Size:           openai.CreateImageSize1024x1024,
	}

	response, err := p.client.CreateImage(ctx, imageReq)
	if err != nil {
		return nil, wrapProviderError(Fallback2DProviderKey, ErrKindHTTPFailure, "image generation failed", err)
	}
	if len(response.Data) == 0 {
		return nil, newProviderError(Fallback2DProviderKey, ErrKindJobFailure, "image API returned no images")
	}

	outcome := &ProviderOutcome{Provider: Fallback2DProviderKey}
	for _, item := range response.Data {
		if item.B64JSON == "" {
			continue
		}
		url := p.renderURL(ctx, item.B64JSON)
		if url == "" {
			continue
		}
		outcome.Renders = append(outcome.Renders, RenderItem{
			URL:      url,
			Provider: Fallback2DProviderKey,
			Format:   "png",
		})
	}

	if len(outcome.Renders) == 0 {
		return nil, newProviderError(Fallback2DProviderKey, ErrKindJobFailure, "image API returned no decodable images")
	}
	return outcome, nil
}

// renderURL stores one base64 image and returns its public URL, falling back
// to an inline data URI when storage is unavailable or the upload fails.
func (p *Fallback2DProvider) renderURL(ctx context.Context, b64 string) string {
	data, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return ""
	}

	if p.store != nil {
		key := fmt.Sprintf("renders/%s.png", uuid.NewString())
		if url, err := p.store.Upload(ctx, key, "image/png", data); err == nil {
			return url
		}
	}

	return "data:image/png;base64," + b64
}

// fallbackPrompt frames the object prompt as a product-shot instruction so
// the image model renders the object itself rather than a scene about it.
func fallbackPrompt(req *GenerationRequest) string {
	return fmt.Sprintf("Product concept render of %s. Single object on a neutral background, %s lighting.",
		req.FinalPrompt(), req.Lighting())
}

// Ensure Fallback2DProvider implements both provider interfaces at compile
// time.
var (
	_ Provider          = (*Fallback2DProvider)(nil)
	_ ImageOnlyProvider = (*Fallback2DProvider)(nil)
)
