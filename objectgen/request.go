// Package objectgen implements the multi-provider 3D object generation
// pipeline.
//
// request.go validates and bounds the raw request body and composes the
// final provider-facing prompt.
package objectgen

import (
	"fmt"
	"math"
	"regexp"
	"strings"
)

// Request bounds.
const (
	// MaxPromptLength is the maximum prompt length after whitespace collapsing.
	MaxPromptLength = 1200

	// MaxStyleFieldLength bounds the material and lighting fields.
	MaxStyleFieldLength = 80

	// DefaultMaterial is used when no material is supplied.
	DefaultMaterial = "metallic"

	// DefaultLighting is used when no lighting is supplied.
	DefaultLighting = "studio"

	// DefaultDetail is used when detail is absent or not a finite number.
	DefaultDetail = 70

	// MinDetail and MaxDetail bound the detail value.
	MinDetail = 20
	MaxDetail = 100
)

// RawGenerationRequest is the untyped request body as received over HTTP.
type RawGenerationRequest struct {
	Prompt     string         `json:"prompt"`
	Material   string         `json:"material,omitempty"`
	Lighting   string         `json:"lighting,omitempty"`
	Detail     *float64       `json:"detail,omitempty"`
	References *RawReferences `json:"references,omitempty"`
}

// RawReferences carries the two optional reference image slots in raw form.
type RawReferences struct {
	Product string `json:"product,omitempty"`
	Brand   string `json:"brand,omitempty"`
}

// GenerationRequest is a validated, bounded creative request. Immutable once
// built; all access goes through getters.
type GenerationRequest struct {
	prompt      string
	material    string
	lighting    string
	detail      int
	finalPrompt string
	productRef  string
	brandRef    string
}

// Prompt returns the cleaned user prompt.
func (r *GenerationRequest) Prompt() string { return r.prompt }

// Material returns the normalized material value.
func (r *GenerationRequest) Material() string { return r.material }

// Lighting returns the normalized lighting value.
func (r *GenerationRequest) Lighting() string { return r.lighting }

// Detail returns the detail value, always within [MinDetail, MaxDetail].
func (r *GenerationRequest) Detail() int { return r.detail }

// FinalPrompt returns the composed provider-facing prompt text.
func (r *GenerationRequest) FinalPrompt() string { return r.finalPrompt }

// ProductRef returns the raw product reference value, or "".
func (r *GenerationRequest) ProductRef() string { return r.productRef }

// BrandRef returns the raw brand reference value, or "".
func (r *GenerationRequest) BrandRef() string { return r.brandRef }

// whitespaceRun matches runs of whitespace for prompt collapsing.
var whitespaceRun = regexp.MustCompile(`\s+`)

// NormalizeRequest validates and bounds a raw request body.
//
// The prompt is trimmed, whitespace-collapsed, and truncated to
// MaxPromptLength; a prompt that is empty after trimming is rejected with an
// InvalidInputError. Material and lighting are lower-cased, truncated, and
// defaulted. Detail is clamped to [MinDetail, MaxDetail] and rounded, with
// non-finite or absent values replaced by DefaultDetail. The final prompt is
// composed deterministically from the cleaned values.
func NormalizeRequest(raw RawGenerationRequest) (*GenerationRequest, error) {
	prompt := strings.TrimSpace(whitespaceRun.ReplaceAllString(raw.Prompt, " "))
	if prompt == "" {
		return nil, &InvalidInputError{Reason: "prompt is required"}
	}
	prompt = truncate(prompt, MaxPromptLength)

	material := normalizeStyleField(raw.Material, DefaultMaterial)
	lighting := normalizeStyleField(raw.Lighting, DefaultLighting)
	detail := normalizeDetail(raw.Detail)

	req := &GenerationRequest{
		prompt:      prompt,
		material:    material,
		lighting:    lighting,
		detail:      detail,
		finalPrompt: composePrompt(prompt, material, lighting, detail),
	}
	if raw.References != nil {
		req.productRef = strings.TrimSpace(raw.References.Product)
		req.brandRef = strings.TrimSpace(raw.References.Brand)
	}
	return req, nil
}

// normalizeStyleField lower-cases, trims, bounds, and defaults a free-form
// style field.
func normalizeStyleField(value, defaultValue string) string {
	cleaned := strings.ToLower(strings.TrimSpace(value))
	if cleaned == "" {
		return defaultValue
	}
	return truncate(cleaned, MaxStyleFieldLength)
}

// normalizeDetail coerces the detail value to a bounded integer.
func normalizeDetail(value *float64) int {
	if value == nil || math.IsNaN(*value) || math.IsInf(*value, 0) {
		return DefaultDetail
	}
	detail := int(math.Round(*value))
	if detail < MinDetail {
		return MinDetail
	}
	if detail > MaxDetail {
		return MaxDetail
	}
	return detail
}

// truncate bounds s to max runes.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

// composePrompt builds the provider-facing prompt text from the cleaned
// request values. Deterministic string composition, no randomness.
func composePrompt(prompt, material, lighting string, detail int) string {
	head := prompt
	if !strings.HasSuffix(head, ".") && !strings.HasSuffix(head, "!") && !strings.HasSuffix(head, "?") {
		head += "."
	}
	parts := []string{
		head,
		fmt.Sprintf("Material: %s.", materialHint(material)),
		fmt.Sprintf("Lighting: %s.", lightingHint(lighting)),
		fmt.Sprintf("Detail level %d of 100.", detail),
		"Single centered subject, clean background, production-ready 3D asset.",
	}
	return strings.Join(parts, " ")
}
