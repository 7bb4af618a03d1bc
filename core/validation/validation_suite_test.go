package validation

import (
	"bytes"
	"path/filepath"
	"testing"

	"studio_backend/core"
)

// baseConfig returns a config that passes every check.
func baseConfig(t *testing.T) *core.Config {
	t.Helper()
	return &core.Config{
		Host:          "127.0.0.1",
		Port:          8080,
		MeshyAPIKey:   "msy_test",
		MeshyEndpoint: "https://api.meshy.ai/openapi/v2/text-to-3d",
		DatabasePath:  filepath.Join(t.TempDir(), "history.db"),
	}
}

func runSuite(cfg *core.Config) SuiteResult {
	var buf bytes.Buffer
	return NewValidationSuite(cfg).WithOutput(&buf).WithShowProgress(false).Validate()
}

func TestValidateHealthyConfig(t *testing.T) {
	result := runSuite(baseConfig(t))
	if !result.Success {
		t.Fatalf("validation failed: %v", result.GetFirstError())
	}
	if result.FailedSteps != 0 {
		t.Errorf("FailedSteps = %d, want 0", result.FailedSteps)
	}
}

func TestValidateFailures(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*core.Config)
	}{
		{
			name:   "invalid port",
			mutate: func(cfg *core.Config) { cfg.Port = 0 },
		},
		{
			name: "no providers at all",
			mutate: func(cfg *core.Config) {
				cfg.MeshyAPIKey = ""
			},
		},
		{
			name: "bad endpoint URL",
			mutate: func(cfg *core.Config) {
				cfg.MeshyEndpoint = "not-a-url"
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := baseConfig(t)
			tt.mutate(cfg)

			result := runSuite(cfg)
			if result.Success {
				t.Error("expected validation to fail")
			}
			if result.GetFirstError() == nil {
				t.Error("expected a first error")
			}
		})
	}
}

func TestValidateWarnsOnFallbackOnlyDeployment(t *testing.T) {
	cfg := baseConfig(t)
	cfg.MeshyAPIKey = ""
	cfg.OpenAIAPIKey = "sk-test"

	result := runSuite(cfg)
	if !result.Success {
		t.Fatalf("fallback-only deployment should pass: %v", result.GetFirstError())
	}
	if result.Warnings == 0 {
		t.Error("expected a warning about the missing 3D providers")
	}
}

func TestValidateWarnsWhenStorageAbsent(t *testing.T) {
	result := runSuite(baseConfig(t))
	if result.Warnings == 0 {
		t.Error("expected a storage warning for a config without STORAGE_ENDPOINT")
	}
}
