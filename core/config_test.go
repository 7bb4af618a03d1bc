package core

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// clearProviderEnv blanks every provider-related variable so tests control
// exactly which ones are set.
func clearProviderEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"HOST", "PORT", "DEV_MODE", "LOG_FILE", "ALLOW_SELF_SIGNED_CERTS",
		"MESHY_API_KEY", "MESHY_ENDPOINT",
		"OBJECT3D_API_KEY", "OBJECT3D_ENDPOINT",
		"REPLICATE_API_TOKEN", "REPLICATE_ENDPOINT", "REPLICATE_MODEL", "REPLICATE_MODEL_VERSION",
		"OPENAI_API_KEY", "OPENAI_KEY", "OPENAI_IMAGE_MODEL",
		"STORAGE_ENDPOINT", "STORAGE_API_KEY", "STORAGE_PUBLIC_URL",
		"DATABASE_PATH", "AI_TIMEOUT_SECONDS", "MAX_FILE_SIZE_BYTES",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	clearProviderEnv(t)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}

	if cfg.Host != "0.0.0.0" {
		t.Errorf("Host = %q, want 0.0.0.0", cfg.Host)
	}
	if cfg.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Port)
	}
	if cfg.DevMode {
		t.Error("DevMode = true, want false")
	}
	if cfg.MeshyEndpoint == "" {
		t.Error("MeshyEndpoint default is empty")
	}
	if cfg.ReplicateModel != "cjwbw/shap-e" {
		t.Errorf("ReplicateModel = %q, want cjwbw/shap-e", cfg.ReplicateModel)
	}
	if cfg.DatabasePath != "data/history.db" {
		t.Errorf("DatabasePath = %q, want data/history.db", cfg.DatabasePath)
	}
	if cfg.AITimeout != 90*time.Second {
		t.Errorf("AITimeout = %v, want 90s", cfg.AITimeout)
	}
	if cfg.MaxFileSize != 10*1024*1024 {
		t.Errorf("MaxFileSize = %d, want 10MiB", cfg.MaxFileSize)
	}
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	clearProviderEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("DEV_MODE", "yes")
	t.Setenv("AI_TIMEOUT_SECONDS", "30")
	t.Setenv("MESHY_API_KEY", "meshy-key")
	t.Setenv("REPLICATE_MODEL_VERSION", "abc123")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}

	if cfg.Port != 9090 {
		t.Errorf("Port = %d, want 9090", cfg.Port)
	}
	if !cfg.DevMode {
		t.Error("DevMode = false, want true for DEV_MODE=yes")
	}
	if cfg.AITimeout != 30*time.Second {
		t.Errorf("AITimeout = %v, want 30s", cfg.AITimeout)
	}
	if cfg.MeshyAPIKey != "meshy-key" {
		t.Errorf("MeshyAPIKey = %q, want meshy-key", cfg.MeshyAPIKey)
	}
	if cfg.ReplicateModelVersion != "abc123" {
		t.Errorf("ReplicateModelVersion = %q, want abc123", cfg.ReplicateModelVersion)
	}
}

func TestLoadConfig_InvalidIntFallsBackToDefault(t *testing.T) {
	clearProviderEnv(t)
	t.Setenv("PORT", "not-a-number")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.Port != 8080 {
		t.Errorf("Port = %d, want default 8080 for unparseable value", cfg.Port)
	}
}

func TestLoadConfig_LegacyOpenAIKey(t *testing.T) {
	clearProviderEnv(t)
	t.Setenv("OPENAI_KEY", "legacy-key")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.OpenAIAPIKey != "legacy-key" {
		t.Errorf("OpenAIAPIKey = %q, want legacy-key from OPENAI_KEY", cfg.OpenAIAPIKey)
	}

	// The modern variable wins when both are set.
	t.Setenv("OPENAI_API_KEY", "modern-key")
	cfg, _ = LoadConfig()
	if cfg.OpenAIAPIKey != "modern-key" {
		t.Errorf("OpenAIAPIKey = %q, want modern-key", cfg.OpenAIAPIKey)
	}
}

func TestConfig_HasPredicates(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		fn   func(*Config) bool
		want bool
	}{
		{"meshy configured", Config{MeshyAPIKey: "k"}, (*Config).HasMeshy, true},
		{"meshy absent", Config{}, (*Config).HasMeshy, false},
		{"object3d needs both", Config{Object3DAPIKey: "k"}, (*Config).HasObject3D, false},
		{"object3d configured", Config{Object3DAPIKey: "k", Object3DEndpoint: "https://x"}, (*Config).HasObject3D, true},
		{"replicate configured", Config{ReplicateAPIToken: "t"}, (*Config).HasReplicate, true},
		{"openai configured", Config{OpenAIAPIKey: "k"}, (*Config).HasOpenAI, true},
		{"storage needs public url", Config{StorageEndpoint: "https://x"}, (*Config).HasStorage, false},
		{"storage configured", Config{StorageEndpoint: "https://x", StoragePublicURL: "https://cdn"}, (*Config).HasStorage, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.fn(&tt.cfg); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetHTTPClient(t *testing.T) {
	client := GetHTTPClient(&Config{}, 5*time.Second)
	if client.Timeout != 5*time.Second {
		t.Errorf("Timeout = %v, want 5s", client.Timeout)
	}

	// Self-signed override must actually reach a TLS server with a
	// certificate no system root would trust.
	server := httptest.NewTLSServer(nil)
	defer server.Close()

	strict := GetHTTPClient(&Config{}, 5*time.Second)
	if _, err := strict.Get(server.URL); err == nil {
		t.Error("strict client accepted a self-signed certificate")
	}

	relaxed := GetHTTPClient(&Config{AllowSelfSignedCerts: true}, 5*time.Second)
	resp, err := relaxed.Get(server.URL)
	if err != nil {
		t.Fatalf("relaxed client rejected self-signed certificate: %v", err)
	}
	resp.Body.Close()

	transport := relaxed.Transport.(*http.Transport)
	if transport.TLSClientConfig == nil || !transport.TLSClientConfig.InsecureSkipVerify {
		t.Error("relaxed client transport does not skip certificate verification")
	}
}
