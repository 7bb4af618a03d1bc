package core

import (
	"crypto/tls"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration values for the generation backend.
type Config struct {
	// Server Configuration
	Host                 string
	Port                 int
	DevMode              bool
	LogFilePath          string
	AllowSelfSignedCerts bool

	// Meshy-style 3D provider (job-based)
	MeshyAPIKey   string
	MeshyEndpoint string

	// Generic external 3D provider (job-based, fully endpoint-driven)
	Object3DAPIKey   string
	Object3DEndpoint string

	// Replicate provider (prediction-based)
	ReplicateAPIToken     string
	ReplicateEndpoint     string
	ReplicateModel        string
	ReplicateModelVersion string // optional explicit version pin

	// OpenAI image fallback (2-D only)
	OpenAIAPIKey     string
	OpenAIImageModel string

	// Blob storage (optional - gates publishing of inline references)
	StorageEndpoint  string
	StorageAPIKey    string
	StoragePublicURL string

	// Persistence
	DatabasePath string

	// Processing Configuration
	AITimeout   time.Duration
	MaxFileSize int64
}

// Helper function to get environment variable with default value
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// Helper function to parse integer environment variable with default value
func parseIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// Helper function to parse int64 environment variable with default value
func parseInt64Env(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// Helper function to parse boolean environment variable with default value.
// Accepts "true", "1", or "yes" (case-insensitive) as true.
func parseBoolEnv(key string, defaultValue bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

// LoadConfig loads configuration from environment variables with sensible
// defaults. All provider credentials are optional: an unconfigured provider
// is skipped at attempt time rather than preventing startup. At least one
// provider should be configured for the service to be useful; the startup
// validation suite reports on this.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Host:                 getEnvOrDefault("HOST", "0.0.0.0"),
		Port:                 parseIntEnv("PORT", 8080),
		DevMode:              parseBoolEnv("DEV_MODE", false),
		LogFilePath:          getEnvOrDefault("LOG_FILE", "app.log"),
		AllowSelfSignedCerts: parseBoolEnv("ALLOW_SELF_SIGNED_CERTS", false),

		MeshyAPIKey:   os.Getenv("MESHY_API_KEY"),
		MeshyEndpoint: getEnvOrDefault("MESHY_ENDPOINT", "https://api.meshy.ai/openapi/v2/text-to-3d"),

		Object3DAPIKey:   os.Getenv("OBJECT3D_API_KEY"),
		Object3DEndpoint: os.Getenv("OBJECT3D_ENDPOINT"),

		ReplicateAPIToken:     os.Getenv("REPLICATE_API_TOKEN"),
		ReplicateEndpoint:     getEnvOrDefault("REPLICATE_ENDPOINT", "https://api.replicate.com/v1"),
		ReplicateModel:        getEnvOrDefault("REPLICATE_MODEL", "cjwbw/shap-e"),
		ReplicateModelVersion: os.Getenv("REPLICATE_MODEL_VERSION"),

		OpenAIAPIKey:     os.Getenv("OPENAI_API_KEY"),
		OpenAIImageModel: getEnvOrDefault("OPENAI_IMAGE_MODEL", "dall-e-2"),

		StorageEndpoint:  os.Getenv("STORAGE_ENDPOINT"),
		StorageAPIKey:    os.Getenv("STORAGE_API_KEY"),
		StoragePublicURL: os.Getenv("STORAGE_PUBLIC_URL"),

		DatabasePath: getEnvOrDefault("DATABASE_PATH", "data/history.db"),

		AITimeout:   time.Duration(parseIntEnv("AI_TIMEOUT_SECONDS", 90)) * time.Second,
		MaxFileSize: parseInt64Env("MAX_FILE_SIZE_BYTES", 10*1024*1024),
	}

	// Legacy variable support
	if cfg.OpenAIAPIKey == "" {
		cfg.OpenAIAPIKey = os.Getenv("OPENAI_KEY")
	}

	return cfg, nil
}

// HasMeshy reports whether the Meshy-style provider is configured.
func (c *Config) HasMeshy() bool {
	return c.MeshyAPIKey != ""
}

// HasObject3D reports whether the generic external 3D provider is configured.
func (c *Config) HasObject3D() bool {
	return c.Object3DAPIKey != "" && c.Object3DEndpoint != ""
}

// HasReplicate reports whether the Replicate provider is configured.
func (c *Config) HasReplicate() bool {
	return c.ReplicateAPIToken != ""
}

// HasOpenAI reports whether the OpenAI image fallback is configured.
func (c *Config) HasOpenAI() bool {
	return c.OpenAIAPIKey != ""
}

// HasStorage reports whether blob storage uploads are enabled.
func (c *Config) HasStorage() bool {
	return c.StorageEndpoint != "" && c.StoragePublicURL != ""
}

// GetHTTPClient returns an HTTP client configured with the given timeout and
// the TLS settings from the config. Providers share this factory so the
// self-signed certificate override applies uniformly.
func GetHTTPClient(cfg *Config, timeout time.Duration) *http.Client {
	transport := &http.Transport{}
	if cfg != nil && cfg.AllowSelfSignedCerts {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}
