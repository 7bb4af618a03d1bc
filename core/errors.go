package core

import (
	"fmt"
)

// ConfigError represents a configuration-related error with actionable instructions.
type ConfigError struct {
	Code    string // Error code for programmatic handling
	Message string // Human-readable error message
	Action  string // Actionable instruction for resolution
}

func (e *ConfigError) Error() string {
	if e.Action != "" {
		return fmt.Sprintf("%s. %s", e.Message, e.Action)
	}
	return e.Message
}

// Error codes for configuration errors
const (
	ErrCodeEnvFileMissing   = "ENV_FILE_MISSING"
	ErrCodeNoProviders      = "NO_PROVIDERS"
	ErrCodeInvalidEndpoint  = "INVALID_ENDPOINT"
	ErrCodeStorageDisabled  = "STORAGE_DISABLED"
	ErrCodeDataDirReadOnly  = "DATA_DIR_READONLY"
	ErrCodeInvalidPort      = "INVALID_PORT"
	ErrCodeMissingCredential = "MISSING_CREDENTIAL"
)

// ErrEnvFileMissing returns an error for a missing .env file
func ErrEnvFileMissing(path string) *ConfigError {
	return &ConfigError{
		Code:    ErrCodeEnvFileMissing,
		Message: fmt.Sprintf("Configuration file not found: %s", path),
		Action:  "Copy example.env to .env and configure the required values",
	}
}

// ErrNoProviders returns an error when no generation provider is configured.
func ErrNoProviders() *ConfigError {
	return &ConfigError{
		Code:    ErrCodeNoProviders,
		Message: "No generation provider is configured",
		Action: "Set at least one of MESHY_API_KEY, OBJECT3D_API_KEY+OBJECT3D_ENDPOINT, " +
			"REPLICATE_API_TOKEN, or OPENAI_API_KEY in your .env file",
	}
}

// ErrInvalidEndpoint returns an error for an endpoint that is not a valid URL.
func ErrInvalidEndpoint(name, url, reason string) *ConfigError {
	return &ConfigError{
		Code:    ErrCodeInvalidEndpoint,
		Message: fmt.Sprintf("Invalid %s URL '%s': %s", name, url, reason),
		Action:  fmt.Sprintf("Set %s to a valid http(s) URL", name),
	}
}

// ErrMissingCredential returns an error for a provider with a partial configuration.
func ErrMissingCredential(provider, variable string) *ConfigError {
	return &ConfigError{
		Code:    ErrCodeMissingCredential,
		Message: fmt.Sprintf("Provider %s is partially configured", provider),
		Action:  fmt.Sprintf("Set %s in your .env file or remove the related variables", variable),
	}
}

// ErrInvalidPort returns an error for an out-of-range port value.
func ErrInvalidPort(port int) *ConfigError {
	return &ConfigError{
		Code:    ErrCodeInvalidPort,
		Message: fmt.Sprintf("Invalid port %d", port),
		Action:  "Set PORT to a value between 1 and 65535",
	}
}

// ErrDataDirReadOnly returns an error when the data directory cannot be written.
func ErrDataDirReadOnly(path string, reason string) *ConfigError {
	return &ConfigError{
		Code:    ErrCodeDataDirReadOnly,
		Message: fmt.Sprintf("Data directory %s is not writable: %s", path, reason),
		Action:  "Check directory permissions or set DATABASE_PATH to a writable location",
	}
}
