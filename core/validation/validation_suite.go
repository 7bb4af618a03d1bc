// Package validation runs the startup checks that decide whether the service
// can come up at all: provider credentials, endpoint URLs, storage
// configuration, and a writable data directory. Results print as a colored
// checklist on the console.
package validation

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/fatih/color"

	"studio_backend/core"
)

// StepStatus is the outcome of a single validation step.
type StepStatus int

const (
	StepPassed StepStatus = iota
	StepFailed
	StepWarning
)

// String returns the string representation of a step status.
func (s StepStatus) String() string {
	switch s {
	case StepPassed:
		return "passed"
	case StepFailed:
		return "failed"
	case StepWarning:
		return "warning"
	default:
		return "unknown"
	}
}

// ValidationStep is one completed check.
type ValidationStep struct {
	Name    string
	Status  StepStatus
	Message string
	Error   error
	Latency time.Duration
}

// SuiteResult is the aggregate of a validation run.
type SuiteResult struct {
	Steps       []ValidationStep
	TotalSteps  int
	PassedSteps int
	FailedSteps int
	Warnings    int
	Duration    time.Duration
	Success     bool
}

// GetFirstError returns the first failed step's error, or nil.
func (r SuiteResult) GetFirstError() error {
	for _, step := range r.Steps {
		if step.Status == StepFailed && step.Error != nil {
			return step.Error
		}
	}
	return nil
}

// ValidationSuite checks a loaded configuration before the service starts.
// Warnings (e.g. no blob storage) do not fail the suite; only hard
// misconfigurations do.
type ValidationSuite struct {
	config       *core.Config
	output       io.Writer
	showProgress bool
}

// NewValidationSuite creates a suite for the given configuration.
func NewValidationSuite(cfg *core.Config) *ValidationSuite {
	return &ValidationSuite{
		config:       cfg,
		output:       os.Stdout,
		showProgress: true,
	}
}

// WithOutput sets the output writer for progress messages.
func (s *ValidationSuite) WithOutput(w io.Writer) *ValidationSuite {
	s.output = w
	return s
}

// WithShowProgress enables or disables console output.
func (s *ValidationSuite) WithShowProgress(show bool) *ValidationSuite {
	s.showProgress = show
	return s
}

// Validate runs every check and prints the checklist.
func (s *ValidationSuite) Validate() SuiteResult {
	startTime := time.Now()
	if s.showProgress {
		s.printHeader("Startup Validation")
	}

	steps := []ValidationStep{
		s.runStep("Listen port", s.checkPort),
		s.runStep("Provider credentials", s.checkProviders),
		s.runStep("Provider endpoints", s.checkEndpoints),
		s.runStep("Blob storage", s.checkStorage),
		s.runStep("Data directory", s.checkDataDir),
	}

	result := s.buildResult(steps, startTime)
	if s.showProgress {
		s.printSummary(result)
	}
	return result
}

// runStep executes one check and prints its line.
func (s *ValidationSuite) runStep(name string, fn func() (StepStatus, string, error)) ValidationStep {
	startTime := time.Now()
	status, message, err := fn()

	step := ValidationStep{
		Name:    name,
		Status:  status,
		Message: message,
		Error:   err,
		Latency: time.Since(startTime),
	}
	if s.showProgress {
		s.printStep(step)
	}
	return step
}

// checkPort validates the configured listen port.
func (s *ValidationSuite) checkPort() (StepStatus, string, error) {
	if s.config.Port < 1 || s.config.Port > 65535 {
		return StepFailed, "", core.ErrInvalidPort(s.config.Port)
	}
	return StepPassed, fmt.Sprintf("%s:%d", s.config.Host, s.config.Port), nil
}

// checkProviders requires at least one generation provider. A deployment
// with only the 2D fallback comes up, with a warning.
func (s *ValidationSuite) checkProviders() (StepStatus, string, error) {
	configured := []string{}
	if s.config.HasMeshy() {
		configured = append(configured, "meshy")
	}
	if s.config.HasObject3D() {
		configured = append(configured, "object3d")
	}
	if s.config.HasReplicate() {
		configured = append(configured, "replicate")
	}
	if s.config.HasOpenAI() {
		configured = append(configured, "openai-image")
	}

	if len(configured) == 0 {
		return StepFailed, "", core.ErrNoProviders()
	}
	if !s.config.HasMeshy() && !s.config.HasObject3D() && !s.config.HasReplicate() {
		return StepWarning, "only the 2D fallback is configured; no provider can produce model files", nil
	}
	return StepPassed, fmt.Sprintf("%d configured: %v", len(configured), configured), nil
}

// checkEndpoints validates that every configured endpoint parses as an
// absolute http(s) URL.
func (s *ValidationSuite) checkEndpoints() (StepStatus, string, error) {
	endpoints := map[string]string{
		"MESHY_ENDPOINT":     s.config.MeshyEndpoint,
		"OBJECT3D_ENDPOINT":  s.config.Object3DEndpoint,
		"REPLICATE_ENDPOINT": s.config.ReplicateEndpoint,
		"STORAGE_ENDPOINT":   s.config.StorageEndpoint,
	}

	checked := 0
	for name, endpoint := range endpoints {
		if endpoint == "" {
			continue
		}
		parsed, err := url.Parse(endpoint)
		if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
			return StepFailed, "", core.ErrInvalidEndpoint(name, endpoint, "not an absolute http(s) URL")
		}
		checked++
	}
	return StepPassed, fmt.Sprintf("%d endpoints checked", checked), nil
}

// checkStorage warns when blob storage is absent: inline reference images
// and fallback renders then degrade to data URIs.
func (s *ValidationSuite) checkStorage() (StepStatus, string, error) {
	if !s.config.HasStorage() {
		return StepWarning, "not configured; inline references and fallback renders stay inline", nil
	}
	return StepPassed, s.config.StorageEndpoint, nil
}

// checkDataDir verifies the database directory is creatable and writable.
func (s *ValidationSuite) checkDataDir() (StepStatus, string, error) {
	dir := filepath.Dir(s.config.DatabasePath)
	if dir == "" || dir == "." {
		dir = "."
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return StepFailed, "", core.ErrDataDirReadOnly(dir, err.Error())
	}

	probe := filepath.Join(dir, ".write-probe")
	if err := os.WriteFile(probe, []byte("ok"), 0644); err != nil {
		return StepFailed, "", core.ErrDataDirReadOnly(dir, err.Error())
	}
	os.Remove(probe)

	return StepPassed, dir, nil
}

// buildResult aggregates completed steps.
func (s *ValidationSuite) buildResult(steps []ValidationStep, startTime time.Time) SuiteResult {
	result := SuiteResult{
		Steps:      steps,
		TotalSteps: len(steps),
		Duration:   time.Since(startTime),
		Success:    true,
	}
	for _, step := range steps {
		switch step.Status {
		case StepPassed:
			result.PassedSteps++
		case StepFailed:
			result.FailedSteps++
			result.Success = false
		case StepWarning:
			result.Warnings++
		}
	}
	return result
}

func (s *ValidationSuite) printHeader(title string) {
	fmt.Fprintln(s.output)
	headerColor := color.New(color.FgCyan, color.Bold)
	headerColor.Fprintf(s.output, "━━━ %s ━━━\n", title)
	fmt.Fprintln(s.output)
}

func (s *ValidationSuite) printStep(step ValidationStep) {
	var icon string
	var clr *color.Color

	switch step.Status {
	case StepPassed:
		icon = "✓"
		clr = color.New(color.FgGreen)
	case StepFailed:
		icon = "✗"
		clr = color.New(color.FgRed)
	case StepWarning:
		icon = "!"
		clr = color.New(color.FgYellow)
	default:
		icon = "?"
		clr = color.New(color.FgWhite)
	}

	clr.Fprintf(s.output, "  %s %s", icon, step.Name)
	if step.Message != "" {
		color.New(color.FgHiBlack).Fprintf(s.output, " - %s", step.Message)
	}
	fmt.Fprintln(s.output)

	if step.Status == StepFailed && step.Error != nil {
		color.New(color.FgRed).Fprintf(s.output, "    └─ %s\n", step.Error.Error())
	}
}

func (s *ValidationSuite) printSummary(result SuiteResult) {
	fmt.Fprintln(s.output)
	if result.Success {
		successColor := color.New(color.FgGreen, color.Bold)
		successColor.Fprintf(s.output, "━━━ Validation Passed ")
		color.New(color.FgHiBlack).Fprintf(s.output, "(%d/%d checks passed in %v)",
			result.PassedSteps, result.TotalSteps, result.Duration.Round(time.Millisecond))
		successColor.Fprintln(s.output, " ━━━")
	} else {
		failColor := color.New(color.FgRed, color.Bold)
		failColor.Fprintf(s.output, "━━━ Validation Failed ")
		color.New(color.FgHiBlack).Fprintf(s.output, "(%d passed, %d failed)",
			result.PassedSteps, result.FailedSteps)
		failColor.Fprintln(s.output, " ━━━")
	}
	fmt.Fprintln(s.output)
}
