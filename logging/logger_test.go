package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// bufferSyncer adapts bytes.Buffer to zapcore.WriteSyncer for tests.
type bufferSyncer struct {
	bytes.Buffer
}

func (b *bufferSyncer) Sync() error { return nil }

// newTestLogger builds a Logger writing JSON to the returned buffer.
func newTestLogger(t *testing.T) (*Logger, *bufferSyncer) {
	t.Helper()
	buf := &bufferSyncer{}
	core := NewMultiCoreWithWriters(zapcore.DebugLevel, buf, zapcore.AddSync(&bytes.Buffer{}), false)
	zapLogger := zap.New(core)
	return &Logger{zap: zapLogger, sugar: zapLogger.Sugar()}, buf
}

func TestLoggerWritesStructuredJSON(t *testing.T) {
	logger, buf := newTestLogger(t)

	logger.Info("request complete",
		zap.String("provider", "meshy"),
		zap.Int("downloads", 2))

	line := strings.TrimSpace(buf.String())
	var entry map[string]interface{}
	if err := json.Unmarshal([]byte(line), &entry); err != nil {
		t.Fatalf("log output is not JSON: %v\noutput: %s", err, line)
	}

	if entry[FieldMessage] != "request complete" {
		t.Errorf("message = %v, want %q", entry[FieldMessage], "request complete")
	}
	if entry["provider"] != "meshy" {
		t.Errorf("provider = %v, want meshy", entry["provider"])
	}
	if entry[FieldLevel] != "info" {
		t.Errorf("level = %v, want info", entry[FieldLevel])
	}
}

func TestLoggerRedactsSensitiveFields(t *testing.T) {
	logger, buf := newTestLogger(t)

	logger.Info("provider configured",
		zap.String("MESHY_API_KEY", "msy_abcdefghijklmnopqrstuvwx"))

	out := buf.String()
	if strings.Contains(out, "msy_abcdefghijklmnopqrstuvwx") {
		t.Errorf("sensitive value leaked into log output: %s", out)
	}
	if !strings.Contains(out, RedactedPlaceholder) {
		t.Errorf("expected redaction placeholder in output: %s", out)
	}
}

func TestLoggerRedactsSensitiveValues(t *testing.T) {
	logger, buf := newTestLogger(t)

	logger.Warn("upstream rejected request",
		zap.String("detail", "invalid key sk-proj-abcdefghijklmnopqrstuvwxyz"))

	out := buf.String()
	if strings.Contains(out, "sk-proj-abcdefghijklmnopqrstuvwxyz") {
		t.Errorf("sensitive value leaked into log output: %s", out)
	}
}

func TestNamedAndWithPreserveRedaction(t *testing.T) {
	logger, buf := newTestLogger(t)

	child := logger.Named("objectgen").With(zap.String("correlation_id", "abc123"))
	child.Info("attempting provider", zap.String("api_key", "sk-secretsecretsecretsecret"))

	out := buf.String()
	if !strings.Contains(out, "abc123") {
		t.Errorf("expected correlation id in output: %s", out)
	}
	if strings.Contains(out, "sk-secretsecretsecretsecret") {
		t.Errorf("sensitive value leaked via child logger: %s", out)
	}
}

func TestNopLoggerDoesNotPanic(t *testing.T) {
	logger := NewNop()
	logger.Info("ignored")
	logger.Debugf("ignored %d", 1)
	if err := logger.Sync(); err != nil {
		t.Errorf("Sync() on nop logger = %v, want nil", err)
	}
}
