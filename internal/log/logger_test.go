// SPDX-License-Identifier: MIT

package log

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func captureBase(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	Configure(Config{Level: "debug", Output: &buf, Service: "tvgrid-test", Version: "v0.0.0-test"})
	t.Cleanup(func() { Configure(Config{}) })
	return &buf
}

func TestConfigure_AttachesServiceAndVersion(t *testing.T) {
	buf := captureBase(t)

	logger := WithComponent("unit")
	logger.Info().Msg("configured")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to parse log output: %v", err)
	}
	if entry["service"] != "tvgrid-test" {
		t.Errorf("service = %v", entry["service"])
	}
	if entry["version"] != "v0.0.0-test" {
		t.Errorf("version = %v", entry["version"])
	}
	if entry[FieldComponent] != "unit" {
		t.Errorf("component = %v", entry[FieldComponent])
	}
}

func TestBase(t *testing.T) {
	baseLogger := Base()
	if baseLogger.GetLevel() > zerolog.PanicLevel {
		t.Error("Expected valid base logger with reasonable log level")
	}
}

func TestDerive(t *testing.T) {
	buf := captureBase(t)

	logger := Derive(func(ctx *zerolog.Context) {
		ctx.Str("custom_field", "test_value")
	})
	logger.Info().Msg("derived")

	if !strings.Contains(buf.String(), `"custom_field":"test_value"`) {
		t.Errorf("expected custom field in output, got %s", buf.String())
	}

	if l := Derive(nil); l.GetLevel() > zerolog.PanicLevel {
		t.Error("Expected valid logger from Derive with nil builder")
	}
}

func TestMiddleware_LogsRequest(t *testing.T) {
	buf := captureBase(t)

	h := Middleware()(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	req = req.WithContext(ContextWithRequestID(req.Context(), "req-9"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to parse log output: %v", err)
	}
	if entry[FieldEvent] != "request.handled" {
		t.Errorf("event = %v", entry[FieldEvent])
	}
	if entry[FieldStatus] != float64(http.StatusTeapot) {
		t.Errorf("status = %v", entry[FieldStatus])
	}
	if entry[FieldRequestID] != "req-9" {
		t.Errorf("request_id = %v", entry[FieldRequestID])
	}
}
