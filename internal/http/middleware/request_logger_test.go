package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/imedsys/appointment-gateway/pkg/logging"
)

func TestRequestLoggerRecordsStatus(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewWithWriter(&buf, "info")

	mw := RequestLogger(logger)
	req := httptest.NewRequest(http.MethodGet, "/api/appointments/list", nil)
	rec := httptest.NewRecorder()

	mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})).ServeHTTP(rec, req)

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("expected JSON log line, got %q: %v", buf.String(), err)
	}
	if record["path"] != "/api/appointments/list" {
		t.Fatalf("expected path attribute, got %v", record)
	}
	if record["status"] != float64(http.StatusBadGateway) {
		t.Fatalf("expected status attribute, got %v", record)
	}
}
