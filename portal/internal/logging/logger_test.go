package logging

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewRejectsUnknownLevel(t *testing.T) {
	if _, err := New("loud", false); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}

func TestNewAcceptsLevels(t *testing.T) {
	for _, lvl := range []string{"", "debug", "info", "warn", "error"} {
		logger, err := New(lvl, lvl == "debug")
		if err != nil {
			t.Fatalf("New(%q) error: %v", lvl, err)
		}
		_ = logger.Sync()
	}
}

func TestRequestsLogsStatus(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	handler := Requests(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 log entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["status"] != int64(http.StatusTeapot) {
		t.Fatalf("expected status 418, got %v", fields["status"])
	}
	if fields["path"] != "/health" {
		t.Fatalf("expected path /health, got %v", fields["path"])
	}
}
