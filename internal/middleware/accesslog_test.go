package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/wudi/reqrouter/internal/logging"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observeLogs(t *testing.T) *observer.ObservedLogs {
	t.Helper()

	original := logging.Global()
	core, obs := observer.New(zapcore.DebugLevel)
	logging.SetGlobal(zap.New(core))
	t.Cleanup(func() { logging.SetGlobal(original) })

	return obs
}

func TestAccessLog(t *testing.T) {
	obs := observeLogs(t)

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte("hello"))
	})

	final := AccessLog()(handler)

	req := httptest.NewRequest("POST", "/dctserver.aspx?x=1", nil)
	rr := httptest.NewRecorder()
	final.ServeHTTP(rr, req)

	entries := obs.FilterMessage("HTTP request").All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 access log entry, got %d", len(entries))
	}

	fields := entries[0].ContextMap()
	if fields["method"] != "POST" {
		t.Errorf("method = %v", fields["method"])
	}
	if fields["path"] != "/dctserver.aspx" {
		t.Errorf("path = %v", fields["path"])
	}
	if fields["status"] != int64(http.StatusCreated) {
		t.Errorf("status = %v", fields["status"])
	}
	if fields["body_bytes"] != int64(5) {
		t.Errorf("body_bytes = %v", fields["body_bytes"])
	}
}

func TestAccessLogSkipPaths(t *testing.T) {
	obs := observeLogs(t)

	final := AccessLogWithConfig(AccessLogConfig{SkipPaths: []string{"/healthz"}})(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest("GET", "/healthz", nil)
	rr := httptest.NewRecorder()
	final.ServeHTTP(rr, req)

	if n := len(obs.FilterMessage("HTTP request").All()); n != 0 {
		t.Errorf("expected no access log for skipped path, got %d", n)
	}
}
