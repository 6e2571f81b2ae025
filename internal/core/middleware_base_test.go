package core

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"ridecheck/internal/types"
)

func TestRecoverer_NoPanic(t *testing.T) {
	srv := newTestServer(t)
	handler := srv.Recoverer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusOK || rec.Body.String() != `{"ok":true}` {
		t.Errorf("unexpected response %d %s", rec.Code, rec.Body.String())
	}
}

func TestRecoverer_PanicReturnsJSON500(t *testing.T) {
	tests := []struct {
		name  string
		value any
	}{
		{"string", "something broke"},
		{"error", errors.New("typed failure")},
		{"quote in value", `say "hi"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, buf := bufferLogger()
			srv := newTestServer(t)
			srv.Logger = logger

			handler := srv.Recoverer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
				panic(tt.value)
			}))

			req := httptest.NewRequest(http.MethodGet, "/v1/recommendations", nil)
			req = req.WithContext(types.WithRequestID(req.Context(), `req-"1"`))
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != http.StatusInternalServerError {
				t.Fatalf("expected 500, got %d", rec.Code)
			}
			var body APIErrorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("response is not valid JSON: %v (%s)", err, rec.Body.String())
			}
			if body.Error.Code != string(types.ErrCodeInternalUnexpected) {
				t.Errorf("unexpected code %q", body.Error.Code)
			}
			if body.Error.RequestID != `req-"1"` {
				t.Errorf("request id not preserved: %q", body.Error.RequestID)
			}
			if !strings.Contains(buf.String(), "panic recovered") {
				t.Error("expected panic to be logged")
			}
		})
	}
}

func TestRecoverer_AbortHandlerRepanics(t *testing.T) {
	srv := newTestServer(t)
	handler := srv.Recoverer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic(http.ErrAbortHandler)
	}))

	defer func() {
		if rvr := recover(); rvr != http.ErrAbortHandler {
			t.Errorf("expected ErrAbortHandler to propagate, got %v", rvr)
		}
	}()
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
}

func TestSecurityHeadersMiddleware(t *testing.T) {
	srv := newTestServer(t)
	handler := srv.SecurityHeadersMiddleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusCreated {
		t.Errorf("expected downstream status, got %d", rec.Code)
	}
	for header, want := range map[string]string{
		"X-Content-Type-Options": "nosniff",
		"X-Frame-Options":        "DENY",
		"Cache-Control":          "no-store",
	} {
		if got := rec.Header().Get(header); got != want {
			t.Errorf("%s: expected %q, got %q", header, want, got)
		}
	}
}

func TestCORSMiddleware(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })

	tests := []struct {
		name       string
		allowed    []string
		origin     string
		method     string
		wantOrigin string
		wantStatus int
		wantVary   bool
	}{
		{"wildcard", []string{"*"}, "https://a.example", http.MethodGet, "*", http.StatusOK, false},
		{"listed origin", []string{"https://a.example"}, "https://a.example", http.MethodPost, "https://a.example", http.StatusOK, true},
		{"unlisted origin", []string{"https://a.example"}, "https://evil.example", http.MethodGet, "", http.StatusOK, false},
		{"no origin header", []string{"https://a.example"}, "", http.MethodGet, "", http.StatusOK, false},
		{"preflight", []string{"*"}, "https://a.example", http.MethodOptions, "*", http.StatusNoContent, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/v1/topology", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			rec := httptest.NewRecorder()
			NewCORSMiddleware(tt.allowed)(ok).ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, rec.Code)
			}
			if got := rec.Header().Get("Access-Control-Allow-Origin"); got != tt.wantOrigin {
				t.Errorf("expected allow-origin %q, got %q", tt.wantOrigin, got)
			}
			if gotVary := rec.Header().Get("Vary") == "Origin"; gotVary != tt.wantVary {
				t.Errorf("expected Vary: Origin = %v", tt.wantVary)
			}
			if tt.wantOrigin != "" && !strings.Contains(rec.Header().Get("Access-Control-Allow-Headers"), "X-Request-Id") {
				t.Error("expected X-Request-Id in allowed headers")
			}
		})
	}
}

func TestMetricsMiddleware_RecordsRoutePattern(t *testing.T) {
	srv := newTestServer(t)
	metrics := &mockMetricsCollector{}
	srv.Metrics = metrics

	r := chi.NewRouter()
	r.Use(srv.MetricsMiddleware)
	r.Get("/v1/topology", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/topology?home=a&work=b", nil))

	if len(metrics.calls) != 1 {
		t.Fatalf("expected 1 metrics call, got %d", len(metrics.calls))
	}
	call := metrics.calls[0]
	if call.method != http.MethodGet || call.endpoint != "/v1/topology" || call.status != "400" {
		t.Errorf("unexpected call %+v", call)
	}
}

func TestMetricsMiddleware_DefaultsTo200(t *testing.T) {
	srv := newTestServer(t)
	metrics := &mockMetricsCollector{}
	srv.Metrics = metrics

	handler := srv.MetricsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/plain", nil))

	if len(metrics.calls) != 1 || metrics.calls[0].status != "200" || metrics.calls[0].endpoint != "/plain" {
		t.Errorf("unexpected calls %+v", metrics.calls)
	}
}

func TestMetricsMiddleware_NilCollector(t *testing.T) {
	srv := newTestServer(t)
	called := false
	handler := srv.MetricsMiddleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true }))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if !called {
		t.Error("expected pass-through without a collector")
	}
}

func TestRequestLogger(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		wantLevel string
	}{
		{"success", http.StatusOK, "INFO"},
		{"client error", http.StatusBadRequest, "WARN"},
		{"server error", http.StatusBadGateway, "ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, buf := bufferLogger()
			handler := RequestLogger(logger, []string{"authorization"})(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
			}))

			req := httptest.NewRequest(http.MethodPost, "/v1/recommendations", nil)
			req.Header.Set("Authorization", "Bearer secret-token")
			req.Header.Set("X-Trace", "visible")
			req = req.WithContext(types.WithRequestID(req.Context(), "req-42"))
			handler.ServeHTTP(httptest.NewRecorder(), req)

			var entry map[string]any
			if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
				t.Fatalf("log line is not JSON: %v", err)
			}
			if entry["level"] != tt.wantLevel {
				t.Errorf("expected level %s, got %v", tt.wantLevel, entry["level"])
			}
			if entry["path"] != "/v1/recommendations" || entry["request_id"] != "req-42" {
				t.Errorf("missing request metadata: %v", entry)
			}
			if int(entry["status"].(float64)) != tt.status {
				t.Errorf("expected status %d, got %v", tt.status, entry["status"])
			}
			if strings.Contains(buf.String(), "secret-token") {
				t.Error("authorization header leaked into logs")
			}
			headers := entry["headers"].(map[string]any)
			if headers["Authorization"] != "[REDACTED]" || headers["X-Trace"] != "visible" {
				t.Errorf("unexpected headers %v", headers)
			}
		})
	}
}

func TestResponseCapture(t *testing.T) {
	rec := httptest.NewRecorder()
	rc := newResponseCapture(rec)

	rc.WriteHeader(http.StatusAccepted)
	rc.WriteHeader(http.StatusInternalServerError)
	_, _ = rc.Write([]byte("x"))

	if rc.statusCode != http.StatusAccepted {
		t.Errorf("expected first status to win, got %d", rc.statusCode)
	}
	if rc.Unwrap() != rec {
		t.Error("Unwrap should return the wrapped writer")
	}
}
