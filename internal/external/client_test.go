package external

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/sony/gobreaker/v2"

	"ridecheck/internal/types"
)

func newTestBase(t *testing.T) *BaseClient {
	t.Helper()
	return NewBaseClient(&http.Client{Timeout: 5 * time.Second}, "test-breaker",
		BreakerSettings{ConsecutiveFailures: 2, OpenTimeout: time.Minute}, "RideCheck-Test/1.0")
}

func gzipBytes(t *testing.T, s string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write([]byte(s)); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func appErrCode(t *testing.T, err error) types.ErrorCode {
	t.Helper()
	var appErr *types.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected *types.AppError, got %T: %v", err, err)
	}
	return appErr.Code
}

func TestDo_InjectsHeaders(t *testing.T) {
	var gotTrace, gotUA string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotTrace = r.Header.Get("X-B3-TraceId")
		gotUA = r.Header.Get("User-Agent")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	ctx := types.WithRequestID(context.Background(), "trace-abc-123")
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, server.URL, nil)

	resp, err := newTestBase(t).Do(req)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	resp.Body.Close()

	if gotTrace != "trace-abc-123" {
		t.Errorf("X-B3-TraceId = %q, want trace-abc-123", gotTrace)
	}
	if gotUA != "RideCheck-Test/1.0" {
		t.Errorf("User-Agent = %q, want RideCheck-Test/1.0", gotUA)
	}
}

func TestDo_NoRetryOnServerError(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	req, _ := http.NewRequestWithContext(context.Background(), http.MethodGet, server.URL, nil)
	_, err := newTestBase(t).Do(req)

	if code := appErrCode(t, err); code != types.ErrCodeUpstreamUnavailable {
		t.Errorf("code = %s, want %s", code, types.ErrCodeUpstreamUnavailable)
	}
	if calls.Load() != 1 {
		t.Errorf("server called %d times, want exactly 1", calls.Load())
	}
}

func TestDo_RateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	req, _ := http.NewRequestWithContext(context.Background(), http.MethodGet, server.URL, nil)
	_, err := newTestBase(t).Do(req)

	if code := appErrCode(t, err); code != types.ErrCodeUpstreamRateLimited {
		t.Errorf("code = %s, want %s", code, types.ErrCodeUpstreamRateLimited)
	}
}

func TestDo_ClientErrorPassesThrough(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	req, _ := http.NewRequestWithContext(context.Background(), http.MethodGet, server.URL, nil)
	resp, err := newTestBase(t).Do(req)
	if err != nil {
		t.Fatalf("4xx should not be an error, got %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", resp.StatusCode)
	}
	if code := statusError(resp, "test").Code; code != types.ErrCodeUpstreamAuthRejected {
		t.Errorf("statusError code = %s, want %s", code, types.ErrCodeUpstreamAuthRejected)
	}
}

func TestDo_BreakerOpens(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := newTestBase(t)
	for range 3 {
		req, _ := http.NewRequestWithContext(context.Background(), http.MethodGet, server.URL, nil)
		_, _ = client.Do(req)
	}

	if client.State() != gobreaker.StateOpen {
		t.Fatalf("breaker state = %s, want open", client.State())
	}
	if err := client.Check(context.Background()); err == nil {
		t.Error("Check should fail while the breaker is open")
	}

	req, _ := http.NewRequestWithContext(context.Background(), http.MethodGet, server.URL, nil)
	_, err := client.Do(req)
	if code := appErrCode(t, err); code != types.ErrCodeUpstreamUnavailable {
		t.Errorf("code = %s, want %s", code, types.ErrCodeUpstreamUnavailable)
	}
	if calls.Load() != 3 {
		t.Errorf("open breaker should short-circuit; server called %d times", calls.Load())
	}
}

func TestDo_NetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	req, _ := http.NewRequestWithContext(context.Background(), http.MethodGet, url, nil)
	_, err := newTestBase(t).Do(req)
	if code := appErrCode(t, err); code != types.ErrCodeUpstreamUnavailable {
		t.Errorf("code = %s, want %s", code, types.ErrCodeUpstreamUnavailable)
	}
}

func TestDecodeJSON_Gzip(t *testing.T) {
	tests := []struct {
		name   string
		header string
	}{
		{"declared", "gzip"},
		{"undeclared", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := &http.Response{
				Header: http.Header{},
				Body:   http.NoBody,
			}
			if tt.header != "" {
				resp.Header.Set("Content-Encoding", tt.header)
			}
			resp.Body = io.NopCloser(bytes.NewReader(gzipBytes(t, `{"code":"200"}`)))

			var v struct {
				Code string `json:"code"`
			}
			if err := decodeJSON(resp, &v); err != nil {
				t.Fatalf("decodeJSON: %v", err)
			}
			if v.Code != "200" {
				t.Errorf("Code = %q, want 200", v.Code)
			}
		})
	}
}
