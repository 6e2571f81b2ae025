// Package external is the boundary between ridecheck and third-party HTTP
// APIs (weather providers and geocoding). All outbound calls go through
// BaseClient, which applies circuit breaking, trace propagation and error
// mapping. Requests are not retried: a failed fetch degrades to a missing
// observation upstream.
package external

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/sony/gobreaker/v2"

	"ridecheck/internal/types"
)

// maxBodyBytes caps how much of an upstream response is read.
const maxBodyBytes = 1 << 20

// BreakerSettings tunes the circuit breaker of a BaseClient.
type BreakerSettings struct {
	// ConsecutiveFailures trips the breaker once exceeded.
	ConsecutiveFailures uint32
	// OpenTimeout is how long the breaker stays open before probing again.
	OpenTimeout time.Duration
}

// DefaultBreakerSettings returns the settings used for provider clients.
func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{
		ConsecutiveFailures: 5,
		OpenTimeout:         30 * time.Second,
	}
}

// BaseClient wraps an *http.Client with a circuit breaker. Provider clients
// hold one each so an outage at one upstream does not trip the others.
type BaseClient struct {
	client    *http.Client
	breaker   *gobreaker.CircuitBreaker[*http.Response]
	userAgent string
}

// NewBaseClient creates a BaseClient whose breaker is named breakerName.
func NewBaseClient(httpClient *http.Client, breakerName string, settings BreakerSettings, userAgent string) *BaseClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	cb := gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     settings.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > settings.ConsecutiveFailures
		},
		IsSuccessful: func(err error) bool {
			return err == nil
		},
	})

	return &BaseClient{
		client:    httpClient,
		breaker:   cb,
		userAgent: userAgent,
	}
}

// Name returns the breaker name. It doubles as the health probe name.
func (c *BaseClient) Name() string {
	return c.breaker.Name()
}

// State reports the breaker state.
func (c *BaseClient) State() gobreaker.State {
	return c.breaker.State()
}

// Check implements a health probe: it fails while the breaker is open.
func (c *BaseClient) Check(_ context.Context) error {
	if st := c.breaker.State(); st == gobreaker.StateOpen {
		return fmt.Errorf("circuit breaker %s is %s", c.breaker.Name(), st)
	}
	return nil
}

// Do executes req once through the breaker. The X-B3-TraceId header carries
// the request ID from ctx, and User-Agent is always set.
//
// 429 and 5xx responses count as breaker failures and are returned as
// *types.AppError with the body closed. Other 4xx responses are returned
// as-is; the caller closes the body.
func (c *BaseClient) Do(req *http.Request) (*http.Response, error) {
	if traceID := types.GetRequestID(req.Context()); traceID != "" {
		req.Header.Set("X-B3-TraceId", traceID)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.breaker.Execute(func() (*http.Response, error) {
		r, doErr := c.client.Do(req)
		if doErr != nil {
			return nil, doErr
		}
		if r.StatusCode >= 500 || r.StatusCode == http.StatusTooManyRequests {
			return r, fmt.Errorf("upstream returned %d", r.StatusCode)
		}
		return r, nil
	})
	if err == nil {
		return resp, nil
	}

	if resp != nil {
		resp.Body.Close()
	}
	return nil, c.mapError(resp, err)
}

// mapError translates transport failures into AppErrors.
func (c *BaseClient) mapError(resp *http.Response, err error) *types.AppError {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return types.NewAppError(
			types.ErrCodeUpstreamUnavailable,
			fmt.Sprintf("circuit breaker %s is open", c.breaker.Name()),
			err,
		)
	}

	if resp != nil {
		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			return types.NewAppError(types.ErrCodeUpstreamRateLimited, "upstream rate limit exceeded", err)
		case resp.StatusCode >= 500:
			return types.NewAppError(
				types.ErrCodeUpstreamUnavailable,
				fmt.Sprintf("upstream returned %d", resp.StatusCode),
				err,
			)
		}
	}

	return types.NewAppError(types.ErrCodeUpstreamUnavailable, "upstream request failed", err)
}

// decodeJSON reads resp.Body into v, inflating gzip-encoded bodies. Some
// providers compress regardless of what the client negotiated, so the magic
// bytes are checked as well as Content-Encoding.
func decodeJSON(resp *http.Response, v any) error {
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}

	gz := strings.EqualFold(resp.Header.Get("Content-Encoding"), "gzip") ||
		(len(body) >= 2 && body[0] == 0x1f && body[1] == 0x8b)
	if gz {
		zr, err := gzip.NewReader(bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("opening gzip body: %w", err)
		}
		defer zr.Close()
		if body, err = io.ReadAll(io.LimitReader(zr, maxBodyBytes)); err != nil {
			return fmt.Errorf("inflating gzip body: %w", err)
		}
	}

	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("decoding JSON body: %w", err)
	}
	return nil
}

// statusError maps a 4xx response that passed the breaker to an AppError.
func statusError(resp *http.Response, what string) *types.AppError {
	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return types.NewAppError(types.ErrCodeUpstreamAuthRejected,
			fmt.Sprintf("%s rejected credentials (%d)", what, resp.StatusCode), nil)
	case http.StatusNotFound:
		return types.NewAppError(types.ErrCodeNotFoundLocation,
			fmt.Sprintf("%s: location not found", what), nil)
	default:
		return types.NewAppError(types.ErrCodeUpstreamBadPayload,
			fmt.Sprintf("%s returned %d", what, resp.StatusCode), nil)
	}
}

// wrapUpstream tags err with the upstream it came from. AppErrors raised by
// BaseClient keep their code; anything else becomes code.
func wrapUpstream(code types.ErrorCode, upstream string, err error) *types.AppError {
	var appErr *types.AppError
	if errors.As(err, &appErr) {
		return appErr.WithDetails(map[string]any{"upstream": upstream})
	}
	return types.NewAppError(code, upstream+" request failed", err)
}
