package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestAPIError(t *testing.T) {
	tests := []struct {
		name       string
		err        *APIError
		wantMsg    string
		wantUnwrap error
	}{
		{
			name:       "not found",
			err:        &APIError{Service: "speech", StatusCode: 404, Message: "voice not found", Endpoint: "/v1/speech"},
			wantMsg:    "speech API error (404) at /v1/speech: voice not found",
			wantUnwrap: ErrNotFound,
		},
		{
			name:       "with request ID",
			err:        &APIError{Service: "speech", StatusCode: 503, Message: "overloaded", Endpoint: "/v1/speech", RequestID: "abc123"},
			wantMsg:    "speech API error (503) at /v1/speech [abc123]: overloaded",
			wantUnwrap: ErrServerError,
		},
		{
			name:       "rate limited without message",
			err:        &APIError{Service: "speech", StatusCode: 429, Endpoint: "/v1/speech"},
			wantMsg:    "speech API error (429) at /v1/speech: status 429",
			wantUnwrap: ErrRateLimited,
		},
		{
			name:       "unauthorized",
			err:        &APIError{Service: "speech", StatusCode: 401, Message: "bad token", Endpoint: "/v1/speech"},
			wantMsg:    "speech API error (401) at /v1/speech: bad token",
			wantUnwrap: ErrUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMsg {
				t.Errorf("Error() = %q, want %q", got, tt.wantMsg)
			}
			if !errors.Is(tt.err, tt.wantUnwrap) {
				t.Errorf("errors.Is(%v) = false", tt.wantUnwrap)
			}
		})
	}
}

func TestIsRetryable(t *testing.T) {
	if !IsRetryable(&APIError{StatusCode: 502}) {
		t.Error("502 should be retryable")
	}
	if IsRetryable(&APIError{StatusCode: 400}) {
		t.Error("400 should not be retryable")
	}
	if IsRetryable(errors.New("boom")) {
		t.Error("plain error should not be retryable")
	}
}

func TestClient_PostRaw(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer k" {
			t.Errorf("Authorization = %q", got)
		}
		if got := r.Header.Get("Accept"); got != "audio/wav" {
			t.Errorf("Accept = %q", got)
		}
		w.Header().Set("Content-Type", "audio/wav")
		_, _ = w.Write([]byte("RIFF"))
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{
		BaseURL:     srv.URL,
		ServiceName: "speech",
		Authorize: func(req *http.Request) error {
			req.Header.Set("Authorization", "Bearer k")
			return nil
		},
	})

	data, ct, err := c.PostRaw(context.Background(), "/v1/speech", map[string]string{"text": "hi"}, "audio/wav")
	if err != nil {
		t.Fatalf("PostRaw() error = %v", err)
	}
	if string(data) != "RIFF" || ct != "audio/wav" {
		t.Errorf("PostRaw() = %q, %q", data, ct)
	}
}

func TestClient_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{BaseURL: srv.URL, MaxRetries: 3, RetryWait: time.Millisecond})

	var out struct {
		OK bool `json:"ok"`
	}
	if err := c.PostJSON(context.Background(), "/x", struct{}{}, &out); err != nil {
		t.Fatalf("PostJSON() error = %v", err)
	}
	if !out.OK {
		t.Error("expected decoded response")
	}
	if calls.Load() != 2 {
		t.Errorf("calls = %d, want 2", calls.Load())
	}
}

func TestClient_ErrorResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Request-Id", "req-1")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"unknown voice"}`))
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{BaseURL: srv.URL, ServiceName: "speech"})

	_, err := c.GetRaw(context.Background(), "/v1/voices/x")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *APIError", err)
	}
	if apiErr.Message != "unknown voice" || apiErr.RequestID != "req-1" {
		t.Errorf("APIError = %+v", apiErr)
	}
	if !errors.Is(err, ErrNotFound) {
		t.Error("should unwrap to ErrNotFound")
	}
}

func TestClient_AuthorizeFailure(t *testing.T) {
	c := NewClient(ClientConfig{
		BaseURL:     "http://127.0.0.1:0",
		ServiceName: "speech",
		Authorize:   func(*http.Request) error { return errors.New("no key") },
	})

	_, _, err := c.PostRaw(context.Background(), "/v1/speech", nil, "")
	if !errors.Is(err, ErrUnauthorized) {
		t.Errorf("error = %v, want ErrUnauthorized", err)
	}
}

func TestClient_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{BaseURL: srv.URL, MaxRetries: 5, RetryWait: time.Hour})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := c.GetRaw(ctx, "/slow")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("error = %v, want deadline exceeded", err)
	}
}
