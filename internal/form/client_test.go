package form

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestClientSubmitSuccess(t *testing.T) {
	var got Data
	var gotHeader string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q, want application/json", ct)
		}
		gotHeader = r.Header.Get("X-CSRF-Token")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decoding body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{Endpoint: srv.URL}, testLogger())
	d := validData()
	d.CSRFToken = "tok-abc"

	if err := c.Submit(context.Background(), d); err != nil {
		t.Fatalf("Submit() = %v, want nil", err)
	}
	if got.Email != d.Email || got.Message != d.Message {
		t.Errorf("server received %+v, want %+v", got, d)
	}
	if gotHeader != "tok-abc" {
		t.Errorf("X-CSRF-Token = %q, want tok-abc", gotHeader)
	}
}

func TestClientSubmitClassifiesStatus(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   ErrorKind
	}{
		{"rate limited", http.StatusTooManyRequests, ErrRateLimited},
		{"server error", http.StatusInternalServerError, ErrRejected},
		{"forbidden", http.StatusForbidden, ErrRejected},
		{"bad request", http.StatusBadRequest, ErrRejected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			c := NewClient(ClientConfig{Endpoint: srv.URL}, testLogger())
			err := c.Submit(context.Background(), validData())

			var serr *SubmitError
			if !errors.As(err, &serr) {
				t.Fatalf("Submit() = %v, want *SubmitError", err)
			}
			if serr.Kind != tt.want {
				t.Errorf("Kind = %s, want %s", serr.Kind, tt.want)
			}
			if serr.Message() == "" {
				t.Error("classified error must carry a user-facing message")
			}
		})
	}
}

func TestClientSubmitNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // nothing is listening anymore

	c := NewClient(ClientConfig{Endpoint: srv.URL}, testLogger())
	err := c.Submit(context.Background(), validData())

	var serr *SubmitError
	if !errors.As(err, &serr) {
		t.Fatalf("Submit() = %v, want *SubmitError", err)
	}
	if serr.Kind != ErrNetwork {
		t.Errorf("Kind = %s, want %s", serr.Kind, ErrNetwork)
	}
	if serr.Unwrap() == nil {
		t.Error("network error should retain the transport cause")
	}
}
