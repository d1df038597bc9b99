package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shineum/bulkmail-lite/internal/email"
)

func testMessage() *email.Message {
	return &email.Message{
		Subject:    "Launch",
		Text:       "We are live.",
		Recipients: []string{"a@b.com", "c@d.com"},
	}
}

func TestProvider_Name(t *testing.T) {
	t.Parallel()

	p := New(Config{})
	if p.Name() != "http" {
		t.Errorf("Name: got %q, want %q", p.Name(), "http")
	}
	if p.URL() != DefaultEndpoint {
		t.Errorf("URL: got %q, want %q", p.URL(), DefaultEndpoint)
	}
}

func TestProvider_SendSuccess(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("Method: got %q, want POST", r.Method)
		}
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("Content-Type header: got %q, want %q", r.Header.Get("Content-Type"), "application/json")
		}

		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("failed to decode request body: %v", err)
		}
		if body["subject"] != "Launch" {
			t.Errorf("subject: got %v, want %q", body["subject"], "Launch")
		}
		if body["text"] != "We are live." {
			t.Errorf("text: got %v, want %q", body["text"], "We are live.")
		}
		recipients, _ := body["recipients"].([]any)
		if len(recipients) != 2 || recipients[0] != "a@b.com" || recipients[1] != "c@d.com" {
			t.Errorf("recipients: got %v", body["recipients"])
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"results":[{"email":"a@b.com","status":"success"},{"email":"c@d.com","status":"failed"}]}`))
	}))
	defer server.Close()

	p := NewWithClient(server.URL, server.Client())

	results, err := p.Send(context.Background(), testMessage())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []email.Result{
		{Email: "a@b.com", Status: "success"},
		{Email: "c@d.com", Status: "failed"},
	}
	if len(results) != len(want) {
		t.Fatalf("results count: got %d, want %d", len(results), len(want))
	}
	for i := range want {
		if results[i] != want[i] {
			t.Errorf("results[%d]: got %+v, want %+v", i, results[i], want[i])
		}
	}
}

func TestProvider_MissingResultsField(t *testing.T) {
	t.Parallel()

	bodies := map[string]string{
		"other fields": `{"message":"queued"}`,
		"empty object": `{}`,
		"null":         `null`,
		"empty body":   ``,
	}

	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(body))
			}))
			defer server.Close()

			p := NewWithClient(server.URL, server.Client())
			results, err := p.Send(context.Background(), testMessage())
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if results != nil {
				t.Errorf("results: got %v, want nil", results)
			}
		})
	}
}

func TestProvider_StatusError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream down"))
	}))
	defer server.Close()

	p := NewWithClient(server.URL, server.Client())
	results, err := p.Send(context.Background(), testMessage())
	if err == nil {
		t.Fatal("expected error for 502, got nil")
	}
	if results != nil {
		t.Errorf("results: got %v, want nil", results)
	}

	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected *StatusError, got %T", err)
	}
	if statusErr.StatusCode != http.StatusBadGateway {
		t.Errorf("StatusCode: got %d, want %d", statusErr.StatusCode, http.StatusBadGateway)
	}
	if statusErr.Body != "upstream down" {
		t.Errorf("Body: got %q, want %q", statusErr.Body, "upstream down")
	}
}

func TestProvider_MalformedResponse(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results": "nope"`))
	}))
	defer server.Close()

	p := NewWithClient(server.URL, server.Client())
	if _, err := p.Send(context.Background(), testMessage()); err == nil {
		t.Fatal("expected error for malformed response, got nil")
	}
}

func TestProvider_NoRetry(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	p := NewWithClient(server.URL, server.Client())
	if _, err := p.Send(context.Background(), testMessage()); err == nil {
		t.Fatal("expected error, got nil")
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("call count: got %d, want 1", got)
	}
}

func TestProvider_Timeout(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	p := New(Config{URL: server.URL, Timeout: 50 * time.Millisecond})
	if _, err := p.Send(context.Background(), testMessage()); err == nil {
		t.Fatal("expected timeout error, got nil")
	}
}

func TestProvider_ContextCancelled(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results":[]}`))
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := NewWithClient(server.URL, server.Client())
	if _, err := p.Send(ctx, testMessage()); err == nil {
		t.Fatal("expected error for cancelled context, got nil")
	}
}
