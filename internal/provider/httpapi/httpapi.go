package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/shineum/bulkmail-lite/internal/email"
)

// DefaultEndpoint is the bulk-mail backend the form has always posted to.
const DefaultEndpoint = "https://bulkmail-backend-1-6nm3.onrender.com/sendemail"

// maxErrorBody caps how much of a failed response is kept for the error message.
const maxErrorBody = 4096

// Config holds the configuration for creating a Provider.
type Config struct {
	// URL is the endpoint the dispatch is posted to. Empty means DefaultEndpoint.
	URL string

	// Timeout bounds the whole request. Zero leaves the transport default,
	// which is no timeout.
	Timeout time.Duration
}

// Provider posts one JSON request per dispatch to a remote bulk endpoint.
type Provider struct {
	url        string
	httpClient *http.Client
}

// New creates a new Provider with the given configuration.
func New(cfg Config) *Provider {
	return NewWithClient(cfg.URL, &http.Client{Timeout: cfg.Timeout})
}

// NewWithClient creates a Provider with a custom HTTP client, used for testing.
func NewWithClient(url string, client *http.Client) *Provider {
	if url == "" {
		url = DefaultEndpoint
	}
	return &Provider{
		url:        url,
		httpClient: client,
	}
}

// Send posts the message to the endpoint exactly once and returns the
// results it reported. A 2xx response without a "results" field yields
// nil results and no error. Non-2xx statuses, transport failures and
// undecodable bodies are returned as errors; nothing is retried.
func (p *Provider) Send(ctx context.Context, msg *email.Message) ([]email.Result, error) {
	bodyJSON, err := json.Marshal(buildSendRequest(msg))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(bodyJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	// an empty body carries no results, same as a body without the field
	var out sendResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	slog.Debug("bulk endpoint responded",
		"status", resp.StatusCode,
		"results", len(out.Results),
	)

	return out.Results, nil
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "http"
}

// URL returns the endpoint this provider posts to.
func (p *Provider) URL() string {
	return p.url
}

// StatusError is returned when the endpoint answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("bulk endpoint error (HTTP %d): %s", e.StatusCode, e.Body)
}
