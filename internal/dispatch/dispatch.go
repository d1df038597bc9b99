// Package dispatch sends one composed message to a list of recipients
// through a Provider and turns the outcome into a status list.
//
// Each call to Send makes at most one provider call. Missing fields are
// rejected before any network traffic. A failed dispatch is not returned as
// an error: it becomes a single "All recipients: failed" entry so the caller
// always has a status list to show.
package dispatch

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/shineum/bulkmail-lite/internal/email"
	"github.com/shineum/bulkmail-lite/internal/provider"
)

// ErrInFlight is returned when Send is called while another send is outstanding.
var ErrInFlight = errors.New("a send is already in progress")

// Client dispatches bulk messages through a Provider, one at a time.
type Client struct {
	provider provider.Provider
	sending  atomic.Bool
}

// New creates a Client that delivers through p.
func New(p provider.Provider) *Client {
	return &Client{provider: p}
}

// Provider returns the transport the client sends through.
func (c *Client) Provider() provider.Provider {
	return c.provider
}

// Busy reports whether a send is currently outstanding.
func (c *Client) Busy() bool {
	return c.sending.Load()
}

// Send dispatches subject and body to recipients.
//
// It returns ErrInFlight if another Send has not finished, or a
// *email.ValidationError if subject, body or recipients is empty; in both
// cases the provider is not called. Otherwise the error is always nil and
// the results are either what the provider reported (possibly empty) or
// email.FailedAll() when the provider failed.
func (c *Client) Send(ctx context.Context, subject, body string, recipients []string) ([]email.Result, error) {
	if !c.sending.CompareAndSwap(false, true) {
		return nil, ErrInFlight
	}
	defer c.sending.Store(false)

	msg := &email.Message{
		Subject:    subject,
		Text:       body,
		Recipients: recipients,
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}

	log := slog.With(
		"dispatch_id", uuid.NewString(),
		"provider", c.provider.Name(),
	)
	log.Info("dispatching bulk message", "recipients", len(recipients))

	start := time.Now()
	results, err := c.provider.Send(ctx, msg)
	if err != nil {
		log.Error("send failed", "error", err, "duration", time.Since(start))
		return email.FailedAll(), nil
	}

	if results == nil {
		// The endpoint answered without a results list. Shown as no status
		// entries rather than a failure.
		log.Warn("provider returned no results", "duration", time.Since(start))
		return []email.Result{}, nil
	}

	log.Info("dispatch completed",
		"results", len(results),
		"failed", countFailed(results),
		"duration", time.Since(start),
	)
	return results, nil
}

func countFailed(results []email.Result) int {
	n := 0
	for _, r := range results {
		if !r.Succeeded() {
			n++
		}
	}
	return n
}
