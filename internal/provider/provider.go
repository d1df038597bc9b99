// Package provider defines the interface for bulk delivery transports.
package provider

import (
	"context"

	"github.com/shineum/bulkmail-lite/internal/email"
)

// Provider is the interface that delivery transports must implement.
// A transport takes one composed message for many recipients and reports
// what happened to each of them (e.g., a remote bulk endpoint, AWS SES, stdout).
type Provider interface {
	// Send performs one dispatch of msg and returns per-recipient results
	// in the order the transport reports them. A nil slice with a nil
	// error means the transport reported nothing.
	// It returns an error if the dispatch as a whole failed.
	Send(ctx context.Context, msg *email.Message) ([]email.Result, error)

	// Name returns the human-readable name of this provider.
	Name() string
}
