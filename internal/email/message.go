// Package email defines the compose request and delivery result model shared
// by the extractor, the dispatch client and every transport.
package email

import (
	"errors"
	"strings"
)

// Delivery status values reported per recipient.
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// AllRecipients is the placeholder address used when a whole dispatch failed
// and no per-recipient information is available.
const AllRecipients = "All recipients"

// ErrValidation is matched by every *ValidationError via errors.Is.
var ErrValidation = errors.New("invalid compose request")

// Message is a composed bulk message ready to be dispatched.
type Message struct {
	Subject    string   `json:"subject"`
	Text       string   `json:"text"`
	Recipients []string `json:"recipients"`
}

// Result is the delivery outcome for one recipient.
type Result struct {
	Email  string `json:"email"`
	Status string `json:"status"`
}

// Succeeded reports whether the recipient was delivered.
func (r Result) Succeeded() bool {
	return r.Status == StatusSuccess
}

// FailedAll returns the single synthetic entry that replaces the result list
// when a dispatch fails outright.
func FailedAll() []Result {
	return []Result{{Email: AllRecipients, Status: StatusFailed}}
}

// ValidationError lists the compose fields that were missing.
type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	return "missing " + strings.Join(e.Missing, ", ")
}

// Is makes errors.Is(err, ErrValidation) hold.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Validate checks that subject, text and recipients are all present.
func (m *Message) Validate() error {
	var missing []string
	if m.Subject == "" {
		missing = append(missing, "subject")
	}
	if m.Text == "" {
		missing = append(missing, "body")
	}
	if len(m.Recipients) == 0 {
		missing = append(missing, "recipients")
	}
	if len(missing) > 0 {
		return &ValidationError{Missing: missing}
	}
	return nil
}
