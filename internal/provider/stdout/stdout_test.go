package stdout

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/shineum/bulkmail-lite/internal/email"
)

func TestSend_BasicMessage(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	p := NewWithWriter(&buf)

	msg := &email.Message{
		Subject:    "Monthly Report",
		Text:       "Please find the report below.",
		Recipients: []string{"alice@example.com", "bob@example.com"},
	}

	results, err := p.Send(context.Background(), msg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	output := buf.String()

	if !strings.Contains(output, "To (2): alice@example.com, bob@example.com") {
		t.Error("output missing To line")
	}
	if !strings.Contains(output, "Subject: Monthly Report") {
		t.Error("output missing Subject line")
	}
	if !strings.Contains(output, "Please find the report below.") {
		t.Error("output missing body text")
	}
	if !strings.HasPrefix(output, "========================================\n") {
		t.Error("output should start with separator line")
	}
	if !strings.HasSuffix(output, "========================================\n") {
		t.Error("output should end with separator line")
	}

	if len(results) != 2 {
		t.Fatalf("results count: got %d, want 2", len(results))
	}
	for i, r := range results {
		if r.Email != msg.Recipients[i] || r.Status != email.StatusSuccess {
			t.Errorf("results[%d]: got %+v", i, r)
		}
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("disk full")
}

func TestSend_WriteError(t *testing.T) {
	t.Parallel()

	p := NewWithWriter(failingWriter{})
	results, err := p.Send(context.Background(), &email.Message{
		Subject:    "s",
		Text:       "b",
		Recipients: []string{"a@example.com"},
	})
	if err == nil {
		t.Fatal("expected error from failing writer, got nil")
	}
	if results != nil {
		t.Errorf("results: got %v, want nil", results)
	}
}

func TestName(t *testing.T) {
	t.Parallel()

	p := New()
	if got := p.Name(); got != "stdout" {
		t.Errorf("Name(): got %q, want %q", got, "stdout")
	}
}

func TestFormatSize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		bytes int
		want  string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{1024, "1.0 KB"},
		{1536, "1.5 KB"},
		{1048576, "1.0 MB"},
		{2621440, "2.5 MB"},
	}

	for _, tt := range tests {
		got := formatSize(tt.bytes)
		if got != tt.want {
			t.Errorf("formatSize(%d): got %q, want %q", tt.bytes, got, tt.want)
		}
	}
}
