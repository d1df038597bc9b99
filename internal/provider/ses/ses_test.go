package ses

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	sesv2 "github.com/aws/aws-sdk-go-v2/service/sesv2"

	"github.com/shineum/bulkmail-lite/internal/email"
)

// mockSESClient implements SendEmailAPI for testing.
type mockSESClient struct {
	sendFn func(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
	inputs []*sesv2.SendEmailInput
}

func (m *mockSESClient) SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	m.inputs = append(m.inputs, params)
	if m.sendFn != nil {
		return m.sendFn(ctx, params, optFns...)
	}
	return &sesv2.SendEmailOutput{MessageId: aws.String("test-message-id")}, nil
}

func TestName(t *testing.T) {
	t.Parallel()
	p := NewWithClient("sender@example.com", &mockSESClient{})
	if got := p.Name(); got != "ses" {
		t.Errorf("Name(): got %q, want %q", got, "ses")
	}
}

func TestSend_OneCallPerRecipient(t *testing.T) {
	t.Parallel()

	mock := &mockSESClient{}
	p := NewWithClient("sender@example.com", mock)

	msg := &email.Message{
		Subject:    "Test Subject",
		Text:       "Hello, World!",
		Recipients: []string{"to1@example.com", "to2@example.com"},
	}

	results, err := p.Send(context.Background(), msg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(mock.inputs) != 2 {
		t.Fatalf("call count: got %d, want 2", len(mock.inputs))
	}
	for i, input := range mock.inputs {
		if got := *input.FromEmailAddress; got != "sender@example.com" {
			t.Errorf("FromEmailAddress: got %q, want %q", got, "sender@example.com")
		}
		if got := input.Destination.ToAddresses; len(got) != 1 || got[0] != msg.Recipients[i] {
			t.Errorf("ToAddresses[%d]: got %v, want [%s]", i, got, msg.Recipients[i])
		}
		if got := *input.Content.Simple.Subject.Data; got != "Test Subject" {
			t.Errorf("Subject: got %q, want %q", got, "Test Subject")
		}
		if got := *input.Content.Simple.Body.Text.Data; got != "Hello, World!" {
			t.Errorf("TextBody: got %q, want %q", got, "Hello, World!")
		}
		if input.Content.Simple.Body.Html != nil {
			t.Error("expected no HTML body")
		}
	}

	for i, r := range results {
		if r.Email != msg.Recipients[i] || r.Status != email.StatusSuccess {
			t.Errorf("results[%d]: got %+v", i, r)
		}
	}
}

func TestSend_PartialFailure(t *testing.T) {
	t.Parallel()

	mock := &mockSESClient{
		sendFn: func(_ context.Context, params *sesv2.SendEmailInput, _ ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
			if params.Destination.ToAddresses[0] == "bounce@example.com" {
				return nil, errors.New("MessageRejected: address is on the suppression list")
			}
			return &sesv2.SendEmailOutput{}, nil
		},
	}
	p := NewWithClient("sender@example.com", mock)

	results, err := p.Send(context.Background(), &email.Message{
		Subject:    "s",
		Text:       "b",
		Recipients: []string{"ok@example.com", "bounce@example.com", "ok2@example.com"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []email.Result{
		{Email: "ok@example.com", Status: "success"},
		{Email: "bounce@example.com", Status: "failed"},
		{Email: "ok2@example.com", Status: "success"},
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

func TestSend_ContextCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	mock := &mockSESClient{
		sendFn: func(_ context.Context, _ *sesv2.SendEmailInput, _ ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
			cancel()
			return &sesv2.SendEmailOutput{}, nil
		},
	}
	p := NewWithClient("sender@example.com", mock)

	results, err := p.Send(ctx, &email.Message{
		Subject:    "s",
		Text:       "b",
		Recipients: []string{"a@example.com", "b@example.com"},
	})
	if err == nil {
		t.Fatal("expected error after cancellation, got nil")
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if results != nil {
		t.Errorf("results: got %v, want nil", results)
	}
	if len(mock.inputs) != 1 {
		t.Errorf("call count: got %d, want 1", len(mock.inputs))
	}
}
