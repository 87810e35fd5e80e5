package service

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/ferramentas-mnz/estetica-whatsapp-api-oficial/internal/domain"
	"github.com/ferramentas-mnz/estetica-whatsapp-api-oficial/internal/provider"
)

type stubSender struct {
	calls    []string
	delivery *provider.Delivery
	err      error
}

func (s *stubSender) SendText(ctx context.Context, to string, body string) (*provider.Delivery, error) {
	s.calls = append(s.calls, to)
	if s.err != nil {
		return nil, s.err
	}
	return s.delivery, nil
}

func newOutbound(t *testing.T, sender *stubSender, store *stubSink, countryCode string) *OutboundService {
	t.Helper()

	svc, err := NewOutboundService(sender, store, countryCode, nil, nil)
	if err != nil {
		t.Fatalf("NewOutboundService() error = %v", err)
	}
	return svc
}

func TestOutboundSendSuccess(t *testing.T) {
	t.Parallel()

	sender := &stubSender{delivery: &provider.Delivery{MessageID: "wamid.X", StatusCode: http.StatusOK}}
	store := &stubSink{}
	svc := newOutbound(t, sender, store, "")

	result, err := svc.Send(context.Background(), "+55 (11) 91234-5678", "hello")
	if err != nil {
		t.Fatalf("Send() unexpected error: %v", err)
	}

	if result.MessageID != "wamid.X" {
		t.Fatalf("MessageID = %q, want wamid.X", result.MessageID)
	}
	if !result.Delivered || !result.Persisted {
		t.Fatalf("result = %+v, want delivered and persisted", result)
	}

	if len(sender.calls) != 1 || sender.calls[0] != "5511912345678" {
		t.Fatalf("sender calls = %v, want one call with stripped digits", sender.calls)
	}

	if len(store.calls) != 1 {
		t.Fatalf("sink called %d times, want 1", len(store.calls))
	}
	stored := store.calls[0]
	if stored.Sender != domain.SenderOperator {
		t.Fatalf("sender = %q, want operator", stored.Sender)
	}
	if stored.PhoneNumber != "5511912345678@s.whatsapp.net" {
		t.Fatalf("phone number = %q, want routing address", stored.PhoneNumber)
	}
	if stored.WhatsAppID != "wamid.X" {
		t.Fatalf("whatsapp id = %q, want wamid.X", stored.WhatsAppID)
	}
	if stored.OccurredAt.IsZero() {
		t.Fatal("occurred at should be the capture time")
	}
}

func TestOutboundSendAppliesCountryCode(t *testing.T) {
	t.Parallel()

	sender := &stubSender{delivery: &provider.Delivery{MessageID: "wamid.X"}}
	store := &stubSink{}
	svc := newOutbound(t, sender, store, "55")

	if _, err := svc.Send(context.Background(), "(11) 91234-5678", "hello"); err != nil {
		t.Fatalf("Send() unexpected error: %v", err)
	}
	if sender.calls[0] != "5511912345678" {
		t.Fatalf("destination = %q, want country code applied", sender.calls[0])
	}
}

func TestOutboundSendMissingInput(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name  string
		phone string
		text  string
	}{
		{name: "missing phone", phone: "", text: "hello"},
		{name: "missing message", phone: "5511912345678", text: ""},
		{name: "blank message", phone: "5511912345678", text: "   "},
		{name: "phone without digits", phone: "abc", text: "hello"},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			sender := &stubSender{delivery: &provider.Delivery{MessageID: "wamid.X"}}
			store := &stubSink{}
			svc := newOutbound(t, sender, store, "")

			_, err := svc.Send(context.Background(), tc.phone, tc.text)
			if !errors.Is(err, domain.ErrValidation) {
				t.Fatalf("Send() error = %v, want ErrValidation", err)
			}
			if len(sender.calls) != 0 {
				t.Fatalf("provider called %d times, want 0", len(sender.calls))
			}
			if len(store.calls) != 0 {
				t.Fatalf("sink called %d times, want 0", len(store.calls))
			}
		})
	}
}

func TestOutboundSendProviderFailure(t *testing.T) {
	t.Parallel()

	apiErr := &provider.APIError{StatusCode: http.StatusBadRequest, Message: "provider returned status 400"}
	sender := &stubSender{err: apiErr}
	store := &stubSink{}
	svc := newOutbound(t, sender, store, "")

	_, err := svc.Send(context.Background(), "5511912345678", "hello")
	if err == nil {
		t.Fatal("expected provider error to propagate")
	}

	var got *provider.APIError
	if !errors.As(err, &got) {
		t.Fatalf("expected APIError, got %T", err)
	}
	if len(store.calls) != 0 {
		t.Fatalf("sink called %d times, want 0 (validation precedes persistence)", len(store.calls))
	}
}

func TestOutboundSendSinkFailureStillDelivered(t *testing.T) {
	t.Parallel()

	sender := &stubSender{delivery: &provider.Delivery{MessageID: "wamid.X"}}
	store := &stubSink{errFor: map[string]error{"wamid.X": errors.New("sink unavailable")}}
	svc := newOutbound(t, sender, store, "")

	result, err := svc.Send(context.Background(), "5511912345678", "hello")
	if err != nil {
		t.Fatalf("Send() unexpected error: %v", err)
	}

	if !result.Delivered {
		t.Fatal("result should report delivered")
	}
	if result.Persisted {
		t.Fatal("result should report the failed persistence")
	}
	if result.MessageID != "wamid.X" {
		t.Fatalf("MessageID = %q, want wamid.X", result.MessageID)
	}
}

func TestNewOutboundServiceValidation(t *testing.T) {
	t.Parallel()

	if _, err := NewOutboundService(nil, &stubSink{}, "", nil, nil); err == nil {
		t.Fatal("expected error for nil sender")
	}
	if _, err := NewOutboundService(&stubSender{}, nil, "", nil, nil); err == nil {
		t.Fatal("expected error for nil sink")
	}
}
