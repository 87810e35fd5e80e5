package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// RoutingDomain is the suffix appended to every stored phone identifier.
const RoutingDomain = "s.whatsapp.net"

// MessageTypeText is the only message type relayed in current scope.
const MessageTypeText = "text"

// Sender identifies which side of the conversation produced a message.
type Sender string

const (
	SenderCustomer Sender = "customer"
	SenderOperator Sender = "operator"
)

func (s Sender) String() string { return string(s) }

func (s Sender) IsValid() bool {
	switch s {
	case SenderCustomer, SenderOperator:
		return true
	}
	return false
}

// Message is the canonical record persisted for every relayed message,
// inbound or outbound. It is built transiently per delivery and written
// once into the sink; WhatsAppID is the idempotency key the sink honors.
type Message struct {
	PhoneNumber string
	Content     string
	WhatsAppID  string
	Sender      Sender
	MessageType string
	OccurredAt  time.Time
}

func (m *Message) Validate() error {
	if strings.TrimSpace(m.PhoneNumber) == "" {
		return fmt.Errorf("%w: phone number is required", ErrValidation)
	}
	if strings.TrimSpace(m.WhatsAppID) == "" {
		return fmt.Errorf("%w: whatsapp message id is required", ErrValidation)
	}
	if !m.Sender.IsValid() {
		return fmt.Errorf("%w: invalid sender %q", ErrValidation, m.Sender)
	}
	if m.OccurredAt.IsZero() {
		return fmt.Errorf("%w: occurred at is required", ErrValidation)
	}
	return nil
}

// Digits strips every non-digit rune from a raw phone string.
func Digits(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// RoutingAddress builds the stored identifier for a digits-only phone,
// e.g. "5511912345678" -> "5511912345678@s.whatsapp.net".
func RoutingAddress(digits string) string {
	return fmt.Sprintf("%s@%s", digits, RoutingDomain)
}

// NormalizeDestination strips formatting from a raw destination and, when
// countryCode is non-empty, prefixes it unless the digits already start
// with it. An empty countryCode forwards the stripped digits verbatim.
func NormalizeDestination(raw string, countryCode string) string {
	digits := Digits(raw)
	if digits == "" {
		return ""
	}
	if countryCode != "" && !strings.HasPrefix(digits, countryCode) {
		return countryCode + digits
	}
	return digits
}

// ParseEpochSeconds converts the provider's epoch-seconds timestamp into
// a UTC time.
func ParseEpochSeconds(raw string) (time.Time, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return time.Time{}, fmt.Errorf("%w: empty timestamp", ErrValidation)
	}
	seconds, err := strconv.ParseInt(trimmed, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid timestamp %q", ErrValidation, raw)
	}
	return time.Unix(seconds, 0).UTC(), nil
}
