package provider

import "context"

// MessageSender is the outbound delivery port for the messaging
// provider's send endpoint.
type MessageSender interface {
	SendText(ctx context.Context, to string, body string) (*Delivery, error)
}

// Delivery holds the provider's acknowledgment of one sent message.
type Delivery struct {
	MessageID  string
	StatusCode int
}
