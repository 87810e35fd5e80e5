// Package sink persists canonical message records against conversations
// keyed by the stored phone identifier.
package sink

import (
	"context"

	"github.com/ferramentas-mnz/estetica-whatsapp-api-oficial/internal/domain"
)

// Sink is the persistence port of the relay pipeline. Record is
// idempotent on Message.WhatsAppID: redelivery of the same provider
// message id must not create a second stored record. A failure returns
// an error value; the record is considered lost for that delivery.
type Sink interface {
	Record(ctx context.Context, msg domain.Message) error
}
