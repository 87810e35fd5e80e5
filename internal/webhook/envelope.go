package webhook

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/ferramentas-mnz/estetica-whatsapp-api-oficial/internal/domain"
)

// Envelope is the notification payload the provider pushes to the
// webhook on new activity. The schema is provider-controlled: every
// level is optional and may carry zero or more items, so absence at any
// depth means zero messages, never an error.
type Envelope struct {
	Object string  `json:"object"`
	Entry  []Entry `json:"entry"`
}

type Entry struct {
	ID      string   `json:"id"`
	Changes []Change `json:"changes"`
}

type Change struct {
	Field string `json:"field"`
	Value *Value `json:"value"`
}

type Value struct {
	MessagingProduct string    `json:"messaging_product"`
	Metadata         *Metadata `json:"metadata"`
	Contacts         []Contact `json:"contacts"`
	Messages         []Message `json:"messages"`
}

type Metadata struct {
	DisplayPhoneNumber string `json:"display_phone_number"`
	PhoneNumberID      string `json:"phone_number_id"`
}

type Contact struct {
	WaID    string   `json:"wa_id"`
	Profile *Profile `json:"profile"`
}

type Profile struct {
	Name string `json:"name"`
}

// Message is one raw inbound element. Fields the provider omits stay
// zero-valued.
type Message struct {
	From      string         `json:"from"`
	ID        string         `json:"id"`
	Timestamp EpochTimestamp `json:"timestamp"`
	Type      string         `json:"type"`
	Text      *TextBody      `json:"text"`
}

type TextBody struct {
	Body string `json:"body"`
}

// EpochTimestamp tolerates the provider sending epoch seconds as either
// a JSON string or a bare number.
type EpochTimestamp string

func (t *EpochTimestamp) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*t = ""
		return nil
	}

	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*t = EpochTimestamp(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(trimmed, &n); err != nil {
		return err
	}
	*t = EpochTimestamp(n.String())
	return nil
}

// Time converts the raw epoch seconds to UTC. ok is false when the
// field is absent or unparseable, in which case the caller supplies the
// current time.
func (t EpochTimestamp) Time() (time.Time, bool) {
	parsed, err := domain.ParseEpochSeconds(string(t))
	if err != nil {
		return time.Time{}, false
	}
	return parsed, true
}

// Flatten returns every message across all nesting levels in delivery
// order. Entries, changes and values with no messages contribute
// nothing.
func (e *Envelope) Flatten() []Message {
	if e == nil {
		return nil
	}

	var messages []Message
	for _, entry := range e.Entry {
		for _, change := range entry.Changes {
			if change.Value == nil {
				continue
			}
			messages = append(messages, change.Value.Messages...)
		}
	}
	return messages
}

// Normalize builds the canonical record for one inbound element. Only a
// missing sender identifier or missing provider message id disqualifies
// the element; every other field has a tolerant default. now is used
// when the provider timestamp is absent or unusable.
func Normalize(msg Message, now time.Time) (domain.Message, error) {
	from := strings.TrimSpace(msg.From)
	if from == "" {
		return domain.Message{}, fmt.Errorf("%w: no sender identifier", domain.ErrSkip)
	}
	id := strings.TrimSpace(msg.ID)
	if id == "" {
		return domain.Message{}, fmt.Errorf("%w: no provider message id", domain.ErrSkip)
	}

	occurredAt := now
	if ts, ok := msg.Timestamp.Time(); ok {
		occurredAt = ts
	}

	content := ""
	if msg.Text != nil {
		content = msg.Text.Body
	}

	return domain.Message{
		PhoneNumber: domain.RoutingAddress(domain.Digits(from)),
		Content:     content,
		WhatsAppID:  id,
		Sender:      domain.SenderCustomer,
		MessageType: domain.MessageTypeText,
		OccurredAt:  occurredAt,
	}, nil
}
