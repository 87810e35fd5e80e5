package sink

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/ferramentas-mnz/estetica-whatsapp-api-oficial/internal/domain"
)

const (
	rpcPath              = "/rest/v1/rpc/process_whatsapp_message"
	defaultRecordTimeout = 10 * time.Second
)

// rpcParams mirrors the named parameters of the process_whatsapp_message
// stored procedure. The procedure itself enforces at-most-once storage
// per p_whatsapp_id.
type rpcParams struct {
	PhoneNumber string `json:"p_phone_number"`
	Content     string `json:"p_content"`
	WhatsAppID  string `json:"p_whatsapp_id"`
	Sender      string `json:"p_sender"`
	MessageType string `json:"p_message_type"`
	Timestamp   string `json:"p_timestamp"`
}

// SupabaseSink records messages through the Supabase REST RPC endpoint.
type SupabaseSink struct {
	client *resty.Client
	key    string
}

func NewSupabaseSink(baseURL, key string) (*SupabaseSink, error) {
	client := resty.New()
	client.SetTimeout(defaultRecordTimeout)
	client.SetRetryCount(0)

	return NewSupabaseSinkWithClient(baseURL, key, client)
}

func NewSupabaseSinkWithClient(baseURL, key string, client *resty.Client) (*SupabaseSink, error) {
	trimmedURL := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmedURL == "" {
		return nil, fmt.Errorf("supabase url is required")
	}
	if _, err := url.ParseRequestURI(trimmedURL); err != nil {
		return nil, fmt.Errorf("invalid supabase url: %w", err)
	}
	if strings.TrimSpace(key) == "" {
		return nil, fmt.Errorf("supabase key is required")
	}
	if client == nil {
		return nil, fmt.Errorf("resty client is required")
	}

	if client.GetClient().Timeout == 0 {
		client.SetTimeout(defaultRecordTimeout)
	}
	client.SetRetryCount(0)
	client.SetBaseURL(trimmedURL)

	return &SupabaseSink{
		client: client,
		key:    key,
	}, nil
}

func (s *SupabaseSink) Record(ctx context.Context, msg domain.Message) error {
	if s == nil || s.client == nil {
		return fmt.Errorf("supabase sink is not initialized")
	}
	if err := msg.Validate(); err != nil {
		return fmt.Errorf("invalid message: %w", err)
	}

	response, err := s.client.R().
		SetContext(ctx).
		SetHeader("apikey", s.key).
		SetHeader("Authorization", "Bearer "+s.key).
		SetHeader("Content-Type", "application/json").
		SetBody(rpcParams{
			PhoneNumber: msg.PhoneNumber,
			Content:     msg.Content,
			WhatsAppID:  msg.WhatsAppID,
			Sender:      msg.Sender.String(),
			MessageType: msg.MessageType,
			Timestamp:   msg.OccurredAt.UTC().Format(time.RFC3339),
		}).
		Post(rpcPath)
	if err != nil {
		return fmt.Errorf("supabase rpc request failed: %w", err)
	}

	if response.IsError() {
		body := strings.TrimSpace(response.String())
		if body == "" {
			return fmt.Errorf("supabase rpc returned status %d", response.StatusCode())
		}
		return fmt.Errorf("supabase rpc returned status %d: %s", response.StatusCode(), body)
	}

	return nil
}
