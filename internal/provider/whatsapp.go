package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const defaultSendTimeout = 10 * time.Second

type sendRequest struct {
	MessagingProduct string   `json:"messaging_product"`
	To               string   `json:"to"`
	Type             string   `json:"type"`
	Text             textBody `json:"text"`
}

type textBody struct {
	Body string `json:"body"`
}

type sendResponse struct {
	MessagingProduct string `json:"messaging_product"`
	Contacts         []struct {
		Input string `json:"input"`
		WaID  string `json:"wa_id"`
	} `json:"contacts"`
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
}

// WhatsAppClient sends text messages through the Meta WhatsApp Cloud
// API Graph endpoint.
type WhatsAppClient struct {
	client  *resty.Client
	phoneID string
	token   string
}

func NewWhatsAppClient(baseURL, phoneID, token string) (*WhatsAppClient, error) {
	client := resty.New()
	client.SetTimeout(defaultSendTimeout)
	client.SetRetryCount(0)

	return NewWhatsAppClientWithClient(baseURL, phoneID, token, client)
}

func NewWhatsAppClientWithClient(baseURL, phoneID, token string, client *resty.Client) (*WhatsAppClient, error) {
	trimmedURL := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmedURL == "" {
		return nil, fmt.Errorf("graph api base url is required")
	}
	if _, err := url.ParseRequestURI(trimmedURL); err != nil {
		return nil, fmt.Errorf("invalid graph api base url: %w", err)
	}
	if strings.TrimSpace(phoneID) == "" {
		return nil, fmt.Errorf("phone id is required")
	}
	if strings.TrimSpace(token) == "" {
		return nil, fmt.Errorf("access token is required")
	}
	if client == nil {
		return nil, fmt.Errorf("resty client is required")
	}

	if client.GetClient().Timeout == 0 {
		client.SetTimeout(defaultSendTimeout)
	}
	client.SetRetryCount(0)
	client.SetBaseURL(trimmedURL)

	return &WhatsAppClient{
		client:  client,
		phoneID: phoneID,
		token:   token,
	}, nil
}

func (c *WhatsAppClient) SendText(ctx context.Context, to string, body string) (*Delivery, error) {
	if c == nil || c.client == nil {
		return nil, fmt.Errorf("whatsapp client is not initialized")
	}
	if strings.TrimSpace(to) == "" {
		return nil, fmt.Errorf("destination is required")
	}

	response, err := c.client.R().
		SetContext(ctx).
		SetHeader("Authorization", "Bearer "+c.token).
		SetHeader("Content-Type", "application/json").
		SetBody(sendRequest{
			MessagingProduct: "whatsapp",
			To:               to,
			Type:             "text",
			Text:             textBody{Body: body},
		}).
		SetResult(&sendResponse{}).
		Post(fmt.Sprintf("/%s/messages", c.phoneID))
	if err != nil {
		return nil, &APIError{
			Message: "provider request failed",
			Cause:   err,
		}
	}

	statusCode := response.StatusCode()
	if response.IsError() {
		return nil, &APIError{
			StatusCode: statusCode,
			Message:    fmt.Sprintf("provider returned status %d", statusCode),
			Details:    rawDetails(response.Body()),
		}
	}

	parsed, ok := response.Result().(*sendResponse)
	if !ok || parsed == nil || len(parsed.Messages) == 0 || strings.TrimSpace(parsed.Messages[0].ID) == "" {
		return nil, &APIError{
			StatusCode: statusCode,
			Message:    "provider response missing sent-message id",
			Details:    rawDetails(response.Body()),
			Validation: true,
		}
	}

	return &Delivery{
		MessageID:  parsed.Messages[0].ID,
		StatusCode: statusCode,
	}, nil
}

// rawDetails keeps the upstream payload only when it is valid JSON so
// it can be embedded verbatim in the caller's error response.
func rawDetails(body []byte) json.RawMessage {
	if json.Valid(body) {
		return json.RawMessage(body)
	}
	return nil
}
