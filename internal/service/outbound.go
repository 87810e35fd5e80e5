package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ferramentas-mnz/estetica-whatsapp-api-oficial/internal/domain"
	"github.com/ferramentas-mnz/estetica-whatsapp-api-oficial/internal/observability"
	"github.com/ferramentas-mnz/estetica-whatsapp-api-oficial/internal/provider"
	"github.com/ferramentas-mnz/estetica-whatsapp-api-oficial/internal/sink"
)

// OutboundService normalizes a destination, delivers a text message
// through the provider and records the sent message in the sink.
type OutboundService struct {
	sender      provider.MessageSender
	store       sink.Sink
	countryCode string
	logger      *zap.Logger
	metrics     *observability.Metrics
	now         func() time.Time
}

// SendResult reports the two outcomes of an outbound send separately:
// delivery to the provider and persistence in the sink. A delivered
// message with a failed persistence is still a successful send.
type SendResult struct {
	MessageID string
	Delivered bool
	Persisted bool
}

func NewOutboundService(
	sender provider.MessageSender,
	store sink.Sink,
	countryCode string,
	logger *zap.Logger,
	metrics *observability.Metrics,
) (*OutboundService, error) {
	if sender == nil {
		return nil, fmt.Errorf("message sender is required")
	}
	if store == nil {
		return nil, fmt.Errorf("sink is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &OutboundService{
		sender:      sender,
		store:       store,
		countryCode: strings.TrimSpace(countryCode),
		logger:      logger,
		metrics:     metrics,
		now:         time.Now,
	}, nil
}

func (s *OutboundService) Send(ctx context.Context, phone string, text string) (*SendResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	logger := observability.WithContextLogger(s.logger, ctx)

	if strings.TrimSpace(phone) == "" {
		return nil, fmt.Errorf("%w: phone is required", domain.ErrValidation)
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: message is required", domain.ErrValidation)
	}

	to := domain.NormalizeDestination(phone, s.countryCode)
	if to == "" {
		return nil, fmt.Errorf("%w: phone %q has no digits", domain.ErrValidation, phone)
	}

	delivery, err := s.sender.SendText(ctx, to, text)
	if err != nil {
		s.metrics.IncSendFailure(sendFailureReason(err))
		logger.Error("failed to send message",
			zap.String("to", to),
			zap.Error(err),
		)
		return nil, err
	}

	s.metrics.IncMessageSent()
	result := &SendResult{
		MessageID: delivery.MessageID,
		Delivered: true,
	}

	msg := domain.Message{
		PhoneNumber: domain.RoutingAddress(to),
		Content:     text,
		WhatsAppID:  delivery.MessageID,
		Sender:      domain.SenderOperator,
		MessageType: domain.MessageTypeText,
		OccurredAt:  s.now().UTC(),
	}
	if err := s.store.Record(ctx, msg); err != nil {
		// The provider accepted the message; persistence is best-effort.
		s.metrics.IncSinkFailure("outbound")
		logger.Error("failed to persist outbound message",
			zap.String("whatsappId", delivery.MessageID),
			zap.String("phoneNumber", msg.PhoneNumber),
			zap.Error(err),
		)
		return result, nil
	}

	result.Persisted = true
	logger.Info("outbound message sent",
		zap.String("whatsappId", delivery.MessageID),
		zap.String("phoneNumber", msg.PhoneNumber),
	)
	return result, nil
}

func sendFailureReason(err error) string {
	if provider.IsValidation(err) {
		return "validation"
	}
	var apiErr *provider.APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode > 0 {
		return "upstream"
	}
	return "transport"
}
