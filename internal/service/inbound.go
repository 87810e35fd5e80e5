package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ferramentas-mnz/estetica-whatsapp-api-oficial/internal/observability"
	"github.com/ferramentas-mnz/estetica-whatsapp-api-oficial/internal/sink"
	"github.com/ferramentas-mnz/estetica-whatsapp-api-oficial/internal/webhook"
)

// InboundService drives normalization over every message found in a
// notification batch and forwards each to the sink. Per-message
// failures never stop the rest of the batch; structural envelope
// failures are the transport layer's concern.
type InboundService struct {
	store   sink.Sink
	logger  *zap.Logger
	metrics *observability.Metrics
	now     func() time.Time
}

// BatchOutcome summarizes one scanned envelope.
type BatchOutcome struct {
	Scanned int
	Stored  int
	Skipped int
	Failed  int
}

func NewInboundService(store sink.Sink, logger *zap.Logger, metrics *observability.Metrics) (*InboundService, error) {
	if store == nil {
		return nil, fmt.Errorf("sink is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &InboundService{
		store:   store,
		logger:  logger,
		metrics: metrics,
		now:     time.Now,
	}, nil
}

func (s *InboundService) Process(ctx context.Context, envelope *webhook.Envelope) BatchOutcome {
	if ctx == nil {
		ctx = context.Background()
	}
	logger := observability.WithContextLogger(s.logger, ctx)

	var outcome BatchOutcome
	for _, raw := range envelope.Flatten() {
		outcome.Scanned++

		msg, err := webhook.Normalize(raw, s.now().UTC())
		if err != nil {
			outcome.Skipped++
			s.metrics.IncMessageSkipped()
			logger.Warn("skipping inbound message",
				zap.String("whatsappId", raw.ID),
				zap.Error(err),
			)
			continue
		}

		if err := s.store.Record(ctx, msg); err != nil {
			outcome.Failed++
			s.metrics.IncSinkFailure("inbound")
			logger.Error("failed to persist inbound message",
				zap.String("whatsappId", msg.WhatsAppID),
				zap.String("phoneNumber", msg.PhoneNumber),
				zap.Error(err),
			)
			continue
		}

		outcome.Stored++
		s.metrics.IncMessageReceived()
		logger.Info("inbound message persisted",
			zap.String("whatsappId", msg.WhatsAppID),
			zap.String("phoneNumber", msg.PhoneNumber),
		)
	}

	return outcome
}
