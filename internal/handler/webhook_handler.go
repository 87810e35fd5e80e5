package handler

import (
	"context"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/ferramentas-mnz/estetica-whatsapp-api-oficial/internal/observability"
	"github.com/ferramentas-mnz/estetica-whatsapp-api-oficial/internal/service"
	"github.com/ferramentas-mnz/estetica-whatsapp-api-oficial/internal/webhook"
)

// InboundProcessor scans one notification envelope and persists every
// usable message it contains.
type InboundProcessor interface {
	Process(ctx context.Context, envelope *webhook.Envelope) service.BatchOutcome
}

type WebhookHandler struct {
	inbound     InboundProcessor
	verifyToken string
	logger      *zap.Logger
}

func NewWebhookHandler(inbound InboundProcessor, verifyToken string, logger *zap.Logger) (*WebhookHandler, error) {
	if inbound == nil {
		return nil, fmt.Errorf("inbound processor is required")
	}
	if strings.TrimSpace(verifyToken) == "" {
		return nil, fmt.Errorf("webhook verify token is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &WebhookHandler{
		inbound:     inbound,
		verifyToken: verifyToken,
		logger:      logger,
	}, nil
}

func RegisterWebhookRoutes(router fiber.Router, inbound InboundProcessor, verifyToken string, logger *zap.Logger) error {
	h, err := NewWebhookHandler(inbound, verifyToken, logger)
	if err != nil {
		return err
	}

	router.Get("/webhook", h.VerifyWebhook)
	router.Post("/webhook", h.ReceiveNotification)

	return nil
}

// VerifyWebhook handles the provider's one-time ownership handshake.
func (h *WebhookHandler) VerifyWebhook(c *fiber.Ctx) error {
	mode := c.Query("hub.mode")
	token := c.Query("hub.verify_token")
	challenge := c.Query("hub.challenge")

	body, ok := webhook.Verify(mode, token, challenge, h.verifyToken)
	if !ok {
		h.logger.Warn("webhook verification rejected", zap.String("mode", mode))
		return c.SendStatus(fiber.StatusForbidden)
	}

	h.logger.Info("webhook verified")
	return c.Status(fiber.StatusOK).SendString(body)
}

// ReceiveNotification scans one pushed notification batch. A body that
// cannot be parsed as an envelope signals a transient failure so the
// provider redelivers; everything after a successful parse acks 200.
func (h *WebhookHandler) ReceiveNotification(c *fiber.Ctx) error {
	var envelope webhook.Envelope
	if err := c.BodyParser(&envelope); err != nil {
		h.logger.Error("unparseable notification payload", zap.Error(err))
		return fiber.NewError(fiber.StatusInternalServerError, "unparseable notification payload")
	}

	ctx := observability.WithRequestID(c.Context(), requestID(c))
	outcome := h.inbound.Process(ctx, &envelope)

	h.logger.Info("notification batch processed",
		zap.Int("scanned", outcome.Scanned),
		zap.Int("stored", outcome.Stored),
		zap.Int("skipped", outcome.Skipped),
		zap.Int("failed", outcome.Failed),
	)
	return c.SendStatus(fiber.StatusOK)
}

func requestID(c *fiber.Ctx) string {
	if value := strings.TrimSpace(c.Get(fiber.HeaderXRequestID)); value != "" {
		return value
	}
	if value, ok := c.Locals("requestid").(string); ok {
		return strings.TrimSpace(value)
	}
	return ""
}
