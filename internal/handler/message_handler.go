package handler

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/ferramentas-mnz/estetica-whatsapp-api-oficial/internal/domain"
	"github.com/ferramentas-mnz/estetica-whatsapp-api-oficial/internal/observability"
	"github.com/ferramentas-mnz/estetica-whatsapp-api-oficial/internal/provider"
	"github.com/ferramentas-mnz/estetica-whatsapp-api-oficial/internal/service"
)

// OutboundSender delivers one text message and reconciles the
// provider's response with local storage.
type OutboundSender interface {
	Send(ctx context.Context, phone string, text string) (*service.SendResult, error)
}

type sendMessageRequest struct {
	Phone   string `json:"phone"`
	Message string `json:"message"`
}

type sendMessageResponse struct {
	Success           bool   `json:"success"`
	Message           string `json:"message"`
	WhatsAppMessageID string `json:"whatsapp_message_id"`
	Persisted         bool   `json:"persisted"`
}

type MessageHandler struct {
	outbound OutboundSender
	logger   *zap.Logger
}

func NewMessageHandler(outbound OutboundSender, logger *zap.Logger) (*MessageHandler, error) {
	if outbound == nil {
		return nil, fmt.Errorf("outbound sender is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &MessageHandler{
		outbound: outbound,
		logger:   logger,
	}, nil
}

func RegisterMessageRoutes(router fiber.Router, outbound OutboundSender, logger *zap.Logger) error {
	h, err := NewMessageHandler(outbound, logger)
	if err != nil {
		return err
	}

	router.Post("/send-message", h.SendMessage)

	return nil
}

func (h *MessageHandler) SendMessage(c *fiber.Ctx) error {
	var req sendMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	ctx := observability.WithRequestID(c.Context(), requestID(c))
	result, err := h.outbound.Send(ctx, req.Phone, req.Message)
	if err != nil {
		return h.sendError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(sendMessageResponse{
		Success:           true,
		Message:           "message sent",
		WhatsAppMessageID: result.MessageID,
		Persisted:         result.Persisted,
	})
}

// sendError maps pipeline failures onto the outbound response contract:
// 400 for client input, 500 with the upstream payload and status for
// provider and validation failures.
func (h *MessageHandler) sendError(c *fiber.Ctx, err error) error {
	if errors.Is(err, domain.ErrValidation) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	body := fiber.Map{"error": "failed to send message"}
	var apiErr *provider.APIError
	if errors.As(err, &apiErr) {
		if len(apiErr.Details) > 0 {
			body["details"] = apiErr.Details
		} else {
			body["details"] = apiErr.Error()
		}
		if apiErr.StatusCode > 0 {
			body["status"] = apiErr.StatusCode
		}
	} else {
		body["details"] = err.Error()
	}

	h.logger.Error("send-message failed", zap.Error(err))
	return c.Status(fiber.StatusInternalServerError).JSON(body)
}
