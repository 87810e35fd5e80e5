package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

const providerName = "Meta WhatsApp Business API"

// RegisterStatusRoutes wires the service descriptor endpoints.
func RegisterStatusRoutes(router fiber.Router, phoneID string) {
	router.Get("/", RootHandler(phoneID))
	router.Get("/status", StatusHandler(phoneID))
}

func RootHandler(phoneID string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status":    "online",
			"service":   "whatsapp-relay-api",
			"connected": true,
			"provider":  providerName,
			"phone_id":  phoneID,
			"endpoints": fiber.Map{
				"webhook":     "/webhook",
				"status":      "/status",
				"sendMessage": "/send-message",
			},
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	}
}

func StatusHandler(phoneID string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"connected": true,
			"provider":  providerName,
			"phone_id":  phoneID,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	}
}
