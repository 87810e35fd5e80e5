package transport

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ferramentas-mnz/estetica-whatsapp-api-oficial/internal/observability"
)

// NewApp builds the fiber application with the shared middleware chain:
// panic recovery, CORS for browser clients of /send-message, a
// generated request id per request, and HTTP metrics. Routes are
// registered by the caller.
func NewApp(logger *zap.Logger, metrics *observability.Metrics) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: ErrorHandler(logger),
	})

	app.Use(recover.New())
	app.Use(cors.New())
	app.Use(requestid.New(requestid.Config{
		Generator: uuid.NewString,
	}))
	if metrics != nil {
		app.Use(metrics.HTTPMiddleware())
	}

	return app
}
