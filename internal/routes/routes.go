package routes

import (
	"log"
	"os"

	"github.com/gofiber/fiber/v2"

	"github.com/miriadsolutions/atendimento-backend/internal/handlers"
	"github.com/miriadsolutions/atendimento-backend/internal/middleware"
)

// SetupRoutes configures all API routes
func SetupRoutes(app *fiber.App, whatsapp *handlers.WhatsAppHandler) {

	// Root endpoint
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"service": "Miriad Atendimento",
			"version": "1.0.0",
			"endpoints": fiber.Map{
				"health":  "/health",
				"webhook": "/webhook",
			},
		})
	})

	app.Get("/health", handlers.HealthCheck)

	// Webhook verification handshake (no auth required)
	app.Get("/webhook", whatsapp.HandleVerification)

	// Incoming messages, with environment-aware signature validation
	if os.Getenv("ENVIRONMENT") == "development" || os.Getenv("DISABLE_WEBHOOK_VALIDATION") == "true" {
		app.Post("/webhook", whatsapp.HandleWebhook)
		log.Println("⚠️  Webhook signature validation DISABLED")
	} else {
		app.Post("/webhook", middleware.ValidateTwilioSignature(), whatsapp.HandleWebhook)
	}
}
