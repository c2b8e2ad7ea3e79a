package handlers

import (
	"log"
	"os"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/miriadsolutions/atendimento-backend/internal/models"
	"github.com/miriadsolutions/atendimento-backend/internal/services"
)

// WhatsAppHandler handles WhatsApp webhook requests
type WhatsAppHandler struct {
	conversations *services.ConversationService
}

// NewWhatsAppHandler creates a new WhatsApp handler
func NewWhatsAppHandler(conversations *services.ConversationService) *WhatsAppHandler {
	return &WhatsAppHandler{conversations: conversations}
}

// TwilioWebhookPayload represents an incoming WhatsApp message from Twilio
type TwilioWebhookPayload struct {
	MessageSid        string `form:"MessageSid"`
	AccountSid        string `form:"AccountSid"`
	From              string `form:"From"` // WhatsApp number (whatsapp:+5511999999999)
	To                string `form:"To"`
	Body              string `form:"Body"`
	NumMedia          string `form:"NumMedia"`
	MediaUrl0         string `form:"MediaUrl0"`
	MediaContentType0 string `form:"MediaContentType0"`
	ListId            string `form:"ListId"`    // interactive list reply
	ListTitle         string `form:"ListTitle"` //
	ButtonPayload     string `form:"ButtonPayload"`
}

// HandleWebhook processes incoming WhatsApp messages
func (h *WhatsAppHandler) HandleWebhook(c *fiber.Ctx) error {
	var payload TwilioWebhookPayload

	if err := c.BodyParser(&payload); err != nil {
		log.Printf("Error parsing webhook: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid webhook payload",
		})
	}

	msg := normalizeInbound(&payload)
	if msg == nil {
		// Status callback or otherwise irrelevant event
		return c.SendStatus(fiber.StatusOK)
	}

	log.Printf("📱 WhatsApp %s from %s: %s", msg.Type, msg.From, msg.Body)
	h.conversations.ProcessMessage(msg)

	return c.SendStatus(fiber.StatusOK)
}

// HandleVerification answers the webhook verification handshake
func (h *WhatsAppHandler) HandleVerification(c *fiber.Ctx) error {
	mode := c.Query("hub.mode")
	token := c.Query("hub.verify_token")
	challenge := c.Query("hub.challenge")

	if mode == "subscribe" && token != "" && token == os.Getenv("VERIFY_TOKEN") {
		return c.SendString(challenge)
	}
	return c.SendStatus(fiber.StatusForbidden)
}

// normalizeInbound maps a Twilio payload to the router's message shape.
// Interactive list replies become a synthetic text message carrying the
// selected option id; media messages are typed by their content type.
func normalizeInbound(payload *TwilioWebhookPayload) *models.InboundMessage {
	from := strings.TrimPrefix(payload.From, "whatsapp:")
	if from == "" {
		return nil
	}

	if payload.ListId != "" {
		return &models.InboundMessage{From: from, Type: models.MessageText, Body: payload.ListId}
	}
	if payload.ButtonPayload != "" {
		return &models.InboundMessage{From: from, Type: models.MessageText, Body: payload.ButtonPayload}
	}

	if payload.NumMedia != "" && payload.NumMedia != "0" && payload.MediaUrl0 != "" {
		msgType := models.MessageDocument
		switch {
		case strings.HasPrefix(payload.MediaContentType0, "image/"):
			msgType = models.MessageImage
		case strings.HasPrefix(payload.MediaContentType0, "video/"):
			msgType = models.MessageVideo
		}
		return &models.InboundMessage{
			From:             from,
			Type:             msgType,
			Body:             payload.Body,
			MediaURL:         payload.MediaUrl0,
			MediaContentType: payload.MediaContentType0,
		}
	}

	if payload.Body == "" {
		return nil
	}
	return &models.InboundMessage{From: from, Type: models.MessageText, Body: payload.Body}
}
