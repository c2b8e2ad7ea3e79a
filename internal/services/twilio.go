package services

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/miriadsolutions/atendimento-backend/internal/models"
)

// MessageGateway is the outbound messaging contract the conversation
// flows depend on
type MessageGateway interface {
	SendMessage(to string, body string) error
	SendImage(to string, imageURL string, caption string) error
	SendMenu(to string, menu *models.Menu) error
}

// TwilioService sends WhatsApp messages through the Twilio API
type TwilioService struct {
	client *twilio.RestClient
	from   string // Format: "whatsapp:+14155238886"
}

// NewTwilioService creates a new Twilio service instance
func NewTwilioService() (*TwilioService, error) {
	accountSid := os.Getenv("TWILIO_ACCOUNT_SID")
	authToken := os.Getenv("TWILIO_AUTH_TOKEN")
	from := os.Getenv("TWILIO_WHATSAPP_FROM")

	if accountSid == "" || authToken == "" || from == "" {
		return nil, fmt.Errorf("missing Twilio credentials in environment variables")
	}

	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSid,
		Password: authToken,
	})

	return &TwilioService{
		client: client,
		from:   from,
	}, nil
}

// SendMessage sends a plain WhatsApp text message
func (t *TwilioService) SendMessage(to string, body string) error {
	params := &twilioApi.CreateMessageParams{}
	params.SetFrom(t.from)
	params.SetTo(fmt.Sprintf("whatsapp:%s", to))
	params.SetBody(body)

	resp, err := t.client.Api.CreateMessage(params)
	if err != nil {
		log.Printf("❌ Failed to send WhatsApp message: %v", err)
		return err
	}

	log.Printf("✅ WhatsApp message sent! SID: %s", *resp.Sid)
	return nil
}

// SendImage sends an image by URL with an optional caption
func (t *TwilioService) SendImage(to string, imageURL string, caption string) error {
	params := &twilioApi.CreateMessageParams{}
	params.SetFrom(t.from)
	params.SetTo(fmt.Sprintf("whatsapp:%s", to))
	params.SetMediaUrl([]string{imageURL})
	if caption != "" {
		params.SetBody(caption)
	}

	resp, err := t.client.Api.CreateMessage(params)
	if err != nil {
		log.Printf("❌ Failed to send WhatsApp image: %v", err)
		return err
	}

	log.Printf("✅ WhatsApp image sent! SID: %s", *resp.Sid)
	return nil
}

// SendMenu sends an interactive list menu. Twilio only delivers real
// WhatsApp list messages through pre-registered content templates, so
// when the menu carries a content SID we use it; otherwise the menu is
// rendered as a plain-text option list the user answers by id.
func (t *TwilioService) SendMenu(to string, menu *models.Menu) error {
	if menu.ContentSID != "" {
		return t.sendContentTemplate(to, menu)
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetFrom(t.from)
	params.SetTo(fmt.Sprintf("whatsapp:%s", to))
	params.SetBody(renderMenuText(menu))

	resp, err := t.client.Api.CreateMessage(params)
	if err != nil {
		log.Printf("❌ Failed to send WhatsApp menu: %v", err)
		return err
	}

	log.Printf("✅ WhatsApp menu sent! SID: %s", *resp.Sid)
	return nil
}

func (t *TwilioService) sendContentTemplate(to string, menu *models.Menu) error {
	params := &twilioApi.CreateMessageParams{}
	params.SetFrom(t.from)
	params.SetTo(fmt.Sprintf("whatsapp:%s", to))
	params.SetContentSid(menu.ContentSID)

	// Template variables are numbered by option position
	variables := make(map[string]string, len(menu.Options))
	for i, opt := range menu.Options {
		variables[fmt.Sprintf("%d", i+1)] = opt.Title
	}
	if len(variables) > 0 {
		variablesJSON, err := json.Marshal(variables)
		if err != nil {
			return fmt.Errorf("failed to marshal content variables: %w", err)
		}
		params.SetContentVariables(string(variablesJSON))
	}

	resp, err := t.client.Api.CreateMessage(params)
	if err != nil {
		return fmt.Errorf("failed to send content template: %w", err)
	}
	if resp.ErrorCode != nil && *resp.ErrorCode != 0 {
		return fmt.Errorf("twilio error %d: %s", *resp.ErrorCode, *resp.ErrorMessage)
	}

	log.Printf("✅ WhatsApp template sent to %s, SID: %s", to, *resp.Sid)
	return nil
}

func renderMenuText(menu *models.Menu) string {
	var b strings.Builder

	if menu.Header != "" {
		fmt.Fprintf(&b, "*%s*\n\n", menu.Header)
	}
	if menu.Body != "" {
		b.WriteString(menu.Body)
		b.WriteString("\n\n")
	}
	if menu.Section != "" {
		fmt.Fprintf(&b, "*%s*\n", menu.Section)
	}
	for _, opt := range menu.Options {
		if opt.Description != "" {
			fmt.Fprintf(&b, "▪️ *%s* — %s (%s)\n", opt.ID, opt.Title, opt.Description)
		} else {
			fmt.Fprintf(&b, "▪️ *%s* — %s\n", opt.ID, opt.Title)
		}
	}
	b.WriteString("\nResponda com o código de uma das opções acima.")
	if menu.Footer != "" {
		fmt.Fprintf(&b, "\n_%s_", menu.Footer)
	}

	return b.String()
}
