package services

import (
	"fmt"
	"log"
	"os"

	"github.com/adlio/trello"
)

// CardCreator is the task-tracking contract the finalization sequence
// depends on
type CardCreator interface {
	CreateCard(title string, description string, email string, phone string) error
}

// TrelloService creates occurrence cards on the operations board
type TrelloService struct {
	client *trello.Client
	listID string
}

// NewTrelloService creates a Trello client from environment credentials
func NewTrelloService() (*TrelloService, error) {
	key := os.Getenv("TRELLO_KEY")
	token := os.Getenv("TRELLO_TOKEN")
	listID := os.Getenv("TRELLO_LIST_ID")

	if key == "" || token == "" || listID == "" {
		return nil, fmt.Errorf("missing Trello configuration: ensure TRELLO_KEY, TRELLO_TOKEN and TRELLO_LIST_ID are set")
	}

	return &TrelloService{
		client: trello.NewClient(key, token),
		listID: listID,
	}, nil
}

// CreateCard creates a card with the requester's contact appended to
// the description
func (t *TrelloService) CreateCard(title string, description string, email string, phone string) error {
	if email == "" {
		email = "Não informado"
	}
	if phone == "" {
		phone = "Não informado"
	}

	card := &trello.Card{
		Name: title,
		Desc: fmt.Sprintf("%s\n📧 E-mail do solicitante: %s\n📞 Telefone do solicitante: %s",
			description, email, phone),
		IDList: t.listID,
	}

	if err := t.client.CreateCard(card, trello.Defaults()); err != nil {
		return fmt.Errorf("failed to create Trello card: %w", err)
	}

	log.Printf("✅ Trello card created: %s", title)
	return nil
}
