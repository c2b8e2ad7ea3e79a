package storage

import (
	"github.com/miriadsolutions/atendimento-backend/internal/models"
)

// Store defines the record-store operations the conversation flows need.
// Lookups return (nil, nil) when no record matches; errors are reserved
// for backend failures.
type Store interface {
	// Client operations
	CreateClient(client *models.Client) error
	GetClientByCNPJ(cnpj string) (*models.Client, error)

	// Contract operations
	CreateContract(contract *models.Contract) error
	GetActiveContractsByCNPJ(cnpj string) ([]*models.Contract, error)

	// Survey response operations
	CreateSurveyResponses(rows []*models.SurveyResponse) error
	GetSurveyResponsesByConversation(conversationID string) ([]*models.SurveyResponse, error)
}
