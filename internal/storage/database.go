package storage

import (
	"errors"

	"gorm.io/gorm"

	"github.com/miriadsolutions/atendimento-backend/internal/models"
)

// DatabaseStore implements Store on PostgreSQL via GORM
type DatabaseStore struct {
	db *gorm.DB
}

// NewDatabaseStore creates a database-backed store
func NewDatabaseStore(db *gorm.DB) *DatabaseStore {
	return &DatabaseStore{db: db}
}

func (d *DatabaseStore) CreateClient(client *models.Client) error {
	return d.db.Create(client).Error
}

func (d *DatabaseStore) GetClientByCNPJ(cnpj string) (*models.Client, error) {
	var client models.Client
	err := d.db.Where("cnpj = ?", cnpj).First(&client).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &client, nil
}

func (d *DatabaseStore) CreateContract(contract *models.Contract) error {
	return d.db.Create(contract).Error
}

func (d *DatabaseStore) GetActiveContractsByCNPJ(cnpj string) ([]*models.Contract, error) {
	var contracts []*models.Contract
	err := d.db.
		Where("cnpj = ? AND status = ?", cnpj, models.ContractStatusActive).
		Order("id").
		Find(&contracts).Error
	if err != nil {
		return nil, err
	}
	return contracts, nil
}

func (d *DatabaseStore) CreateSurveyResponses(rows []*models.SurveyResponse) error {
	if len(rows) == 0 {
		return nil
	}
	return d.db.Create(rows).Error
}

func (d *DatabaseStore) GetSurveyResponsesByConversation(conversationID string) ([]*models.SurveyResponse, error) {
	var rows []*models.SurveyResponse
	err := d.db.Where("conversation_id = ?", conversationID).Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
