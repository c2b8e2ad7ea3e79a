package storage

import (
	"sync"

	"github.com/miriadsolutions/atendimento-backend/internal/models"
)

// MemoryStore holds all data in memory, used for tests and local
// development (USE_MEMORY_STORE=true)
type MemoryStore struct {
	clients   map[string]*models.Client     // keyed by CNPJ
	contracts map[string][]*models.Contract // keyed by CNPJ
	responses []*models.SurveyResponse

	clientMu   sync.RWMutex
	contractMu sync.RWMutex
	responseMu sync.RWMutex
}

// NewMemoryStore creates a new in-memory storage
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		clients:   make(map[string]*models.Client),
		contracts: make(map[string][]*models.Contract),
	}
}

func (m *MemoryStore) CreateClient(client *models.Client) error {
	m.clientMu.Lock()
	defer m.clientMu.Unlock()

	m.clients[client.CNPJ] = client
	return nil
}

func (m *MemoryStore) GetClientByCNPJ(cnpj string) (*models.Client, error) {
	m.clientMu.RLock()
	defer m.clientMu.RUnlock()

	client, exists := m.clients[cnpj]
	if !exists {
		return nil, nil
	}
	return client, nil
}

func (m *MemoryStore) CreateContract(contract *models.Contract) error {
	m.contractMu.Lock()
	defer m.contractMu.Unlock()

	m.contracts[contract.CNPJ] = append(m.contracts[contract.CNPJ], contract)
	return nil
}

func (m *MemoryStore) GetActiveContractsByCNPJ(cnpj string) ([]*models.Contract, error) {
	m.contractMu.RLock()
	defer m.contractMu.RUnlock()

	var active []*models.Contract
	for _, contract := range m.contracts[cnpj] {
		if contract.Status == models.ContractStatusActive {
			active = append(active, contract)
		}
	}
	return active, nil
}

func (m *MemoryStore) CreateSurveyResponses(rows []*models.SurveyResponse) error {
	m.responseMu.Lock()
	defer m.responseMu.Unlock()

	m.responses = append(m.responses, rows...)
	return nil
}

func (m *MemoryStore) GetSurveyResponsesByConversation(conversationID string) ([]*models.SurveyResponse, error) {
	m.responseMu.RLock()
	defer m.responseMu.RUnlock()

	var rows []*models.SurveyResponse
	for _, row := range m.responses {
		if row.ConversationID == conversationID {
			rows = append(rows, row)
		}
	}
	return rows, nil
}
