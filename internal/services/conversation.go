package services

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/miriadsolutions/atendimento-backend/internal/models"
	"github.com/miriadsolutions/atendimento-backend/internal/storage"
	"github.com/miriadsolutions/atendimento-backend/internal/utils"
)

// escapeCommand resets the conversation from any state
const escapeCommand = "sair"

const (
	optionClientes      = "clientes"
	optionColaboradores = "colaboradores"
)

// ConversationService routes inbound messages: greeting, main menu,
// client identification and contract selection, then hands off to the
// active flow
type ConversationService struct {
	sessions *SessionManager
	gateway  MessageGateway
	store    storage.Store
	intake   *IntakeService
	internal *InternalFlowService

	// Messages for the same sender are processed one at a time; the
	// transport may deliver webhooks concurrently
	senderMu sync.Map // sender -> *sync.Mutex
}

// NewConversationService creates the message router
func NewConversationService(sessions *SessionManager, gateway MessageGateway,
	store storage.Store, intake *IntakeService, internal *InternalFlowService) *ConversationService {

	return &ConversationService{
		sessions: sessions,
		gateway:  gateway,
		store:    store,
		intake:   intake,
		internal: internal,
	}
}

// ProcessMessage handles one normalized inbound message end to end.
// Errors are caught here and surfaced to the user as a generic retry
// message so one sender's failure never affects others.
func (s *ConversationService) ProcessMessage(msg *models.InboundMessage) {
	mu := s.lockFor(msg.From)
	mu.Lock()
	defer mu.Unlock()

	if err := s.route(msg); err != nil {
		log.Printf("Erro ao processar mensagem de %s: %v", msg.From, err)
		if sendErr := s.gateway.SendMessage(msg.From, "Ocorreu um erro ao processar sua mensagem. Tente novamente."); sendErr != nil {
			log.Printf("❌ Failed to send error message to %s: %v", msg.From, sendErr)
		}
	}
}

func (s *ConversationService) lockFor(from string) *sync.Mutex {
	mu, _ := s.senderMu.LoadOrStore(from, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

func (s *ConversationService) route(msg *models.InboundMessage) error {
	from := msg.From

	if !s.sessions.Has(from) {
		s.sessions.Create(from)
	}
	session, err := s.sessions.Get(from)
	if err != nil {
		return err
	}

	if session.FlowFinished {
		log.Printf("[processMessage] O fluxo do usuário %s já foi finalizado. Aguardando nova interação.", from)
		return nil
	}

	s.sessions.Touch(from)

	body := strings.TrimSpace(msg.Body)

	// Escape keyword: discard everything and greet again
	if msg.Type == models.MessageText && strings.ToLower(body) == escapeCommand {
		log.Printf("[escape] Usuário %s digitou %q. Resetando fluxo.", from, escapeCommand)
		s.sessions.Reset(from)
		s.sessions.Create(from)
		return s.gateway.SendMenu(from, welcomeMenu())
	}

	if !session.Greeted {
		session.Greeted = true
		session.WaitingForSelection = true
		return s.gateway.SendMenu(from, welcomeMenu())
	}

	if session.WaitingForSelection {
		return s.handleMenuSelection(from, body, session)
	}

	if session.AwaitingCNPJ {
		return s.handleCNPJ(from, body, session)
	}

	if session.AwaitingContractSelection {
		return s.handleContractSelection(from, body, session)
	}

	switch session.CurrentFlow {
	case FlowClientes:
		s.intake.HandleMessage(msg, session)
		return nil
	case FlowColaboradores:
		return s.internal.HandleMessage(from, body, session)
	default:
		return s.gateway.SendMessage(from, "Desculpe, não entendi. Pode repetir?")
	}
}

func (s *ConversationService) handleMenuSelection(from string, body string, session *Session) error {
	switch strings.ToLower(body) {
	case optionClientes:
		session.CurrentFlow = FlowClientes
		session.WaitingForSelection = false
		session.AwaitingCNPJ = true
		return s.gateway.SendMessage(from, "Por favor, digite o CNPJ para validação.")

	case optionColaboradores:
		session.CurrentFlow = FlowColaboradores
		session.WaitingForSelection = false
		if err := s.gateway.SendMessage(from, "Você selecionou \"Atendimento interno\". Iniciando..."); err != nil {
			return err
		}
		return s.internal.Start(from, session)

	default:
		return s.gateway.SendMessage(from, "Seleção inválida. Escolha uma das opções disponíveis.")
	}
}

// handleCNPJ validates the typed CNPJ, greets the client by name and
// resolves the contract to survey against
func (s *ConversationService) handleCNPJ(from string, body string, session *Session) error {
	cnpj := utils.CleanCNPJ(body)
	log.Printf("CNPJ digitado: %s", cnpj)

	client, err := s.store.GetClientByCNPJ(cnpj)
	if err != nil {
		// Lookup failures leave the flags alone so the user can retry
		log.Printf("Erro ao buscar CNPJ %s: %v", cnpj, err)
		return s.gateway.SendMessage(from, "Ocorreu um erro ao processar sua solicitação. Tente novamente.")
	}
	if client == nil {
		return s.gateway.SendMessage(from, "CNPJ não encontrado. Por favor, tente novamente.")
	}

	session.IdentifiedCNPJ = cnpj
	session.AwaitingCNPJ = false

	companyName := client.Nome
	if companyName == "" {
		companyName = "sua empresa"
	}
	if err := s.gateway.SendMessage(from, fmt.Sprintf("Olá, bem-vindo(a), %s!", companyName)); err != nil {
		return err
	}

	contracts, err := s.store.GetActiveContractsByCNPJ(cnpj)
	if err != nil {
		log.Printf("Erro ao buscar contratos do CNPJ %s: %v", cnpj, err)
		return s.gateway.SendMessage(from, "Ocorreu um erro ao processar sua solicitação. Tente novamente.")
	}

	switch {
	case len(contracts) == 0:
		return s.gateway.SendMessage(from, fmt.Sprintf("Nenhum contrato ativo encontrado para o CNPJ %s.", cnpj))

	case len(contracts) == 1:
		session.SelectedContract = contracts[0]
		if err := s.gateway.SendMessage(from,
			fmt.Sprintf("Contrato único encontrado (%s). Iniciando fluxo...", contracts[0].Numero)); err != nil {
			return err
		}
		return s.intake.Start(from, session)

	default:
		session.AwaitingContractSelection = true
		return s.gateway.SendMenu(from, contractMenu(contracts))
	}
}

// handleContractSelection resolves a contract_<index> pick against a
// fresh contract list; the ordering is not cached across messages
func (s *ConversationService) handleContractSelection(from string, body string, session *Session) error {
	invalid := func() error {
		return s.gateway.SendMessage(from, "Seleção inválida. Por favor, escolha uma das opções disponíveis.")
	}

	parts := strings.Split(body, "_")
	if len(parts) < 2 {
		return invalid()
	}
	index, err := strconv.Atoi(parts[len(parts)-1])
	if err != nil {
		return invalid()
	}

	contracts, lookupErr := s.store.GetActiveContractsByCNPJ(session.IdentifiedCNPJ)
	if lookupErr != nil {
		log.Printf("Erro ao buscar contratos do CNPJ %s: %v", session.IdentifiedCNPJ, lookupErr)
		return s.gateway.SendMessage(from, "Ocorreu um erro ao processar sua solicitação. Tente novamente.")
	}
	if index < 0 || index >= len(contracts) {
		return invalid()
	}

	session.SelectedContract = contracts[index]
	session.AwaitingContractSelection = false

	if err := s.gateway.SendMessage(from,
		fmt.Sprintf("Contrato selecionado: %s. Iniciando perguntas...", contracts[index].Numero)); err != nil {
		return err
	}
	return s.intake.Start(from, session)
}

func welcomeMenu() *models.Menu {
	return &models.Menu{
		Header:  "Seja bem-vindo à Miriad Solutions.",
		Body:    "Primeiramente, escolha sua opção de atendimento. Caso deseje cancelar ou reiniciar o atendimento, digite *Sair*",
		Footer:  "Use o menu para navegação",
		Button:  "Opções",
		Section: "Atendimento",
		Options: []models.MenuOption{
			{ID: optionClientes, Title: "Clientes", Description: "Atendimento ao cliente"},
			{ID: optionColaboradores, Title: "Colaboradores", Description: "Atendimento interno"},
		},
		ContentSID: os.Getenv("TWILIO_CONTENT_SID_WELCOME"),
	}
}

func contractMenu(contracts []*models.Contract) *models.Menu {
	options := make([]models.MenuOption, 0, len(contracts))
	for i, contract := range contracts {
		options = append(options, models.MenuOption{
			ID:    fmt.Sprintf("contract_%d", i),
			Title: contract.Numero,
		})
	}

	return &models.Menu{
		Header:  "Seleção de Contrato",
		Body:    "Para qual contrato deseja fazer a solicitação?",
		Button:  "Contratos",
		Section: "Contratos Ativos",
		Options: options,
	}
}
