package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/miriadsolutions/atendimento-backend/internal/models"
)

func TestGreetingSendsWelcomeMenu(t *testing.T) {
	env := newTestEnv()

	env.router.ProcessMessage(text(sender, "oi"))

	require.True(t, env.sessions.Has(sender))
	session, _ := env.sessions.Get(sender)
	assert.True(t, session.Greeted)
	assert.True(t, session.WaitingForSelection)

	require.Len(t, env.gateway.menus, 1)
	menu := env.gateway.menus[0]
	assert.Equal(t, "Seja bem-vindo à Miriad Solutions.", menu.Header)
	require.Len(t, menu.Options, 2)
	assert.Equal(t, "clientes", menu.Options[0].ID)
	assert.Equal(t, "colaboradores", menu.Options[1].ID)
}

func TestInvalidMenuSelection(t *testing.T) {
	env := newTestEnv()
	env.router.ProcessMessage(text(sender, "oi"))

	env.router.ProcessMessage(text(sender, "bananas"))

	session, _ := env.sessions.Get(sender)
	assert.True(t, session.WaitingForSelection)
	assert.Equal(t, "Seleção inválida. Escolha uma das opções disponíveis.", env.gateway.lastText())
}

func TestClientSelectionAsksForCNPJ(t *testing.T) {
	env := newTestEnv()
	env.router.ProcessMessage(text(sender, "oi"))

	env.router.ProcessMessage(text(sender, "clientes"))

	session, _ := env.sessions.Get(sender)
	assert.Equal(t, FlowClientes, session.CurrentFlow)
	assert.False(t, session.WaitingForSelection)
	assert.True(t, session.AwaitingCNPJ)
	assert.Equal(t, "Por favor, digite o CNPJ para validação.", env.gateway.lastText())
}

func TestInternalSelectionStartsInternalFlow(t *testing.T) {
	env := newTestEnv()
	env.router.ProcessMessage(text(sender, "oi"))

	env.router.ProcessMessage(text(sender, "colaboradores"))

	session, _ := env.sessions.Get(sender)
	assert.Equal(t, FlowColaboradores, session.CurrentFlow)
	assert.Equal(t, "O fluxo de \"Atendimento interno\" ainda está em desenvolvimento.", env.gateway.lastText())

	env.router.ProcessMessage(text(sender, "alguém aí?"))
	assert.Equal(t, "Ainda estamos implementando este fluxo. Por favor, tente novamente mais tarde.", env.gateway.lastText())
}

func TestUnknownCNPJReprompts(t *testing.T) {
	env := newTestEnv()
	env.router.ProcessMessage(text(sender, "oi"))
	env.router.ProcessMessage(text(sender, "clientes"))

	env.router.ProcessMessage(text(sender, "99.999.999/0001-99"))

	session, _ := env.sessions.Get(sender)
	assert.True(t, session.AwaitingCNPJ)
	assert.Empty(t, session.IdentifiedCNPJ)
	assert.Equal(t, "CNPJ não encontrado. Por favor, tente novamente.", env.gateway.lastText())
}

func TestSingleContractAutoStartsIntake(t *testing.T) {
	env := newTestEnv()
	env.seedClient("12345678000190", "ACME Ltda",
		&models.Contract{Numero: "CT-001", Status: models.ContractStatusActive})
	env.router.ProcessMessage(text(sender, "oi"))
	env.router.ProcessMessage(text(sender, "clientes"))

	// Formatted CNPJ is normalized before lookup
	env.router.ProcessMessage(text(sender, "12.345.678/0001-90"))

	session, _ := env.sessions.Get(sender)
	assert.Equal(t, "12345678000190", session.IdentifiedCNPJ)
	assert.False(t, session.AwaitingCNPJ)
	require.NotNil(t, session.SelectedContract)
	assert.Equal(t, "CT-001", session.SelectedContract.Numero)
	assert.Equal(t, 0, session.QuestionIndex)

	assert.Contains(t, env.gateway.texts, "Olá, bem-vindo(a), ACME Ltda!")
	assert.Contains(t, env.gateway.texts, "Contrato único encontrado (CT-001). Iniciando fluxo...")
	assert.Equal(t, intakeQuestions[0], env.gateway.lastText())
}

func TestZeroContractsStallsSession(t *testing.T) {
	env := newTestEnv()
	env.seedClient("12345678000190", "ACME Ltda",
		&models.Contract{Numero: "CT-001", Status: "ENCERRADO"})
	env.router.ProcessMessage(text(sender, "oi"))
	env.router.ProcessMessage(text(sender, "clientes"))

	env.router.ProcessMessage(text(sender, "12345678000190"))

	session, _ := env.sessions.Get(sender)
	assert.False(t, session.AwaitingCNPJ)
	assert.Nil(t, session.SelectedContract)
	assert.Equal(t, -1, session.QuestionIndex)
	assert.Equal(t, "Nenhum contrato ativo encontrado para o CNPJ 12345678000190.", env.gateway.lastText())
}

func TestMultipleContractsPresentMenu(t *testing.T) {
	env := newTestEnv()
	env.seedClient("12345678000190", "ACME Ltda",
		&models.Contract{Numero: "CT-001", Status: models.ContractStatusActive},
		&models.Contract{Numero: "CT-002", Status: models.ContractStatusActive})
	env.router.ProcessMessage(text(sender, "oi"))
	env.router.ProcessMessage(text(sender, "clientes"))
	env.router.ProcessMessage(text(sender, "12345678000190"))

	session, _ := env.sessions.Get(sender)
	assert.True(t, session.AwaitingContractSelection)
	require.Len(t, env.gateway.menus, 2) // welcome + contracts
	contracts := env.gateway.menus[1]
	require.Len(t, contracts.Options, 2)
	assert.Equal(t, "contract_0", contracts.Options[0].ID)
	assert.Equal(t, "CT-002", contracts.Options[1].Title)

	// Out-of-range and malformed picks are rejected
	env.router.ProcessMessage(text(sender, "contract_7"))
	assert.True(t, session.AwaitingContractSelection)
	env.router.ProcessMessage(text(sender, "whatever"))
	assert.True(t, session.AwaitingContractSelection)

	env.router.ProcessMessage(text(sender, "contract_1"))
	assert.False(t, session.AwaitingContractSelection)
	require.NotNil(t, session.SelectedContract)
	assert.Equal(t, "CT-002", session.SelectedContract.Numero)
	assert.Equal(t, 0, session.QuestionIndex)
}

func TestEscapeResetsFromAnyState(t *testing.T) {
	env := newTestEnv()
	env.seedClient("12345678000190", "ACME Ltda",
		&models.Contract{Numero: "CT-001", Status: models.ContractStatusActive})
	env.router.ProcessMessage(text(sender, "oi"))
	env.router.ProcessMessage(text(sender, "clientes"))
	env.router.ProcessMessage(text(sender, "12345678000190"))
	env.router.ProcessMessage(text(sender, "user@example.com"))

	old, _ := env.sessions.Get(sender)
	oldConversation := old.ConversationID

	env.router.ProcessMessage(text(sender, "  SAIR  "))

	session, _ := env.sessions.Get(sender)
	assert.NotEqual(t, oldConversation, session.ConversationID)
	assert.False(t, session.Greeted)
	assert.Equal(t, FlowNone, session.CurrentFlow)

	// The welcome menu was sent again
	assert.Equal(t, "Seja bem-vindo à Miriad Solutions.", env.gateway.menus[len(env.gateway.menus)-1].Header)
}

func TestRoundTripScenario(t *testing.T) {
	env := newTestEnv()
	env.seedClient("12345678000190", "ACME Ltda",
		&models.Contract{Numero: "CT-001", Status: models.ContractStatusActive})

	env.router.ProcessMessage(text(sender, "oi"))
	require.Len(t, env.gateway.menus, 1)

	env.router.ProcessMessage(text(sender, "clientes"))
	session, _ := env.sessions.Get(sender)
	assert.True(t, session.AwaitingCNPJ)

	env.router.ProcessMessage(text(sender, "12345678000190"))
	assert.Equal(t, 0, session.QuestionIndex)

	env.router.ProcessMessage(text(sender, "user@example.com"))
	assert.Equal(t, 1, session.QuestionIndex)

	env.router.ProcessMessage(text(sender, "25"))
	assert.Equal(t, 1, session.QuestionIndex)

	env.router.ProcessMessage(text(sender, "14"))
	assert.Equal(t, 2, session.QuestionIndex)
}

func TestUnroutedMessageGetsFallback(t *testing.T) {
	env := newTestEnv()
	env.router.ProcessMessage(text(sender, "oi"))

	session, _ := env.sessions.Get(sender)
	session.WaitingForSelection = false

	env.router.ProcessMessage(text(sender, "o que agora?"))
	assert.Equal(t, "Desculpe, não entendi. Pode repetir?", env.gateway.lastText())
}

func TestFinishedFlowDropsMessages(t *testing.T) {
	env := newTestEnv()
	env.router.ProcessMessage(text(sender, "oi"))

	session, _ := env.sessions.Get(sender)
	session.FlowFinished = true

	sent := len(env.gateway.texts) + len(env.gateway.menus)
	env.router.ProcessMessage(text(sender, "alô"))
	assert.Equal(t, sent, len(env.gateway.texts)+len(env.gateway.menus))
}
