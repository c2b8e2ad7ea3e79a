package services

// InternalFlowService handles the "colaboradores" (internal service)
// flow. The flow is not built out yet; it acknowledges and asks the
// user to come back later.
type InternalFlowService struct {
	gateway MessageGateway
}

// NewInternalFlowService creates the internal flow handler
func NewInternalFlowService(gateway MessageGateway) *InternalFlowService {
	return &InternalFlowService{gateway: gateway}
}

// Start begins the internal flow
func (s *InternalFlowService) Start(from string, _ *Session) error {
	return s.gateway.SendMessage(from, "O fluxo de \"Atendimento interno\" ainda está em desenvolvimento.")
}

// HandleMessage handles messages while the internal flow is active
func (s *InternalFlowService) HandleMessage(from string, _ string, _ *Session) error {
	return s.gateway.SendMessage(from, "Ainda estamos implementando este fluxo. Por favor, tente novamente mais tarde.")
}
