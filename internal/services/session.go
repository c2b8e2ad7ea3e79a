package services

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/miriadsolutions/atendimento-backend/internal/models"
)

// Flow identifies which sub-flow consumes a session's messages
type Flow string

const (
	FlowNone          Flow = ""
	FlowClientes      Flow = "clientes"
	FlowColaboradores Flow = "colaboradores"
)

// PointAnswers holds the answers collected during one pass through the
// per-point questions (location through extra comment)
type PointAnswers struct {
	Local          string
	Elemento       string
	JaTeveProblema string
	VideoLink      string
	ImageLinks     []string
	Adesivo        string
	Comentario     string
}

// Session is the conversation state for one sender
type Session struct {
	From string

	// Router phase flags; only one drives behavior at a time
	Greeted                   bool
	WaitingForSelection       bool
	AwaitingCNPJ              bool
	AwaitingContractSelection bool
	FlowFinished              bool
	IsFinalizing              bool

	CurrentFlow      Flow
	IdentifiedCNPJ   string
	SelectedContract *models.Contract

	// Intake answers. QuestionIndex is -1 while no intake is running.
	Email          string
	Horario        string
	ExpectedPoints int
	Current        PointAnswers
	Responsavel    string
	Occurrences    []PointAnswers
	QuestionIndex  int

	ConversationID  string
	LastInteraction time.Time
}

// SessionManager owns per-sender conversation state: creation, lookup
// and inactivity expiry
type SessionManager struct {
	sessions   map[string]*Session
	mu         sync.RWMutex
	timeout    time.Duration
	sweepEvery time.Duration
	now        func() time.Time
	quit       chan struct{}
	stopOnce   sync.Once
}

const (
	sessionTimeout = 15 * time.Minute
	sweepInterval  = 60 * time.Second
)

// NewSessionManager creates a new session manager. Call StartSweeper to
// begin the inactivity sweep and Stop on shutdown.
func NewSessionManager() *SessionManager {
	return &SessionManager{
		sessions:   make(map[string]*Session),
		timeout:    sessionTimeout,
		sweepEvery: sweepInterval,
		now:        time.Now,
		quit:       make(chan struct{}),
	}
}

// Has reports whether a session exists for the sender
func (sm *SessionManager) Has(from string) bool {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	_, exists := sm.sessions[from]
	return exists
}

// Create initializes a fresh session for the sender, overwriting any
// prior entry
func (sm *SessionManager) Create(from string) *Session {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	session := &Session{
		From:            from,
		CurrentFlow:     FlowNone,
		QuestionIndex:   -1,
		ConversationID:  uuid.NewString(),
		LastInteraction: sm.now(),
	}
	sm.sessions[from] = session
	return session
}

// Get retrieves the session for a sender
func (sm *SessionManager) Get(from string) (*Session, error) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	session, exists := sm.sessions[from]
	if !exists {
		return nil, fmt.Errorf("session not found for %s", from)
	}
	return session, nil
}

// Touch updates the last-interaction time; no-op if the session is gone
func (sm *SessionManager) Touch(from string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if session, exists := sm.sessions[from]; exists {
		session.LastInteraction = sm.now()
	}
}

// Reset removes the sender's session; no-op if absent
func (sm *SessionManager) Reset(from string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if _, exists := sm.sessions[from]; exists {
		delete(sm.sessions, from)
		log.Printf("[session] Estado do usuário %s reiniciado", from)
	}
}

// ResetAll removes every session, used once at process start
func (sm *SessionManager) ResetAll() {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	sm.sessions = make(map[string]*Session)
}

// ActiveCount returns the number of live sessions (for monitoring)
func (sm *SessionManager) ActiveCount() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	return len(sm.sessions)
}

// StartSweeper runs the periodic inactivity sweep until Stop is called
func (sm *SessionManager) StartSweeper() {
	go func() {
		ticker := time.NewTicker(sm.sweepEvery)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				sm.sweepExpired()
			case <-sm.quit:
				return
			}
		}
	}()
}

// Stop halts the inactivity sweeper
func (sm *SessionManager) Stop() {
	sm.stopOnce.Do(func() {
		close(sm.quit)
	})
}

// sweepExpired deletes every session idle longer than the timeout. The
// user is not notified; their next message simply starts over.
func (sm *SessionManager) sweepExpired() {
	now := sm.now()

	sm.mu.Lock()
	defer sm.mu.Unlock()

	for from, session := range sm.sessions {
		if now.Sub(session.LastInteraction) > sm.timeout {
			delete(sm.sessions, from)
			log.Printf("[session] Resetando estado do usuário %s por inatividade", from)
		}
	}
}
