package services

import (
	"fmt"
	"sync"

	"github.com/miriadsolutions/atendimento-backend/internal/models"
	"github.com/miriadsolutions/atendimento-backend/internal/storage"
)

type sentImage struct {
	to      string
	url     string
	caption string
}

// fakeGateway records outbound messages for assertions
type fakeGateway struct {
	mu     sync.Mutex
	texts  []string
	images []sentImage
	menus  []*models.Menu
}

func (f *fakeGateway) SendMessage(to string, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.texts = append(f.texts, body)
	return nil
}

func (f *fakeGateway) SendImage(to string, url string, caption string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.images = append(f.images, sentImage{to: to, url: url, caption: caption})
	return nil
}

func (f *fakeGateway) SendMenu(to string, menu *models.Menu) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.menus = append(f.menus, menu)
	return nil
}

func (f *fakeGateway) lastText() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.texts) == 0 {
		return ""
	}
	return f.texts[len(f.texts)-1]
}

// fakeMedia uploads media to predictable links and serves one PDF
type fakeMedia struct {
	uploads   int
	latestPDF *models.DriveFile
	pdfBytes  []byte
}

func (f *fakeMedia) UploadMedia(mediaURL string, mimeType string) (string, error) {
	f.uploads++
	return fmt.Sprintf("https://drive.google.com/file/d/upload-%d/view", f.uploads), nil
}

func (f *fakeMedia) GetLatestPDF(folderID string) (*models.DriveFile, error) {
	return f.latestPDF, nil
}

func (f *fakeMedia) DownloadFile(fileID string) ([]byte, error) {
	return f.pdfBytes, nil
}

type createdCard struct {
	title string
	desc  string
	email string
	phone string
}

type fakeTracker struct {
	cards []createdCard
}

func (f *fakeTracker) CreateCard(title, desc, email, phone string) error {
	f.cards = append(f.cards, createdCard{title: title, desc: desc, email: email, phone: phone})
	return nil
}

type fakeMailer struct {
	sent []*models.Email
}

func (f *fakeMailer) Send(email *models.Email) error {
	f.sent = append(f.sent, email)
	return nil
}

// testEnv wires the full conversation stack against in-memory fakes.
// The finalization spawn runs synchronously and the PDF wait is zero.
type testEnv struct {
	sessions *SessionManager
	gateway  *fakeGateway
	store    *storage.MemoryStore
	media    *fakeMedia
	tracker  *fakeTracker
	mailer   *fakeMailer
	intake   *IntakeService
	router   *ConversationService
}

func newTestEnv() *testEnv {
	sessions := NewSessionManager()
	gateway := &fakeGateway{}
	store := storage.NewMemoryStore()
	media := &fakeMedia{}
	tracker := &fakeTracker{}
	mailer := &fakeMailer{}

	intake := NewIntakeService(gateway, store, media, tracker, mailer, sessions)
	intake.pdfWait = 0
	intake.spawn = func(f func()) { f() }

	internal := NewInternalFlowService(gateway)
	router := NewConversationService(sessions, gateway, store, intake, internal)

	return &testEnv{
		sessions: sessions,
		gateway:  gateway,
		store:    store,
		media:    media,
		tracker:  tracker,
		mailer:   mailer,
		intake:   intake,
		router:   router,
	}
}

func (e *testEnv) seedClient(cnpj, name string, contracts ...*models.Contract) {
	_ = e.store.CreateClient(&models.Client{CNPJ: cnpj, Nome: name})
	for _, contract := range contracts {
		contract.CNPJ = cnpj
		_ = e.store.CreateContract(contract)
	}
}

func text(from, body string) *models.InboundMessage {
	return &models.InboundMessage{From: from, Type: models.MessageText, Body: body}
}

func video(from string) *models.InboundMessage {
	return &models.InboundMessage{
		From:             from,
		Type:             models.MessageVideo,
		MediaURL:         "https://api.twilio.com/media/video-1",
		MediaContentType: "video/mp4",
	}
}

func image(from string) *models.InboundMessage {
	return &models.InboundMessage{
		From:             from,
		Type:             models.MessageImage,
		MediaURL:         "https://api.twilio.com/media/image-1",
		MediaContentType: "image/jpeg",
	}
}
