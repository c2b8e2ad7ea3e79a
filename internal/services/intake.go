package services

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/miriadsolutions/atendimento-backend/internal/models"
	"github.com/miriadsolutions/atendimento-backend/internal/storage"
	"github.com/miriadsolutions/atendimento-backend/internal/utils"
)

// The fixed question list for the client intake survey (indices 0-11)
var intakeQuestions = [12]string{
	/* 0 */ "Por favor, informe seu e-mail de contato.",
	/* 1 */ "Qual o horário em que foi verificado o problema?",
	/* 2 */ "Por favor, informe o número de pontos de infiltração encontrados.",
	/* 3 */ "Identifique o local do ponto (eixos, ambiente, etc.).",
	/* 4 */ "É possível identificar o elemento que apresenta problema?",
	/* 5 */ "Esse elemento já apresentou problemas anteriormente? Se sim, quais?",
	/* 6 */ "Envie um *vídeo* curto (~20 s) do ponto de infiltração.",
	/* 7 */ "Envie *foto(s)* do ponto de infiltração. Após enviar todas, digite \"ok\".",
	/* 8 */ "Qual a descrição da *numeração* do adesivo em questão?",
	/* 9 */ "Deseja adicionar comentário adicional?",
	/*10 */ "Você quer adicionar outro ponto? (responda *sim* ou *não*)",
	/*11 */ "Nome completo do responsável pelo chamado.",
}

const (
	notApplicable = "Não se aplica"

	msgGenericError  = "Ocorreu um erro ao processar suas respostas. Tente novamente."
	msgFinalizingAck = "Sua solicitação foi cadastrada com sucesso, em breve será gerado um PDF e encaminhado por email. Muito obrigado!"
	msgNoPDF         = "Respostas registradas, mas nenhum PDF foi encontrado para envio."
	msgPDFSent       = "O PDF foi enviado por e-mail! Obrigado."
)

var (
	yesTokens = map[string]bool{"sim": true, "s": true, "yes": true, "1": true}
	noTokens  = map[string]bool{"nao": true, "não": true, "n": true, "no": true, "2": true}
)

const defaultPDFWait = 100 * time.Second

// IntakeService runs the 12-question client intake survey and the
// finalization sequence that follows the last answer
type IntakeService struct {
	gateway  MessageGateway
	store    storage.Store
	media    MediaStore
	tracker  CardCreator
	mailer   EmailSender
	sessions *SessionManager

	pdfFolderID string
	pdfWait     time.Duration

	// spawn runs the finalization sequence; replaced in tests to run
	// synchronously
	spawn func(func())

	reportCc  []string
	reportBcc []string
}

// NewIntakeService creates the intake flow service
func NewIntakeService(gateway MessageGateway, store storage.Store, media MediaStore,
	tracker CardCreator, mailer EmailSender, sessions *SessionManager) *IntakeService {

	wait := defaultPDFWait
	if secs := os.Getenv("PDF_WAIT_SECONDS"); secs != "" {
		if parsed, err := strconv.Atoi(secs); err == nil && parsed >= 0 {
			wait = time.Duration(parsed) * time.Second
		}
	}

	return &IntakeService{
		gateway:     gateway,
		store:       store,
		media:       media,
		tracker:     tracker,
		mailer:      mailer,
		sessions:    sessions,
		pdfFolderID: os.Getenv("GOOGLE_DRIVE_FOLDER_ID_PDFS"),
		pdfWait:     wait,
		spawn:       func(f func()) { go f() },
		reportCc:    []string{"felipelopacinski@miriadsolutions.com", "contato@miriadsolutions.com"},
		reportBcc:   []string{"guilhermegiandoni@miriadsolutions.com"},
	}
}

// Start begins the survey. A contract must already be selected.
func (s *IntakeService) Start(from string, session *Session) error {
	if session.SelectedContract == nil {
		return s.gateway.SendMessage(from, "Erro: Nenhum contrato selecionado")
	}

	session.Email = ""
	session.Horario = ""
	session.ExpectedPoints = 0
	session.Current = PointAnswers{}
	session.Responsavel = ""
	session.Occurrences = nil
	session.IsFinalizing = false
	session.QuestionIndex = 0

	return s.gateway.SendMessage(from, intakeQuestions[0])
}

// HandleMessage advances the survey by one message. Errors are caught
// here, logged, and surfaced as a generic retry message; the question
// cursor is never advanced on error.
func (s *IntakeService) HandleMessage(msg *models.InboundMessage, session *Session) {
	if err := s.handle(msg, session); err != nil {
		log.Printf("Erro no fluxo de clientes (%s): %v", msg.From, err)
		if sendErr := s.gateway.SendMessage(msg.From, msgGenericError); sendErr != nil {
			log.Printf("❌ Failed to send error message to %s: %v", msg.From, sendErr)
		}
	}
}

func (s *IntakeService) handle(msg *models.InboundMessage, session *Session) error {
	if session.IsFinalizing {
		log.Printf("Finalização já está em andamento para %s. Ignorando mensagem.", msg.From)
		return nil
	}

	from := msg.From
	idx := session.QuestionIndex
	body := strings.TrimSpace(msg.Body)

	switch idx {
	case 0:
		if !utils.IsValidEmail(body) {
			return s.gateway.SendMessage(from, "O e-mail informado não parece válido. Tente novamente.")
		}
		session.Email = body
		return s.advance(from, session)

	case 1:
		if !utils.IsValidHour(body) {
			return s.gateway.SendMessage(from, "Por favor, insira um horário válido (ex: 8, 14, 23, etc).")
		}
		session.Horario = body
		return s.advance(from, session)

	case 2:
		n, err := strconv.Atoi(body)
		if err != nil || n <= 0 {
			return s.gateway.SendMessage(from, "Digite apenas o número de pontos de infiltração (ex.: 3)")
		}
		session.ExpectedPoints = n
		session.QuestionIndex = 3

		// Reference photo for locating the axes, when the contract has one
		if link := session.SelectedContract.FotoLink; link != "" {
			if err := s.gateway.SendImage(from, link, "Foto de referência para os eixos:"); err != nil {
				return err
			}
		}
		return s.gateway.SendMessage(from, intakeQuestions[3])

	case 3:
		session.Current.Local = body
		return s.advance(from, session)

	case 4:
		if lower := strings.ToLower(body); lower == "não" || lower == "nao" {
			// No identifiable element: skip the history question too
			session.Current.Elemento = notApplicable
			session.Current.JaTeveProblema = notApplicable
			session.QuestionIndex = 6
			return s.gateway.SendMessage(from, intakeQuestions[6])
		}
		session.Current.Elemento = body
		return s.advance(from, session)

	case 5:
		session.Current.JaTeveProblema = body
		return s.advance(from, session)

	case 6:
		if msg.Type != models.MessageVideo {
			return s.gateway.SendMessage(from, intakeQuestions[6])
		}
		if msg.MediaURL == "" || msg.MediaContentType == "" {
			return s.gateway.SendMessage(from, "Vídeo inválido. Reenvie, por favor.")
		}
		link, err := s.media.UploadMedia(msg.MediaURL, msg.MediaContentType)
		if err != nil {
			return err
		}
		session.Current.VideoLink = link
		return s.advance(from, session)

	case 7:
		return s.handlePhotos(msg, session)

	case 8:
		session.Current.Adesivo = body
		return s.advance(from, session)

	case 9:
		session.Current.Comentario = body
		return s.advance(from, session)

	case 10:
		return s.handleAnotherPoint(from, body, session)

	case 11:
		session.Responsavel = body
		session.IsFinalizing = true
		s.spawn(func() { s.finalize(from, session) })
		return nil

	default:
		return fmt.Errorf("índice de pergunta inesperado: %d", idx)
	}
}

// handlePhotos accumulates uploaded photos until the user types "ok"
func (s *IntakeService) handlePhotos(msg *models.InboundMessage, session *Session) error {
	from := msg.From

	if msg.Type == models.MessageImage {
		if msg.MediaURL == "" || msg.MediaContentType == "" {
			return s.gateway.SendMessage(from, "Imagem inválida. Reenvie, por favor.")
		}
		link, err := s.media.UploadMedia(msg.MediaURL, msg.MediaContentType)
		if err != nil {
			return err
		}
		session.Current.ImageLinks = append(session.Current.ImageLinks, link)

		if len(session.Current.ImageLinks) == 1 {
			return s.gateway.SendMessage(from, "Imagem recebida! Envie outra ou digite \"ok\" para continuar.")
		}
		return nil
	}

	if msg.Type == models.MessageText && strings.EqualFold(strings.TrimSpace(msg.Body), "ok") {
		return s.advance(from, session)
	}

	return s.gateway.SendMessage(from, "Envie mais imagens ou digite \"ok\" para continuar.")
}

// handleAnotherPoint closes the current point and either loops back to
// the location question or moves on to the responsible-person question
func (s *IntakeService) handleAnotherPoint(from string, body string, session *Session) error {
	choice := strings.ToLower(strings.TrimSpace(body))

	switch {
	case yesTokens[choice]:
		session.Occurrences = append(session.Occurrences, session.Current)
		session.Current = PointAnswers{}
		session.QuestionIndex = 3
		return s.gateway.SendMessage(from, intakeQuestions[3])

	case noTokens[choice]:
		session.Occurrences = append(session.Occurrences, session.Current)
		session.QuestionIndex = 11
		return s.gateway.SendMessage(from, intakeQuestions[11])

	default:
		return s.gateway.SendMessage(from,
			"Por favor, responda apenas \"sim\" ou \"não\". Deseja adicionar outro ponto?")
	}
}

// advance moves the cursor one question forward and sends the prompt
func (s *IntakeService) advance(from string, session *Session) error {
	session.QuestionIndex++
	return s.gateway.SendMessage(from, intakeQuestions[session.QuestionIndex])
}

// finalize runs the end-of-survey sequence: persist the answers, open
// the tracking card, wait for the generated report and deliver it by
// email. Runs off the webhook path; IsFinalizing is already set, so
// further inbound messages are ignored until the session is deleted.
func (s *IntakeService) finalize(from string, session *Session) {
	fail := func(step string, err error) {
		log.Printf("Erro na finalização (%s) em %s: %v", from, step, err)
		if sendErr := s.gateway.SendMessage(from, msgGenericError); sendErr != nil {
			log.Printf("❌ Failed to send error message to %s: %v", from, sendErr)
		}
	}

	if err := s.store.CreateSurveyResponses(s.buildRows(session)); err != nil {
		fail("storeResponses", err)
		return
	}

	companyName := "Desconhecido"
	client, err := s.store.GetClientByCNPJ(session.IdentifiedCNPJ)
	if err != nil {
		fail("getClient", err)
		return
	}
	if client != nil {
		companyName = client.Nome
	}

	cardTitle := fmt.Sprintf("Ocorrência %s - %s", companyName, time.Now().Format("02/01/2006"))
	cardDesc := strconv.Itoa(session.ExpectedPoints)
	if err := s.tracker.CreateCard(cardTitle, cardDesc, session.Email, from); err != nil {
		fail("createCard", err)
		return
	}

	if err := s.gateway.SendMessage(from, msgFinalizingAck); err != nil {
		log.Printf("❌ Failed to send ack to %s: %v", from, err)
	}

	// The PDF report is generated by an external automation watching the
	// sheet; give it time to finish before looking for the file
	time.Sleep(s.pdfWait)

	latest, err := s.media.GetLatestPDF(s.pdfFolderID)
	if err != nil {
		fail("getLatestPDF", err)
		return
	}

	if latest == nil {
		if err := s.gateway.SendMessage(from, msgNoPDF); err != nil {
			log.Printf("❌ Failed to notify %s: %v", from, err)
		}
		s.sessions.Reset(from)
		return
	}
	data, err := s.media.DownloadFile(latest.ID)
	if err != nil {
		fail("downloadPDF", err)
		return
	}

	if session.Email != "" {
		filename := latest.Name
		if filename == "" {
			filename = "Relatorio.pdf"
		}
		err := s.mailer.Send(&models.Email{
			To:      session.Email,
			Cc:      s.reportCc,
			Bcc:     s.reportBcc,
			Subject: "Confirmação de solicitação de atendimento a ocorrência",
			Body: "Prezado(a),\n\n" +
				"Segue em anexo a confirmação da abertura do chamado de atendimento a ocorrências.\n\n" +
				"Em até 48 horas, nossa equipe entrará em contato para agendar o atendimento.\n\n" +
				"Caso haja qualquer dúvida ou necessidade de informações adicionais, estamos à disposição " +
				"para auxiliá-lo(a) no e-mail contato@miriadsolutions.com\n\n" +
				"Atenciosamente,\nEquipe Miriad Solutions",
			Attachments: []models.Attachment{{Filename: filename, Content: data}},
		})
		if err != nil {
			fail("sendEmail", err)
			return
		}
	}

	if err := s.gateway.SendMessage(from, msgPDFSent); err != nil {
		log.Printf("❌ Failed to send final message to %s: %v", from, err)
	}

	s.sessions.Reset(from)
}

// buildRows flattens the session into persisted rows, one per reported
// point. A session that somehow finished without occurrences produces a
// single row from the flat answer slots.
func (s *IntakeService) buildRows(session *Session) []*models.SurveyResponse {
	timestamp := time.Now().Format(time.RFC3339)
	expected := ""
	if session.ExpectedPoints > 0 {
		expected = strconv.Itoa(session.ExpectedPoints)
	}

	base := models.SurveyResponse{
		Timestamp:      timestamp,
		ConversationID: session.ConversationID,
		ExpectedPoints: expected,
		CNPJ:           session.IdentifiedCNPJ,
		Email:          session.Email,
		Horario:        session.Horario,
		Responsavel:    session.Responsavel,
	}

	points := session.Occurrences
	if len(points) == 0 {
		points = []PointAnswers{session.Current}
	}

	rows := make([]*models.SurveyResponse, 0, len(points))
	for _, p := range points {
		row := base
		row.Local = p.Local
		row.Elemento = p.Elemento
		row.JaTeveProblema = p.JaTeveProblema
		row.Video = p.VideoLink
		row.Imagens = strings.Join(p.ImageLinks, "; ")
		row.Adesivo = p.Adesivo
		row.Comentario = p.Comentario
		rows = append(rows, &row)
	}
	return rows
}
