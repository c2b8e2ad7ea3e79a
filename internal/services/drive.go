package services

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"

	"github.com/miriadsolutions/atendimento-backend/internal/models"
)

// MediaStore is the media-storage contract the intake flow depends on:
// uploading survey media and retrieving the generated PDF report
type MediaStore interface {
	UploadMedia(mediaURL string, mimeType string) (string, error)
	GetLatestPDF(folderID string) (*models.DriveFile, error)
	DownloadFile(fileID string) ([]byte, error)
}

// DriveService stores survey media and report PDFs in Google Drive
type DriveService struct {
	svc        *drive.Service
	httpClient *http.Client

	// Twilio basic-auth credentials for fetching inbound media bytes
	mediaUser string
	mediaPass string

	defaultFolder string
	imagesFolder  string
	videosFolder  string
}

// NewDriveService creates a Drive client from the service-account key
// file in GOOGLE_DRIVE_KEY_FILE
func NewDriveService() (*DriveService, error) {
	keyFile := os.Getenv("GOOGLE_DRIVE_KEY_FILE")
	if keyFile == "" {
		return nil, fmt.Errorf("GOOGLE_DRIVE_KEY_FILE not set")
	}

	svc, err := drive.NewService(context.Background(), option.WithCredentialsFile(keyFile))
	if err != nil {
		return nil, fmt.Errorf("failed to create drive service: %w", err)
	}

	return &DriveService{
		svc:           svc,
		httpClient:    &http.Client{Timeout: 60 * time.Second},
		mediaUser:     os.Getenv("TWILIO_ACCOUNT_SID"),
		mediaPass:     os.Getenv("TWILIO_AUTH_TOKEN"),
		defaultFolder: os.Getenv("GOOGLE_DRIVE_FOLDER_ID"),
		imagesFolder:  os.Getenv("GOOGLE_DRIVE_FOLDER_ID_IMAGES"),
		videosFolder:  os.Getenv("GOOGLE_DRIVE_FOLDER_ID_VIDEOS"),
	}, nil
}

// UploadMedia fetches an inbound WhatsApp media file by URL and uploads
// it to the Drive folder matching its MIME type, returning a view link
func (d *DriveService) UploadMedia(mediaURL string, mimeType string) (string, error) {
	log.Printf("[uploadMedia] Iniciando upload. url: %s mimeType: %s", mediaURL, mimeType)

	req, err := http.NewRequest(http.MethodGet, mediaURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build media request: %w", err)
	}
	if d.mediaUser != "" {
		req.SetBasicAuth(d.mediaUser, d.mediaPass)
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch media: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to fetch media: status %d", resp.StatusCode)
	}

	folderID := d.defaultFolder
	switch {
	case strings.HasPrefix(mimeType, "image/"):
		folderID = d.imagesFolder
	case strings.HasPrefix(mimeType, "video/"):
		folderID = d.videosFolder
	}

	ext := "media"
	if parts := strings.SplitN(mimeType, "/", 2); len(parts) == 2 && parts[1] != "" {
		ext = parts[1]
	}

	meta := &drive.File{
		Name:    fmt.Sprintf("%s.%s", uuid.NewString(), ext),
		Parents: []string{folderID},
	}
	created, err := d.svc.Files.Create(meta).Media(resp.Body).Fields("id").Do()
	if err != nil {
		return "", fmt.Errorf("failed to upload media to drive: %w", err)
	}

	log.Printf("[uploadMedia] Upload concluído. fileId: %s", created.Id)
	return fmt.Sprintf("https://drive.google.com/file/d/%s/view", created.Id), nil
}

// GetLatestPDF returns the most recently created PDF in a folder, or
// nil when the folder holds none
func (d *DriveService) GetLatestPDF(folderID string) (*models.DriveFile, error) {
	if folderID == "" {
		log.Println("[getLatestPDF] Nenhuma pasta foi definida para buscar PDFs")
		return nil, nil
	}

	query := fmt.Sprintf("'%s' in parents and mimeType='application/pdf'", folderID)
	list, err := d.svc.Files.List().
		Q(query).
		OrderBy("createdTime desc").
		PageSize(1).
		Fields("files(id, name)").
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list pdf files: %w", err)
	}

	if len(list.Files) == 0 {
		log.Println("[getLatestPDF] Nenhum PDF encontrado")
		return nil, nil
	}

	latest := list.Files[0]
	log.Printf("[getLatestPDF] Arquivo mais recente: %s (%s)", latest.Name, latest.Id)
	return &models.DriveFile{ID: latest.Id, Name: latest.Name}, nil
}

// DownloadFile downloads a Drive file's bytes by id
func (d *DriveService) DownloadFile(fileID string) ([]byte, error) {
	resp, err := d.svc.Files.Get(fileID).Download()
	if err != nil {
		return nil, fmt.Errorf("failed to download file %s: %w", fileID, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", fileID, err)
	}

	log.Printf("[downloadFile] Download concluído. %d bytes", len(data))
	return data, nil
}
