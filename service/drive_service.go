package service

import (
	"bytes"
	"context"
	"fmt"
	"log"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

// DriveServiceInterface defines the contract for Google Drive uploads
type DriveServiceInterface interface {
	Upload(ctx context.Context, folderID, name, mimeType string, data []byte) (string, error)
}

// DriveService handles Google Drive API operations
type DriveService struct {
	client *drive.Service
}

// NewDriveService creates a new DriveService instance
// credentialsPath should be the path to the Service Account JSON file
func NewDriveService(ctx context.Context, credentialsPath string) (*DriveService, error) {
	// option.WithCredentialsFile automatically handles Service Account authentication
	driveService, err := drive.NewService(ctx, option.WithCredentialsFile(credentialsPath))
	if err != nil {
		return nil, fmt.Errorf("failed to create drive service: %w", err)
	}

	return &DriveService{client: driveService}, nil
}

var _ DriveServiceInterface = (*DriveService)(nil)

// Upload creates a file in folderID and returns its Drive file id
func (ds *DriveService) Upload(ctx context.Context, folderID, name, mimeType string, data []byte) (string, error) {
	file := &drive.File{
		Name:     name,
		Parents:  []string{folderID},
		MimeType: mimeType,
	}

	created, err := ds.client.Files.Create(file).
		Media(bytes.NewReader(data)).
		Fields("id").
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", name, err)
	}

	log.Printf("✓ Drive: uploaded %s (%d bytes) as %s", name, len(data), created.Id)
	return created.Id, nil
}

// ArchiveService stores order sheets as PDF in a Drive folder
type ArchiveService struct {
	drive    DriveServiceInterface
	exports  *ExportService
	folderID string
}

// NewArchiveService creates a new ArchiveService
func NewArchiveService(uploader DriveServiceInterface, exports *ExportService, folderID string) *ArchiveService {
	return &ArchiveService{drive: uploader, exports: exports, folderID: folderID}
}

// ArchiveResult identifies the archived file
type ArchiveResult struct {
	FileID   string `json:"fileId"`
	FileName string `json:"fileName"`
}

// Archive renders snap as PDF and uploads it
func (s *ArchiveService) Archive(ctx context.Context, snap ExportSnapshot) (*ArchiveResult, error) {
	log.Printf("📦 Archive: reference=%s", snap.Reference)

	file, err := s.exports.Render(ctx, snap, FormatPDF)
	if err != nil {
		return nil, err
	}

	id, err := s.drive.Upload(ctx, s.folderID, file.Name, file.ContentType, file.Data)
	if err != nil {
		log.Printf("❌ Archive: upload of %s failed: %v", file.Name, err)
		return nil, err
	}

	log.Printf("✅ Archive: reference=%s stored as %s", snap.Reference, id)
	return &ArchiveResult{FileID: id, FileName: file.Name}, nil
}
