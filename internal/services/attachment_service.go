package services

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/taskloop/task-tracker-api/internal/constants"
	"github.com/taskloop/task-tracker-api/internal/models"
	"github.com/taskloop/task-tracker-api/internal/storage"
)

var (
	ErrTooManyFiles        = fmt.Errorf("you can upload a maximum of %d documents", constants.MaxTaskDocuments)
	ErrUnsupportedFileType = errors.New("only supported file formats are allowed")
	ErrFileTooLarge        = errors.New("file exceeds the 5 MiB size limit")
)

// allowedExtensions and allowedMediaTypes form the upload allow-list: images,
// PDF and Word documents. Extension AND declared media type must both match.
var allowedExtensions = map[string]struct{}{
	".jpeg": {},
	".jpg":  {},
	".png":  {},
	".gif":  {},
	".pdf":  {},
	".doc":  {},
	".docx": {},
}

var allowedMediaTypes = map[string]struct{}{
	"image/jpeg":         {},
	"image/png":          {},
	"image/gif":          {},
	"application/pdf":    {},
	"application/msword": {},
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": {},
}

// AttachmentService validates uploaded task documents and persists them
// through the storage backend.
type AttachmentService struct {
	store storage.Uploader
	log   *logrus.Logger
}

// NewAttachmentService creates a new AttachmentService
func NewAttachmentService(store storage.Uploader, log *logrus.Logger) *AttachmentService {
	return &AttachmentService{
		store: store,
		log:   log,
	}
}

// Attach validates the whole batch against the document cap and the per-file
// type and size limits, then persists every file. Nothing is written until
// every file has passed validation; if a write fails midway the already
// persisted blobs are discarded so no partial batch survives.
func (s *AttachmentService) Attach(ctx context.Context, existingCount int, files []*multipart.FileHeader) ([]models.Attachment, error) {
	if len(files) == 0 {
		return nil, nil
	}

	if existingCount+len(files) > constants.MaxTaskDocuments {
		return nil, ErrTooManyFiles
	}

	for _, file := range files {
		if err := validateFile(file); err != nil {
			return nil, err
		}
	}

	attachments := make([]models.Attachment, 0, len(files))
	for _, file := range files {
		att, err := s.saveFile(ctx, file)
		if err != nil {
			s.Discard(ctx, attachments)
			return nil, err
		}
		attachments = append(attachments, att)
	}

	return attachments, nil
}

// Discard removes previously persisted blobs. Used to compensate when the
// task write fails after attachments were stored, and to cascade blob removal
// on task deletion. Failures are logged, not returned: a leftover blob is
// recoverable by reconciliation, a failed request is not.
func (s *AttachmentService) Discard(ctx context.Context, attachments []models.Attachment) {
	for _, att := range attachments {
		if err := s.store.Delete(ctx, att.FileURL); err != nil {
			s.log.WithFields(logrus.Fields{
				"fileUrl": att.FileURL,
				"error":   err.Error(),
			}).Warn("failed to delete attachment blob")
		}
	}
}

func (s *AttachmentService) saveFile(ctx context.Context, file *multipart.FileHeader) (models.Attachment, error) {
	src, err := file.Open()
	if err != nil {
		return models.Attachment{}, fmt.Errorf("failed to open upload: %w", err)
	}
	defer src.Close()

	ext := strings.ToLower(filepath.Ext(file.Filename))
	objectName := uuid.NewString() + ext

	url, err := s.store.Save(ctx, objectName, file.Header.Get("Content-Type"), src)
	if err != nil {
		return models.Attachment{}, fmt.Errorf("failed to store attachment: %w", err)
	}

	return models.Attachment{
		FileName:   file.Filename,
		FileURL:    url,
		UploadDate: time.Now().UTC(),
	}, nil
}

func validateFile(file *multipart.FileHeader) error {
	ext := strings.ToLower(filepath.Ext(file.Filename))
	if _, ok := allowedExtensions[ext]; !ok {
		return fmt.Errorf("%w: %s", ErrUnsupportedFileType, file.Filename)
	}

	mediaType := file.Header.Get("Content-Type")
	if _, ok := allowedMediaTypes[mediaType]; !ok {
		return fmt.Errorf("%w: %s", ErrUnsupportedFileType, file.Filename)
	}

	if file.Size > constants.MaxUploadSize {
		return fmt.Errorf("%w: %s", ErrFileTooLarge, file.Filename)
	}

	return nil
}
