package services

import (
	"context"
	"encoding/base64"
	"errors"
	"log/slog"

	"github.com/escola-solidaria/solidaria-api/internal/models"
)

// DocumentRepository persists enrollment documents.
type DocumentRepository interface {
	GetByID(ctx context.Context, id string) (*models.Document, error)
	ListByStudent(ctx context.Context, studentID string) ([]*models.Document, error)
	ActiveTypes(ctx context.Context, studentID string) ([]string, error)
	Create(ctx context.Context, doc *models.Document) (*models.Document, error)
	Review(ctx context.Context, id, status, reason, reviewerID string) (*models.Document, error)
	Deactivate(ctx context.Context, id string) error
}

// documentFlagRepository is the sliver of the student repository the
// document flow needs to keep the delivery flag in sync.
type documentFlagRepository interface {
	GetByID(ctx context.Context, id string) (*models.Student, error)
	SetDocsSubmitted(ctx context.Context, id string, submitted bool) error
}

var allowedDocumentMimeTypes = map[string]bool{
	"image/jpeg":      true,
	"image/png":       true,
	"application/pdf": true,
}

// DocumentService implements document upload and review.
type DocumentService struct {
	repo     DocumentRepository
	students documentFlagRepository
	logger   *slog.Logger
}

func NewDocumentService(repo DocumentRepository, students documentFlagRepository, logger *slog.Logger) *DocumentService {
	return &DocumentService{repo: repo, students: students, logger: logger}
}

// UploadDocumentRequest carries one base64-encoded document.
type UploadDocumentRequest struct {
	Tipo      string `json:"tipo" validate:"required"`
	Nome      string `json:"nome" validate:"required,max=255"`
	Descricao string `json:"descricao"`
	Dados     string `json:"dados" validate:"required"`
	MimeType  string `json:"mimeType" validate:"required"`
}

// Upload validates and stores a document, replacing any earlier active
// document of the same type, then recomputes the student's delivery flag.
func (s *DocumentService) Upload(ctx context.Context, studentID string, req UploadDocumentRequest) (*models.Document, error) {
	if !validDocumentType(req.Tipo) {
		return nil, models.ErrBadRequest
	}
	if !allowedDocumentMimeTypes[req.MimeType] {
		return nil, models.ErrBadRequest
	}

	decoded, err := base64.StdEncoding.DecodeString(req.Dados)
	if err != nil {
		return nil, models.ErrBadRequest
	}
	if len(decoded) == 0 || len(decoded) > models.MaxDocumentSize {
		return nil, models.ErrBadRequest
	}

	if _, err := s.students.GetByID(ctx, studentID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to get student", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	doc, err := s.repo.Create(ctx, &models.Document{
		StudentID:   studentID,
		Type:        req.Tipo,
		Name:        req.Nome,
		Description: req.Descricao,
		Data:        req.Dados,
		MimeType:    req.MimeType,
		Size:        int64(len(decoded)),
		Active:      true,
	})
	if err != nil {
		s.logger.Error("failed to create document", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.refreshDeliveryFlag(ctx, studentID)

	return doc, nil
}

func (s *DocumentService) Get(ctx context.Context, id string) (*models.Document, error) {
	doc, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to get document", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return doc, nil
}

// ListByStudent returns summaries without the payload.
func (s *DocumentService) ListByStudent(ctx context.Context, studentID string) ([]models.DocumentSummary, error) {
	docs, err := s.repo.ListByStudent(ctx, studentID)
	if err != nil {
		s.logger.Error("failed to list documents", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	summaries := make([]models.DocumentSummary, 0, len(docs))
	for _, doc := range docs {
		summaries = append(summaries, doc.Summary())
	}

	return summaries, nil
}

// Review approves or rejects a pending document. Rejection requires a
// reason and reopens the delivery flag.
func (s *DocumentService) Review(ctx context.Context, id, status, reason, reviewerID string) (*models.Document, error) {
	if status != models.DocumentStatusApproved && status != models.DocumentStatusRejected {
		return nil, models.ErrBadRequest
	}
	if status == models.DocumentStatusRejected && reason == "" {
		return nil, models.ErrBadRequest
	}
	if status == models.DocumentStatusApproved {
		reason = ""
	}

	doc, err := s.repo.Review(ctx, id, status, reason, reviewerID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to review document", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if status == models.DocumentStatusRejected {
		if err := s.students.SetDocsSubmitted(ctx, doc.StudentID, false); err != nil {
			s.logger.Error("failed to clear delivery flag", slog.Any("error", err))
		}
	}

	return doc, nil
}

func (s *DocumentService) Delete(ctx context.Context, id string) error {
	doc, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrNotFound
		}
		s.logger.Error("failed to get document", slog.Any("error", err))
		return models.ErrInternalServer
	}

	if err := s.repo.Deactivate(ctx, id); err != nil {
		s.logger.Error("failed to deactivate document", slog.Any("error", err))
		return models.ErrInternalServer
	}

	s.refreshDeliveryFlag(ctx, doc.StudentID)
	return nil
}

// refreshDeliveryFlag recomputes documentos_entregues from the active set.
func (s *DocumentService) refreshDeliveryFlag(ctx context.Context, studentID string) {
	types, err := s.repo.ActiveTypes(ctx, studentID)
	if err != nil {
		s.logger.Error("failed to list active document types", slog.Any("error", err))
		return
	}

	present := make(map[string]bool, len(types))
	for _, t := range types {
		present[t] = true
	}

	complete := true
	for _, required := range models.RequiredDocumentTypes {
		if !present[required] {
			complete = false
			break
		}
	}

	if err := s.students.SetDocsSubmitted(ctx, studentID, complete); err != nil {
		s.logger.Error("failed to update delivery flag", slog.Any("error", err))
	}
}

func validDocumentType(t string) bool {
	for _, known := range models.DocumentTypes {
		if t == known {
			return true
		}
	}
	return false
}
