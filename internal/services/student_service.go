package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/escola-solidaria/solidaria-api/internal/auth"
	"github.com/escola-solidaria/solidaria-api/internal/models"
	"github.com/escola-solidaria/solidaria-api/internal/repositories"
	pkglogger "github.com/escola-solidaria/solidaria-api/pkg/logger"
)

// StudentRepository is the full student repository surface used by the
// admin-facing operations.
type StudentRepository interface {
	StudentAuthRepository
	List(ctx context.Context, filter repositories.StudentFilter) ([]*models.Student, error)
	Count(ctx context.Context, filter repositories.StudentFilter) (int, error)
	Update(ctx context.Context, id string, student *models.Student) (*models.Student, error)
	Enroll(ctx context.Context, id, enrollmentNo string) (*models.Student, error)
	CountEnrolledInYear(ctx context.Context, year int) (int, error)
	SetFormFilled(ctx context.Context, id string, filled bool) error
	Deactivate(ctx context.Context, id string) error
	Reactivate(ctx context.Context, id string) (*models.Student, error)
	CountsByStatus(ctx context.Context) (map[string]int, error)
	CountPendingDocs(ctx context.Context) (int, error)
}

// EnrollmentFormRepository persists the pre-enrollment form.
type EnrollmentFormRepository interface {
	GetByStudent(ctx context.Context, studentID string) (*models.EnrollmentForm, error)
	Upsert(ctx context.Context, form *models.EnrollmentForm) (*models.EnrollmentForm, error)
}

// StudentService implements enrollment management.
type StudentService struct {
	repo        StudentRepository
	forms       EnrollmentFormRepository
	logger      *slog.Logger
	auditLogger *pkglogger.AuditLogger
}

func NewStudentService(repo StudentRepository, forms EnrollmentFormRepository, logger *slog.Logger, auditLogger *pkglogger.AuditLogger) *StudentService {
	return &StudentService{
		repo:        repo,
		forms:       forms,
		logger:      logger,
		auditLogger: auditLogger,
	}
}

// StudentListResponse pages the admin listing.
type StudentListResponse struct {
	Alunos []*StudentSessionResponse `json:"alunos"`
	Total  int                       `json:"total"`
	Limit  int                       `json:"limit"`
	Offset int                       `json:"offset"`
}

func (s *StudentService) List(ctx context.Context, filter repositories.StudentFilter) (*StudentListResponse, error) {
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 50
	}

	students, err := s.repo.List(ctx, filter)
	if err != nil {
		s.logger.Error("failed to list students", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	total, err := s.repo.Count(ctx, filter)
	if err != nil {
		s.logger.Error("failed to count students", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	resp := &StudentListResponse{
		Alunos: make([]*StudentSessionResponse, 0, len(students)),
		Total:  total,
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}
	for _, student := range students {
		resp.Alunos = append(resp.Alunos, newStudentSessionResponse(student))
	}

	return resp, nil
}

func (s *StudentService) Get(ctx context.Context, id string) (*StudentSessionResponse, error) {
	student, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to get student", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	return newStudentSessionResponse(student), nil
}

// UpdateStudentRequest carries the editable profile fields. Empty fields
// keep their current values.
type UpdateStudentRequest struct {
	NomeCompleto   string           `json:"nomeCompleto" validate:"omitempty,min=3,max=255"`
	RG             string           `json:"rg"`
	DataNascimento string           `json:"dataNascimento"`
	Sexo           string           `json:"sexo"`
	Email          string           `json:"email" validate:"omitempty,email"`
	Telefone       string           `json:"telefone"`
	Celular        string           `json:"celular"`
	Endereco       *models.Address  `json:"endereco"`
	FotoURL        string           `json:"fotoUrl"`
	TipoSanguineo  string           `json:"tipoSanguineo"`
	Responsavel    *models.Guardian `json:"responsavel"`
}

func (s *StudentService) Update(ctx context.Context, id string, req UpdateStudentRequest) (*StudentSessionResponse, error) {
	student, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to get student", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if req.NomeCompleto != "" {
		student.FullName = req.NomeCompleto
	}
	if req.RG != "" {
		student.RG = req.RG
	}
	if req.DataNascimento != "" {
		birthDate, err := time.Parse("2006-01-02", req.DataNascimento)
		if err != nil {
			return nil, models.ErrBadRequest
		}
		student.BirthDate = birthDate
	}
	if req.Sexo != "" {
		student.Sex = req.Sexo
	}
	if req.Email != "" {
		student.Email = req.Email
	}
	if req.Telefone != "" {
		student.Phone = req.Telefone
	}
	if req.Celular != "" {
		student.Mobile = req.Celular
	}
	if req.Endereco != nil {
		student.Address = req.Endereco
	}
	if req.FotoURL != "" {
		student.PhotoURL = req.FotoURL
	}
	if req.TipoSanguineo != "" {
		student.BloodType = req.TipoSanguineo
	}
	if req.Responsavel != nil {
		student.Guardian = req.Responsavel
	}

	updated, err := s.repo.Update(ctx, id, student)
	if err != nil {
		s.logger.Error("failed to update student", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	return newStudentSessionResponse(updated), nil
}

// Enroll promotes a pre-enrollment into a full enrollment, assigning the
// enrollment number. The form and the required documents must be in first.
func (s *StudentService) Enroll(ctx context.Context, id string) (*StudentSessionResponse, error) {
	student, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to get student", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if student.Status == models.StudentStatusEnrolled {
		return nil, models.ErrConflict
	}
	if !student.FormFilled || !student.DocsSubmitted {
		return nil, models.ErrBadRequest
	}

	enrollmentNo, err := s.nextEnrollmentNumber(ctx)
	if err != nil {
		s.logger.Error("failed to generate enrollment number", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	enrolled, err := s.repo.Enroll(ctx, id, enrollmentNo)
	if err != nil {
		if errors.Is(err, models.ErrConflict) {
			// Number collision with a concurrent enrollment; retry once
			enrollmentNo, err = s.nextEnrollmentNumber(ctx)
			if err == nil {
				enrolled, err = s.repo.Enroll(ctx, id, enrollmentNo)
			}
		}
		if err != nil {
			s.logger.Error("failed to enroll student", slog.Any("error", err))
			return nil, models.ErrInternalServer
		}
	}

	s.auditLogger.LogAccountAction("student_enrolled", auth.KindStudent, id,
		map[string]string{"enrollment_no": enrollmentNo})

	return newStudentSessionResponse(enrolled), nil
}

// nextEnrollmentNumber yields "<year><5-digit sequence>", e.g. 202600042.
func (s *StudentService) nextEnrollmentNumber(ctx context.Context) (string, error) {
	year := time.Now().Year()
	count, err := s.repo.CountEnrolledInYear(ctx, year)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d%05d", year, count+1), nil
}

func (s *StudentService) Deactivate(ctx context.Context, id string) error {
	if err := s.repo.Deactivate(ctx, id); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrNotFound
		}
		s.logger.Error("failed to deactivate student", slog.Any("error", err))
		return models.ErrInternalServer
	}

	s.auditLogger.LogAccountAction("account_deactivated", auth.KindStudent, id, nil)
	return nil
}

// Reactivate reverses a soft delete.
func (s *StudentService) Reactivate(ctx context.Context, id string) (*StudentSessionResponse, error) {
	student, err := s.repo.Reactivate(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to reactivate student", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.auditLogger.LogAccountAction("account_reactivated", auth.KindStudent, id, nil)
	return newStudentSessionResponse(student), nil
}

// StudentStatsResponse summarizes the student body for the admin dashboard.
type StudentStatsResponse struct {
	Total               int            `json:"total"`
	PorStatus           map[string]int `json:"porStatus"`
	DocumentosPendentes int            `json:"documentosPendentes"`
}

func (s *StudentService) Stats(ctx context.Context) (*StudentStatsResponse, error) {
	counts, err := s.repo.CountsByStatus(ctx)
	if err != nil {
		s.logger.Error("failed to count students by status", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	pendingDocs, err := s.repo.CountPendingDocs(ctx)
	if err != nil {
		s.logger.Error("failed to count pending documents", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	total := 0
	for _, count := range counts {
		total += count
	}

	return &StudentStatsResponse{
		Total:               total,
		PorStatus:           counts,
		DocumentosPendentes: pendingDocs,
	}, nil
}

// SubmitForm saves the pre-enrollment form and marks it as filled.
func (s *StudentService) SubmitForm(ctx context.Context, studentID string, payload map[string]interface{}) (*models.EnrollmentForm, error) {
	if len(payload) == 0 {
		return nil, models.ErrBadRequest
	}

	if _, err := s.repo.GetByID(ctx, studentID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to get student", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	form, err := s.forms.Upsert(ctx, &models.EnrollmentForm{
		StudentID: studentID,
		Payload:   payload,
	})
	if err != nil {
		s.logger.Error("failed to save enrollment form", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if err := s.repo.SetFormFilled(ctx, studentID, true); err != nil {
		s.logger.Error("failed to flag form as filled", slog.Any("error", err))
	}

	return form, nil
}

func (s *StudentService) GetForm(ctx context.Context, studentID string) (*models.EnrollmentForm, error) {
	form, err := s.forms.GetByStudent(ctx, studentID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to get enrollment form", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return form, nil
}
