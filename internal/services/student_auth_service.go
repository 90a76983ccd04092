package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"github.com/escola-solidaria/solidaria-api/internal/auth"
	"github.com/escola-solidaria/solidaria-api/internal/models"
	pkgauth "github.com/escola-solidaria/solidaria-api/pkg/auth"
	pkglogger "github.com/escola-solidaria/solidaria-api/pkg/logger"
)

// StudentAuthRepository is the slice of the student repository the auth
// flows need.
type StudentAuthRepository interface {
	GetByID(ctx context.Context, id string) (*models.Student, error)
	GetByHandle(ctx context.Context, handle string) (*models.Student, error)
	Create(ctx context.Context, student *models.Student) (*models.Student, error)
	UpdatePassword(ctx context.Context, id, passwordHash string, firstLogin bool) error
	UpdateLockState(ctx context.Context, id string, state auth.LockState) error
	RecordLogin(ctx context.Context, id string) error
}

// StudentAuthService implements the student (aluno) login flows.
type StudentAuthService struct {
	repo        StudentAuthRepository
	tokens      *auth.TokenManager
	logger      *slog.Logger
	auditLogger *pkglogger.AuditLogger
}

func NewStudentAuthService(repo StudentAuthRepository, tokens *auth.TokenManager, logger *slog.Logger, auditLogger *pkglogger.AuditLogger) *StudentAuthService {
	return &StudentAuthService{
		repo:        repo,
		tokens:      tokens,
		logger:      logger,
		auditLogger: auditLogger,
	}
}

// StudentSessionResponse is the login payload: full profile plus the
// first-access flag the frontend uses to force a password change.
type StudentSessionResponse struct {
	ID                  string              `json:"id"`
	Usuario             string              `json:"usuario"`
	NomeCompleto        string              `json:"nomeCompleto"`
	CPF                 string              `json:"cpf"`
	RG                  string              `json:"rg,omitempty"`
	DataNascimento      string              `json:"dataNascimento"`
	Sexo                string              `json:"sexo,omitempty"`
	NumeroMatricula     string              `json:"numeroMatricula,omitempty"`
	Status              string              `json:"status"`
	Email               string              `json:"email,omitempty"`
	Telefone            string              `json:"telefone,omitempty"`
	Celular             string              `json:"celular,omitempty"`
	Endereco            *models.Address     `json:"endereco,omitempty"`
	FotoURL             string              `json:"fotoUrl,omitempty"`
	TipoSanguineo       string              `json:"tipoSanguineo,omitempty"`
	Responsavel         *models.Guardian    `json:"responsavel,omitempty"`
	FichaPreenchida     bool                `json:"fichaPreenchida"`
	DocumentosEntregues bool                `json:"documentosEntregues"`
	Role                string              `json:"role"`
	PrimeiroAcesso      bool                `json:"primeiroAcesso"`
	UltimoLogin         *time.Time          `json:"ultimoLogin,omitempty"`
}

func newStudentSessionResponse(student *models.Student) *StudentSessionResponse {
	return &StudentSessionResponse{
		ID:                  student.ID,
		Usuario:             student.Handle,
		NomeCompleto:        student.FullName,
		CPF:                 student.CPF,
		RG:                  student.RG,
		DataNascimento:      student.BirthDate.Format("2006-01-02"),
		Sexo:                student.Sex,
		NumeroMatricula:     student.EnrollmentNo,
		Status:              student.Status,
		Email:               student.Email,
		Telefone:            student.Phone,
		Celular:             student.Mobile,
		Endereco:            student.Address,
		FotoURL:             student.PhotoURL,
		TipoSanguineo:       student.BloodType,
		Responsavel:         student.Guardian,
		FichaPreenchida:     student.FormFilled,
		DocumentosEntregues: student.DocsSubmitted,
		Role:                student.Role,
		PrimeiroAcesso:      student.FirstLogin,
		UltimoLogin:         student.LastLogin,
	}
}

// Login authenticates a student by handle and password.
func (s *StudentAuthService) Login(ctx context.Context, handle, password, ipAddress string) (string, *StudentSessionResponse, error) {
	handle = strings.ToLower(strings.TrimSpace(handle))
	if handle == "" || password == "" {
		return "", nil, models.ErrUnauthorized
	}

	student, err := s.repo.GetByHandle(ctx, handle)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
				EventType:     "login_failed",
				AccountKind:   auth.KindStudent,
				IPAddress:     ipAddress,
				FailureReason: "invalid_credentials",
				Success:       false,
			})
			return "", nil, models.ErrUnauthorized
		}
		s.logger.Error("failed to get student by handle", slog.Any("error", err))
		return "", nil, models.ErrInternalServer
	}

	if !student.Active {
		s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
			EventType:     "login_failed",
			AccountKind:   auth.KindStudent,
			AccountID:     student.ID,
			IPAddress:     ipAddress,
			FailureReason: "account_disabled",
			Success:       false,
		})
		return "", nil, models.ErrAccountDisabled
	}

	now := time.Now()
	state := auth.LockState{FailedAttempts: student.FailedAttempts, LockedUntil: student.LockedUntil}

	newState, ok, authErr := verifyWithLockout(state, student.PasswordHash, password, now)
	if !ok {
		// Persist the counter unless the attempt bounced off an active lock
		if newState != state {
			if err := s.repo.UpdateLockState(ctx, student.ID, newState); err != nil {
				s.logger.Error("failed to persist lock state", slog.Any("error", err))
			}
		}
		reason := "invalid_credentials"
		var locked *models.AccountLockedError
		if errors.As(authErr, &locked) {
			reason = "account_locked"
		}
		s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
			EventType:     "login_failed",
			AccountKind:   auth.KindStudent,
			AccountID:     student.ID,
			IPAddress:     ipAddress,
			FailureReason: reason,
			Success:       false,
		})
		return "", nil, authErr
	}

	// RecordLogin also clears the first-access flag; mirror that here so the
	// session payload matches what was persisted.
	if err := s.repo.RecordLogin(ctx, student.ID); err != nil {
		s.logger.Error("failed to record login", slog.Any("error", err))
	}
	student.FirstLogin = false

	token, err := s.tokens.Issue(student.ID, auth.Claims{})
	if err != nil {
		s.logger.Error("failed to issue token", slog.Any("error", err))
		return "", nil, models.ErrInternalServer
	}

	s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
		EventType:   "login_success",
		AccountKind: auth.KindStudent,
		AccountID:   student.ID,
		IPAddress:   ipAddress,
		Success:     true,
	})

	now = time.Now()
	student.LastLogin = &now

	return token, newStudentSessionResponse(student), nil
}

// Me returns the current student's profile.
func (s *StudentAuthService) Me(ctx context.Context, id string) (*StudentSessionResponse, error) {
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

// ChangePassword verifies the current password and stores the new one,
// clearing the first-access flag.
func (s *StudentAuthService) ChangePassword(ctx context.Context, id, currentPassword, newPassword string) error {
	if len(newPassword) < pkgauth.MinStudentPasswordLen {
		return models.ErrBadRequest
	}

	student, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrNotFound
		}
		s.logger.Error("failed to get student", slog.Any("error", err))
		return models.ErrInternalServer
	}

	if err := pkgauth.ComparePassword(student.PasswordHash, currentPassword); err != nil {
		s.auditLogger.LogPasswordChange(auth.KindStudent, id, "", false)
		return models.ErrUnauthorized
	}

	hash, err := pkgauth.HashPassword(newPassword)
	if err != nil {
		s.logger.Error("failed to hash password", slog.Any("error", err))
		return models.ErrInternalServer
	}

	if err := s.repo.UpdatePassword(ctx, id, hash, false); err != nil {
		s.logger.Error("failed to update password", slog.Any("error", err))
		return models.ErrInternalServer
	}

	s.auditLogger.LogPasswordChange(auth.KindStudent, id, "", true)
	return nil
}

// RegisterStudentRequest is the admin-facing account creation payload.
type RegisterStudentRequest struct {
	Usuario        string           `json:"usuario" validate:"required,min=3,max=50"`
	Senha          string           `json:"senha" validate:"required,min=6"`
	NomeCompleto   string           `json:"nomeCompleto" validate:"required,min=3,max=255"`
	CPF            string           `json:"cpf" validate:"required"`
	RG             string           `json:"rg"`
	DataNascimento string           `json:"dataNascimento" validate:"required"`
	Sexo           string           `json:"sexo"`
	Email          string           `json:"email" validate:"omitempty,email"`
	Telefone       string           `json:"telefone"`
	Celular        string           `json:"celular"`
	Endereco       *models.Address  `json:"endereco"`
	Responsavel    *models.Guardian `json:"responsavel"`
	Role           string           `json:"role" validate:"omitempty,oneof=aluno admin"`
}

// Register creates an account in pre-enrollment state, defaulting to the
// aluno role. Only admins reach this path; the route enforces the role.
func (s *StudentAuthService) Register(ctx context.Context, req RegisterStudentRequest) (*StudentSessionResponse, error) {
	birthDate, err := time.Parse("2006-01-02", req.DataNascimento)
	if err != nil {
		return nil, models.ErrBadRequest
	}

	hash, err := pkgauth.HashPassword(req.Senha)
	if err != nil {
		s.logger.Error("failed to hash password", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	role := req.Role
	if role == "" {
		role = models.RoleStudent
	}

	student := &models.Student{
		Handle:       req.Usuario,
		PasswordHash: hash,
		FullName:     req.NomeCompleto,
		CPF:          req.CPF,
		RG:           req.RG,
		BirthDate:    birthDate,
		Sex:          req.Sexo,
		Email:        req.Email,
		Phone:        req.Telefone,
		Mobile:       req.Celular,
		Address:      req.Endereco,
		Guardian:     req.Responsavel,
		Status:       models.StudentStatusPreEnrollment,
		Role:         role,
		Active:       true,
		FirstLogin:   true,
	}

	created, err := s.repo.Create(ctx, student)
	if err != nil {
		if errors.Is(err, models.ErrConflict) {
			return nil, models.ErrConflict
		}
		s.logger.Error("failed to create student", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.auditLogger.LogAccountAction("account_created", auth.KindStudent, created.ID, nil)

	return newStudentSessionResponse(created), nil
}

// ResetPassword lets an admin reset a student's password. When no password
// is supplied a temporary one is generated and returned so the admin can
// hand it to the student. Either way the first-access flag is set again.
func (s *StudentAuthService) ResetPassword(ctx context.Context, targetID, newPassword string) (string, error) {
	if _, err := s.repo.GetByID(ctx, targetID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return "", models.ErrNotFound
		}
		s.logger.Error("failed to get student", slog.Any("error", err))
		return "", models.ErrInternalServer
	}

	if newPassword == "" {
		generated, err := generateTemporaryPassword(8)
		if err != nil {
			s.logger.Error("failed to generate password", slog.Any("error", err))
			return "", models.ErrInternalServer
		}
		newPassword = generated
	} else if len(newPassword) < pkgauth.MinStudentPasswordLen {
		return "", models.ErrBadRequest
	}

	hash, err := pkgauth.HashPassword(newPassword)
	if err != nil {
		s.logger.Error("failed to hash password", slog.Any("error", err))
		return "", models.ErrInternalServer
	}

	if err := s.repo.UpdatePassword(ctx, targetID, hash, true); err != nil {
		s.logger.Error("failed to reset password", slog.Any("error", err))
		return "", models.ErrInternalServer
	}

	s.auditLogger.LogAccountAction("password_reset", auth.KindStudent, targetID, nil)
	return newPassword, nil
}

// EnsureAdminAccount creates the bootstrap admin in the aluno table when no
// account holds the configured handle. Registration and password resets are
// guarded by this role, so without it a fresh install has no way in. Called
// once at startup.
func (s *StudentAuthService) EnsureAdminAccount(ctx context.Context, handle, name, password string) error {
	handle = strings.ToLower(strings.TrimSpace(handle))
	if handle == "" {
		return nil
	}

	if _, err := s.repo.GetByHandle(ctx, handle); err == nil {
		return nil
	} else if !errors.Is(err, models.ErrNotFound) {
		return err
	}

	if password == "" {
		s.logger.Warn("no admin account exists and ADMIN_PASSWORD is not set")
		return nil
	}
	if len(password) < pkgauth.MinStudentPasswordLen {
		return errors.New("bootstrap admin password is too short")
	}

	hash, err := pkgauth.HashPassword(password)
	if err != nil {
		return err
	}

	admin, err := s.repo.Create(ctx, &models.Student{
		Handle:        handle,
		PasswordHash:  hash,
		FullName:      name,
		CPF:           "000.000.000-00",
		BirthDate:     time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC),
		Status:        models.StudentStatusEnrolled,
		FormFilled:    true,
		DocsSubmitted: true,
		Role:          models.RoleAdmin,
		Active:        true,
		FirstLogin:    false,
	})
	if err != nil {
		// A concurrent replica may have won the race
		if errors.Is(err, models.ErrConflict) {
			return nil
		}
		return err
	}

	s.logger.Info("bootstrap admin account created", slog.String("student_id", admin.ID))
	s.auditLogger.LogAccountAction("account_created", auth.KindStudent, admin.ID, map[string]string{"bootstrap": "true"})
	return nil
}

// Ambiguous characters (0/O, 1/l) are left out of temporary passwords.
const temporaryPasswordAlphabet = "abcdefghijkmnpqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ23456789"

func generateTemporaryPassword(length int) (string, error) {
	b := make([]byte, length)
	max := big.NewInt(int64(len(temporaryPasswordAlphabet)))
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to generate random password: %w", err)
		}
		b[i] = temporaryPasswordAlphabet[n.Int64()]
	}
	return string(b), nil
}
