package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/escola-solidaria/solidaria-api/internal/auth"
	"github.com/escola-solidaria/solidaria-api/internal/models"
	pkgauth "github.com/escola-solidaria/solidaria-api/pkg/auth"
	pkglogger "github.com/escola-solidaria/solidaria-api/pkg/logger"
)

// StaffAuthRepository is the slice of the staff repository the auth flows
// need.
type StaffAuthRepository interface {
	GetByID(ctx context.Context, id string) (*models.StaffUser, error)
	GetByEmail(ctx context.Context, email string) (*models.StaffUser, error)
	Create(ctx context.Context, user *models.StaffUser) (*models.StaffUser, error)
	UpdateProfile(ctx context.Context, id, name, avatarURL string) (*models.StaffUser, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	UpdateLockState(ctx context.Context, id string, state auth.LockState) error
	RecordLogin(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
}

// StaffAuthService implements the content-panel login flows.
type StaffAuthService struct {
	repo        StaffAuthRepository
	tokens      *auth.TokenManager
	logger      *slog.Logger
	auditLogger *pkglogger.AuditLogger
}

func NewStaffAuthService(repo StaffAuthRepository, tokens *auth.TokenManager, logger *slog.Logger, auditLogger *pkglogger.AuditLogger) *StaffAuthService {
	return &StaffAuthService{
		repo:        repo,
		tokens:      tokens,
		logger:      logger,
		auditLogger: auditLogger,
	}
}

// StaffUserResponse is the staff account shape returned to the panel.
type StaffUserResponse struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	Role      string     `json:"role"`
	AvatarURL string     `json:"avatar,omitempty"`
	LastLogin *time.Time `json:"lastLogin,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}

func newStaffUserResponse(user *models.StaffUser) *StaffUserResponse {
	return &StaffUserResponse{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		Role:      user.Role,
		AvatarURL: user.AvatarURL,
		LastLogin: user.LastLogin,
		CreatedAt: user.CreatedAt,
	}
}

// Login authenticates a staff member by email and password.
func (s *StaffAuthService) Login(ctx context.Context, email, password, ipAddress string) (string, *StaffUserResponse, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return "", nil, models.ErrUnauthorized
	}

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
				EventType:     "login_failed",
				AccountKind:   auth.KindStaff,
				IPAddress:     ipAddress,
				FailureReason: "invalid_credentials",
				Success:       false,
			})
			return "", nil, models.ErrUnauthorized
		}
		s.logger.Error("failed to get staff user by email", slog.Any("error", err))
		return "", nil, models.ErrInternalServer
	}

	if !user.Active {
		s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
			EventType:     "login_failed",
			AccountKind:   auth.KindStaff,
			AccountID:     user.ID,
			IPAddress:     ipAddress,
			FailureReason: "account_disabled",
			Success:       false,
		})
		return "", nil, models.ErrAccountDisabled
	}

	now := time.Now()
	state := auth.LockState{FailedAttempts: user.FailedAttempts, LockedUntil: user.LockedUntil}

	newState, ok, authErr := verifyWithLockout(state, user.PasswordHash, password, now)
	if !ok {
		if newState != state {
			if err := s.repo.UpdateLockState(ctx, user.ID, newState); err != nil {
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
			AccountKind:   auth.KindStaff,
			AccountID:     user.ID,
			IPAddress:     ipAddress,
			FailureReason: reason,
			Success:       false,
		})
		return "", nil, authErr
	}

	if err := s.repo.RecordLogin(ctx, user.ID); err != nil {
		s.logger.Error("failed to record login", slog.Any("error", err))
	}

	token, err := s.tokens.Issue(user.ID, auth.Claims{Email: user.Email, Role: user.Role})
	if err != nil {
		s.logger.Error("failed to issue token", slog.Any("error", err))
		return "", nil, models.ErrInternalServer
	}

	s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
		EventType:   "login_success",
		AccountKind: auth.KindStaff,
		AccountID:   user.ID,
		IPAddress:   ipAddress,
		Success:     true,
	})

	now = time.Now()
	user.LastLogin = &now

	return token, newStaffUserResponse(user), nil
}

// Me returns the current staff member's profile.
func (s *StaffAuthService) Me(ctx context.Context, id string) (*StaffUserResponse, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to get staff user", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	return newStaffUserResponse(user), nil
}

// UpdateProfileRequest carries the self-service profile fields. A non-empty
// NewPassword triggers a password change, which requires CurrentPassword.
type UpdateProfileRequest struct {
	Name            string `json:"name" validate:"omitempty,min=2,max=255"`
	AvatarURL       string `json:"avatar"`
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword" validate:"omitempty,min=8"`
}

// UpdateProfile updates name, avatar and optionally the password.
func (s *StaffAuthService) UpdateProfile(ctx context.Context, id string, req UpdateProfileRequest) (*StaffUserResponse, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to get staff user", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if req.NewPassword != "" {
		if len(req.NewPassword) < pkgauth.MinStaffPasswordLen {
			return nil, models.ErrBadRequest
		}
		if err := pkgauth.ComparePassword(user.PasswordHash, req.CurrentPassword); err != nil {
			s.auditLogger.LogPasswordChange(auth.KindStaff, id, "", false)
			return nil, models.ErrUnauthorized
		}

		hash, err := pkgauth.HashPassword(req.NewPassword)
		if err != nil {
			s.logger.Error("failed to hash password", slog.Any("error", err))
			return nil, models.ErrInternalServer
		}
		if err := s.repo.UpdatePassword(ctx, id, hash); err != nil {
			s.logger.Error("failed to update password", slog.Any("error", err))
			return nil, models.ErrInternalServer
		}

		s.auditLogger.LogPasswordChange(auth.KindStaff, id, "", true)
	}

	name := user.Name
	if req.Name != "" {
		name = req.Name
	}
	avatar := user.AvatarURL
	if req.AvatarURL != "" {
		avatar = req.AvatarURL
	}

	updated, err := s.repo.UpdateProfile(ctx, id, name, avatar)
	if err != nil {
		s.logger.Error("failed to update profile", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	return newStaffUserResponse(updated), nil
}

// EnsureAdminUser creates the bootstrap admin account when the staff table
// is empty. Called once at startup.
func (s *StaffAuthService) EnsureAdminUser(ctx context.Context, name, email, password string) error {
	count, err := s.repo.Count(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	if email == "" || password == "" {
		s.logger.Warn("no staff accounts exist and ADMIN_EMAIL/ADMIN_PASSWORD are not set")
		return nil
	}
	if len(password) < pkgauth.MinStaffPasswordLen {
		return errors.New("bootstrap admin password is too short")
	}

	hash, err := pkgauth.HashPassword(password)
	if err != nil {
		return err
	}

	admin, err := s.repo.Create(ctx, &models.StaffUser{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         models.RoleAdmin,
		Active:       true,
	})
	if err != nil {
		// A concurrent replica may have won the race
		if errors.Is(err, models.ErrConflict) {
			return nil
		}
		return err
	}

	s.logger.Info("bootstrap admin account created", slog.String("user_id", admin.ID))
	s.auditLogger.LogAccountAction("account_created", auth.KindStaff, admin.ID, map[string]string{"bootstrap": "true"})
	return nil
}
