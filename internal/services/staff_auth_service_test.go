package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/escola-solidaria/solidaria-api/internal/auth"
	"github.com/escola-solidaria/solidaria-api/internal/models"
	pkgauth "github.com/escola-solidaria/solidaria-api/pkg/auth"
)

func testStaffUser(t *testing.T, password string) *models.StaffUser {
	t.Helper()
	hash, err := pkgauth.HashPassword(password)
	require.NoError(t, err)

	return &models.StaffUser{
		ID:           "user-1",
		Name:         "Carlos Admin",
		Email:        "carlos@escola.org",
		PasswordHash: hash,
		Role:         models.RoleAdmin,
		Active:       true,
	}
}

func newStaffAuthService(repo *MockStaffRepository) *StaffAuthService {
	return NewStaffAuthService(repo, newTestTokenManager(), newTestLogger(), newTestAuditLogger())
}

func TestStaffAuthService_Login_Success(t *testing.T) {
	user := testStaffUser(t, "senhaForte8")
	repo := &MockStaffRepository{
		GetByEmailFunc: func(ctx context.Context, email string) (*models.StaffUser, error) {
			assert.Equal(t, "carlos@escola.org", email)
			return user, nil
		},
	}
	service := newStaffAuthService(repo)

	token, resp, err := service.Login(context.Background(), "Carlos@Escola.org", "senhaForte8", "10.0.0.2")

	require.NoError(t, err)
	assert.Equal(t, "Carlos Admin", resp.Name)

	// Staff tokens carry email and role claims
	claims, err := newTestTokenManager().Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, "carlos@escola.org", claims.Email)
	assert.Equal(t, models.RoleAdmin, claims.Role)
}

func TestStaffAuthService_Login_LockoutSharedWithStudents(t *testing.T) {
	user := testStaffUser(t, "senhaForte8")
	user.FailedAttempts = auth.MaxFailedAttempts - 1

	var saved auth.LockState
	repo := &MockStaffRepository{
		GetByEmailFunc: func(ctx context.Context, email string) (*models.StaffUser, error) {
			return user, nil
		},
		UpdateLockStateFunc: func(ctx context.Context, id string, state auth.LockState) error {
			saved = state
			return nil
		},
	}
	service := newStaffAuthService(repo)

	_, _, err := service.Login(context.Background(), "carlos@escola.org", "errada", "")

	var locked *models.AccountLockedError
	require.ErrorAs(t, err, &locked)
	assert.Equal(t, auth.MaxFailedAttempts, saved.FailedAttempts)
	require.NotNil(t, saved.LockedUntil)
	assert.WithinDuration(t, time.Now().Add(auth.LockDuration), *saved.LockedUntil, 5*time.Second)
}

func TestStaffAuthService_UpdateProfile_PasswordChange(t *testing.T) {
	user := testStaffUser(t, "senhaAntiga8")

	var savedHash string
	repo := &MockStaffRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*models.StaffUser, error) {
			return user, nil
		},
		UpdatePasswordFunc: func(ctx context.Context, id, passwordHash string) error {
			savedHash = passwordHash
			return nil
		},
		UpdateProfileFunc: func(ctx context.Context, id, name, avatarURL string) (*models.StaffUser, error) {
			user.Name = name
			user.AvatarURL = avatarURL
			return user, nil
		},
	}
	service := newStaffAuthService(repo)

	resp, err := service.UpdateProfile(context.Background(), "user-1", UpdateProfileRequest{
		Name:            "Carlos A.",
		CurrentPassword: "senhaAntiga8",
		NewPassword:     "senhaNova123",
	})

	require.NoError(t, err)
	assert.Equal(t, "Carlos A.", resp.Name)
	assert.NoError(t, pkgauth.ComparePassword(savedHash, "senhaNova123"))
}

func TestStaffAuthService_UpdateProfile_WrongCurrentPassword(t *testing.T) {
	user := testStaffUser(t, "senhaAntiga8")
	repo := &MockStaffRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*models.StaffUser, error) {
			return user, nil
		},
	}
	service := newStaffAuthService(repo)

	_, err := service.UpdateProfile(context.Background(), "user-1", UpdateProfileRequest{
		CurrentPassword: "errada",
		NewPassword:     "senhaNova123",
	})

	assert.ErrorIs(t, err, models.ErrUnauthorized)
}

func TestStaffAuthService_EnsureAdminUser(t *testing.T) {
	t.Run("creates when table empty", func(t *testing.T) {
		var created *models.StaffUser
		repo := &MockStaffRepository{
			CountFunc: func(ctx context.Context) (int, error) { return 0, nil },
			CreateFunc: func(ctx context.Context, user *models.StaffUser) (*models.StaffUser, error) {
				user.ID = "bootstrap-admin"
				created = user
				return user, nil
			},
		}
		service := newStaffAuthService(repo)

		err := service.EnsureAdminUser(context.Background(), "Admin", "admin@escola.org", "senhaForte8")

		require.NoError(t, err)
		require.NotNil(t, created)
		assert.Equal(t, models.RoleAdmin, created.Role)
		assert.True(t, created.Active)
	})

	t.Run("noop when accounts exist", func(t *testing.T) {
		repo := &MockStaffRepository{
			CountFunc: func(ctx context.Context) (int, error) { return 3, nil },
			CreateFunc: func(ctx context.Context, user *models.StaffUser) (*models.StaffUser, error) {
				t.Fatal("should not create")
				return nil, nil
			},
		}
		service := newStaffAuthService(repo)

		require.NoError(t, service.EnsureAdminUser(context.Background(), "Admin", "admin@escola.org", "senhaForte8"))
	})

	t.Run("tolerates concurrent bootstrap", func(t *testing.T) {
		repo := &MockStaffRepository{
			CountFunc: func(ctx context.Context) (int, error) { return 0, nil },
			CreateFunc: func(ctx context.Context, user *models.StaffUser) (*models.StaffUser, error) {
				return nil, models.ErrConflict
			},
		}
		service := newStaffAuthService(repo)

		require.NoError(t, service.EnsureAdminUser(context.Background(), "Admin", "admin@escola.org", "senhaForte8"))
	})
}
