package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/escola-solidaria/solidaria-api/internal/auth"
	"github.com/escola-solidaria/solidaria-api/internal/database"
	"github.com/escola-solidaria/solidaria-api/internal/models"
)

type StaffRepository struct {
	pool *pgxpool.Pool
}

func NewStaffRepository(db *database.DB) *StaffRepository {
	return &StaffRepository{pool: db.Pool}
}

const staffColumns = `id, nome, email, senha_hash, role, avatar_url, ativo,
		tentativas_falhas, bloqueado_ate, ultimo_login, created_at, updated_at`

func scanStaffRow(scanner rowScanner) (*models.StaffUser, error) {
	var user models.StaffUser
	var lockedUntil, lastLogin *time.Time

	err := scanner.Scan(
		&user.ID, &user.Name, &user.Email, &user.PasswordHash,
		&user.Role, &user.AvatarURL, &user.Active,
		&user.FailedAttempts, &lockedUntil, &lastLogin,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	user.LockedUntil = lockedUntil
	user.LastLogin = lastLogin

	return &user, nil
}

func (r *StaffRepository) GetByID(ctx context.Context, id string) (*models.StaffUser, error) {
	query := `SELECT ` + staffColumns + ` FROM usuarios WHERE id = $1`
	return scanStaffRow(r.pool.QueryRow(ctx, query, id))
}

func (r *StaffRepository) GetByEmail(ctx context.Context, email string) (*models.StaffUser, error) {
	query := `SELECT ` + staffColumns + ` FROM usuarios WHERE email = LOWER($1)`
	return scanStaffRow(r.pool.QueryRow(ctx, query, email))
}

func (r *StaffRepository) List(ctx context.Context, limit, offset int) ([]*models.StaffUser, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	query := `SELECT ` + staffColumns + ` FROM usuarios ORDER BY created_at DESC LIMIT $1 OFFSET $2`

	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query staff users: %w", err)
	}
	defer rows.Close()

	users := make([]*models.StaffUser, 0)
	for rows.Next() {
		user, err := scanStaffRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan staff user: %w", err)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return users, nil
}

func (r *StaffRepository) Create(ctx context.Context, user *models.StaffUser) (*models.StaffUser, error) {
	user.ID = uuid.New().String()

	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	if user.Role == "" {
		user.Role = models.RoleEditor
	}

	query := `
		INSERT INTO usuarios (id, nome, email, senha_hash, role, avatar_url, ativo, created_at, updated_at)
		VALUES ($1, $2, LOWER($3), $4, $5, $6, $7, $8, $9)
		RETURNING ` + staffColumns

	return scanStaffRow(r.pool.QueryRow(ctx, query,
		user.ID, user.Name, user.Email, user.PasswordHash,
		user.Role, user.AvatarURL, user.Active,
		user.CreatedAt, user.UpdatedAt,
	))
}

// UpdateProfile persists the fields a staff member can edit on themselves.
func (r *StaffRepository) UpdateProfile(ctx context.Context, id, name, avatarURL string) (*models.StaffUser, error) {
	query := `
		UPDATE usuarios SET nome = $1, avatar_url = $2, updated_at = NOW()
		WHERE id = $3
		RETURNING ` + staffColumns

	return scanStaffRow(r.pool.QueryRow(ctx, query, name, avatarURL, id))
}

func (r *StaffRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	query := `UPDATE usuarios SET senha_hash = $1, updated_at = NOW() WHERE id = $2`

	tag, err := r.pool.Exec(ctx, query, passwordHash, id)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *StaffRepository) UpdateLockState(ctx context.Context, id string, state auth.LockState) error {
	query := `
		UPDATE usuarios SET tentativas_falhas = $1, bloqueado_ate = $2, updated_at = NOW()
		WHERE id = $3
	`

	_, err := r.pool.Exec(ctx, query, state.FailedAttempts, state.LockedUntil, id)
	return database.MapPostgresError(err)
}

func (r *StaffRepository) RecordLogin(ctx context.Context, id string) error {
	query := `
		UPDATE usuarios SET tentativas_falhas = 0, bloqueado_ate = NULL,
			ultimo_login = NOW(), updated_at = NOW()
		WHERE id = $1
	`

	_, err := r.pool.Exec(ctx, query, id)
	return database.MapPostgresError(err)
}

// Count reports how many staff accounts exist, used by the admin bootstrap.
func (r *StaffRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM usuarios`).Scan(&count); err != nil {
		return 0, database.MapPostgresError(err)
	}
	return count, nil
}

// LoadPrincipal adapts the repository to the auth gate.
func (r *StaffRepository) LoadPrincipal(ctx context.Context, id string) (*auth.Principal, error) {
	user, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	return &auth.Principal{
		ID:     user.ID,
		Name:   user.Name,
		Email:  user.Email,
		Role:   user.Role,
		Kind:   auth.KindStaff,
		Active: user.Active,
	}, nil
}
