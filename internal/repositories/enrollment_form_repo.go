package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/escola-solidaria/solidaria-api/internal/database"
	"github.com/escola-solidaria/solidaria-api/internal/models"
)

type EnrollmentFormRepository struct {
	pool *pgxpool.Pool
}

func NewEnrollmentFormRepository(db *database.DB) *EnrollmentFormRepository {
	return &EnrollmentFormRepository{pool: db.Pool}
}

func scanFormRow(scanner rowScanner) (*models.EnrollmentForm, error) {
	var form models.EnrollmentForm

	err := scanner.Scan(&form.ID, &form.StudentID, &form.Payload, &form.CreatedAt, &form.UpdatedAt)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &form, nil
}

func (r *EnrollmentFormRepository) GetByStudent(ctx context.Context, studentID string) (*models.EnrollmentForm, error) {
	query := `
		SELECT id, aluno_id, dados, created_at, updated_at
		FROM fichas_pre_matricula WHERE aluno_id = $1
	`
	return scanFormRow(r.pool.QueryRow(ctx, query, studentID))
}

// Upsert saves the form, replacing the payload on resubmission.
func (r *EnrollmentFormRepository) Upsert(ctx context.Context, form *models.EnrollmentForm) (*models.EnrollmentForm, error) {
	if form.ID == "" {
		form.ID = uuid.New().String()
	}

	now := time.Now()

	query := `
		INSERT INTO fichas_pre_matricula (id, aluno_id, dados, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $4)
		ON CONFLICT (aluno_id) DO UPDATE SET dados = EXCLUDED.dados, updated_at = EXCLUDED.updated_at
		RETURNING id, aluno_id, dados, created_at, updated_at
	`

	return scanFormRow(r.pool.QueryRow(ctx, query, form.ID, form.StudentID, form.Payload, now))
}
