package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/escola-solidaria/solidaria-api/internal/auth"
	"github.com/escola-solidaria/solidaria-api/internal/database"
	"github.com/escola-solidaria/solidaria-api/internal/models"
)

type StudentRepository struct {
	pool *pgxpool.Pool
}

func NewStudentRepository(db *database.DB) *StudentRepository {
	return &StudentRepository{pool: db.Pool}
}

// rowScanner supports both pgx.Row and pgx.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

const studentColumns = `id, usuario, senha_hash, nome_completo, cpf, rg, data_nascimento, sexo,
		numero_matricula, data_matricula, status, email, telefone, celular, endereco,
		foto_url, tipo_sanguineo, responsavel, ficha_preenchida, documentos_entregues,
		role, ativo, primeiro_acesso, tentativas_falhas, bloqueado_ate, ultimo_login,
		created_at, updated_at`

// scanStudentRow handles nullable columns and populates a Student model.
func scanStudentRow(scanner rowScanner) (*models.Student, error) {
	var student models.Student
	var enrollmentNo *string
	var enrolledAt, lockedUntil, lastLogin *time.Time

	err := scanner.Scan(
		&student.ID, &student.Handle, &student.PasswordHash, &student.FullName,
		&student.CPF, &student.RG, &student.BirthDate, &student.Sex,
		&enrollmentNo, &enrolledAt, &student.Status, &student.Email,
		&student.Phone, &student.Mobile, &student.Address,
		&student.PhotoURL, &student.BloodType, &student.Guardian,
		&student.FormFilled, &student.DocsSubmitted,
		&student.Role, &student.Active, &student.FirstLogin,
		&student.FailedAttempts, &lockedUntil, &lastLogin,
		&student.CreatedAt, &student.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	if enrollmentNo != nil {
		student.EnrollmentNo = *enrollmentNo
	}
	student.EnrolledAt = enrolledAt
	student.LockedUntil = lockedUntil
	student.LastLogin = lastLogin

	return &student, nil
}

func scanStudentRows(rows pgx.Rows) ([]*models.Student, error) {
	defer rows.Close()

	students := make([]*models.Student, 0)

	for rows.Next() {
		student, err := scanStudentRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan student: %w", err)
		}
		students = append(students, student)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return students, nil
}

func (r *StudentRepository) GetByID(ctx context.Context, id string) (*models.Student, error) {
	query := `SELECT ` + studentColumns + ` FROM alunos WHERE id = $1`
	return scanStudentRow(r.pool.QueryRow(ctx, query, id))
}

func (r *StudentRepository) GetByHandle(ctx context.Context, handle string) (*models.Student, error) {
	query := `SELECT ` + studentColumns + ` FROM alunos WHERE usuario = LOWER($1)`
	return scanStudentRow(r.pool.QueryRow(ctx, query, handle))
}

// StudentFilter narrows List results. Zero values mean no filtering.
type StudentFilter struct {
	Status string
	Search string // matches name, handle or enrollment number
	Limit  int
	Offset int
}

func (r *StudentRepository) List(ctx context.Context, filter StudentFilter) ([]*models.Student, error) {
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 50
	}

	query := `SELECT ` + studentColumns + ` FROM alunos WHERE 1=1`
	args := []interface{}{}

	if filter.Status != "" {
		args = append(args, filter.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		n := len(args)
		query += fmt.Sprintf(" AND (nome_completo ILIKE $%d OR usuario ILIKE $%d OR numero_matricula ILIKE $%d)", n, n, n)
	}

	args = append(args, filter.Limit, filter.Offset)
	query += fmt.Sprintf(" ORDER BY nome_completo ASC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query students: %w", err)
	}

	return scanStudentRows(rows)
}

func (r *StudentRepository) Count(ctx context.Context, filter StudentFilter) (int, error) {
	query := `SELECT COUNT(*) FROM alunos WHERE 1=1`
	args := []interface{}{}

	if filter.Status != "" {
		args = append(args, filter.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		n := len(args)
		query += fmt.Sprintf(" AND (nome_completo ILIKE $%d OR usuario ILIKE $%d OR numero_matricula ILIKE $%d)", n, n, n)
	}

	var count int
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, database.MapPostgresError(err)
	}
	return count, nil
}

func (r *StudentRepository) Create(ctx context.Context, student *models.Student) (*models.Student, error) {
	student.ID = uuid.New().String()

	now := time.Now()
	student.CreatedAt = now
	student.UpdatedAt = now

	if student.Role == "" {
		student.Role = models.RoleStudent
	}
	if student.Status == "" {
		student.Status = models.StudentStatusPreEnrollment
	}

	query := `
		INSERT INTO alunos (id, usuario, senha_hash, nome_completo, cpf, rg, data_nascimento, sexo,
			status, email, telefone, celular, endereco, foto_url, tipo_sanguineo, responsavel,
			role, ativo, primeiro_acesso, created_at, updated_at)
		VALUES ($1, LOWER($2), $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
		RETURNING ` + studentColumns

	return scanStudentRow(r.pool.QueryRow(ctx, query,
		student.ID, student.Handle, student.PasswordHash, student.FullName,
		student.CPF, student.RG, student.BirthDate, student.Sex,
		student.Status, student.Email, student.Phone, student.Mobile,
		student.Address, student.PhotoURL, student.BloodType, student.Guardian,
		student.Role, student.Active, student.FirstLogin,
		student.CreatedAt, student.UpdatedAt,
	))
}

// Update persists the mutable profile fields.
func (r *StudentRepository) Update(ctx context.Context, id string, student *models.Student) (*models.Student, error) {
	student.UpdatedAt = time.Now()

	query := `
		UPDATE alunos SET nome_completo = $1, rg = $2, data_nascimento = $3, sexo = $4,
			email = $5, telefone = $6, celular = $7, endereco = $8, foto_url = $9,
			tipo_sanguineo = $10, responsavel = $11, status = $12, ativo = $13, updated_at = $14
		WHERE id = $15
		RETURNING ` + studentColumns

	return scanStudentRow(r.pool.QueryRow(ctx, query,
		student.FullName, student.RG, student.BirthDate, student.Sex,
		student.Email, student.Phone, student.Mobile, student.Address, student.PhotoURL,
		student.BloodType, student.Guardian, student.Status, student.Active,
		student.UpdatedAt, id,
	))
}

// Enroll assigns the enrollment number and flips the status in one statement.
func (r *StudentRepository) Enroll(ctx context.Context, id, enrollmentNo string) (*models.Student, error) {
	query := `
		UPDATE alunos SET numero_matricula = $1, data_matricula = NOW(),
			status = $2, updated_at = NOW()
		WHERE id = $3
		RETURNING ` + studentColumns

	return scanStudentRow(r.pool.QueryRow(ctx, query, enrollmentNo, models.StudentStatusEnrolled, id))
}

// CountEnrolledInYear supports enrollment number generation.
func (r *StudentRepository) CountEnrolledInYear(ctx context.Context, year int) (int, error) {
	query := `SELECT COUNT(*) FROM alunos WHERE EXTRACT(YEAR FROM data_matricula) = $1`

	var count int
	if err := r.pool.QueryRow(ctx, query, year).Scan(&count); err != nil {
		return 0, database.MapPostgresError(err)
	}
	return count, nil
}

func (r *StudentRepository) UpdatePassword(ctx context.Context, id, passwordHash string, firstLogin bool) error {
	query := `
		UPDATE alunos SET senha_hash = $1, primeiro_acesso = $2, updated_at = NOW()
		WHERE id = $3
	`

	tag, err := r.pool.Exec(ctx, query, passwordHash, firstLogin, id)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// UpdateLockState persists the lockout counters after a failed login.
func (r *StudentRepository) UpdateLockState(ctx context.Context, id string, state auth.LockState) error {
	query := `
		UPDATE alunos SET tentativas_falhas = $1, bloqueado_ate = $2, updated_at = NOW()
		WHERE id = $3
	`

	_, err := r.pool.Exec(ctx, query, state.FailedAttempts, state.LockedUntil, id)
	return database.MapPostgresError(err)
}

// RecordLogin clears the lockout counters and the first-access flag and
// stamps the last login.
func (r *StudentRepository) RecordLogin(ctx context.Context, id string) error {
	query := `
		UPDATE alunos SET tentativas_falhas = 0, bloqueado_ate = NULL,
			primeiro_acesso = FALSE, ultimo_login = NOW(), updated_at = NOW()
		WHERE id = $1
	`

	_, err := r.pool.Exec(ctx, query, id)
	return database.MapPostgresError(err)
}

// SetFormFilled marks the pre-enrollment form as submitted.
func (r *StudentRepository) SetFormFilled(ctx context.Context, id string, filled bool) error {
	query := `UPDATE alunos SET ficha_preenchida = $1, updated_at = NOW() WHERE id = $2`

	_, err := r.pool.Exec(ctx, query, filled, id)
	return database.MapPostgresError(err)
}

// SetDocsSubmitted flips the flag once every required document is present.
func (r *StudentRepository) SetDocsSubmitted(ctx context.Context, id string, submitted bool) error {
	query := `UPDATE alunos SET documentos_entregues = $1, updated_at = NOW() WHERE id = $2`

	_, err := r.pool.Exec(ctx, query, submitted, id)
	return database.MapPostgresError(err)
}

// Deactivate soft-deletes the account; the record and its documents stay.
func (r *StudentRepository) Deactivate(ctx context.Context, id string) error {
	query := `UPDATE alunos SET ativo = FALSE, status = $1, updated_at = NOW() WHERE id = $2`

	tag, err := r.pool.Exec(ctx, query, models.StudentStatusInactive, id)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// Reactivate reverses a soft delete. Students holding an enrollment number
// go back to Matriculado, the rest to Pré-Matrícula. Lockout counters are
// cleared so the returning student can log in right away.
func (r *StudentRepository) Reactivate(ctx context.Context, id string) (*models.Student, error) {
	query := `
		UPDATE alunos SET ativo = TRUE,
			status = CASE WHEN numero_matricula IS NOT NULL THEN $1 ELSE $2 END,
			tentativas_falhas = 0, bloqueado_ate = NULL, updated_at = NOW()
		WHERE id = $3
		RETURNING ` + studentColumns

	return scanStudentRow(r.pool.QueryRow(ctx, query,
		models.StudentStatusEnrolled, models.StudentStatusPreEnrollment, id))
}

// CountsByStatus feeds the admin dashboard.
func (r *StudentRepository) CountsByStatus(ctx context.Context) (map[string]int, error) {
	rows, err := r.pool.Query(ctx, `SELECT status, COUNT(*) FROM alunos GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to count students by status: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, database.MapPostgresError(err)
		}
		counts[status] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return counts, nil
}

// CountPendingDocs counts active students whose form is in but whose
// required documents are not yet complete.
func (r *StudentRepository) CountPendingDocs(ctx context.Context) (int, error) {
	query := `
		SELECT COUNT(*) FROM alunos
		WHERE ficha_preenchida = TRUE AND documentos_entregues = FALSE AND ativo = TRUE
	`

	var count int
	if err := r.pool.QueryRow(ctx, query).Scan(&count); err != nil {
		return 0, database.MapPostgresError(err)
	}
	return count, nil
}

// LoadPrincipal adapts the repository to the auth gate.
func (r *StudentRepository) LoadPrincipal(ctx context.Context, id string) (*auth.Principal, error) {
	student, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	return &auth.Principal{
		ID:         student.ID,
		Name:       student.FullName,
		Handle:     student.Handle,
		Email:      student.Email,
		Role:       student.Role,
		Kind:       auth.KindStudent,
		Active:     student.Active,
		FirstLogin: student.FirstLogin,
	}, nil
}
