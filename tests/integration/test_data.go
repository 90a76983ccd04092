package integration

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/escola-solidaria/solidaria-api/internal/models"
	"github.com/escola-solidaria/solidaria-api/pkg/auth"
)

// TestStudentCredentials generates unique student credentials per run
func TestStudentCredentials(suffix string) (handle, password string) {
	ts := time.Now().UnixNano()
	handle = fmt.Sprintf("aluno-%d-%s", ts, suffix)
	password = "senha123"
	return
}

// SeedStudent inserts a student account with a hashed password
func SeedStudent(ctx context.Context, pool *pgxpool.Pool, handle, password string) (*models.Student, error) {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	query := `
		INSERT INTO alunos (id, usuario, senha_hash, nome_completo, cpf, data_nascimento)
		VALUES ($1, LOWER($2), $3, $4, $5, $6)
		RETURNING id, usuario, nome_completo, cpf, status, role, ativo, primeiro_acesso
	`

	cpf := fmt.Sprintf("%011d", time.Now().UnixNano()%100000000000)
	birthDate := time.Date(2010, 5, 20, 0, 0, 0, 0, time.UTC)

	var student models.Student
	err = pool.QueryRow(ctx, query, uuid.New().String(), handle, hash, "Aluno de Teste", cpf, birthDate).Scan(
		&student.ID,
		&student.Handle,
		&student.FullName,
		&student.CPF,
		&student.Status,
		&student.Role,
		&student.Active,
		&student.FirstLogin,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert student: %w", err)
	}

	return &student, nil
}

// SeedStaffUser inserts a staff account with a hashed password
func SeedStaffUser(ctx context.Context, pool *pgxpool.Pool, email, password, role string) (*models.StaffUser, error) {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	query := `
		INSERT INTO usuarios (id, nome, email, senha_hash, role)
		VALUES ($1, $2, LOWER($3), $4, $5)
		RETURNING id, nome, email, role, ativo
	`

	var user models.StaffUser
	err = pool.QueryRow(ctx, query, uuid.New().String(), "Usuário de Teste", email, hash, role).Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.Role,
		&user.Active,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert staff user: %w", err)
	}

	return &user, nil
}
