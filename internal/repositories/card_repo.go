package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/escola-solidaria/solidaria-api/internal/database"
	"github.com/escola-solidaria/solidaria-api/internal/models"
)

type CardRepository struct {
	pool *pgxpool.Pool
}

func NewCardRepository(db *database.DB) *CardRepository {
	return &CardRepository{pool: db.Pool}
}

const cardColumns = `id, aluno_id, numero, foto, nome_completo, data_nascimento, cpf, rg,
		tipo_sanguineo, numero_matricula, data_emissao, data_validade, contato_emergencia,
		qr_code, status, versao, created_at, updated_at`

func scanCardRow(scanner rowScanner) (*models.MemberCard, error) {
	var card models.MemberCard

	err := scanner.Scan(
		&card.ID, &card.StudentID, &card.Number, &card.Photo,
		&card.FullName, &card.BirthDate, &card.CPF, &card.RG,
		&card.BloodType, &card.EnrollmentNo, &card.IssuedAt, &card.ValidUntil,
		&card.Emergency, &card.QRCode, &card.Status, &card.Version,
		&card.CreatedAt, &card.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &card, nil
}

func (r *CardRepository) GetByStudent(ctx context.Context, studentID string) (*models.MemberCard, error) {
	query := `SELECT ` + cardColumns + ` FROM carteirinhas WHERE aluno_id = $1`
	return scanCardRow(r.pool.QueryRow(ctx, query, studentID))
}

func (r *CardRepository) GetByNumber(ctx context.Context, number string) (*models.MemberCard, error) {
	query := `SELECT ` + cardColumns + ` FROM carteirinhas WHERE numero = $1`
	return scanCardRow(r.pool.QueryRow(ctx, query, number))
}

func (r *CardRepository) Create(ctx context.Context, card *models.MemberCard) (*models.MemberCard, error) {
	card.ID = uuid.New().String()

	now := time.Now()
	card.CreatedAt = now
	card.UpdatedAt = now

	if card.Status == "" {
		card.Status = models.CardStatusActive
	}
	if card.Version == 0 {
		card.Version = 1
	}

	query := `
		INSERT INTO carteirinhas (id, aluno_id, numero, foto, nome_completo, data_nascimento,
			cpf, rg, tipo_sanguineo, numero_matricula, data_emissao, data_validade,
			contato_emergencia, qr_code, status, versao, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		RETURNING ` + cardColumns

	return scanCardRow(r.pool.QueryRow(ctx, query,
		card.ID, card.StudentID, card.Number, card.Photo,
		card.FullName, card.BirthDate, card.CPF, card.RG,
		card.BloodType, card.EnrollmentNo, card.IssuedAt, card.ValidUntil,
		card.Emergency, card.QRCode, card.Status, card.Version,
		card.CreatedAt, card.UpdatedAt,
	))
}

// Sync refreshes the personal snapshot from the student record and bumps the
// card version.
func (r *CardRepository) Sync(ctx context.Context, card *models.MemberCard) (*models.MemberCard, error) {
	query := `
		UPDATE carteirinhas SET foto = $1, nome_completo = $2, data_nascimento = $3,
			cpf = $4, rg = $5, tipo_sanguineo = $6, contato_emergencia = $7,
			versao = versao + 1, updated_at = NOW()
		WHERE aluno_id = $8
		RETURNING ` + cardColumns

	return scanCardRow(r.pool.QueryRow(ctx, query,
		card.Photo, card.FullName, card.BirthDate,
		card.CPF, card.RG, card.BloodType, card.Emergency,
		card.StudentID,
	))
}

func (r *CardRepository) UpdateStatus(ctx context.Context, studentID, status string) (*models.MemberCard, error) {
	query := `
		UPDATE carteirinhas SET status = $1, updated_at = NOW()
		WHERE aluno_id = $2
		RETURNING ` + cardColumns

	return scanCardRow(r.pool.QueryRow(ctx, query, status, studentID))
}

// Renew extends the validity of an existing card and reactivates it.
func (r *CardRepository) Renew(ctx context.Context, studentID string, validUntil time.Time, qrCode string) (*models.MemberCard, error) {
	query := `
		UPDATE carteirinhas SET data_emissao = NOW(), data_validade = $1, qr_code = $2,
			status = $3, versao = versao + 1, updated_at = NOW()
		WHERE aluno_id = $4
		RETURNING ` + cardColumns

	return scanCardRow(r.pool.QueryRow(ctx, query, validUntil, qrCode, models.CardStatusActive, studentID))
}

// CountIssuedInYear supports card number generation.
func (r *CardRepository) CountIssuedInYear(ctx context.Context, year int) (int, error) {
	query := `SELECT COUNT(*) FROM carteirinhas WHERE EXTRACT(YEAR FROM data_emissao) = $1`

	var count int
	if err := r.pool.QueryRow(ctx, query, year).Scan(&count); err != nil {
		return 0, database.MapPostgresError(err)
	}
	return count, nil
}

// ExpireOverdue marks every active card past its validity as expired and
// returns how many were affected. Run by the background sweep.
func (r *CardRepository) ExpireOverdue(ctx context.Context) (int64, error) {
	query := `
		UPDATE carteirinhas SET status = $1, updated_at = NOW()
		WHERE status = $2 AND data_validade < NOW()
	`

	tag, err := r.pool.Exec(ctx, query, models.CardStatusExpired, models.CardStatusActive)
	if err != nil {
		return 0, fmt.Errorf("failed to expire cards: %w", err)
	}
	return tag.RowsAffected(), nil
}
