package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/escola-solidaria/solidaria-api/internal/database"
	"github.com/escola-solidaria/solidaria-api/internal/models"
)

type DocumentRepository struct {
	pool *pgxpool.Pool
}

func NewDocumentRepository(db *database.DB) *DocumentRepository {
	return &DocumentRepository{pool: db.Pool}
}

const documentColumns = `id, aluno_id, tipo, nome, descricao, dados, mime_type, tamanho,
		status, motivo_rejeicao, revisado_por, revisado_em, ativo, created_at, updated_at`

func scanDocumentRow(scanner rowScanner) (*models.Document, error) {
	var doc models.Document
	var reviewedBy *string
	var reviewedAt *time.Time

	err := scanner.Scan(
		&doc.ID, &doc.StudentID, &doc.Type, &doc.Name, &doc.Description,
		&doc.Data, &doc.MimeType, &doc.Size,
		&doc.Status, &doc.RejectionReason, &reviewedBy, &reviewedAt,
		&doc.Active, &doc.CreatedAt, &doc.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	if reviewedBy != nil {
		doc.ReviewedBy = *reviewedBy
	}
	doc.ReviewedAt = reviewedAt

	return &doc, nil
}

func scanDocumentRows(rows pgx.Rows) ([]*models.Document, error) {
	defer rows.Close()

	docs := make([]*models.Document, 0)

	for rows.Next() {
		doc, err := scanDocumentRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		docs = append(docs, doc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return docs, nil
}

func (r *DocumentRepository) GetByID(ctx context.Context, id string) (*models.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documentos WHERE id = $1`
	return scanDocumentRow(r.pool.QueryRow(ctx, query, id))
}

// ListByStudent returns the active documents of one student, newest first.
func (r *DocumentRepository) ListByStudent(ctx context.Context, studentID string) ([]*models.Document, error) {
	query := `
		SELECT ` + documentColumns + ` FROM documentos
		WHERE aluno_id = $1 AND ativo = TRUE
		ORDER BY created_at DESC
	`

	rows, err := r.pool.Query(ctx, query, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}

	return scanDocumentRows(rows)
}

// ActiveTypes lists the distinct document types a student currently has on
// file, used to decide whether the required set is complete.
func (r *DocumentRepository) ActiveTypes(ctx context.Context, studentID string) ([]string, error) {
	query := `SELECT DISTINCT tipo FROM documentos WHERE aluno_id = $1 AND ativo = TRUE`

	rows, err := r.pool.Query(ctx, query, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query document types: %w", err)
	}
	defer rows.Close()

	types := make([]string, 0)
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("failed to scan document type: %w", err)
		}
		types = append(types, t)
	}

	return types, rows.Err()
}

// Create inserts the document and retires any previous active document of
// the same type in one transaction.
func (r *DocumentRepository) Create(ctx context.Context, doc *models.Document) (*models.Document, error) {
	doc.ID = uuid.New().String()

	now := time.Now()
	doc.CreatedAt = now
	doc.UpdatedAt = now

	if doc.Status == "" {
		doc.Status = models.DocumentStatusPending
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}
	defer tx.Rollback(ctx)

	retire := `
		UPDATE documentos SET ativo = FALSE, status = $1, updated_at = NOW()
		WHERE aluno_id = $2 AND tipo = $3 AND ativo = TRUE
	`
	if _, err := tx.Exec(ctx, retire, models.DocumentStatusReplaced, doc.StudentID, doc.Type); err != nil {
		return nil, database.MapPostgresError(err)
	}

	insert := `
		INSERT INTO documentos (id, aluno_id, tipo, nome, descricao, dados, mime_type, tamanho,
			status, ativo, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, TRUE, $10, $11)
		RETURNING ` + documentColumns

	created, err := scanDocumentRow(tx.QueryRow(ctx, insert,
		doc.ID, doc.StudentID, doc.Type, doc.Name, doc.Description,
		doc.Data, doc.MimeType, doc.Size, doc.Status,
		doc.CreatedAt, doc.UpdatedAt,
	))
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, database.MapPostgresError(err)
	}

	return created, nil
}

// Review updates the approval status of a document.
func (r *DocumentRepository) Review(ctx context.Context, id, status, reason, reviewerID string) (*models.Document, error) {
	query := `
		UPDATE documentos SET status = $1, motivo_rejeicao = $2,
			revisado_por = $3, revisado_em = NOW(), updated_at = NOW()
		WHERE id = $4 AND ativo = TRUE
		RETURNING ` + documentColumns

	return scanDocumentRow(r.pool.QueryRow(ctx, query, status, reason, nullableID(reviewerID), id))
}

// Deactivate soft-deletes a document.
func (r *DocumentRepository) Deactivate(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE documentos SET ativo = FALSE, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}
