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

type DonationRepository struct {
	pool *pgxpool.Pool
}

func NewDonationRepository(db *database.DB) *DonationRepository {
	return &DonationRepository{pool: db.Pool}
}

const donationColumns = `id, titulo, descricao, categoria, valor, moeda, data_recebimento,
		fonte, transacao, projeto, status, visivel, destaque, criado_por, atualizado_por,
		created_at, updated_at`

func scanDonationRow(scanner rowScanner) (*models.Donation, error) {
	var donation models.Donation
	var createdBy, updatedBy *string

	err := scanner.Scan(
		&donation.ID, &donation.Title, &donation.Description, &donation.Category,
		&donation.Amount, &donation.Currency, &donation.ReceivedAt,
		&donation.Source, &donation.Transaction, &donation.Project,
		&donation.Status, &donation.Visible, &donation.Featured,
		&createdBy, &updatedBy,
		&donation.CreatedAt, &donation.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	if createdBy != nil {
		donation.CreatedBy = *createdBy
	}
	if updatedBy != nil {
		donation.UpdatedBy = *updatedBy
	}

	return &donation, nil
}

func scanDonationRows(rows pgx.Rows) ([]*models.Donation, error) {
	defer rows.Close()

	donations := make([]*models.Donation, 0)

	for rows.Next() {
		donation, err := scanDonationRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan donation: %w", err)
		}
		donations = append(donations, donation)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return donations, nil
}

// DonationFilter narrows List results. PublicOnly restricts to visible,
// confirmed entries for the transparency page.
type DonationFilter struct {
	Category   string
	Status     string
	Year       int
	PublicOnly bool
	Limit      int
	Offset     int
}

func (f DonationFilter) whereClause(args *[]interface{}) string {
	clause := " WHERE 1=1"

	if f.PublicOnly {
		clause += " AND visivel = TRUE AND status = 'confirmado'"
	}
	if f.Category != "" {
		*args = append(*args, f.Category)
		clause += fmt.Sprintf(" AND categoria = $%d", len(*args))
	}
	if f.Status != "" && !f.PublicOnly {
		*args = append(*args, f.Status)
		clause += fmt.Sprintf(" AND status = $%d", len(*args))
	}
	if f.Year > 0 {
		*args = append(*args, f.Year)
		clause += fmt.Sprintf(" AND EXTRACT(YEAR FROM data_recebimento) = $%d", len(*args))
	}

	return clause
}

func (r *DonationRepository) GetByID(ctx context.Context, id string) (*models.Donation, error) {
	query := `SELECT ` + donationColumns + ` FROM receitas WHERE id = $1`
	return scanDonationRow(r.pool.QueryRow(ctx, query, id))
}

func (r *DonationRepository) List(ctx context.Context, filter DonationFilter) ([]*models.Donation, error) {
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 50
	}

	args := []interface{}{}
	query := `SELECT ` + donationColumns + ` FROM receitas` + filter.whereClause(&args)

	args = append(args, filter.Limit, filter.Offset)
	query += fmt.Sprintf(" ORDER BY data_recebimento DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query donations: %w", err)
	}

	return scanDonationRows(rows)
}

func (r *DonationRepository) Count(ctx context.Context, filter DonationFilter) (int, error) {
	args := []interface{}{}
	query := `SELECT COUNT(*) FROM receitas` + filter.whereClause(&args)

	var count int
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, database.MapPostgresError(err)
	}
	return count, nil
}

func (r *DonationRepository) Create(ctx context.Context, donation *models.Donation) (*models.Donation, error) {
	donation.ID = uuid.New().String()

	now := time.Now()
	donation.CreatedAt = now
	donation.UpdatedAt = now

	if donation.Currency == "" {
		donation.Currency = "BRL"
	}
	if donation.Status == "" {
		donation.Status = models.DonationStatusConfirmed
	}

	query := `
		INSERT INTO receitas (id, titulo, descricao, categoria, valor, moeda, data_recebimento,
			fonte, transacao, projeto, status, visivel, destaque, criado_por, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING ` + donationColumns

	return scanDonationRow(r.pool.QueryRow(ctx, query,
		donation.ID, donation.Title, donation.Description, donation.Category,
		donation.Amount, donation.Currency, donation.ReceivedAt,
		donation.Source, donation.Transaction, donation.Project,
		donation.Status, donation.Visible, donation.Featured,
		nullableID(donation.CreatedBy), donation.CreatedAt, donation.UpdatedAt,
	))
}

func (r *DonationRepository) Update(ctx context.Context, id string, donation *models.Donation) (*models.Donation, error) {
	donation.UpdatedAt = time.Now()

	query := `
		UPDATE receitas SET titulo = $1, descricao = $2, categoria = $3, valor = $4,
			data_recebimento = $5, fonte = $6, transacao = $7, projeto = $8,
			status = $9, visivel = $10, destaque = $11, atualizado_por = $12, updated_at = $13
		WHERE id = $14
		RETURNING ` + donationColumns

	return scanDonationRow(r.pool.QueryRow(ctx, query,
		donation.Title, donation.Description, donation.Category, donation.Amount,
		donation.ReceivedAt, donation.Source, donation.Transaction, donation.Project,
		donation.Status, donation.Visible, donation.Featured,
		nullableID(donation.UpdatedBy), donation.UpdatedAt, id,
	))
}

func (r *DonationRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM receitas WHERE id = $1`, id)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// Stats aggregates confirmed entries for the transparency page.
func (r *DonationRepository) Stats(ctx context.Context) (*models.DonationStats, error) {
	query := `
		SELECT COALESCE(SUM(valor), 0), COUNT(*), COALESCE(AVG(valor), 0),
			COALESCE(MAX(valor), 0), COALESCE(MIN(valor), 0)
		FROM receitas WHERE status = 'confirmado' AND visivel = TRUE
	`

	var stats models.DonationStats
	err := r.pool.QueryRow(ctx, query).Scan(
		&stats.Total, &stats.Count, &stats.Average, &stats.Largest, &stats.Smallest,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &stats, nil
}

func (r *DonationRepository) TotalsByCategory(ctx context.Context) ([]models.DonationCategoryTotal, error) {
	query := `
		SELECT categoria, COALESCE(SUM(valor), 0), COUNT(*)
		FROM receitas WHERE status = 'confirmado' AND visivel = TRUE
		GROUP BY categoria ORDER BY SUM(valor) DESC
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query category totals: %w", err)
	}
	defer rows.Close()

	totals := make([]models.DonationCategoryTotal, 0)
	for rows.Next() {
		var t models.DonationCategoryTotal
		if err := rows.Scan(&t.Category, &t.Total, &t.Count); err != nil {
			return nil, fmt.Errorf("failed to scan category total: %w", err)
		}
		totals = append(totals, t)
	}

	return totals, rows.Err()
}

func (r *DonationRepository) TotalsByMonth(ctx context.Context, year int) ([]models.DonationMonthlyTotal, error) {
	query := `
		SELECT EXTRACT(YEAR FROM data_recebimento)::int, EXTRACT(MONTH FROM data_recebimento)::int,
			COALESCE(SUM(valor), 0), COUNT(*)
		FROM receitas
		WHERE status = 'confirmado' AND visivel = TRUE AND EXTRACT(YEAR FROM data_recebimento) = $1
		GROUP BY 1, 2 ORDER BY 1, 2
	`

	rows, err := r.pool.Query(ctx, query, year)
	if err != nil {
		return nil, fmt.Errorf("failed to query monthly totals: %w", err)
	}
	defer rows.Close()

	totals := make([]models.DonationMonthlyTotal, 0)
	for rows.Next() {
		var t models.DonationMonthlyTotal
		if err := rows.Scan(&t.Year, &t.Month, &t.Total, &t.Count); err != nil {
			return nil, fmt.Errorf("failed to scan monthly total: %w", err)
		}
		totals = append(totals, t)
	}

	return totals, rows.Err()
}

// nullableID maps an empty string to a SQL NULL for UUID columns.
func nullableID(id string) *string {
	if id == "" {
		return nil
	}
	return &id
}
