package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/escola-solidaria/solidaria-api/internal/database"
	"github.com/escola-solidaria/solidaria-api/internal/models"
)

// HomeRepository manages the single homepage content document. Sections are
// separate JSONB columns so PATCH can touch one without rewriting the rest.
type HomeRepository struct {
	pool *pgxpool.Pool
}

func NewHomeRepository(db *database.DB) *HomeRepository {
	return &HomeRepository{pool: db.Pool}
}

const homeColumns = `id, hero, about, stats, programs, gallery, testimonials,
		publicado, publicado_em, publicado_por, created_at, updated_at`

func scanHomeRow(scanner rowScanner) (*models.HomeContent, error) {
	var content models.HomeContent
	var publishedAt *time.Time

	err := scanner.Scan(
		&content.ID, &content.Hero, &content.About, &content.Stats,
		&content.Programs, &content.Gallery, &content.Testimonials,
		&content.Published, &publishedAt, &content.LastPublishedBy,
		&content.CreatedAt, &content.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	content.PublishedAt = publishedAt

	return &content, nil
}

// Get returns the homepage document, creating the default one on first use.
func (r *HomeRepository) Get(ctx context.Context) (*models.HomeContent, error) {
	query := `SELECT ` + homeColumns + ` FROM home_content ORDER BY created_at ASC LIMIT 1`

	content, err := scanHomeRow(r.pool.QueryRow(ctx, query))
	if err == nil {
		return content, nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return nil, err
	}

	return r.seed(ctx)
}

func (r *HomeRepository) seed(ctx context.Context) (*models.HomeContent, error) {
	seed := models.DefaultHomeContent()
	seed.ID = uuid.New().String()

	query := `
		INSERT INTO home_content (id, hero, about, stats, programs, gallery, testimonials, publicado)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT DO NOTHING
		RETURNING ` + homeColumns

	content, err := scanHomeRow(r.pool.QueryRow(ctx, query,
		seed.ID, seed.Hero, seed.About, emptyList(seed.Stats), emptyList(seed.Programs),
		seed.Gallery, emptyList(seed.Testimonials), seed.Published,
	))
	if err == nil {
		return content, nil
	}
	if errors.Is(err, models.ErrNotFound) {
		// Lost the insert race; the winner's row is there now
		return scanHomeRow(r.pool.QueryRow(ctx,
			`SELECT `+homeColumns+` FROM home_content ORDER BY created_at ASC LIMIT 1`))
	}
	return nil, err
}

// Update replaces the whole document.
func (r *HomeRepository) Update(ctx context.Context, id string, content *models.HomeContent) (*models.HomeContent, error) {
	query := `
		UPDATE home_content SET hero = $1, about = $2, stats = $3, programs = $4,
			gallery = $5, testimonials = $6, updated_at = NOW()
		WHERE id = $7
		RETURNING ` + homeColumns

	return scanHomeRow(r.pool.QueryRow(ctx, query,
		content.Hero, content.About, emptyList(content.Stats), emptyList(content.Programs),
		content.Gallery, emptyList(content.Testimonials), id,
	))
}

// Section column whitelist for UpdateSection; identifiers can't be bound as
// query parameters.
var sectionColumns = map[string]string{
	"hero":         "hero",
	"about":        "about",
	"stats":        "stats",
	"programs":     "programs",
	"gallery":      "gallery",
	"testimonials": "testimonials",
}

// UpdateSection replaces one section with raw JSON already validated by the
// service layer.
func (r *HomeRepository) UpdateSection(ctx context.Context, id, section string, payload json.RawMessage) (*models.HomeContent, error) {
	column, ok := sectionColumns[section]
	if !ok {
		return nil, models.ErrBadRequest
	}

	query := fmt.Sprintf(`
		UPDATE home_content SET %s = $1, updated_at = NOW()
		WHERE id = $2
		RETURNING `+homeColumns, column)

	return scanHomeRow(r.pool.QueryRow(ctx, query, payload, id))
}

// Publish stamps the document as published by the given editor.
func (r *HomeRepository) Publish(ctx context.Context, id, publishedBy string) (*models.HomeContent, error) {
	query := `
		UPDATE home_content SET publicado = TRUE, publicado_em = NOW(),
			publicado_por = $1, updated_at = NOW()
		WHERE id = $2
		RETURNING ` + homeColumns

	return scanHomeRow(r.pool.QueryRow(ctx, query, publishedBy, id))
}

// emptyList keeps JSONB list columns as [] instead of null.
func emptyList[T any](list []T) []T {
	if list == nil {
		return []T{}
	}
	return list
}
