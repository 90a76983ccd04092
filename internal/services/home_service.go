package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/escola-solidaria/solidaria-api/internal/cache"
	"github.com/escola-solidaria/solidaria-api/internal/models"
)

// HomeRepository persists the homepage content document.
type HomeRepository interface {
	Get(ctx context.Context) (*models.HomeContent, error)
	Update(ctx context.Context, id string, content *models.HomeContent) (*models.HomeContent, error)
	UpdateSection(ctx context.Context, id, section string, payload json.RawMessage) (*models.HomeContent, error)
	Publish(ctx context.Context, id, publishedBy string) (*models.HomeContent, error)
}

const homeCacheKey = "home:content"

// HomeService implements homepage content management with an optional cache
// in front of the public read path.
type HomeService struct {
	repo     HomeRepository
	cache    *cache.Cache
	cacheTTL time.Duration
	logger   *slog.Logger
}

func NewHomeService(repo HomeRepository, c *cache.Cache, cacheTTL time.Duration, logger *slog.Logger) *HomeService {
	return &HomeService{
		repo:     repo,
		cache:    c,
		cacheTTL: cacheTTL,
		logger:   logger,
	}
}

// GetPublic serves the homepage to anonymous visitors, cache first.
func (s *HomeService) GetPublic(ctx context.Context) (*models.HomeContent, error) {
	var cached models.HomeContent
	if err := s.cache.GetJSON(ctx, homeCacheKey, &cached); err == nil {
		return &cached, nil
	}

	content, err := s.repo.Get(ctx)
	if err != nil {
		s.logger.Error("failed to get home content", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	// Unpublished drafts stay private to the editor; visitors get the seed
	// document until someone publishes.
	if !content.Published {
		content = models.DefaultHomeContent()
	}

	s.cache.SetJSON(ctx, homeCacheKey, content, s.cacheTTL)
	return content, nil
}

// Get serves the editor view, always fresh from the database.
func (s *HomeService) Get(ctx context.Context) (*models.HomeContent, error) {
	content, err := s.repo.Get(ctx)
	if err != nil {
		s.logger.Error("failed to get home content", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return content, nil
}

// Update replaces the full document and invalidates the cache.
func (s *HomeService) Update(ctx context.Context, incoming *models.HomeContent) (*models.HomeContent, error) {
	current, err := s.repo.Get(ctx)
	if err != nil {
		s.logger.Error("failed to get home content", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	updated, err := s.repo.Update(ctx, current.ID, incoming)
	if err != nil {
		s.logger.Error("failed to update home content", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.cache.Delete(ctx, homeCacheKey)
	return updated, nil
}

// UpdateSection patches a single section. The payload must decode into the
// section's shape before it touches the database.
func (s *HomeService) UpdateSection(ctx context.Context, section string, payload json.RawMessage) (*models.HomeContent, error) {
	if err := validateSectionPayload(section, payload); err != nil {
		return nil, err
	}

	current, err := s.repo.Get(ctx)
	if err != nil {
		s.logger.Error("failed to get home content", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	updated, err := s.repo.UpdateSection(ctx, current.ID, section, payload)
	if err != nil {
		if errors.Is(err, models.ErrBadRequest) {
			return nil, models.ErrBadRequest
		}
		s.logger.Error("failed to update home section", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.cache.Delete(ctx, homeCacheKey)
	return updated, nil
}

// Publish stamps the content as published by the given editor.
func (s *HomeService) Publish(ctx context.Context, publishedBy string) (*models.HomeContent, error) {
	current, err := s.repo.Get(ctx)
	if err != nil {
		s.logger.Error("failed to get home content", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	published, err := s.repo.Publish(ctx, current.ID, publishedBy)
	if err != nil {
		s.logger.Error("failed to publish home content", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.cache.Delete(ctx, homeCacheKey)
	return published, nil
}

// validateSectionPayload decodes into the section's concrete type with
// unknown fields rejected, so garbage never lands in the JSONB columns.
func validateSectionPayload(section string, payload json.RawMessage) error {
	var target interface{}

	switch section {
	case "hero":
		target = &models.HeroSection{}
	case "about":
		target = &models.AboutSection{}
	case "stats":
		target = &[]models.StatItem{}
	case "programs":
		target = &[]models.ProgramItem{}
	case "gallery":
		target = &models.GallerySection{}
	case "testimonials":
		target = &[]models.Testimonial{}
	default:
		return models.ErrBadRequest
	}

	decoder := json.NewDecoder(bytes.NewReader(payload))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(target); err != nil {
		return models.ErrBadRequest
	}

	return nil
}
