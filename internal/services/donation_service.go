package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/escola-solidaria/solidaria-api/internal/models"
	"github.com/escola-solidaria/solidaria-api/internal/repositories"
)

// DonationRepository persists the revenue ledger.
type DonationRepository interface {
	GetByID(ctx context.Context, id string) (*models.Donation, error)
	List(ctx context.Context, filter repositories.DonationFilter) ([]*models.Donation, error)
	Count(ctx context.Context, filter repositories.DonationFilter) (int, error)
	Create(ctx context.Context, donation *models.Donation) (*models.Donation, error)
	Update(ctx context.Context, id string, donation *models.Donation) (*models.Donation, error)
	Delete(ctx context.Context, id string) error
	Stats(ctx context.Context) (*models.DonationStats, error)
	TotalsByCategory(ctx context.Context) ([]models.DonationCategoryTotal, error)
	TotalsByMonth(ctx context.Context, year int) ([]models.DonationMonthlyTotal, error)
}

// DonationService implements the transparency ledger.
type DonationService struct {
	repo   DonationRepository
	logger *slog.Logger
}

func NewDonationService(repo DonationRepository, logger *slog.Logger) *DonationService {
	return &DonationService{repo: repo, logger: logger}
}

var donationCategories = map[string]bool{
	models.DonationCategoryDonation:    true,
	models.DonationCategorySponsorship: true,
	models.DonationCategoryEvent:       true,
	models.DonationCategorySale:        true,
	models.DonationCategoryGrant:       true,
	models.DonationCategoryOther:       true,
}

var donationStatuses = map[string]bool{
	models.DonationStatusPending:   true,
	models.DonationStatusConfirmed: true,
	models.DonationStatusCancelled: true,
}

// DonationRequest carries a ledger entry for create and update.
type DonationRequest struct {
	Titulo          string                      `json:"titulo" validate:"required,min=3,max=255"`
	Descricao       string                      `json:"descricao"`
	Categoria       string                      `json:"categoria" validate:"required"`
	Valor           float64                     `json:"valor" validate:"required,gt=0"`
	DataRecebimento string                      `json:"dataRecebimento" validate:"required"`
	Fonte           *models.DonationSource      `json:"fonte"`
	Transacao       *models.DonationTransaction `json:"transacao"`
	Projeto         string                      `json:"projeto"`
	Status          string                      `json:"status"`
	Visivel         *bool                       `json:"visivel"`
	Destaque        bool                        `json:"destaque"`
}

// DonationListResponse pages ledger listings.
type DonationListResponse struct {
	Receitas []*models.Donation `json:"receitas"`
	Total    int                `json:"total"`
	Limit    int                `json:"limit"`
	Offset   int                `json:"offset"`
}

// DonationSummaryResponse is the transparency page aggregate block.
type DonationSummaryResponse struct {
	Stats      *models.DonationStats          `json:"resumo"`
	Categories []models.DonationCategoryTotal `json:"porCategoria"`
	Monthly    []models.DonationMonthlyTotal  `json:"porMes"`
}

func (s *DonationService) Create(ctx context.Context, req DonationRequest, createdBy string) (*models.Donation, error) {
	donation, err := s.fromRequest(req)
	if err != nil {
		return nil, err
	}
	donation.CreatedBy = createdBy

	created, err := s.repo.Create(ctx, donation)
	if err != nil {
		s.logger.Error("failed to create donation", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	return created, nil
}

func (s *DonationService) Update(ctx context.Context, id string, req DonationRequest, updatedBy string) (*models.Donation, error) {
	donation, err := s.fromRequest(req)
	if err != nil {
		return nil, err
	}
	donation.UpdatedBy = updatedBy

	updated, err := s.repo.Update(ctx, id, donation)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to update donation", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	return updated, nil
}

func (s *DonationService) fromRequest(req DonationRequest) (*models.Donation, error) {
	if !donationCategories[req.Categoria] {
		return nil, models.ErrBadRequest
	}
	if req.Status != "" && !donationStatuses[req.Status] {
		return nil, models.ErrBadRequest
	}
	if req.Valor <= 0 {
		return nil, models.ErrBadRequest
	}

	receivedAt, err := time.Parse("2006-01-02", req.DataRecebimento)
	if err != nil {
		receivedAt, err = time.Parse(time.RFC3339, req.DataRecebimento)
		if err != nil {
			return nil, models.ErrBadRequest
		}
	}

	visible := true
	if req.Visivel != nil {
		visible = *req.Visivel
	}

	return &models.Donation{
		Title:       req.Titulo,
		Description: req.Descricao,
		Category:    req.Categoria,
		Amount:      req.Valor,
		ReceivedAt:  receivedAt,
		Source:      req.Fonte,
		Transaction: req.Transacao,
		Project:     req.Projeto,
		Status:      req.Status,
		Visible:     visible,
		Featured:    req.Destaque,
	}, nil
}

func (s *DonationService) Get(ctx context.Context, id string) (*models.Donation, error) {
	donation, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to get donation", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return donation, nil
}

// GetPublic serves a single ledger entry on the transparency page. Hidden
// or unconfirmed records are only returned when includeHidden is set, which
// happens when a staff session is previewing the public page.
func (s *DonationService) GetPublic(ctx context.Context, id string, includeHidden bool) (*models.Donation, error) {
	donation, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if !includeHidden && (!donation.Visible || donation.Status != models.DonationStatusConfirmed) {
		return nil, models.ErrNotFound
	}
	return donation, nil
}

func (s *DonationService) List(ctx context.Context, filter repositories.DonationFilter) (*DonationListResponse, error) {
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 50
	}

	donations, err := s.repo.List(ctx, filter)
	if err != nil {
		s.logger.Error("failed to list donations", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	total, err := s.repo.Count(ctx, filter)
	if err != nil {
		s.logger.Error("failed to count donations", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	return &DonationListResponse{
		Receitas: donations,
		Total:    total,
		Limit:    filter.Limit,
		Offset:   filter.Offset,
	}, nil
}

// ListPublic forces the transparency-page filter regardless of what the
// caller asked for.
func (s *DonationService) ListPublic(ctx context.Context, filter repositories.DonationFilter) (*DonationListResponse, error) {
	filter.PublicOnly = true
	filter.Status = ""
	return s.List(ctx, filter)
}

func (s *DonationService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrNotFound
		}
		s.logger.Error("failed to delete donation", slog.Any("error", err))
		return models.ErrInternalServer
	}
	return nil
}

// Summary aggregates the public ledger for the transparency page.
func (s *DonationService) Summary(ctx context.Context, year int) (*DonationSummaryResponse, error) {
	if year == 0 {
		year = time.Now().Year()
	}

	stats, err := s.repo.Stats(ctx)
	if err != nil {
		s.logger.Error("failed to aggregate donation stats", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	categories, err := s.repo.TotalsByCategory(ctx)
	if err != nil {
		s.logger.Error("failed to aggregate category totals", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	monthly, err := s.repo.TotalsByMonth(ctx, year)
	if err != nil {
		s.logger.Error("failed to aggregate monthly totals", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	return &DonationSummaryResponse{
		Stats:      stats,
		Categories: categories,
		Monthly:    monthly,
	}, nil
}
