package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/escola-solidaria/solidaria-api/internal/models"
	"github.com/escola-solidaria/solidaria-api/internal/repositories"
	"github.com/escola-solidaria/solidaria-api/internal/services"
)

func TestDonationHandler_ListPublic_ParsesFilter(t *testing.T) {
	var gotFilter repositories.DonationFilter
	service := &MockDonationService{
		ListPublicFunc: func(ctx context.Context, filter repositories.DonationFilter) (*services.DonationListResponse, error) {
			gotFilter = filter
			return &services.DonationListResponse{
				Receitas: []*models.Donation{{ID: "d1", Title: "Doação mensal", Amount: 1500}},
				Total:    1,
			}, nil
		},
	}
	handler := NewDonationHandler(service)

	req := httptest.NewRequest(http.MethodGet, "/api/transparencia/receitas?categoria=doacao&ano=2026&limit=10", nil)
	rec := httptest.NewRecorder()
	handler.ListPublic(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "doacao", gotFilter.Category)
	assert.Equal(t, 2026, gotFilter.Year)
	assert.Equal(t, 10, gotFilter.Limit)

	body := decodeBody(t, rec)
	receitas := body["receitas"].([]interface{})
	require.Len(t, receitas, 1)
	first := receitas[0].(map[string]interface{})
	assert.Equal(t, "Doação mensal", first["titulo"])
	assert.Equal(t, 1500.0, first["valor"])
}

func TestDonationHandler_Summary(t *testing.T) {
	service := &MockDonationService{
		SummaryFunc: func(ctx context.Context, year int) (*services.DonationSummaryResponse, error) {
			assert.Equal(t, 2026, year)
			return &services.DonationSummaryResponse{
				Stats: &models.DonationStats{Total: 25000, Count: 12},
			}, nil
		},
	}
	handler := NewDonationHandler(service)

	req := httptest.NewRequest(http.MethodGet, "/api/transparencia/resumo?ano=2026", nil)
	rec := httptest.NewRecorder()
	handler.Summary(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	resumo := body["resumo"].(map[string]interface{})
	assert.Equal(t, 25000.0, resumo["totalGeral"])
}

func TestDonationHandler_Create(t *testing.T) {
	service := &MockDonationService{
		CreateFunc: func(ctx context.Context, req services.DonationRequest, createdBy string) (*models.Donation, error) {
			assert.Equal(t, "u1", createdBy)
			assert.Equal(t, "Bazar beneficente", req.Titulo)
			return &models.Donation{ID: "d1", Title: req.Titulo, Amount: req.Valor, ReceivedAt: time.Now()}, nil
		},
	}
	handler := NewDonationHandler(service)

	req := withStaffPrincipal(newTestRequest(t, http.MethodPost, "/api/admin/receitas", map[string]interface{}{
		"titulo":          "Bazar beneficente",
		"categoria":       "evento",
		"valor":           850.50,
		"dataRecebimento": "2026-08-20",
	}), "u1", models.RoleEditor)
	rec := httptest.NewRecorder()
	handler.Create(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestDonationHandler_Create_RequiresAmount(t *testing.T) {
	handler := NewDonationHandler(&MockDonationService{})

	req := withStaffPrincipal(newTestRequest(t, http.MethodPost, "/api/admin/receitas", map[string]interface{}{
		"titulo":          "Bazar beneficente",
		"categoria":       "evento",
		"dataRecebimento": "2026-08-20",
	}), "u1", models.RoleEditor)
	rec := httptest.NewRecorder()
	handler.Create(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDonationHandler_GetDetail_Public(t *testing.T) {
	service := &MockDonationService{
		GetPublicFunc: func(ctx context.Context, id string, includeHidden bool) (*models.Donation, error) {
			assert.Equal(t, "d1", id)
			assert.False(t, includeHidden, "anonymous visitors never see hidden entries")
			return &models.Donation{
				ID:         id,
				Title:      "Doação mensal",
				Amount:     1200,
				Status:     models.DonationStatusConfirmed,
				Visible:    true,
				ReceivedAt: time.Now(),
			}, nil
		},
	}
	handler := NewDonationHandler(service)

	router := chi.NewRouter()
	router.Get("/api/transparencia/receitas/{id}", handler.GetDetail)

	req := httptest.NewRequest(http.MethodGet, "/api/transparencia/receitas/d1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	receita := body["receita"].(map[string]interface{})
	assert.Equal(t, "Doação mensal", receita["titulo"])
}

func TestDonationHandler_GetDetail_StaffSeesHidden(t *testing.T) {
	service := &MockDonationService{
		GetPublicFunc: func(ctx context.Context, id string, includeHidden bool) (*models.Donation, error) {
			assert.True(t, includeHidden, "staff sessions preview hidden entries")
			return &models.Donation{ID: id, Title: "Pendente", Visible: false, ReceivedAt: time.Now()}, nil
		},
	}
	handler := NewDonationHandler(service)

	router := chi.NewRouter()
	router.Get("/api/transparencia/receitas/{id}", handler.GetDetail)

	req := withStaffPrincipal(httptest.NewRequest(http.MethodGet, "/api/transparencia/receitas/d2", nil), "u1", models.RoleAdmin)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
}

func TestDonationHandler_GetDetail_HiddenNotFound(t *testing.T) {
	handler := NewDonationHandler(&MockDonationService{})

	router := chi.NewRouter()
	router.Get("/api/transparencia/receitas/{id}", handler.GetDetail)

	req := httptest.NewRequest(http.MethodGet, "/api/transparencia/receitas/d3", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
