package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/escola-solidaria/solidaria-api/internal/models"
	"github.com/escola-solidaria/solidaria-api/internal/repositories"
	"github.com/escola-solidaria/solidaria-api/internal/services"
)

func TestStudentHandler_List_ParsesFilter(t *testing.T) {
	var gotFilter repositories.StudentFilter
	service := &MockStudentService{
		ListFunc: func(ctx context.Context, filter repositories.StudentFilter) (*services.StudentListResponse, error) {
			gotFilter = filter
			return &services.StudentListResponse{
				Alunos: []*services.StudentSessionResponse{{ID: "s1", Usuario: "joao.silva"}},
				Total:  1,
			}, nil
		},
	}
	handler := NewStudentHandler(service)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/alunos?status=Matriculado&busca=joao&limit=20", nil)
	rec := httptest.NewRecorder()
	handler.List(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Matriculado", gotFilter.Status)
	assert.Equal(t, "joao", gotFilter.Search)
	assert.Equal(t, 20, gotFilter.Limit)
}

func TestStudentHandler_Enroll(t *testing.T) {
	service := &MockStudentService{
		EnrollFunc: func(ctx context.Context, id string) (*services.StudentSessionResponse, error) {
			assert.Equal(t, "s1", id)
			return &services.StudentSessionResponse{
				ID:              id,
				NumeroMatricula: "202600001",
				Status:          models.StudentStatusEnrolled,
			}, nil
		},
	}
	handler := NewStudentHandler(service)

	router := chi.NewRouter()
	router.Post("/api/admin/alunos/{id}/matricular", handler.Enroll)

	req := httptest.NewRequest(http.MethodPost, "/api/admin/alunos/s1/matricular", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	aluno := body["aluno"].(map[string]interface{})
	assert.Equal(t, "202600001", aluno["numeroMatricula"])
}

func TestStudentHandler_Enroll_MissingPrerequisites(t *testing.T) {
	service := &MockStudentService{
		EnrollFunc: func(ctx context.Context, id string) (*services.StudentSessionResponse, error) {
			return nil, models.ErrBadRequest
		},
	}
	handler := NewStudentHandler(service)

	router := chi.NewRouter()
	router.Post("/api/admin/alunos/{id}/matricular", handler.Enroll)

	req := httptest.NewRequest(http.MethodPost, "/api/admin/alunos/s1/matricular", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStudentHandler_SubmitForm(t *testing.T) {
	service := &MockStudentService{
		SubmitFormFunc: func(ctx context.Context, studentID string, payload map[string]interface{}) (*models.EnrollmentForm, error) {
			assert.Equal(t, "s1", studentID)
			assert.Equal(t, "pública", payload["escolaAnterior"])
			return &models.EnrollmentForm{ID: "f1", StudentID: studentID, Payload: payload}, nil
		},
	}
	handler := NewStudentHandler(service)

	req := withStudentPrincipal(newTestRequest(t, http.MethodPost, "/api/ficha", map[string]interface{}{
		"escolaAnterior": "pública",
		"serie":          "5º ano",
	}), "s1")
	rec := httptest.NewRecorder()
	handler.SubmitForm(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	ficha := body["ficha"].(map[string]interface{})
	assert.Equal(t, "s1", ficha["alunoId"])
}

func TestStudentHandler_SubmitForm_NoSession(t *testing.T) {
	handler := NewStudentHandler(&MockStudentService{})

	req := newTestRequest(t, http.MethodPost, "/api/ficha", map[string]interface{}{"x": "y"})
	rec := httptest.NewRecorder()
	handler.SubmitForm(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestStudentHandler_Reactivate(t *testing.T) {
	service := &MockStudentService{
		ReactivateFunc: func(ctx context.Context, id string) (*services.StudentSessionResponse, error) {
			assert.Equal(t, "s1", id)
			return &services.StudentSessionResponse{ID: id, Status: models.StudentStatusEnrolled}, nil
		},
	}
	handler := NewStudentHandler(service)

	router := chi.NewRouter()
	router.Put("/api/admin/alunos/{id}/reativar", handler.Reactivate)

	req := httptest.NewRequest(http.MethodPut, "/api/admin/alunos/s1/reativar", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	aluno := body["aluno"].(map[string]interface{})
	assert.Equal(t, models.StudentStatusEnrolled, aluno["status"])
}

func TestStudentHandler_Stats(t *testing.T) {
	service := &MockStudentService{
		StatsFunc: func(ctx context.Context) (*services.StudentStatsResponse, error) {
			return &services.StudentStatsResponse{
				Total:               52,
				PorStatus:           map[string]int{models.StudentStatusEnrolled: 42},
				DocumentosPendentes: 5,
			}, nil
		},
	}
	handler := NewStudentHandler(service)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/alunos/estatisticas", nil)
	rec := httptest.NewRecorder()
	handler.Stats(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	stats := body["estatisticas"].(map[string]interface{})
	assert.Equal(t, 52.0, stats["total"])
	assert.Equal(t, 5.0, stats["documentosPendentes"])
}
