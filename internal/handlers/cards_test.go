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
	"github.com/escola-solidaria/solidaria-api/internal/services"
)

func testCard() *models.MemberCard {
	return &models.MemberCard{
		ID:           "c1",
		StudentID:    "s1",
		Number:       "CART202600042",
		FullName:     "João Silva",
		BirthDate:    time.Date(2010, 3, 15, 0, 0, 0, 0, time.UTC),
		CPF:          "123.456.789-00",
		EnrollmentNo: "202600042",
		IssuedAt:     time.Now(),
		ValidUntil:   time.Now().Add(models.CardValidity),
		QRCode:       "iVBORw0KGgo=",
		Status:       models.CardStatusActive,
		Version:      1,
	}
}

func TestCardHandler_Mine(t *testing.T) {
	service := &MockCardService{
		GetByStudentFunc: func(ctx context.Context, studentID string) (*models.MemberCard, error) {
			assert.Equal(t, "s1", studentID)
			return testCard(), nil
		},
	}
	handler := NewCardHandler(service)

	req := withStudentPrincipal(newTestRequest(t, http.MethodGet, "/api/carteirinha", nil), "s1")
	rec := httptest.NewRecorder()
	handler.Mine(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	card := body["carteirinha"].(map[string]interface{})
	assert.Equal(t, "CART202600042", card["numero"])
	assert.Equal(t, "2010-03-15", card["dataNascimento"])
	assert.Equal(t, "iVBORw0KGgo=", card["qrCode"])
}

func TestCardHandler_Mine_NotIssued(t *testing.T) {
	handler := NewCardHandler(&MockCardService{})

	req := withStudentPrincipal(newTestRequest(t, http.MethodGet, "/api/carteirinha", nil), "s1")
	rec := httptest.NewRecorder()
	handler.Mine(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCardHandler_Issue(t *testing.T) {
	service := &MockCardService{
		IssueFunc: func(ctx context.Context, studentID string, emergency *models.EmergencyContact) (*models.MemberCard, error) {
			assert.Equal(t, "s1", studentID)
			require.NotNil(t, emergency)
			assert.Equal(t, "Maria Silva", emergency.Nome)
			return testCard(), nil
		},
	}
	handler := NewCardHandler(service)

	router := chi.NewRouter()
	router.Post("/api/admin/alunos/{id}/carteirinha", handler.Issue)

	req := newTestRequest(t, http.MethodPost, "/api/admin/alunos/s1/carteirinha", map[string]interface{}{
		"contatoEmergencia": map[string]string{"nome": "Maria Silva", "telefone": "(11) 99999-0000"},
	})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestCardHandler_Issue_AlreadyIssued(t *testing.T) {
	service := &MockCardService{
		IssueFunc: func(ctx context.Context, studentID string, emergency *models.EmergencyContact) (*models.MemberCard, error) {
			return nil, models.ErrConflict
		},
	}
	handler := NewCardHandler(service)

	router := chi.NewRouter()
	router.Post("/api/admin/alunos/{id}/carteirinha", handler.Issue)

	req := httptest.NewRequest(http.MethodPost, "/api/admin/alunos/s1/carteirinha", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestCardHandler_Validate_Public(t *testing.T) {
	service := &MockCardService{
		ValidateFunc: func(ctx context.Context, number string) (*services.CardValidationResponse, error) {
			assert.Equal(t, "CART202600042", number)
			return &services.CardValidationResponse{
				Valida:       true,
				Numero:       number,
				NomeCompleto: "João Silva",
				Status:       models.CardStatusActive,
			}, nil
		},
	}
	handler := NewCardHandler(service)

	router := chi.NewRouter()
	router.Get("/api/carteirinhas/validar/{numero}", handler.Validate)

	req := httptest.NewRequest(http.MethodGet, "/api/carteirinhas/validar/CART202600042", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	validation := body["validacao"].(map[string]interface{})
	assert.Equal(t, true, validation["valida"])
	assert.Equal(t, "João Silva", validation["nomeCompleto"])
}

func TestCardHandler_UpdateStatus_RejectsUnknownStatus(t *testing.T) {
	handler := NewCardHandler(&MockCardService{})

	router := chi.NewRouter()
	router.Put("/api/admin/alunos/{id}/carteirinha/status", handler.UpdateStatus)

	req := newTestRequest(t, http.MethodPut, "/api/admin/alunos/s1/carteirinha/status", map[string]string{
		"status": "Perdida",
	})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
