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

func TestDocumentHandler_Upload(t *testing.T) {
	service := &MockDocumentService{
		UploadFunc: func(ctx context.Context, studentID string, req services.UploadDocumentRequest) (*models.Document, error) {
			assert.Equal(t, "s1", studentID)
			assert.Equal(t, models.DocumentTypeCPF, req.Tipo)
			return &models.Document{
				ID:        "d1",
				StudentID: studentID,
				Type:      req.Tipo,
				Name:      req.Nome,
				Status:    models.DocumentStatusPending,
				CreatedAt: time.Now(),
			}, nil
		},
	}
	handler := NewDocumentHandler(service)

	req := withStudentPrincipal(newTestRequest(t, http.MethodPost, "/api/documentos", map[string]string{
		"tipo":     models.DocumentTypeCPF,
		"nome":     "cpf.pdf",
		"dados":    "JVBERi0=",
		"mimeType": "application/pdf",
	}), "s1")
	rec := httptest.NewRecorder()
	handler.Upload(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	body := decodeBody(t, rec)
	doc := body["documento"].(map[string]interface{})
	assert.Equal(t, "Pendente", doc["status"])
	// Listing shape never carries the payload
	assert.NotContains(t, doc, "dados")
}

func TestDocumentHandler_Upload_MissingPayload(t *testing.T) {
	handler := NewDocumentHandler(&MockDocumentService{})

	req := withStudentPrincipal(newTestRequest(t, http.MethodPost, "/api/documentos", map[string]string{
		"tipo":     models.DocumentTypeCPF,
		"nome":     "cpf.pdf",
		"mimeType": "application/pdf",
	}), "s1")
	rec := httptest.NewRecorder()
	handler.Upload(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDocumentHandler_Review_RequiresKnownStatus(t *testing.T) {
	handler := NewDocumentHandler(&MockDocumentService{})

	router := chi.NewRouter()
	router.Post("/api/admin/documentos/{id}/revisar", handler.Review)

	req := withStaffPrincipal(newTestRequest(t, http.MethodPost, "/api/admin/documentos/d1/revisar", map[string]string{
		"status": "Talvez",
	}), "u1", models.RoleAdmin)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDocumentHandler_Review_Reject(t *testing.T) {
	service := &MockDocumentService{
		ReviewFunc: func(ctx context.Context, id, status, reason, reviewerID string) (*models.Document, error) {
			assert.Equal(t, "d1", id)
			assert.Equal(t, models.DocumentStatusRejected, status)
			assert.Equal(t, "Documento ilegível", reason)
			assert.Equal(t, "u1", reviewerID)
			return &models.Document{ID: id, Status: status, RejectionReason: reason}, nil
		},
	}
	handler := NewDocumentHandler(service)

	router := chi.NewRouter()
	router.Post("/api/admin/documentos/{id}/revisar", handler.Review)

	req := withStaffPrincipal(newTestRequest(t, http.MethodPost, "/api/admin/documentos/d1/revisar", map[string]string{
		"status": models.DocumentStatusRejected,
		"motivo": "Documento ilegível",
	}), "u1", models.RoleAdmin)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestDocumentHandler_Get_FullPayload(t *testing.T) {
	service := &MockDocumentService{
		GetFunc: func(ctx context.Context, id string) (*models.Document, error) {
			return &models.Document{
				ID:        id,
				StudentID: "s1",
				Type:      models.DocumentTypeRG,
				Name:      "rg.png",
				Data:      "iVBORw0KGgo=",
				MimeType:  "image/png",
				Size:      9,
				Status:    models.DocumentStatusPending,
			}, nil
		},
	}
	handler := NewDocumentHandler(service)

	router := chi.NewRouter()
	router.Get("/api/admin/documentos/{id}", handler.Get)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/documentos/d1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	doc := body["documento"].(map[string]interface{})
	assert.Equal(t, "iVBORw0KGgo=", doc["dados"])
	assert.Equal(t, "image/png", doc["mimeType"])
}
