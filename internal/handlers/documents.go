package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/escola-solidaria/solidaria-api/internal/auth"
	"github.com/escola-solidaria/solidaria-api/internal/models"
	"github.com/escola-solidaria/solidaria-api/internal/services"
	pkghttp "github.com/escola-solidaria/solidaria-api/pkg/http"
)

// DocumentServiceInterface defines the document business logic
type DocumentServiceInterface interface {
	Upload(ctx context.Context, studentID string, req services.UploadDocumentRequest) (*models.Document, error)
	Get(ctx context.Context, id string) (*models.Document, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.DocumentSummary, error)
	Review(ctx context.Context, id, status, reason, reviewerID string) (*models.Document, error)
	Delete(ctx context.Context, id string) error
}

// DocumentHandler handles document upload and review endpoints
type DocumentHandler struct {
	service DocumentServiceInterface
}

// NewDocumentHandler creates a new DocumentHandler
func NewDocumentHandler(service DocumentServiceInterface) *DocumentHandler {
	return &DocumentHandler{service: service}
}

// ReviewDocumentRequest represents a staff document review decision
type ReviewDocumentRequest struct {
	Status string `json:"status" validate:"required,oneof=Aprovado Rejeitado"`
	Motivo string `json:"motivo"`
}

// DocumentResponse is the full document shape including the base64 payload
type DocumentResponse struct {
	ID             string     `json:"id"`
	AlunoID        string     `json:"alunoId"`
	Tipo           string     `json:"tipo"`
	Nome           string     `json:"nome"`
	Descricao      string     `json:"descricao,omitempty"`
	Dados          string     `json:"dados"`
	MimeType       string     `json:"mimeType"`
	Tamanho        int64      `json:"tamanho"`
	Status         string     `json:"status"`
	MotivoRejeicao string     `json:"motivoRejeicao,omitempty"`
	RevisadoPor    string     `json:"revisadoPor,omitempty"`
	RevisadoEm     *time.Time `json:"revisadoEm,omitempty"`
	CriadoEm       time.Time  `json:"criadoEm"`
}

func newDocumentResponse(doc *models.Document) *DocumentResponse {
	return &DocumentResponse{
		ID:             doc.ID,
		AlunoID:        doc.StudentID,
		Tipo:           doc.Type,
		Nome:           doc.Name,
		Descricao:      doc.Description,
		Dados:          doc.Data,
		MimeType:       doc.MimeType,
		Tamanho:        doc.Size,
		Status:         doc.Status,
		MotivoRejeicao: doc.RejectionReason,
		RevisadoPor:    doc.ReviewedBy,
		RevisadoEm:     doc.ReviewedAt,
		CriadoEm:       doc.CreatedAt,
	}
}

// Upload stores a document for the authenticated student. Uploading a type
// that already has an active document replaces it.
func (h *DocumentHandler) Upload(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		pkghttp.WriteErrorPT(w, http.StatusUnauthorized, "Autenticação necessária.")
		return
	}

	var req services.UploadDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteErrorPT(w, http.StatusBadRequest, "Corpo da requisição inválido.")
		return
	}

	if err := ValidateRequestPT(req); err != nil {
		pkghttp.WriteErrorPT(w, http.StatusBadRequest, err.Error())
		return
	}

	doc, err := h.service.Upload(r.Context(), principal.ID, req)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"sucesso":   true,
		"mensagem":  "Documento enviado com sucesso.",
		"documento": doc.Summary(),
	})
}

// ListMine lists the authenticated student's active documents without payloads
func (h *DocumentHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		pkghttp.WriteErrorPT(w, http.StatusUnauthorized, "Autenticação necessária.")
		return
	}

	docs, err := h.service.ListByStudent(r.Context(), principal.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"sucesso":    true,
		"documentos": docs,
	})
}

// ListByStudent lists a student's active documents. Staff only.
func (h *DocumentHandler) ListByStudent(w http.ResponseWriter, r *http.Request) {
	docs, err := h.service.ListByStudent(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"sucesso":    true,
		"documentos": docs,
	})
}

// Get returns a document including its payload. Staff only.
func (h *DocumentHandler) Get(w http.ResponseWriter, r *http.Request) {
	doc, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"sucesso":   true,
		"documento": newDocumentResponse(doc),
	})
}

// Review approves or rejects a document. Staff only. Rejection requires a
// reason; rejecting clears the student's delivery flag.
func (h *DocumentHandler) Review(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		pkghttp.WriteErrorPT(w, http.StatusUnauthorized, "Autenticação necessária.")
		return
	}

	var req ReviewDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteErrorPT(w, http.StatusBadRequest, "Corpo da requisição inválido.")
		return
	}

	if err := ValidateRequestPT(req); err != nil {
		pkghttp.WriteErrorPT(w, http.StatusBadRequest, err.Error())
		return
	}

	doc, err := h.service.Review(r.Context(), chi.URLParam(r, "id"), req.Status, req.Motivo, principal.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"sucesso":   true,
		"mensagem":  "Documento revisado com sucesso.",
		"documento": doc.Summary(),
	})
}

// Delete deactivates a document. Staff only.
func (h *DocumentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"sucesso":  true,
		"mensagem": "Documento removido com sucesso.",
	})
}
