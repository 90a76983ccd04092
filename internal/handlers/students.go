package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/escola-solidaria/solidaria-api/internal/auth"
	"github.com/escola-solidaria/solidaria-api/internal/models"
	"github.com/escola-solidaria/solidaria-api/internal/repositories"
	"github.com/escola-solidaria/solidaria-api/internal/services"
	pkghttp "github.com/escola-solidaria/solidaria-api/pkg/http"
)

// StudentServiceInterface defines the student management business logic
type StudentServiceInterface interface {
	List(ctx context.Context, filter repositories.StudentFilter) (*services.StudentListResponse, error)
	Get(ctx context.Context, id string) (*services.StudentSessionResponse, error)
	Update(ctx context.Context, id string, req services.UpdateStudentRequest) (*services.StudentSessionResponse, error)
	Enroll(ctx context.Context, id string) (*services.StudentSessionResponse, error)
	Deactivate(ctx context.Context, id string) error
	Reactivate(ctx context.Context, id string) (*services.StudentSessionResponse, error)
	Stats(ctx context.Context) (*services.StudentStatsResponse, error)
	SubmitForm(ctx context.Context, studentID string, payload map[string]interface{}) (*models.EnrollmentForm, error)
	GetForm(ctx context.Context, studentID string) (*models.EnrollmentForm, error)
}

// StudentHandler handles student management and pre-enrollment form endpoints
type StudentHandler struct {
	service StudentServiceInterface
}

// NewStudentHandler creates a new StudentHandler
func NewStudentHandler(service StudentServiceInterface) *StudentHandler {
	return &StudentHandler{service: service}
}

// List returns a paginated student listing. Staff only.
func (h *StudentHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))

	filter := repositories.StudentFilter{
		Status: q.Get("status"),
		Search: q.Get("busca"),
		Limit:  limit,
		Offset: offset,
	}

	resp, err := h.service.List(r.Context(), filter)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, resp)
}

// Get returns a single student by id. Staff only.
func (h *StudentHandler) Get(w http.ResponseWriter, r *http.Request) {
	student, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"sucesso": true,
		"aluno":   student,
	})
}

// Update modifies a student's profile. Staff only. Empty fields keep their
// current values.
func (h *StudentHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req services.UpdateStudentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteErrorPT(w, http.StatusBadRequest, "Corpo da requisição inválido.")
		return
	}

	if err := ValidateRequestPT(req); err != nil {
		pkghttp.WriteErrorPT(w, http.StatusBadRequest, err.Error())
		return
	}

	student, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"sucesso":  true,
		"mensagem": "Aluno atualizado com sucesso.",
		"aluno":    student,
	})
}

// Enroll promotes a pre-enrolled student to enrolled, assigning an
// enrollment number. Staff only.
func (h *StudentHandler) Enroll(w http.ResponseWriter, r *http.Request) {
	student, err := h.service.Enroll(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"sucesso":  true,
		"mensagem": "Matrícula efetivada com sucesso.",
		"aluno":    student,
	})
}

// Deactivate disables a student account. Staff only.
func (h *StudentHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Deactivate(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"sucesso":  true,
		"mensagem": "Aluno desativado com sucesso.",
	})
}

// Reactivate re-enables a soft-deleted student account. Admin only.
func (h *StudentHandler) Reactivate(w http.ResponseWriter, r *http.Request) {
	student, err := h.service.Reactivate(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"sucesso":  true,
		"mensagem": "Aluno reativado com sucesso.",
		"aluno":    student,
	})
}

// Stats returns student body counts for the admin dashboard. Staff only.
func (h *StudentHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"sucesso":      true,
		"estatisticas": stats,
	})
}

// SubmitForm stores the authenticated student's pre-enrollment form
func (h *StudentHandler) SubmitForm(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		pkghttp.WriteErrorPT(w, http.StatusUnauthorized, "Autenticação necessária.")
		return
	}

	var payload map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		pkghttp.WriteErrorPT(w, http.StatusBadRequest, "Corpo da requisição inválido.")
		return
	}

	form, err := h.service.SubmitForm(r.Context(), principal.ID, payload)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"sucesso":  true,
		"mensagem": "Ficha de pré-matrícula enviada com sucesso.",
		"ficha":    form,
	})
}

// GetForm returns the authenticated student's pre-enrollment form
func (h *StudentHandler) GetForm(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		pkghttp.WriteErrorPT(w, http.StatusUnauthorized, "Autenticação necessária.")
		return
	}

	form, err := h.service.GetForm(r.Context(), principal.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"sucesso": true,
		"ficha":   form,
	})
}

// GetStudentForm returns a given student's pre-enrollment form. Staff only.
func (h *StudentHandler) GetStudentForm(w http.ResponseWriter, r *http.Request) {
	form, err := h.service.GetForm(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"sucesso": true,
		"ficha":   form,
	})
}
