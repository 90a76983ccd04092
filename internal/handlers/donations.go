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

// DonationServiceInterface defines the revenue ledger business logic
type DonationServiceInterface interface {
	Create(ctx context.Context, req services.DonationRequest, createdBy string) (*models.Donation, error)
	Update(ctx context.Context, id string, req services.DonationRequest, updatedBy string) (*models.Donation, error)
	Get(ctx context.Context, id string) (*models.Donation, error)
	List(ctx context.Context, filter repositories.DonationFilter) (*services.DonationListResponse, error)
	ListPublic(ctx context.Context, filter repositories.DonationFilter) (*services.DonationListResponse, error)
	GetPublic(ctx context.Context, id string, includeHidden bool) (*models.Donation, error)
	Delete(ctx context.Context, id string) error
	Summary(ctx context.Context, year int) (*services.DonationSummaryResponse, error)
}

// DonationHandler handles the revenue (receitas) ledger endpoints
type DonationHandler struct {
	service DonationServiceInterface
}

// NewDonationHandler creates a new DonationHandler
func NewDonationHandler(service DonationServiceInterface) *DonationHandler {
	return &DonationHandler{service: service}
}

func donationFilterFromQuery(r *http.Request) repositories.DonationFilter {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))
	year, _ := strconv.Atoi(q.Get("ano"))

	return repositories.DonationFilter{
		Category: q.Get("categoria"),
		Status:   q.Get("status"),
		Year:     year,
		Limit:    limit,
		Offset:   offset,
	}
}

// ListPublic returns confirmed, visible entries for the transparency page.
// No authentication required.
func (h *DonationHandler) ListPublic(w http.ResponseWriter, r *http.Request) {
	resp, err := h.service.ListPublic(r.Context(), donationFilterFromQuery(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, resp)
}

// Summary returns the transparency page aggregates for a year. No
// authentication required.
func (h *DonationHandler) Summary(w http.ResponseWriter, r *http.Request) {
	year, _ := strconv.Atoi(r.URL.Query().Get("ano"))

	resp, err := h.service.Summary(r.Context(), year)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, resp)
}

// GetDetail returns a single transparency page entry. The route carries
// optional staff authentication: a staff session also sees hidden and
// unconfirmed records, anyone else gets 404 for those.
func (h *DonationHandler) GetDetail(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.PrincipalFromContext(r.Context())
	includeHidden := ok && principal.Kind == auth.KindStaff

	donation, err := h.service.GetPublic(r.Context(), chi.URLParam(r, "id"), includeHidden)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"sucesso": true,
		"receita": donation,
	})
}

// List returns entries regardless of visibility or status. Staff only.
func (h *DonationHandler) List(w http.ResponseWriter, r *http.Request) {
	resp, err := h.service.List(r.Context(), donationFilterFromQuery(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, resp)
}

// Get returns a single entry. Staff only.
func (h *DonationHandler) Get(w http.ResponseWriter, r *http.Request) {
	donation, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"sucesso": true,
		"receita": donation,
	})
}

// Create records a new revenue entry. Staff only.
func (h *DonationHandler) Create(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		pkghttp.WriteErrorPT(w, http.StatusUnauthorized, "Autenticação necessária.")
		return
	}

	var req services.DonationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteErrorPT(w, http.StatusBadRequest, "Corpo da requisição inválido.")
		return
	}

	if err := ValidateRequestPT(req); err != nil {
		pkghttp.WriteErrorPT(w, http.StatusBadRequest, err.Error())
		return
	}

	donation, err := h.service.Create(r.Context(), req, principal.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"sucesso":  true,
		"mensagem": "Receita registrada com sucesso.",
		"receita":  donation,
	})
}

// Update modifies an existing entry. Staff only.
func (h *DonationHandler) Update(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		pkghttp.WriteErrorPT(w, http.StatusUnauthorized, "Autenticação necessária.")
		return
	}

	var req services.DonationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteErrorPT(w, http.StatusBadRequest, "Corpo da requisição inválido.")
		return
	}

	if err := ValidateRequestPT(req); err != nil {
		pkghttp.WriteErrorPT(w, http.StatusBadRequest, err.Error())
		return
	}

	donation, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), req, principal.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"sucesso":  true,
		"mensagem": "Receita atualizada com sucesso.",
		"receita":  donation,
	})
}

// Delete removes an entry from the ledger. Admin only.
func (h *DonationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"sucesso":  true,
		"mensagem": "Receita removida com sucesso.",
	})
}
