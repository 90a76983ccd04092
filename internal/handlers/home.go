package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/escola-solidaria/solidaria-api/internal/auth"
	"github.com/escola-solidaria/solidaria-api/internal/models"
	pkghttp "github.com/escola-solidaria/solidaria-api/pkg/http"
)

// HomeServiceInterface defines the homepage content business logic
type HomeServiceInterface interface {
	GetPublic(ctx context.Context) (*models.HomeContent, error)
	Get(ctx context.Context) (*models.HomeContent, error)
	Update(ctx context.Context, incoming *models.HomeContent) (*models.HomeContent, error)
	UpdateSection(ctx context.Context, section string, payload json.RawMessage) (*models.HomeContent, error)
	Publish(ctx context.Context, publishedBy string) (*models.HomeContent, error)
}

// HomeHandler handles the homepage content endpoints. The staff panel editor
// speaks the English envelope; the public GET returns the raw document.
type HomeHandler struct {
	service HomeServiceInterface
}

// NewHomeHandler creates a new HomeHandler
func NewHomeHandler(service HomeServiceInterface) *HomeHandler {
	return &HomeHandler{service: service}
}

// GetPublic serves the homepage document. No authentication required; reads
// go through the cache.
func (h *HomeHandler) GetPublic(w http.ResponseWriter, r *http.Request) {
	content, err := h.service.GetPublic(r.Context())
	if err != nil {
		writeStaffError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, content)
}

// Get serves the editor's working copy, bypassing the cache. Editor only.
func (h *HomeHandler) Get(w http.ResponseWriter, r *http.Request) {
	content, err := h.service.Get(r.Context())
	if err != nil {
		writeStaffError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"content": content,
	})
}

// Update replaces the whole homepage document. Editor only.
func (h *HomeHandler) Update(w http.ResponseWriter, r *http.Request) {
	var incoming models.HomeContent
	if err := json.NewDecoder(r.Body).Decode(&incoming); err != nil {
		pkghttp.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	content, err := h.service.Update(r.Context(), &incoming)
	if err != nil {
		writeStaffError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"content": content,
	})
}

// UpdateSection patches a single section of the document. Editor only. The
// section name comes from the URL and the body is the section payload.
func (h *HomeHandler) UpdateSection(w http.ResponseWriter, r *http.Request) {
	var payload json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		pkghttp.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	content, err := h.service.UpdateSection(r.Context(), chi.URLParam(r, "section"), payload)
	if err != nil {
		writeStaffError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"content": content,
	})
}

// Publish marks the current document as published. Editor only.
func (h *HomeHandler) Publish(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		pkghttp.WriteError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	content, err := h.service.Publish(r.Context(), principal.ID)
	if err != nil {
		writeStaffError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"content": content,
	})
}
