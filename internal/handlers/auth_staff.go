package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/escola-solidaria/solidaria-api/internal/auth"
	"github.com/escola-solidaria/solidaria-api/internal/services"
	pkghttp "github.com/escola-solidaria/solidaria-api/pkg/http"
)

// StaffAuthServiceInterface defines the staff auth business logic
type StaffAuthServiceInterface interface {
	Login(ctx context.Context, email, password, ipAddress string) (string, *services.StaffUserResponse, error)
	Me(ctx context.Context, id string) (*services.StaffUserResponse, error)
	UpdateProfile(ctx context.Context, id string, req services.UpdateProfileRequest) (*services.StaffUserResponse, error)
}

// StaffAuthHandler handles the staff panel authentication endpoints.
// Responses use the English envelope.
type StaffAuthHandler struct {
	service      StaffAuthServiceInterface
	tokenTTL     time.Duration
	secureCookie bool
}

// NewStaffAuthHandler creates a new StaffAuthHandler
func NewStaffAuthHandler(service StaffAuthServiceInterface, tokenTTL time.Duration, secureCookie bool) *StaffAuthHandler {
	return &StaffAuthHandler{
		service:      service,
		tokenTTL:     tokenTTL,
		secureCookie: secureCookie,
	}
}

// StaffLoginRequest represents the request body for staff login
type StaffLoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Login authenticates a staff user by email and password
func (h *StaffAuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req StaffLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	ipAddress := pkghttp.ClientIP(r)

	token, user, err := h.service.Login(r.Context(), req.Email, req.Password, ipAddress)
	if err != nil {
		writeStaffError(w, err)
		return
	}

	auth.SetTokenCookie(w, token, h.tokenTTL, h.secureCookie)

	pkghttp.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"token":   token,
		"user":    user,
	})
}

// Me returns the authenticated staff user's profile
func (h *StaffAuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		pkghttp.WriteError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	user, err := h.service.Me(r.Context(), principal.ID)
	if err != nil {
		writeStaffError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"user":    user,
	})
}

// Logout clears the session cookie
func (h *StaffAuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	auth.ClearTokenCookie(w, h.secureCookie)
	pkghttp.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Logged out",
	})
}

// UpdateProfile updates the authenticated staff user's name, avatar and
// optionally the password
func (h *StaffAuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		pkghttp.WriteError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req services.UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.service.UpdateProfile(r.Context(), principal.ID, req)
	if err != nil {
		writeStaffError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"user":    user,
	})
}
