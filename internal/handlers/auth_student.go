package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/escola-solidaria/solidaria-api/internal/auth"
	"github.com/escola-solidaria/solidaria-api/internal/services"
	pkghttp "github.com/escola-solidaria/solidaria-api/pkg/http"
)

// StudentAuthServiceInterface defines the student auth business logic
type StudentAuthServiceInterface interface {
	Login(ctx context.Context, handle, password, ipAddress string) (string, *services.StudentSessionResponse, error)
	Me(ctx context.Context, id string) (*services.StudentSessionResponse, error)
	ChangePassword(ctx context.Context, id, currentPassword, newPassword string) error
	Register(ctx context.Context, req services.RegisterStudentRequest) (*services.StudentSessionResponse, error)
	ResetPassword(ctx context.Context, targetID, newPassword string) (string, error)
}

// StudentAuthHandler handles the student (aluno) authentication endpoints.
// All responses use the legacy Portuguese envelope.
type StudentAuthHandler struct {
	service      StudentAuthServiceInterface
	tokenTTL     time.Duration
	secureCookie bool
}

// NewStudentAuthHandler creates a new StudentAuthHandler
func NewStudentAuthHandler(service StudentAuthServiceInterface, tokenTTL time.Duration, secureCookie bool) *StudentAuthHandler {
	return &StudentAuthHandler{
		service:      service,
		tokenTTL:     tokenTTL,
		secureCookie: secureCookie,
	}
}

// StudentLoginRequest represents the request body for student login
type StudentLoginRequest struct {
	Usuario string `json:"usuario" validate:"required"`
	Senha   string `json:"senha" validate:"required"`
}

// ChangePasswordRequest represents the request body for a password change
type ChangePasswordRequest struct {
	SenhaAtual string `json:"senhaAtual" validate:"required"`
	NovaSenha  string `json:"novaSenha" validate:"required,min=6"`
}

// ResetPasswordRequest represents the admin-initiated password reset body.
// NovaSenha is optional; when absent a temporary password is generated.
type ResetPasswordRequest struct {
	NovaSenha string `json:"novaSenha" validate:"omitempty,min=6"`
}

// Login authenticates a student by handle and password. On success the token
// is returned in the body and also set as an httpOnly cookie.
func (h *StudentAuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req StudentLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteErrorPT(w, http.StatusBadRequest, "Corpo da requisição inválido.")
		return
	}

	if err := ValidateRequestPT(req); err != nil {
		pkghttp.WriteErrorPT(w, http.StatusBadRequest, err.Error())
		return
	}

	req.Usuario = strings.ToLower(strings.TrimSpace(req.Usuario))
	ipAddress := pkghttp.ClientIP(r)

	token, session, err := h.service.Login(r.Context(), req.Usuario, req.Senha, ipAddress)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	auth.SetTokenCookie(w, token, h.tokenTTL, h.secureCookie)

	pkghttp.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"sucesso":  true,
		"mensagem": "Login realizado com sucesso.",
		"token":    token,
		"aluno":    session,
	})
}

// Me returns the profile of the authenticated student
func (h *StudentAuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		pkghttp.WriteErrorPT(w, http.StatusUnauthorized, "Autenticação necessária.")
		return
	}

	session, err := h.service.Me(r.Context(), principal.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"sucesso": true,
		"aluno":   session,
	})
}

// Logout clears the session cookie. Tokens are stateless, so the client is
// expected to discard its copy as well.
func (h *StudentAuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	auth.ClearTokenCookie(w, h.secureCookie)
	pkghttp.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"sucesso":  true,
		"mensagem": "Logout realizado com sucesso.",
	})
}

// ChangePassword lets the authenticated student change their own password
func (h *StudentAuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		pkghttp.WriteErrorPT(w, http.StatusUnauthorized, "Autenticação necessária.")
		return
	}

	var req ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteErrorPT(w, http.StatusBadRequest, "Corpo da requisição inválido.")
		return
	}

	if err := ValidateRequestPT(req); err != nil {
		pkghttp.WriteErrorPT(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.service.ChangePassword(r.Context(), principal.ID, req.SenhaAtual, req.NovaSenha); err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"sucesso":  true,
		"mensagem": "Senha alterada com sucesso.",
	})
}

// Register creates a new student account. Admin only.
func (h *StudentAuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req services.RegisterStudentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteErrorPT(w, http.StatusBadRequest, "Corpo da requisição inválido.")
		return
	}

	if err := ValidateRequestPT(req); err != nil {
		pkghttp.WriteErrorPT(w, http.StatusBadRequest, err.Error())
		return
	}

	session, err := h.service.Register(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"sucesso":  true,
		"mensagem": "Aluno cadastrado com sucesso.",
		"aluno":    session,
	})
}

// ResetPassword sets a new password for the given student. Admin only. The
// new (or generated temporary) password is returned once in the response so
// it can be handed to the student.
func (h *StudentAuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	targetID := chi.URLParam(r, "id")

	var req ResetPasswordRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			pkghttp.WriteErrorPT(w, http.StatusBadRequest, "Corpo da requisição inválido.")
			return
		}
		if err := ValidateRequestPT(req); err != nil {
			pkghttp.WriteErrorPT(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	password, err := h.service.ResetPassword(r.Context(), targetID, req.NovaSenha)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"sucesso":   true,
		"mensagem":  "Senha redefinida com sucesso.",
		"novaSenha": password,
	})
}
