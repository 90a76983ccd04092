package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/escola-solidaria/solidaria-api/internal/models"
	pkghttp "github.com/escola-solidaria/solidaria-api/pkg/http"
)

// writeServiceError maps service sentinel errors to HTTP responses in the
// legacy Portuguese envelope used by the student-facing API.
func writeServiceError(w http.ResponseWriter, err error) {
	var locked *models.AccountLockedError
	switch {
	case errors.As(err, &locked):
		pkghttp.WriteErrorPT(w, http.StatusLocked,
			fmt.Sprintf("Conta bloqueada. Tente novamente em %d minutos.", locked.RetryAfterMinutes()))
	case errors.Is(err, models.ErrUnauthorized):
		pkghttp.WriteErrorPT(w, http.StatusUnauthorized, "Usuário ou senha inválidos.")
	case errors.Is(err, models.ErrAccountDisabled):
		pkghttp.WriteErrorPT(w, http.StatusForbidden, "Conta desativada. Entre em contato com o administrador.")
	case errors.Is(err, models.ErrForbidden):
		pkghttp.WriteErrorPT(w, http.StatusForbidden, "Acesso negado.")
	case errors.Is(err, models.ErrNotFound):
		pkghttp.WriteErrorPT(w, http.StatusNotFound, "Registro não encontrado.")
	case errors.Is(err, models.ErrConflict):
		pkghttp.WriteErrorPT(w, http.StatusConflict, "Registro já existe.")
	case errors.Is(err, models.ErrBadRequest):
		pkghttp.WriteErrorPT(w, http.StatusBadRequest, "Dados inválidos.")
	default:
		pkghttp.WriteErrorPT(w, http.StatusInternalServerError, "Erro interno do servidor.")
	}
}

// writeStaffError is the English-envelope counterpart for the staff API.
func writeStaffError(w http.ResponseWriter, err error) {
	var locked *models.AccountLockedError
	switch {
	case errors.As(err, &locked):
		pkghttp.WriteError(w, http.StatusLocked,
			fmt.Sprintf("Account locked. Try again in %d minutes.", locked.RetryAfterMinutes()))
	case errors.Is(err, models.ErrUnauthorized):
		pkghttp.WriteError(w, http.StatusUnauthorized, "Invalid credentials")
	case errors.Is(err, models.ErrAccountDisabled):
		pkghttp.WriteError(w, http.StatusForbidden, "Account is disabled")
	case errors.Is(err, models.ErrForbidden):
		pkghttp.WriteError(w, http.StatusForbidden, "Forbidden")
	case errors.Is(err, models.ErrNotFound):
		pkghttp.WriteError(w, http.StatusNotFound, "Resource not found")
	case errors.Is(err, models.ErrConflict):
		pkghttp.WriteError(w, http.StatusConflict, "Resource already exists")
	case errors.Is(err, models.ErrBadRequest):
		pkghttp.WriteError(w, http.StatusBadRequest, "Invalid request")
	default:
		pkghttp.WriteError(w, http.StatusInternalServerError, "Internal server error")
	}
}
