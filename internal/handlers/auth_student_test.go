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

	"github.com/escola-solidaria/solidaria-api/internal/auth"
	"github.com/escola-solidaria/solidaria-api/internal/models"
	"github.com/escola-solidaria/solidaria-api/internal/services"
)

func TestStudentAuthHandler_Login_Success(t *testing.T) {
	service := &MockStudentAuthService{
		LoginFunc: func(ctx context.Context, handle, password, ipAddress string) (string, *services.StudentSessionResponse, error) {
			assert.Equal(t, "joao.silva", handle)
			return "token-123", &services.StudentSessionResponse{ID: "s1", Usuario: "joao.silva"}, nil
		},
	}
	handler := NewStudentAuthHandler(service, 7*24*time.Hour, false)

	req := newTestRequest(t, http.MethodPost, "/api/autenticacao/login", map[string]string{
		"usuario": "Joao.Silva",
		"senha":   "senha123",
	})
	rec := httptest.NewRecorder()
	handler.Login(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["sucesso"])
	assert.Equal(t, "token-123", body["token"])

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, auth.TokenCookieName, cookies[0].Name)
	assert.Equal(t, "token-123", cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)
}

func TestStudentAuthHandler_Login_Locked(t *testing.T) {
	service := &MockStudentAuthService{
		LoginFunc: func(ctx context.Context, handle, password, ipAddress string) (string, *services.StudentSessionResponse, error) {
			return "", nil, &models.AccountLockedError{RetryAfter: 15 * time.Minute}
		},
	}
	handler := NewStudentAuthHandler(service, time.Hour, false)

	req := newTestRequest(t, http.MethodPost, "/api/autenticacao/login", map[string]string{
		"usuario": "joao.silva",
		"senha":   "errada",
	})
	rec := httptest.NewRecorder()
	handler.Login(rec, req)

	assert.Equal(t, http.StatusLocked, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, false, body["sucesso"])
	assert.Contains(t, body["mensagem"], "15 minutos")
}

func TestStudentAuthHandler_Login_WrongPassword(t *testing.T) {
	handler := NewStudentAuthHandler(&MockStudentAuthService{}, time.Hour, false)

	req := newTestRequest(t, http.MethodPost, "/api/autenticacao/login", map[string]string{
		"usuario": "joao.silva",
		"senha":   "errada",
	})
	rec := httptest.NewRecorder()
	handler.Login(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "Usuário ou senha inválidos.", body["mensagem"])
}

func TestStudentAuthHandler_Login_MissingFields(t *testing.T) {
	handler := NewStudentAuthHandler(&MockStudentAuthService{}, time.Hour, false)

	req := newTestRequest(t, http.MethodPost, "/api/autenticacao/login", map[string]string{
		"usuario": "joao.silva",
	})
	rec := httptest.NewRecorder()
	handler.Login(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStudentAuthHandler_Me(t *testing.T) {
	service := &MockStudentAuthService{
		MeFunc: func(ctx context.Context, id string) (*services.StudentSessionResponse, error) {
			assert.Equal(t, "s1", id)
			return &services.StudentSessionResponse{ID: "s1", Usuario: "joao.silva"}, nil
		},
	}
	handler := NewStudentAuthHandler(service, time.Hour, false)

	req := withStudentPrincipal(newTestRequest(t, http.MethodGet, "/api/autenticacao/eu", nil), "s1")
	rec := httptest.NewRecorder()
	handler.Me(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	aluno := body["aluno"].(map[string]interface{})
	assert.Equal(t, "joao.silva", aluno["usuario"])
}

func TestStudentAuthHandler_Me_NoSession(t *testing.T) {
	handler := NewStudentAuthHandler(&MockStudentAuthService{}, time.Hour, false)

	req := newTestRequest(t, http.MethodGet, "/api/autenticacao/eu", nil)
	rec := httptest.NewRecorder()
	handler.Me(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestStudentAuthHandler_Logout_ClearsCookie(t *testing.T) {
	handler := NewStudentAuthHandler(&MockStudentAuthService{}, time.Hour, false)

	req := newTestRequest(t, http.MethodPost, "/api/autenticacao/logout", nil)
	rec := httptest.NewRecorder()
	handler.Logout(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "none", cookies[0].Value)
}

func TestStudentAuthHandler_ChangePassword(t *testing.T) {
	var gotCurrent, gotNew string
	service := &MockStudentAuthService{
		ChangePasswordFunc: func(ctx context.Context, id, currentPassword, newPassword string) error {
			gotCurrent, gotNew = currentPassword, newPassword
			return nil
		},
	}
	handler := NewStudentAuthHandler(service, time.Hour, false)

	req := withStudentPrincipal(newTestRequest(t, http.MethodPost, "/api/autenticacao/trocar-senha", map[string]string{
		"senhaAtual": "antiga1",
		"novaSenha":  "nova123",
	}), "s1")
	rec := httptest.NewRecorder()
	handler.ChangePassword(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "antiga1", gotCurrent)
	assert.Equal(t, "nova123", gotNew)
}

func TestStudentAuthHandler_ChangePassword_TooShort(t *testing.T) {
	handler := NewStudentAuthHandler(&MockStudentAuthService{}, time.Hour, false)

	req := withStudentPrincipal(newTestRequest(t, http.MethodPost, "/api/autenticacao/trocar-senha", map[string]string{
		"senhaAtual": "antiga1",
		"novaSenha":  "curta",
	}), "s1")
	rec := httptest.NewRecorder()
	handler.ChangePassword(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStudentAuthHandler_ResetPassword_Generated(t *testing.T) {
	service := &MockStudentAuthService{
		ResetPasswordFunc: func(ctx context.Context, targetID, newPassword string) (string, error) {
			assert.Equal(t, "s1", targetID)
			assert.Empty(t, newPassword)
			return "X7kP2mQ9", nil
		},
	}
	handler := NewStudentAuthHandler(service, time.Hour, false)

	router := chi.NewRouter()
	router.Post("/api/autenticacao/resetar-senha/{id}", handler.ResetPassword)

	req := httptest.NewRequest(http.MethodPost, "/api/autenticacao/resetar-senha/s1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "X7kP2mQ9", body["novaSenha"])
}
