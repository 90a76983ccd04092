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

// CardServiceInterface defines the member card business logic
type CardServiceInterface interface {
	Issue(ctx context.Context, studentID string, emergency *models.EmergencyContact) (*models.MemberCard, error)
	GetByStudent(ctx context.Context, studentID string) (*models.MemberCard, error)
	Sync(ctx context.Context, studentID string) (*models.MemberCard, error)
	Renew(ctx context.Context, studentID string) (*models.MemberCard, error)
	UpdateStatus(ctx context.Context, studentID, status string) (*models.MemberCard, error)
	Validate(ctx context.Context, number string) (*services.CardValidationResponse, error)
}

// CardHandler handles student ID card (carteirinha) endpoints
type CardHandler struct {
	service CardServiceInterface
}

// NewCardHandler creates a new CardHandler
func NewCardHandler(service CardServiceInterface) *CardHandler {
	return &CardHandler{service: service}
}

// IssueCardRequest carries the optional emergency contact printed on the card
type IssueCardRequest struct {
	ContatoEmergencia *models.EmergencyContact `json:"contatoEmergencia"`
}

// UpdateCardStatusRequest represents a staff card status change
type UpdateCardStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=Ativa Cancelada Suspensa"`
}

// CardResponse is the full card shape returned to students and staff
type CardResponse struct {
	ID                string                   `json:"id"`
	Numero            string                   `json:"numero"`
	Foto              string                   `json:"foto,omitempty"`
	NomeCompleto      string                   `json:"nomeCompleto"`
	DataNascimento    string                   `json:"dataNascimento"`
	CPF               string                   `json:"cpf"`
	RG                string                   `json:"rg,omitempty"`
	TipoSanguineo     string                   `json:"tipoSanguineo,omitempty"`
	NumeroMatricula   string                   `json:"numeroMatricula"`
	DataEmissao       time.Time                `json:"dataEmissao"`
	DataValidade      time.Time                `json:"dataValidade"`
	ContatoEmergencia *models.EmergencyContact `json:"contatoEmergencia,omitempty"`
	QRCode            string                   `json:"qrCode"`
	Status            string                   `json:"status"`
	Versao            int                      `json:"versao"`
}

func newCardResponse(card *models.MemberCard) *CardResponse {
	return &CardResponse{
		ID:                card.ID,
		Numero:            card.Number,
		Foto:              card.Photo,
		NomeCompleto:      card.FullName,
		DataNascimento:    card.BirthDate.Format("2006-01-02"),
		CPF:               card.CPF,
		RG:                card.RG,
		TipoSanguineo:     card.BloodType,
		NumeroMatricula:   card.EnrollmentNo,
		DataEmissao:       card.IssuedAt,
		DataValidade:      card.ValidUntil,
		ContatoEmergencia: card.Emergency,
		QRCode:            card.QRCode,
		Status:            card.Status,
		Versao:            card.Version,
	}
}

// Mine returns the authenticated student's card
func (h *CardHandler) Mine(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		pkghttp.WriteErrorPT(w, http.StatusUnauthorized, "Autenticação necessária.")
		return
	}

	card, err := h.service.GetByStudent(r.Context(), principal.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"sucesso":     true,
		"carteirinha": newCardResponse(card),
	})
}

// Issue creates a card for an enrolled student. Staff only.
func (h *CardHandler) Issue(w http.ResponseWriter, r *http.Request) {
	var req IssueCardRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			pkghttp.WriteErrorPT(w, http.StatusBadRequest, "Corpo da requisição inválido.")
			return
		}
	}

	card, err := h.service.Issue(r.Context(), chi.URLParam(r, "id"), req.ContatoEmergencia)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"sucesso":     true,
		"mensagem":    "Carteirinha emitida com sucesso.",
		"carteirinha": newCardResponse(card),
	})
}

// Get returns a student's card. Staff only.
func (h *CardHandler) Get(w http.ResponseWriter, r *http.Request) {
	card, err := h.service.GetByStudent(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"sucesso":     true,
		"carteirinha": newCardResponse(card),
	})
}

// Sync refreshes the card snapshot from the student record. Staff only.
func (h *CardHandler) Sync(w http.ResponseWriter, r *http.Request) {
	card, err := h.service.Sync(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"sucesso":     true,
		"mensagem":    "Carteirinha sincronizada com sucesso.",
		"carteirinha": newCardResponse(card),
	})
}

// Renew extends a card's validity for a new period. Staff only.
func (h *CardHandler) Renew(w http.ResponseWriter, r *http.Request) {
	card, err := h.service.Renew(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"sucesso":     true,
		"mensagem":    "Carteirinha renovada com sucesso.",
		"carteirinha": newCardResponse(card),
	})
}

// UpdateStatus changes a card's status. Staff only.
func (h *CardHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req UpdateCardStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteErrorPT(w, http.StatusBadRequest, "Corpo da requisição inválido.")
		return
	}

	if err := ValidateRequestPT(req); err != nil {
		pkghttp.WriteErrorPT(w, http.StatusBadRequest, err.Error())
		return
	}

	card, err := h.service.UpdateStatus(r.Context(), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"sucesso":     true,
		"mensagem":    "Status da carteirinha atualizado.",
		"carteirinha": newCardResponse(card),
	})
}

// Validate is the public endpoint behind the card's QR code. It confirms
// whether a card number is currently valid without requiring a session.
func (h *CardHandler) Validate(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.Validate(r.Context(), chi.URLParam(r, "numero"))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"sucesso":   true,
		"validacao": result,
	})
}
