// Package http holds the JSON response envelopes shared by every handler.
// The student-facing API predates the staff panel and speaks Portuguese
// field names (sucesso/mensagem); the staff API uses English ones. Both
// front-ends depend on their respective shapes, so the divergence is kept.
package http

import (
	"encoding/json"
	"net/http"
)

// ErrorResponse is the failure envelope of the staff API.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// ErrorResponsePT is the failure envelope of the student (aluno) API.
type ErrorResponsePT struct {
	Sucesso  bool   `json:"sucesso"`
	Mensagem string `json:"mensagem"`
	Erro     string `json:"erro,omitempty"`
}

// WriteJSON writes v as a JSON body with the given status code.
func WriteJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	// Encoding errors can't be reported to the client at this point
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError writes a staff-API failure envelope.
func WriteError(w http.ResponseWriter, statusCode int, message string) {
	WriteErrorDetail(w, statusCode, message, "")
}

// WriteErrorDetail writes a staff-API failure envelope with optional detail.
// Detail is only populated in development mode by the callers.
func WriteErrorDetail(w http.ResponseWriter, statusCode int, message, detail string) {
	WriteJSON(w, statusCode, ErrorResponse{Success: false, Message: message, Error: detail})
}

// WriteErrorPT writes a student-API failure envelope.
func WriteErrorPT(w http.ResponseWriter, statusCode int, message string) {
	WriteErrorDetailPT(w, statusCode, message, "")
}

// WriteErrorDetailPT writes a student-API failure envelope with optional detail.
func WriteErrorDetailPT(w http.ResponseWriter, statusCode int, message, detail string) {
	WriteJSON(w, statusCode, ErrorResponsePT{Sucesso: false, Mensagem: message, Erro: detail})
}
