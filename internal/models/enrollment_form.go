package models

import "time"

// EnrollmentForm (ficha de pré-matrícula) carries the complementary data
// collected after account creation. The free-form fields live in a JSONB
// payload; only the keys the admin panel filters on are first-class columns.
type EnrollmentForm struct {
	ID        string                 `json:"id"`
	StudentID string                 `json:"alunoId"`
	Payload   map[string]interface{} `json:"dados"`
	CreatedAt time.Time              `json:"criadoEm"`
	UpdatedAt time.Time              `json:"atualizadoEm"`
}
