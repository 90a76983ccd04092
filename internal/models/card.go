package models

import "time"

// Member card statuses.
const (
	CardStatusActive    = "Ativa"
	CardStatusExpired   = "Vencida"
	CardStatusCancelled = "Cancelada"
	CardStatusSuspended = "Suspensa"
)

// CardValidity is how long a freshly issued card is valid.
const CardValidity = 365 * 24 * time.Hour

// EmergencyContact is printed on the back of the card. Stored as JSONB.
type EmergencyContact struct {
	Nome     string `json:"nome,omitempty"`
	Telefone string `json:"telefone,omitempty"`
}

// MemberCard is the student ID card (carteirinha). Personal fields are
// snapshots synced from the student record; Version counts re-syncs.
type MemberCard struct {
	ID           string
	StudentID    string
	Number       string // generated, CART<year><5 digits>
	Photo        string // base64
	FullName     string
	BirthDate    time.Time
	CPF          string
	RG           string
	BloodType    string
	EnrollmentNo string
	IssuedAt     time.Time
	ValidUntil   time.Time
	Emergency    *EmergencyContact
	QRCode       string // base64 PNG encoding the validation payload
	Status       string
	Version      int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CardSummary is the shape embedded in student profile responses.
type CardSummary struct {
	Number     string    `json:"numero"`
	IssuedAt   time.Time `json:"dataEmissao"`
	ValidUntil time.Time `json:"dataValidade"`
	Status     string    `json:"status"`
}
