package models

import (
	"time"
)

// Student statuses follow the enrollment lifecycle used by the admin panel.
const (
	StudentStatusPreEnrollment = "Pré-Matrícula"
	StudentStatusEnrolled      = "Matriculado"
	StudentStatusInactive      = "Inativo"
	StudentStatusCancelled     = "Cancelado"
)

// Roles of the student-facing user base. A handful of staff members log in
// through the same table with the admin role.
const (
	RoleStudent = "aluno"
	RoleAdmin   = "admin"
	RoleEditor  = "editor"
)

// Address is stored as a JSONB column on the student record.
type Address struct {
	CEP         string `json:"cep,omitempty"`
	Logradouro  string `json:"logradouro,omitempty"`
	Numero      string `json:"numero,omitempty"`
	Complemento string `json:"complemento,omitempty"`
	Bairro      string `json:"bairro,omitempty"`
	Cidade      string `json:"cidade,omitempty"`
	Estado      string `json:"estado,omitempty"`
}

// Guardian holds the responsible adult for underage students.
type Guardian struct {
	Nome       string `json:"nome,omitempty"`
	CPF        string `json:"cpf,omitempty"`
	Parentesco string `json:"parentesco,omitempty"`
	Telefone   string `json:"telefone,omitempty"`
	Email      string `json:"email,omitempty"`
}

// Student is the unified student/admin account record (variant A of the two
// account systems). Handle is the login name, unique and lowercase.
type Student struct {
	ID             string
	Handle         string
	PasswordHash   string // never serialized to clients
	FullName       string
	CPF            string
	RG             string
	BirthDate      time.Time
	Sex            string
	EnrollmentNo   string // generated, unique; empty until assigned
	EnrolledAt     *time.Time
	Status         string
	Email          string
	Phone          string
	Mobile         string
	Address        *Address
	PhotoURL       string
	BloodType      string
	Guardian       *Guardian
	FormFilled     bool // enrollment form submitted
	DocsSubmitted  bool // required documents all present
	Role           string
	Active         bool
	FirstLogin     bool // set on creation and on admin password reset
	FailedAttempts int
	LockedUntil    *time.Time
	LastLogin      *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Locked reports whether the account lock is still in effect at now.
func (s *Student) Locked(now time.Time) bool {
	return s.LockedUntil != nil && now.Before(*s.LockedUntil)
}
