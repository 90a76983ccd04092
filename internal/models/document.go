package models

import "time"

// Document types accepted during enrollment.
const (
	DocumentTypeRG               = "RG"
	DocumentTypeCPF              = "CPF"
	DocumentTypeBirthCertificate = "Certidão de Nascimento"
	DocumentTypeProofOfAddress   = "Comprovante de Residência"
	DocumentTypeSchoolRecords    = "Histórico Escolar"
	DocumentTypePhoto            = "Foto 3x4"
	DocumentTypeSchoolStatement  = "Declaração de Escolaridade"
	DocumentTypeMedicalNote      = "Atestado Médico"
	DocumentTypeVaccineCard      = "Cartão de Vacina"
	DocumentTypeOther            = "Outro"
)

// Document review statuses.
const (
	DocumentStatusPending  = "Pendente"
	DocumentStatusApproved = "Aprovado"
	DocumentStatusRejected = "Rejeitado"
	DocumentStatusReplaced = "Substituído"
)

// MaxDocumentSize limits uploaded document payloads to 5MB.
const MaxDocumentSize = 5 * 1024 * 1024

// DocumentTypes lists every accepted type, used for request validation.
var DocumentTypes = []string{
	DocumentTypeRG, DocumentTypeCPF, DocumentTypeBirthCertificate,
	DocumentTypeProofOfAddress, DocumentTypeSchoolRecords, DocumentTypePhoto,
	DocumentTypeSchoolStatement, DocumentTypeMedicalNote,
	DocumentTypeVaccineCard, DocumentTypeOther,
}

// RequiredDocumentTypes must all be present (and active) before a student's
// DocsSubmitted flag flips to true.
var RequiredDocumentTypes = []string{
	DocumentTypeRG, DocumentTypeCPF, DocumentTypeProofOfAddress, DocumentTypePhoto,
}

// Document is an enrollment document uploaded by or for a student. The file
// itself is stored inline as base64 (small scans and photos only).
type Document struct {
	ID              string
	StudentID       string
	Type            string
	Name            string
	Description     string
	Data            string // base64 payload
	MimeType        string // image/jpeg, image/png or application/pdf
	Size            int64
	Status          string
	RejectionReason string
	ReviewedBy      string
	ReviewedAt      *time.Time
	Active          bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// DocumentSummary is the listing shape returned alongside a student profile;
// it deliberately omits the payload.
type DocumentSummary struct {
	ID        string    `json:"id"`
	Type      string    `json:"tipo"`
	Name      string    `json:"nome"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"criadoEm"`
}

// Summary converts a document to its payload-free listing shape.
func (d *Document) Summary() DocumentSummary {
	return DocumentSummary{
		ID:        d.ID,
		Type:      d.Type,
		Name:      d.Name,
		Status:    d.Status,
		CreatedAt: d.CreatedAt,
	}
}
