package models

import "time"

// Donation categories, sources and statuses for the public revenue ledger.
const (
	DonationCategoryDonation    = "doacao"
	DonationCategorySponsorship = "patrocinio"
	DonationCategoryEvent       = "evento"
	DonationCategorySale        = "venda"
	DonationCategoryGrant       = "subvencao"
	DonationCategoryOther       = "outros"

	DonationStatusPending   = "pendente"
	DonationStatusConfirmed = "confirmado"
	DonationStatusCancelled = "cancelado"
)

// DonationSource identifies who the money came from. Stored as JSONB.
type DonationSource struct {
	Nome      string `json:"nome,omitempty"`
	Tipo      string `json:"tipo,omitempty"` // pessoa_fisica, pessoa_juridica, governo, organizacao, anonimo
	Documento string `json:"documento,omitempty"`
	Email     string `json:"email,omitempty"`
	Telefone  string `json:"telefone,omitempty"`
}

// DonationTransaction holds payment details. Stored as JSONB.
type DonationTransaction struct {
	Tipo         string `json:"tipo,omitempty"` // dinheiro, transferencia, pix, cartao, cheque, outros
	NumeroRecibo string `json:"numeroRecibo,omitempty"`
	Comprovante  string `json:"comprovante,omitempty"`
	Observacoes  string `json:"observacoes,omitempty"`
}

// Donation is a single revenue entry (receita) in the public ledger. It is
// served as-is on the transparency page, hence the Portuguese field names.
type Donation struct {
	ID          string               `json:"id"`
	Title       string               `json:"titulo"`
	Description string               `json:"descricao,omitempty"`
	Category    string               `json:"categoria"`
	Amount      float64              `json:"valor"`
	Currency    string               `json:"moeda"`
	ReceivedAt  time.Time            `json:"dataRecebimento"`
	Source      *DonationSource      `json:"fonte,omitempty"`
	Transaction *DonationTransaction `json:"transacao,omitempty"`
	Project     string               `json:"projeto,omitempty"`
	Status      string               `json:"status"`
	Visible     bool                 `json:"visivel"`
	Featured    bool                 `json:"destaque"`
	CreatedBy   string               `json:"criadoPor,omitempty"`
	UpdatedBy   string               `json:"atualizadoPor,omitempty"`
	CreatedAt   time.Time            `json:"criadoEm"`
	UpdatedAt   time.Time            `json:"atualizadoEm"`
}

// DonationCategoryTotal aggregates confirmed entries for one category.
type DonationCategoryTotal struct {
	Category string  `json:"categoria"`
	Total    float64 `json:"total"`
	Count    int     `json:"quantidade"`
}

// DonationMonthlyTotal aggregates confirmed entries for one month of a year.
type DonationMonthlyTotal struct {
	Year  int     `json:"ano"`
	Month int     `json:"mes"`
	Total float64 `json:"total"`
	Count int     `json:"quantidade"`
}

// DonationStats is the ledger-wide summary shown on the transparency page.
type DonationStats struct {
	Total    float64 `json:"totalGeral"`
	Count    int     `json:"totalReceitas"`
	Average  float64 `json:"mediaReceita"`
	Largest  float64 `json:"maiorReceita"`
	Smallest float64 `json:"menorReceita"`
}
