package services

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	qrcode "github.com/skip2/go-qrcode"

	"github.com/escola-solidaria/solidaria-api/internal/auth"
	"github.com/escola-solidaria/solidaria-api/internal/models"
	pkglogger "github.com/escola-solidaria/solidaria-api/pkg/logger"
)

// CardRepository persists member cards.
type CardRepository interface {
	GetByStudent(ctx context.Context, studentID string) (*models.MemberCard, error)
	GetByNumber(ctx context.Context, number string) (*models.MemberCard, error)
	Create(ctx context.Context, card *models.MemberCard) (*models.MemberCard, error)
	Sync(ctx context.Context, card *models.MemberCard) (*models.MemberCard, error)
	UpdateStatus(ctx context.Context, studentID, status string) (*models.MemberCard, error)
	Renew(ctx context.Context, studentID string, validUntil time.Time, qrCode string) (*models.MemberCard, error)
	CountIssuedInYear(ctx context.Context, year int) (int, error)
	ExpireOverdue(ctx context.Context) (int64, error)
}

// cardStudentRepository is the slice of the student repository the card
// flow reads from.
type cardStudentRepository interface {
	GetByID(ctx context.Context, id string) (*models.Student, error)
}

// CardService issues and validates student ID cards.
type CardService struct {
	repo        CardRepository
	students    cardStudentRepository
	logger      *slog.Logger
	auditLogger *pkglogger.AuditLogger
}

func NewCardService(repo CardRepository, students cardStudentRepository, logger *slog.Logger, auditLogger *pkglogger.AuditLogger) *CardService {
	return &CardService{
		repo:        repo,
		students:    students,
		logger:      logger,
		auditLogger: auditLogger,
	}
}

// Issue creates the card for an enrolled student. Each student has at most
// one card; re-issuing an existing one is a conflict (use Renew instead).
func (s *CardService) Issue(ctx context.Context, studentID string, emergency *models.EmergencyContact) (*models.MemberCard, error) {
	student, err := s.students.GetByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to get student", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if student.Status != models.StudentStatusEnrolled || student.EnrollmentNo == "" {
		return nil, models.ErrBadRequest
	}

	if _, err := s.repo.GetByStudent(ctx, studentID); err == nil {
		return nil, models.ErrConflict
	} else if !errors.Is(err, models.ErrNotFound) {
		s.logger.Error("failed to check existing card", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	number, err := s.nextCardNumber(ctx)
	if err != nil {
		s.logger.Error("failed to generate card number", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	now := time.Now()
	validUntil := now.Add(models.CardValidity)

	qrCode, err := encodeCardQR(number, validUntil)
	if err != nil {
		s.logger.Error("failed to encode card qr", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	card, err := s.repo.Create(ctx, &models.MemberCard{
		StudentID:    studentID,
		Number:       number,
		Photo:        student.PhotoURL,
		FullName:     student.FullName,
		BirthDate:    student.BirthDate,
		CPF:          student.CPF,
		RG:           student.RG,
		BloodType:    student.BloodType,
		EnrollmentNo: student.EnrollmentNo,
		IssuedAt:     now,
		ValidUntil:   validUntil,
		Emergency:    emergency,
		QRCode:       qrCode,
		Status:       models.CardStatusActive,
	})
	if err != nil {
		if errors.Is(err, models.ErrConflict) {
			return nil, models.ErrConflict
		}
		s.logger.Error("failed to create card", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.auditLogger.LogAccountAction("card_issued", auth.KindStudent, studentID,
		map[string]string{"card_number": number})

	return card, nil
}

func (s *CardService) GetByStudent(ctx context.Context, studentID string) (*models.MemberCard, error) {
	card, err := s.repo.GetByStudent(ctx, studentID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to get card", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return card, nil
}

// Sync refreshes the personal snapshot after a profile change.
func (s *CardService) Sync(ctx context.Context, studentID string) (*models.MemberCard, error) {
	student, err := s.students.GetByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to get student", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	card, err := s.repo.Sync(ctx, &models.MemberCard{
		StudentID: studentID,
		Photo:     student.PhotoURL,
		FullName:  student.FullName,
		BirthDate: student.BirthDate,
		CPF:       student.CPF,
		RG:        student.RG,
		BloodType: student.BloodType,
	})
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to sync card", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	return card, nil
}

// Renew extends validity for another full period and reactivates the card.
func (s *CardService) Renew(ctx context.Context, studentID string) (*models.MemberCard, error) {
	card, err := s.repo.GetByStudent(ctx, studentID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to get card", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if card.Status == models.CardStatusCancelled {
		return nil, models.ErrBadRequest
	}

	validUntil := time.Now().Add(models.CardValidity)

	qrCode, err := encodeCardQR(card.Number, validUntil)
	if err != nil {
		s.logger.Error("failed to encode card qr", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	renewed, err := s.repo.Renew(ctx, studentID, validUntil, qrCode)
	if err != nil {
		s.logger.Error("failed to renew card", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.auditLogger.LogAccountAction("card_renewed", auth.KindStudent, studentID,
		map[string]string{"card_number": renewed.Number})

	return renewed, nil
}

// UpdateStatus cancels or suspends a card.
func (s *CardService) UpdateStatus(ctx context.Context, studentID, status string) (*models.MemberCard, error) {
	switch status {
	case models.CardStatusActive, models.CardStatusCancelled, models.CardStatusSuspended:
	default:
		return nil, models.ErrBadRequest
	}

	card, err := s.repo.UpdateStatus(ctx, studentID, status)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to update card status", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	return card, nil
}

// CardValidationResponse is the public check returned for a scanned card.
type CardValidationResponse struct {
	Valida          bool      `json:"valida"`
	Numero          string    `json:"numero"`
	NomeCompleto    string    `json:"nomeCompleto,omitempty"`
	NumeroMatricula string    `json:"numeroMatricula,omitempty"`
	Status          string    `json:"status"`
	DataValidade    time.Time `json:"dataValidade"`
}

// Validate is the public endpoint behind the QR code: given a card number
// it reports whether the card is currently valid.
func (s *CardService) Validate(ctx context.Context, number string) (*CardValidationResponse, error) {
	card, err := s.repo.GetByNumber(ctx, number)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to get card by number", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	valid := card.Status == models.CardStatusActive && time.Now().Before(card.ValidUntil)

	resp := &CardValidationResponse{
		Valida:       valid,
		Numero:       card.Number,
		Status:       card.Status,
		DataValidade: card.ValidUntil,
	}
	if valid {
		resp.NomeCompleto = card.FullName
		resp.NumeroMatricula = card.EnrollmentNo
	}

	return resp, nil
}

// ExpireOverdue is run by the background sweep.
func (s *CardService) ExpireOverdue(ctx context.Context) (int64, error) {
	return s.repo.ExpireOverdue(ctx)
}

// nextCardNumber yields "CART<year><5-digit sequence>", e.g. CART202600042.
func (s *CardService) nextCardNumber(ctx context.Context) (string, error) {
	year := time.Now().Year()
	count, err := s.repo.CountIssuedInYear(ctx, year)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("CART%d%05d", year, count+1), nil
}

// encodeCardQR renders the validation payload as a base64 PNG.
func encodeCardQR(number string, validUntil time.Time) (string, error) {
	payload, err := json.Marshal(map[string]string{
		"numero":   number,
		"validade": validUntil.Format("2006-01-02"),
	})
	if err != nil {
		return "", err
	}

	png, err := qrcode.Encode(string(payload), qrcode.Medium, 256)
	if err != nil {
		return "", err
	}

	return base64.StdEncoding.EncodeToString(png), nil
}
