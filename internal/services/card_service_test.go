package services

import (
	"context"
	"encoding/base64"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/escola-solidaria/solidaria-api/internal/models"
)

func enrolledStudent() *models.Student {
	return &models.Student{
		ID:           "aluno-1",
		FullName:     "João Silva",
		CPF:          "123.456.789-00",
		BirthDate:    time.Date(2008, 3, 15, 0, 0, 0, 0, time.UTC),
		Status:       models.StudentStatusEnrolled,
		EnrollmentNo: "202600001",
		Active:       true,
	}
}

func newCardService(repo *MockCardRepository, students *MockStudentRepository) *CardService {
	return NewCardService(repo, students, newTestLogger(), newTestAuditLogger())
}

func TestCardService_Issue(t *testing.T) {
	year := time.Now().Year()
	repo := &MockCardRepository{
		CountIssuedInYearFunc: func(ctx context.Context, y int) (int, error) {
			assert.Equal(t, year, y)
			return 41, nil
		},
		CreateFunc: func(ctx context.Context, card *models.MemberCard) (*models.MemberCard, error) {
			card.ID = "card-1"
			return card, nil
		},
	}
	students := &MockStudentRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*models.Student, error) {
			return enrolledStudent(), nil
		},
	}
	service := newCardService(repo, students)

	card, err := service.Issue(context.Background(), "aluno-1", nil)

	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("CART%d00042", year), card.Number)
	assert.Equal(t, models.CardStatusActive, card.Status)
	assert.Equal(t, "João Silva", card.FullName)
	assert.WithinDuration(t, time.Now().Add(models.CardValidity), card.ValidUntil, 5*time.Second)

	// QR payload is a real base64 PNG
	png, err := base64.StdEncoding.DecodeString(card.QRCode)
	require.NoError(t, err)
	assert.Equal(t, []byte("\x89PNG"), png[:4])
}

func TestCardService_Issue_RequiresEnrollment(t *testing.T) {
	students := &MockStudentRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*models.Student, error) {
			s := enrolledStudent()
			s.Status = models.StudentStatusPreEnrollment
			s.EnrollmentNo = ""
			return s, nil
		},
	}
	service := newCardService(&MockCardRepository{}, students)

	_, err := service.Issue(context.Background(), "aluno-1", nil)

	assert.ErrorIs(t, err, models.ErrBadRequest)
}

func TestCardService_Issue_AlreadyIssued(t *testing.T) {
	repo := &MockCardRepository{
		GetByStudentFunc: func(ctx context.Context, studentID string) (*models.MemberCard, error) {
			return &models.MemberCard{ID: "card-1"}, nil
		},
	}
	students := &MockStudentRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*models.Student, error) {
			return enrolledStudent(), nil
		},
	}
	service := newCardService(repo, students)

	_, err := service.Issue(context.Background(), "aluno-1", nil)

	assert.ErrorIs(t, err, models.ErrConflict)
}

func TestCardService_Validate(t *testing.T) {
	tests := []struct {
		name      string
		card      models.MemberCard
		wantValid bool
	}{
		{
			"active and in date",
			models.MemberCard{Number: "CART202600001", FullName: "João Silva", EnrollmentNo: "202600001",
				Status: models.CardStatusActive, ValidUntil: time.Now().Add(24 * time.Hour)},
			true,
		},
		{
			"past validity",
			models.MemberCard{Number: "CART202500001", Status: models.CardStatusActive,
				ValidUntil: time.Now().Add(-time.Hour)},
			false,
		},
		{
			"cancelled",
			models.MemberCard{Number: "CART202600002", Status: models.CardStatusCancelled,
				ValidUntil: time.Now().Add(24 * time.Hour)},
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &MockCardRepository{
				GetByNumberFunc: func(ctx context.Context, number string) (*models.MemberCard, error) {
					return &tt.card, nil
				},
			}
			service := newCardService(repo, &MockStudentRepository{})

			resp, err := service.Validate(context.Background(), tt.card.Number)

			require.NoError(t, err)
			assert.Equal(t, tt.wantValid, resp.Valida)
			if !tt.wantValid {
				// Personal data is withheld for invalid cards
				assert.Empty(t, resp.NomeCompleto)
			}
		})
	}
}

func TestCardService_Renew(t *testing.T) {
	repo := &MockCardRepository{
		GetByStudentFunc: func(ctx context.Context, studentID string) (*models.MemberCard, error) {
			return &models.MemberCard{Number: "CART202500010", Status: models.CardStatusExpired}, nil
		},
		RenewFunc: func(ctx context.Context, studentID string, validUntil time.Time, qrCode string) (*models.MemberCard, error) {
			return &models.MemberCard{
				Number: "CART202500010", Status: models.CardStatusActive,
				ValidUntil: validUntil, QRCode: qrCode, Version: 2,
			}, nil
		},
	}
	service := newCardService(repo, &MockStudentRepository{})

	card, err := service.Renew(context.Background(), "aluno-1")

	require.NoError(t, err)
	assert.Equal(t, models.CardStatusActive, card.Status)
	assert.Equal(t, 2, card.Version)
	assert.WithinDuration(t, time.Now().Add(models.CardValidity), card.ValidUntil, 5*time.Second)
}

func TestCardService_Renew_CancelledCard(t *testing.T) {
	repo := &MockCardRepository{
		GetByStudentFunc: func(ctx context.Context, studentID string) (*models.MemberCard, error) {
			return &models.MemberCard{Status: models.CardStatusCancelled}, nil
		},
	}
	service := newCardService(repo, &MockStudentRepository{})

	_, err := service.Renew(context.Background(), "aluno-1")

	assert.ErrorIs(t, err, models.ErrBadRequest)
}
