package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/escola-solidaria/solidaria-api/internal/models"
	"github.com/escola-solidaria/solidaria-api/internal/repositories"
)

func newStudentService(repo *MockStudentRepository, forms *MockEnrollmentFormRepository) *StudentService {
	if forms == nil {
		forms = &MockEnrollmentFormRepository{}
	}
	return NewStudentService(repo, forms, newTestLogger(), newTestAuditLogger())
}

func readyStudent() *models.Student {
	return &models.Student{
		ID:            "aluno-1",
		Handle:        "joao.silva",
		FullName:      "João Silva",
		Status:        models.StudentStatusPreEnrollment,
		FormFilled:    true,
		DocsSubmitted: true,
		Active:        true,
	}
}

func TestStudentService_Enroll(t *testing.T) {
	year := time.Now().Year()
	repo := &MockStudentRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*models.Student, error) {
			return readyStudent(), nil
		},
		CountEnrolledInYearFunc: func(ctx context.Context, y int) (int, error) {
			return 7, nil
		},
		EnrollFunc: func(ctx context.Context, id, enrollmentNo string) (*models.Student, error) {
			s := readyStudent()
			s.Status = models.StudentStatusEnrolled
			s.EnrollmentNo = enrollmentNo
			return s, nil
		},
	}
	service := newStudentService(repo, nil)

	resp, err := service.Enroll(context.Background(), "aluno-1")

	require.NoError(t, err)
	assert.Equal(t, models.StudentStatusEnrolled, resp.Status)
	assert.Equal(t, fmt.Sprintf("%d00008", year), resp.NumeroMatricula)
}

func TestStudentService_Enroll_Preconditions(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*models.Student)
		wantErr error
	}{
		{"already enrolled", func(s *models.Student) { s.Status = models.StudentStatusEnrolled }, models.ErrConflict},
		{"form missing", func(s *models.Student) { s.FormFilled = false }, models.ErrBadRequest},
		{"documents missing", func(s *models.Student) { s.DocsSubmitted = false }, models.ErrBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			student := readyStudent()
			tt.mutate(student)
			repo := &MockStudentRepository{
				GetByIDFunc: func(ctx context.Context, id string) (*models.Student, error) {
					return student, nil
				},
			}
			service := newStudentService(repo, nil)

			_, err := service.Enroll(context.Background(), "aluno-1")
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestStudentService_SubmitForm(t *testing.T) {
	var flagged bool
	repo := &MockStudentRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*models.Student, error) {
			return readyStudent(), nil
		},
		SetFormFilledFunc: func(ctx context.Context, id string, filled bool) error {
			flagged = filled
			return nil
		},
	}
	forms := &MockEnrollmentFormRepository{
		UpsertFunc: func(ctx context.Context, form *models.EnrollmentForm) (*models.EnrollmentForm, error) {
			form.ID = "ficha-1"
			return form, nil
		},
	}
	service := newStudentService(repo, forms)

	form, err := service.SubmitForm(context.Background(), "aluno-1", map[string]interface{}{
		"escolaAnterior": "EM João XXIII",
		"serie":          "7º ano",
	})

	require.NoError(t, err)
	assert.Equal(t, "ficha-1", form.ID)
	assert.True(t, flagged)
}

func TestStudentService_SubmitForm_EmptyPayload(t *testing.T) {
	service := newStudentService(&MockStudentRepository{}, nil)

	_, err := service.SubmitForm(context.Background(), "aluno-1", nil)

	assert.ErrorIs(t, err, models.ErrBadRequest)
}

func TestStudentService_List(t *testing.T) {
	repo := &MockStudentRepository{
		ListFunc: func(ctx context.Context, filter repositories.StudentFilter) ([]*models.Student, error) {
			assert.Equal(t, models.StudentStatusEnrolled, filter.Status)
			return []*models.Student{readyStudent()}, nil
		},
		CountFunc: func(ctx context.Context, filter repositories.StudentFilter) (int, error) {
			return 1, nil
		},
	}
	service := newStudentService(repo, nil)

	resp, err := service.List(context.Background(), repositories.StudentFilter{Status: models.StudentStatusEnrolled})

	require.NoError(t, err)
	assert.Equal(t, 1, resp.Total)
	require.Len(t, resp.Alunos, 1)
	assert.Equal(t, "joao.silva", resp.Alunos[0].Usuario)
}

func TestStudentService_Update_PartialFields(t *testing.T) {
	student := readyStudent()
	student.Email = "antigo@escola.org"
	repo := &MockStudentRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*models.Student, error) {
			return student, nil
		},
		UpdateFunc: func(ctx context.Context, id string, s *models.Student) (*models.Student, error) {
			return s, nil
		},
	}
	service := newStudentService(repo, nil)

	resp, err := service.Update(context.Background(), "aluno-1", UpdateStudentRequest{
		Celular: "(11) 99999-0000",
	})

	require.NoError(t, err)
	assert.Equal(t, "(11) 99999-0000", resp.Celular)
	assert.Equal(t, "antigo@escola.org", resp.Email, "untouched fields keep their values")
}

func TestStudentService_Update_BadBirthDate(t *testing.T) {
	repo := &MockStudentRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*models.Student, error) {
			return readyStudent(), nil
		},
	}
	service := newStudentService(repo, nil)

	_, err := service.Update(context.Background(), "aluno-1", UpdateStudentRequest{
		DataNascimento: "15/03/2008",
	})

	assert.ErrorIs(t, err, models.ErrBadRequest)
}

func TestStudentService_Reactivate(t *testing.T) {
	repo := &MockStudentRepository{
		ReactivateFunc: func(ctx context.Context, id string) (*models.Student, error) {
			student := readyStudent()
			student.ID = id
			student.Active = true
			student.Status = models.StudentStatusEnrolled
			return student, nil
		},
	}
	service := newStudentService(repo, nil)

	resp, err := service.Reactivate(context.Background(), "aluno-1")

	require.NoError(t, err)
	assert.Equal(t, models.StudentStatusEnrolled, resp.Status)
}

func TestStudentService_Reactivate_NotFound(t *testing.T) {
	service := newStudentService(&MockStudentRepository{}, nil)

	_, err := service.Reactivate(context.Background(), "nope")

	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestStudentService_Stats(t *testing.T) {
	repo := &MockStudentRepository{
		CountsByStatusFunc: func(ctx context.Context) (map[string]int, error) {
			return map[string]int{
				models.StudentStatusEnrolled:      42,
				models.StudentStatusPreEnrollment: 7,
				models.StudentStatusInactive:      3,
			}, nil
		},
		CountPendingDocsFunc: func(ctx context.Context) (int, error) {
			return 5, nil
		},
	}
	service := newStudentService(repo, nil)

	stats, err := service.Stats(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 52, stats.Total)
	assert.Equal(t, 42, stats.PorStatus[models.StudentStatusEnrolled])
	assert.Equal(t, 5, stats.DocumentosPendentes)
}
