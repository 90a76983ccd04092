package services

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"time"

	"github.com/escola-solidaria/solidaria-api/internal/auth"
	"github.com/escola-solidaria/solidaria-api/internal/models"
	"github.com/escola-solidaria/solidaria-api/internal/repositories"
	pkglogger "github.com/escola-solidaria/solidaria-api/pkg/logger"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestAuditLogger() *pkglogger.AuditLogger {
	return pkglogger.NewAuditLogger(newTestLogger())
}

func newTestTokenManager() *auth.TokenManager {
	return auth.NewTokenManager("test-secret-key-with-enough-length", time.Hour)
}

// MockStudentRepository implements StudentRepository for testing
type MockStudentRepository struct {
	GetByIDFunc             func(ctx context.Context, id string) (*models.Student, error)
	GetByHandleFunc         func(ctx context.Context, handle string) (*models.Student, error)
	CreateFunc              func(ctx context.Context, student *models.Student) (*models.Student, error)
	UpdatePasswordFunc      func(ctx context.Context, id, passwordHash string, firstLogin bool) error
	UpdateLockStateFunc     func(ctx context.Context, id string, state auth.LockState) error
	RecordLoginFunc         func(ctx context.Context, id string) error
	ListFunc                func(ctx context.Context, filter repositories.StudentFilter) ([]*models.Student, error)
	CountFunc               func(ctx context.Context, filter repositories.StudentFilter) (int, error)
	UpdateFunc              func(ctx context.Context, id string, student *models.Student) (*models.Student, error)
	EnrollFunc              func(ctx context.Context, id, enrollmentNo string) (*models.Student, error)
	CountEnrolledInYearFunc func(ctx context.Context, year int) (int, error)
	SetFormFilledFunc       func(ctx context.Context, id string, filled bool) error
	SetDocsSubmittedFunc    func(ctx context.Context, id string, submitted bool) error
	DeactivateFunc          func(ctx context.Context, id string) error
	ReactivateFunc          func(ctx context.Context, id string) (*models.Student, error)
	CountsByStatusFunc      func(ctx context.Context) (map[string]int, error)
	CountPendingDocsFunc    func(ctx context.Context) (int, error)
}

func (m *MockStudentRepository) GetByID(ctx context.Context, id string) (*models.Student, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockStudentRepository) GetByHandle(ctx context.Context, handle string) (*models.Student, error) {
	if m.GetByHandleFunc != nil {
		return m.GetByHandleFunc(ctx, handle)
	}
	return nil, models.ErrNotFound
}

func (m *MockStudentRepository) Create(ctx context.Context, student *models.Student) (*models.Student, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, student)
	}
	return nil, models.ErrInternalServer
}

func (m *MockStudentRepository) UpdatePassword(ctx context.Context, id, passwordHash string, firstLogin bool) error {
	if m.UpdatePasswordFunc != nil {
		return m.UpdatePasswordFunc(ctx, id, passwordHash, firstLogin)
	}
	return nil
}

func (m *MockStudentRepository) UpdateLockState(ctx context.Context, id string, state auth.LockState) error {
	if m.UpdateLockStateFunc != nil {
		return m.UpdateLockStateFunc(ctx, id, state)
	}
	return nil
}

func (m *MockStudentRepository) RecordLogin(ctx context.Context, id string) error {
	if m.RecordLoginFunc != nil {
		return m.RecordLoginFunc(ctx, id)
	}
	return nil
}

func (m *MockStudentRepository) List(ctx context.Context, filter repositories.StudentFilter) ([]*models.Student, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, filter)
	}
	return []*models.Student{}, nil
}

func (m *MockStudentRepository) Count(ctx context.Context, filter repositories.StudentFilter) (int, error) {
	if m.CountFunc != nil {
		return m.CountFunc(ctx, filter)
	}
	return 0, nil
}

func (m *MockStudentRepository) Update(ctx context.Context, id string, student *models.Student) (*models.Student, error) {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, id, student)
	}
	return nil, models.ErrInternalServer
}

func (m *MockStudentRepository) Enroll(ctx context.Context, id, enrollmentNo string) (*models.Student, error) {
	if m.EnrollFunc != nil {
		return m.EnrollFunc(ctx, id, enrollmentNo)
	}
	return nil, models.ErrInternalServer
}

func (m *MockStudentRepository) CountEnrolledInYear(ctx context.Context, year int) (int, error) {
	if m.CountEnrolledInYearFunc != nil {
		return m.CountEnrolledInYearFunc(ctx, year)
	}
	return 0, nil
}

func (m *MockStudentRepository) SetFormFilled(ctx context.Context, id string, filled bool) error {
	if m.SetFormFilledFunc != nil {
		return m.SetFormFilledFunc(ctx, id, filled)
	}
	return nil
}

func (m *MockStudentRepository) SetDocsSubmitted(ctx context.Context, id string, submitted bool) error {
	if m.SetDocsSubmittedFunc != nil {
		return m.SetDocsSubmittedFunc(ctx, id, submitted)
	}
	return nil
}

func (m *MockStudentRepository) Deactivate(ctx context.Context, id string) error {
	if m.DeactivateFunc != nil {
		return m.DeactivateFunc(ctx, id)
	}
	return nil
}

func (m *MockStudentRepository) Reactivate(ctx context.Context, id string) (*models.Student, error) {
	if m.ReactivateFunc != nil {
		return m.ReactivateFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockStudentRepository) CountsByStatus(ctx context.Context) (map[string]int, error) {
	if m.CountsByStatusFunc != nil {
		return m.CountsByStatusFunc(ctx)
	}
	return map[string]int{}, nil
}

func (m *MockStudentRepository) CountPendingDocs(ctx context.Context) (int, error) {
	if m.CountPendingDocsFunc != nil {
		return m.CountPendingDocsFunc(ctx)
	}
	return 0, nil
}

// MockStaffRepository implements StaffAuthRepository for testing
type MockStaffRepository struct {
	GetByIDFunc         func(ctx context.Context, id string) (*models.StaffUser, error)
	GetByEmailFunc      func(ctx context.Context, email string) (*models.StaffUser, error)
	CreateFunc          func(ctx context.Context, user *models.StaffUser) (*models.StaffUser, error)
	UpdateProfileFunc   func(ctx context.Context, id, name, avatarURL string) (*models.StaffUser, error)
	UpdatePasswordFunc  func(ctx context.Context, id, passwordHash string) error
	UpdateLockStateFunc func(ctx context.Context, id string, state auth.LockState) error
	RecordLoginFunc     func(ctx context.Context, id string) error
	CountFunc           func(ctx context.Context) (int, error)
}

func (m *MockStaffRepository) GetByID(ctx context.Context, id string) (*models.StaffUser, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockStaffRepository) GetByEmail(ctx context.Context, email string) (*models.StaffUser, error) {
	if m.GetByEmailFunc != nil {
		return m.GetByEmailFunc(ctx, email)
	}
	return nil, models.ErrNotFound
}

func (m *MockStaffRepository) Create(ctx context.Context, user *models.StaffUser) (*models.StaffUser, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, user)
	}
	return nil, models.ErrInternalServer
}

func (m *MockStaffRepository) UpdateProfile(ctx context.Context, id, name, avatarURL string) (*models.StaffUser, error) {
	if m.UpdateProfileFunc != nil {
		return m.UpdateProfileFunc(ctx, id, name, avatarURL)
	}
	return nil, models.ErrInternalServer
}

func (m *MockStaffRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	if m.UpdatePasswordFunc != nil {
		return m.UpdatePasswordFunc(ctx, id, passwordHash)
	}
	return nil
}

func (m *MockStaffRepository) UpdateLockState(ctx context.Context, id string, state auth.LockState) error {
	if m.UpdateLockStateFunc != nil {
		return m.UpdateLockStateFunc(ctx, id, state)
	}
	return nil
}

func (m *MockStaffRepository) RecordLogin(ctx context.Context, id string) error {
	if m.RecordLoginFunc != nil {
		return m.RecordLoginFunc(ctx, id)
	}
	return nil
}

func (m *MockStaffRepository) Count(ctx context.Context) (int, error) {
	if m.CountFunc != nil {
		return m.CountFunc(ctx)
	}
	return 0, nil
}

// MockDocumentRepository implements DocumentRepository for testing
type MockDocumentRepository struct {
	GetByIDFunc       func(ctx context.Context, id string) (*models.Document, error)
	ListByStudentFunc func(ctx context.Context, studentID string) ([]*models.Document, error)
	ActiveTypesFunc   func(ctx context.Context, studentID string) ([]string, error)
	CreateFunc        func(ctx context.Context, doc *models.Document) (*models.Document, error)
	ReviewFunc        func(ctx context.Context, id, status, reason, reviewerID string) (*models.Document, error)
	DeactivateFunc    func(ctx context.Context, id string) error
}

func (m *MockDocumentRepository) GetByID(ctx context.Context, id string) (*models.Document, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockDocumentRepository) ListByStudent(ctx context.Context, studentID string) ([]*models.Document, error) {
	if m.ListByStudentFunc != nil {
		return m.ListByStudentFunc(ctx, studentID)
	}
	return []*models.Document{}, nil
}

func (m *MockDocumentRepository) ActiveTypes(ctx context.Context, studentID string) ([]string, error) {
	if m.ActiveTypesFunc != nil {
		return m.ActiveTypesFunc(ctx, studentID)
	}
	return []string{}, nil
}

func (m *MockDocumentRepository) Create(ctx context.Context, doc *models.Document) (*models.Document, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, doc)
	}
	return nil, models.ErrInternalServer
}

func (m *MockDocumentRepository) Review(ctx context.Context, id, status, reason, reviewerID string) (*models.Document, error) {
	if m.ReviewFunc != nil {
		return m.ReviewFunc(ctx, id, status, reason, reviewerID)
	}
	return nil, models.ErrInternalServer
}

func (m *MockDocumentRepository) Deactivate(ctx context.Context, id string) error {
	if m.DeactivateFunc != nil {
		return m.DeactivateFunc(ctx, id)
	}
	return nil
}

// MockCardRepository implements CardRepository for testing
type MockCardRepository struct {
	GetByStudentFunc      func(ctx context.Context, studentID string) (*models.MemberCard, error)
	GetByNumberFunc       func(ctx context.Context, number string) (*models.MemberCard, error)
	CreateFunc            func(ctx context.Context, card *models.MemberCard) (*models.MemberCard, error)
	SyncFunc              func(ctx context.Context, card *models.MemberCard) (*models.MemberCard, error)
	UpdateStatusFunc      func(ctx context.Context, studentID, status string) (*models.MemberCard, error)
	RenewFunc             func(ctx context.Context, studentID string, validUntil time.Time, qrCode string) (*models.MemberCard, error)
	CountIssuedInYearFunc func(ctx context.Context, year int) (int, error)
	ExpireOverdueFunc     func(ctx context.Context) (int64, error)
}

func (m *MockCardRepository) GetByStudent(ctx context.Context, studentID string) (*models.MemberCard, error) {
	if m.GetByStudentFunc != nil {
		return m.GetByStudentFunc(ctx, studentID)
	}
	return nil, models.ErrNotFound
}

func (m *MockCardRepository) GetByNumber(ctx context.Context, number string) (*models.MemberCard, error) {
	if m.GetByNumberFunc != nil {
		return m.GetByNumberFunc(ctx, number)
	}
	return nil, models.ErrNotFound
}

func (m *MockCardRepository) Create(ctx context.Context, card *models.MemberCard) (*models.MemberCard, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, card)
	}
	return nil, models.ErrInternalServer
}

func (m *MockCardRepository) Sync(ctx context.Context, card *models.MemberCard) (*models.MemberCard, error) {
	if m.SyncFunc != nil {
		return m.SyncFunc(ctx, card)
	}
	return nil, models.ErrInternalServer
}

func (m *MockCardRepository) UpdateStatus(ctx context.Context, studentID, status string) (*models.MemberCard, error) {
	if m.UpdateStatusFunc != nil {
		return m.UpdateStatusFunc(ctx, studentID, status)
	}
	return nil, models.ErrInternalServer
}

func (m *MockCardRepository) Renew(ctx context.Context, studentID string, validUntil time.Time, qrCode string) (*models.MemberCard, error) {
	if m.RenewFunc != nil {
		return m.RenewFunc(ctx, studentID, validUntil, qrCode)
	}
	return nil, models.ErrInternalServer
}

func (m *MockCardRepository) CountIssuedInYear(ctx context.Context, year int) (int, error) {
	if m.CountIssuedInYearFunc != nil {
		return m.CountIssuedInYearFunc(ctx, year)
	}
	return 0, nil
}

func (m *MockCardRepository) ExpireOverdue(ctx context.Context) (int64, error) {
	if m.ExpireOverdueFunc != nil {
		return m.ExpireOverdueFunc(ctx)
	}
	return 0, nil
}

// MockDonationRepository implements DonationRepository for testing
type MockDonationRepository struct {
	GetByIDFunc          func(ctx context.Context, id string) (*models.Donation, error)
	ListFunc             func(ctx context.Context, filter repositories.DonationFilter) ([]*models.Donation, error)
	CountFunc            func(ctx context.Context, filter repositories.DonationFilter) (int, error)
	CreateFunc           func(ctx context.Context, donation *models.Donation) (*models.Donation, error)
	UpdateFunc           func(ctx context.Context, id string, donation *models.Donation) (*models.Donation, error)
	DeleteFunc           func(ctx context.Context, id string) error
	StatsFunc            func(ctx context.Context) (*models.DonationStats, error)
	TotalsByCategoryFunc func(ctx context.Context) ([]models.DonationCategoryTotal, error)
	TotalsByMonthFunc    func(ctx context.Context, year int) ([]models.DonationMonthlyTotal, error)
}

func (m *MockDonationRepository) GetByID(ctx context.Context, id string) (*models.Donation, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockDonationRepository) List(ctx context.Context, filter repositories.DonationFilter) ([]*models.Donation, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, filter)
	}
	return []*models.Donation{}, nil
}

func (m *MockDonationRepository) Count(ctx context.Context, filter repositories.DonationFilter) (int, error) {
	if m.CountFunc != nil {
		return m.CountFunc(ctx, filter)
	}
	return 0, nil
}

func (m *MockDonationRepository) Create(ctx context.Context, donation *models.Donation) (*models.Donation, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, donation)
	}
	return nil, models.ErrInternalServer
}

func (m *MockDonationRepository) Update(ctx context.Context, id string, donation *models.Donation) (*models.Donation, error) {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, id, donation)
	}
	return nil, models.ErrInternalServer
}

func (m *MockDonationRepository) Delete(ctx context.Context, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

func (m *MockDonationRepository) Stats(ctx context.Context) (*models.DonationStats, error) {
	if m.StatsFunc != nil {
		return m.StatsFunc(ctx)
	}
	return &models.DonationStats{}, nil
}

func (m *MockDonationRepository) TotalsByCategory(ctx context.Context) ([]models.DonationCategoryTotal, error) {
	if m.TotalsByCategoryFunc != nil {
		return m.TotalsByCategoryFunc(ctx)
	}
	return []models.DonationCategoryTotal{}, nil
}

func (m *MockDonationRepository) TotalsByMonth(ctx context.Context, year int) ([]models.DonationMonthlyTotal, error) {
	if m.TotalsByMonthFunc != nil {
		return m.TotalsByMonthFunc(ctx, year)
	}
	return []models.DonationMonthlyTotal{}, nil
}

// MockHomeRepository implements HomeRepository for testing
type MockHomeRepository struct {
	GetFunc           func(ctx context.Context) (*models.HomeContent, error)
	UpdateFunc        func(ctx context.Context, id string, content *models.HomeContent) (*models.HomeContent, error)
	UpdateSectionFunc func(ctx context.Context, id, section string, payload json.RawMessage) (*models.HomeContent, error)
	PublishFunc       func(ctx context.Context, id, publishedBy string) (*models.HomeContent, error)
}

func (m *MockHomeRepository) Get(ctx context.Context) (*models.HomeContent, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx)
	}
	return models.DefaultHomeContent(), nil
}

func (m *MockHomeRepository) Update(ctx context.Context, id string, content *models.HomeContent) (*models.HomeContent, error) {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, id, content)
	}
	return content, nil
}

func (m *MockHomeRepository) UpdateSection(ctx context.Context, id, section string, payload json.RawMessage) (*models.HomeContent, error) {
	if m.UpdateSectionFunc != nil {
		return m.UpdateSectionFunc(ctx, id, section, payload)
	}
	return models.DefaultHomeContent(), nil
}

func (m *MockHomeRepository) Publish(ctx context.Context, id, publishedBy string) (*models.HomeContent, error) {
	if m.PublishFunc != nil {
		return m.PublishFunc(ctx, id, publishedBy)
	}
	return models.DefaultHomeContent(), nil
}

// MockEnrollmentFormRepository implements EnrollmentFormRepository for testing
type MockEnrollmentFormRepository struct {
	GetByStudentFunc func(ctx context.Context, studentID string) (*models.EnrollmentForm, error)
	UpsertFunc       func(ctx context.Context, form *models.EnrollmentForm) (*models.EnrollmentForm, error)
}

func (m *MockEnrollmentFormRepository) GetByStudent(ctx context.Context, studentID string) (*models.EnrollmentForm, error) {
	if m.GetByStudentFunc != nil {
		return m.GetByStudentFunc(ctx, studentID)
	}
	return nil, models.ErrNotFound
}

func (m *MockEnrollmentFormRepository) Upsert(ctx context.Context, form *models.EnrollmentForm) (*models.EnrollmentForm, error) {
	if m.UpsertFunc != nil {
		return m.UpsertFunc(ctx, form)
	}
	return form, nil
}
